package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/retouch/internal/clipboard"
	"github.com/example/retouch/internal/compose"
	"github.com/example/retouch/internal/drawing"
	"github.com/example/retouch/internal/history"
	"github.com/example/retouch/internal/imagesource"
	"github.com/example/retouch/internal/session"
)

// step is one manipulation applied by `retouch apply`.
type step struct {
	token string
	run   func(*session.Session) error
}

type applyCmd struct {
	command
	file          string
	fromClipboard bool
	output        string
	upload        bool
	toClipboard   bool
	color         string
	width         float64
	stroke        string
	server        string

	steps  []step
	points []drawing.Point
}

func parseApplyCmd(args []string, r *root) (*applyCmd, error) {
	c := &applyCmd{command: newCommand(r, "apply")}
	c.fs.Usage = usageFunc(c)
	c.fs.StringVar(&c.file, "file", "", "image file to edit")
	c.fs.BoolVar(&c.fromClipboard, "from-clipboard", false, "edit the image on the clipboard")
	c.fs.StringVar(&c.output, "output", "", "write the result to this file")
	c.fs.BoolVar(&c.upload, "upload", false, "upload the result")
	c.fs.BoolVar(&c.toClipboard, "to-clipboard", false, "copy the result to the clipboard")
	c.fs.StringVar(&c.color, "color", "", "stroke colour for -stroke")
	c.fs.Float64Var(&c.width, "width", 0, "stroke width for -stroke")
	c.fs.StringVar(&c.stroke, "stroke", "", "freehand polyline in canvas pixels: x0,y0,x1,y1,...")
	c.fs.StringVar(&c.server, "server", "", "upload server URL")
	if err := c.fs.Parse(args); err != nil {
		return nil, err
	}
	if (c.file == "") == !c.fromClipboard {
		return nil, fmt.Errorf("apply needs exactly one of -file or -from-clipboard")
	}
	if c.output == "" && !c.upload && !c.toClipboard {
		return nil, fmt.Errorf("nothing to do: use -output, -upload or -to-clipboard")
	}
	steps, err := parseSteps(c.fs.Args())
	if err != nil {
		return nil, err
	}
	c.steps = steps
	if c.stroke != "" {
		if c.points, err = parseStroke(c.stroke); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// parseSteps reads action tokens: kind=value pairs accepted by
// history.ParseAction plus the shorthands fliph, flipv, undo, redo and reset.
func parseSteps(tokens []string) ([]step, error) {
	steps := make([]step, 0, len(tokens))
	for _, tok := range tokens {
		var fn func(*session.Session) error
		switch strings.ToLower(tok) {
		case "fliph", "flip-h":
			fn = (*session.Session).FlipHorizontal
		case "flipv", "flip-v":
			fn = (*session.Session).FlipVertical
		case "undo":
			fn = func(s *session.Session) error { _, err := s.Undo(); return err }
		case "redo":
			fn = func(s *session.Session) error { _, err := s.Redo(); return err }
		case "reset":
			fn = (*session.Session).Reset
		default:
			a, err := history.ParseAction(tok)
			if err != nil {
				return nil, err
			}
			fn = func(s *session.Session) error { return s.Apply(a) }
		}
		steps = append(steps, step{token: tok, run: fn})
	}
	return steps, nil
}

func parseStroke(s string) ([]drawing.Point, error) {
	fields := strings.Split(s, ",")
	if len(fields) < 4 || len(fields)%2 != 0 {
		return nil, fmt.Errorf("stroke needs at least two x,y pairs, got %q", s)
	}
	pts := make([]drawing.Point, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		x, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return nil, fmt.Errorf("stroke x %q: %w", fields[i], err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(fields[i+1]), 64)
		if err != nil {
			return nil, fmt.Errorf("stroke y %q: %w", fields[i+1], err)
		}
		pts = append(pts, drawing.Pt(x, y))
	}
	return pts, nil
}

// outputType picks the encoding for path from its extension. An empty result
// keeps the source format.
func outputType(path string) string {
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	for _, allowed := range imagesource.AllowedTypes {
		if ct == allowed {
			return ct
		}
	}
	return ""
}

func (c *applyCmd) Run() error {
	ctx := context.Background()

	var remote session.Remote
	if c.upload {
		remote = c.client(c.server)
	}
	opts, err := c.sessionOptions(remote)
	if err != nil {
		return err
	}
	if c.color != "" {
		col, err := drawing.ParseColor(c.color)
		if err != nil {
			return err
		}
		opts.StrokeColor = col
	}
	if c.width > 0 {
		opts.StrokeWidth = c.width
	}
	sess := session.New(opts)

	if c.fromClipboard {
		err = sess.Paste(ctx, clipboard.Name)
	} else {
		var f imagesource.File
		if f, err = imagesource.ReadFile(c.file); err == nil {
			err = sess.Attach(ctx, f)
		}
	}
	if err != nil {
		return err
	}

	for _, st := range c.steps {
		if err := st.run(sess); err != nil {
			return fmt.Errorf("%s: %w", st.token, err)
		}
	}
	if len(c.points) > 0 {
		sess.Pointer(drawing.PointerEvent{Type: drawing.Down, Point: c.points[0]})
		for _, p := range c.points[1:] {
			sess.Pointer(drawing.PointerEvent{Type: drawing.Move, Point: p})
		}
		sess.Pointer(drawing.PointerEvent{Type: drawing.Up})
	}

	if c.output != "" {
		if err := c.save(sess, opts.Compose); err != nil {
			return err
		}
	}
	if c.toClipboard {
		if err := sess.CopyToClipboard(); err != nil {
			return err
		}
	}
	if c.upload {
		res, err := sess.Upload(ctx)
		if err != nil {
			return err
		}
		fmt.Println(res.FilePath)
	}
	return nil
}

func (c *applyCmd) save(sess *session.Session, opts compose.Options) error {
	art, err := sess.Compose()
	if err != nil {
		return err
	}
	data := art.Data
	if ct := outputType(c.output); ct != "" && ct != art.ContentType {
		merged, err := sess.Merged()
		if err != nil {
			return err
		}
		if data, err = compose.Encode(merged, ct, opts); err != nil {
			return err
		}
	}
	if err := os.WriteFile(c.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", c.output, err)
	}
	fmt.Fprintf(os.Stderr, "Saved %s\n", c.output)
	return nil
}
