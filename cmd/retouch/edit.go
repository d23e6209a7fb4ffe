package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/example/retouch/internal/capture"
	"github.com/example/retouch/internal/clipboard"
	"github.com/example/retouch/internal/imagesource"
	"github.com/example/retouch/internal/session"
	"github.com/example/retouch/internal/viewer"
)

type editCmd struct {
	command
	file          string
	fromClipboard bool
	capture       bool
	monitor       string
	open          string
	server        string
}

func parseEditCmd(args []string, r *root) (*editCmd, error) {
	c := &editCmd{command: newCommand(r, "edit")}
	c.fs.Usage = usageFunc(c)
	c.fs.StringVar(&c.file, "file", "", "image file to edit")
	c.fs.BoolVar(&c.fromClipboard, "from-clipboard", false, "edit the image on the clipboard")
	c.fs.BoolVar(&c.capture, "capture", false, "edit a screenshot")
	c.fs.StringVar(&c.monitor, "monitor", "", "monitor to capture: primary, an index or a name")
	c.fs.StringVar(&c.open, "open", "", "edit an uploaded image, e.g. /uploads/x.png")
	c.fs.StringVar(&c.server, "server", "", "upload server URL")
	if err := c.fs.Parse(args); err != nil {
		return nil, err
	}
	if c.file == "" && c.fs.NArg() == 1 {
		c.file = c.fs.Arg(0)
	} else if c.fs.NArg() > 0 {
		return nil, &UsageError{of: c}
	}
	sources := 0
	for _, set := range []bool{c.file != "", c.fromClipboard, c.capture, c.open != ""} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return nil, fmt.Errorf("choose one of -file, -from-clipboard, -capture or -open")
	}
	return c, nil
}

// load attaches the initial image, if one was requested.
func (c *editCmd) load(ctx context.Context, sess *session.Session) error {
	switch {
	case c.file != "":
		f, err := imagesource.ReadFile(c.file)
		if err != nil {
			return err
		}
		return sess.Attach(ctx, f)
	case c.fromClipboard:
		return sess.Paste(ctx, clipboard.Name)
	case c.capture:
		return sess.CaptureScreen(ctx, capture.Name, c.monitor)
	case c.open != "":
		return sess.Open(ctx, c.open)
	}
	return nil
}

func (c *editCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := c.sessionOptions(c.client(c.server))
	if err != nil {
		return err
	}
	sess := session.New(opts)
	if err := c.load(ctx, sess); err != nil {
		return err
	}
	go func() {
		if _, err := sess.RefreshGallery(ctx); err != nil {
			logrus.WithError(err).Debug("gallery")
		}
	}()

	v := viewer.New(sess, viewer.Options{
		Title:  "Retouch",
		Theme:  c.theme,
		Status: c.recorder,
	})
	return v.Run(ctx)
}
