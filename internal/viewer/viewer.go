// Package viewer is the interactive editor window. It renders a session and
// turns keyboard, mouse and touch input into session calls.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/event/touch"

	"github.com/example/retouch/internal/clipboard"
	"github.com/example/retouch/internal/drawing"
	"github.com/example/retouch/internal/history"
	"github.com/example/retouch/internal/notify"
	"github.com/example/retouch/internal/session"
	"github.com/example/retouch/internal/theme"
)

const (
	minWidth, minHeight = 480, 360
	maxWidth, maxHeight = 1600, 1000
)

// Options configures the window.
type Options struct {
	Title string
	Theme *theme.Theme
	// Status supplies the notification shown in the status bar.
	Status *notify.Recorder
}

// Viewer shows one session.
type Viewer struct {
	sess *session.Session
	opts Options
}

// asyncDone is posted to the event loop when background work finishes.
type asyncDone struct {
	op  string
	err error
}

func New(sess *session.Session, opts Options) *Viewer {
	if opts.Theme == nil {
		opts.Theme = theme.Default()
	}
	if opts.Title == "" {
		opts.Title = "Retouch"
	}
	return &Viewer{sess: sess, opts: opts}
}

// Run opens the window and blocks until it is closed or ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	var err error
	driver.Main(func(s screen.Screen) {
		err = v.main(ctx, s)
	})
	return err
}

func initialSize(canvas *image.RGBA) (int, int) {
	w, h := minWidth, minHeight
	if canvas != nil {
		w = canvas.Bounds().Dx() + 2*margin
		h = canvas.Bounds().Dy() + 2*margin + statusHeight
	}
	return clamp(w, minWidth, maxWidth), clamp(h, minHeight, maxHeight)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (v *Viewer) main(ctx context.Context, s screen.Screen) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	width, height := initialSize(v.sess.Canvas())
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: v.opts.Title})
	if err != nil {
		return fmt.Errorf("new window: %w", err)
	}
	defer w.Release()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			w.Send(lifecycle.Event{To: lifecycle.StageDead})
		case <-done:
		}
	}()

	// Repaints once the current notification has expired.
	expire := time.AfterFunc(time.Hour, func() { w.Send(paint.Event{}) })
	expire.Stop()
	defer expire.Stop()

	var (
		target  image.Rectangle
		pressed bool
	)
	pointer := func(typ drawing.EventType, src drawing.Source, x, y float32) {
		canvas := v.sess.Canvas()
		if canvas == nil {
			return
		}
		p, inside := toCanvas(x, y, target, canvas.Bounds().Size())
		switch typ {
		case drawing.Down:
			if !inside {
				return
			}
			pressed = true
		case drawing.Move:
			if !pressed {
				return
			}
			if !inside {
				pressed = false
				typ = drawing.Leave
			}
		case drawing.Up:
			if !pressed {
				return
			}
			pressed = false
		}
		v.sess.Pointer(drawing.PointerEvent{Type: typ, Point: p, Source: src})
		w.Send(paint.Event{})
	}

	background := func(op string, fn func() error) {
		go func() {
			w.Send(asyncDone{op: op, err: fn()})
		}()
	}

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return nil
			}

		case size.Event:
			width, height = e.WidthPx, e.HeightPx
			w.Send(paint.Event{})

		case paint.Event:
			b, err := s.NewBuffer(image.Pt(width, height))
			if err != nil {
				logrus.WithError(err).Warn("new buffer")
				continue
			}
			target = paintFrame(b.RGBA(), v.snapshot(width, height))
			w.Upload(image.Point{}, b, b.Bounds())
			b.Release()
			w.Publish()

		case asyncDone:
			if e.err != nil {
				logrus.WithError(e.err).WithField("op", e.op).Debug("background task")
			}
			expire.Reset(notify.DisplayDuration)
			w.Send(paint.Event{})

		case mouse.Event:
			if e.Button != mouse.ButtonLeft && e.Direction != mouse.DirNone {
				continue
			}
			switch e.Direction {
			case mouse.DirPress:
				pointer(drawing.Down, drawing.Mouse, e.X, e.Y)
			case mouse.DirNone:
				pointer(drawing.Move, drawing.Mouse, e.X, e.Y)
			case mouse.DirRelease:
				pointer(drawing.Up, drawing.Mouse, e.X, e.Y)
			}

		case touch.Event:
			switch e.Type {
			case touch.TypeBegin:
				pointer(drawing.Down, drawing.Touch, e.X, e.Y)
			case touch.TypeMove:
				pointer(drawing.Move, drawing.Touch, e.X, e.Y)
			case touch.TypeEnd:
				pointer(drawing.Up, drawing.Touch, e.X, e.Y)
			}

		case key.Event:
			cmd, idx := keyCommand(e)
			if cmd == cmdNone {
				continue
			}
			if cmd == cmdQuit {
				return nil
			}
			switch cmd {
			case cmdUpload:
				background("upload", func() error {
					_, err := v.sess.Upload(ctx)
					return err
				})
			case cmdPaste:
				background("paste", func() error {
					return v.sess.Paste(ctx, clipboard.Name)
				})
			default:
				if err := v.dispatch(cmd, idx); err != nil && !errors.Is(err, session.ErrDisabled) {
					logrus.WithError(err).Debug("command")
				}
				if cmd == cmdCopy {
					expire.Reset(notify.DisplayDuration)
				}
			}
			w.Send(paint.Event{})
		}
	}
}

// dispatch runs a synchronous command against the session.
func (v *Viewer) dispatch(cmd command, idx int) error {
	vals := v.sess.Values()
	switch cmd {
	case cmdRotateCW:
		return v.sess.Rotate(stepOption(history.RotationOptions(), vals.Rotation, 1))
	case cmdRotateCCW:
		return v.sess.Rotate(stepOption(history.RotationOptions(), vals.Rotation, -1))
	case cmdZoomIn:
		return v.sess.Zoom(stepOption(history.ZoomOptions(), vals.Zoom, 1))
	case cmdZoomOut:
		return v.sess.Zoom(stepOption(history.ZoomOptions(), vals.Zoom, -1))
	case cmdFlipH:
		return v.sess.FlipHorizontal()
	case cmdFlipV:
		return v.sess.FlipVertical()
	case cmdUndo:
		_, err := v.sess.Undo()
		return err
	case cmdRedo:
		_, err := v.sess.Redo()
		return err
	case cmdReset:
		return v.sess.Reset()
	case cmdCopy:
		return v.sess.CopyToClipboard()
	case cmdClear:
		v.sess.ClearDrawing()
	case cmdColor:
		if p := drawing.Palette(); idx >= 0 && idx < len(p) {
			v.sess.SetStrokeColor(p[idx].Color)
		}
	}
	return nil
}

func (v *Viewer) snapshot(width, height int) frame {
	undo, redo := v.sess.History()
	f := frame{
		width:   width,
		height:  height,
		canvas:  v.sess.Canvas(),
		drawing: v.sess.Drawing(),
		status:  statusText(v.sess.Values(), undo, redo, v.sess.Loading()),
		theme:   v.opts.Theme,
	}
	if f.canvas == nil {
		f.status = session.MsgNoImage
	}
	if v.opts.Status != nil {
		if n, ok := v.opts.Status.Latest(); ok {
			f.note = &n
		}
	}
	return f
}
