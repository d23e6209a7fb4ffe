// Package session holds the state of one editing session: the loaded image,
// its manipulation history, the rendered canvas and the drawing layer.
// Every mutation re-renders the canvas from scratch.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/example/retouch/internal/client"
	"github.com/example/retouch/internal/compose"
	"github.com/example/retouch/internal/drawing"
	"github.com/example/retouch/internal/geometry"
	"github.com/example/retouch/internal/history"
	"github.com/example/retouch/internal/imagesource"
	"github.com/example/retouch/internal/notify"
	"github.com/example/retouch/internal/render"
)

// ErrDisabled is returned for input received while an image is loading or
// uploading, or before any image is loaded.
var ErrDisabled = errors.New("editing is disabled")

// Messages shown to the user.
const (
	MsgNoImage        = "No image loaded"
	MsgComposeFailed  = "Unable to build blob from current canvas"
	MsgUploadFailed   = "Failed to upload image: %v"
	MsgLoadFailed     = "Failed to load image: %v"
	MsgGalleryFailed  = "Failed to fetch images: %v"
	MsgDeleteFailed   = "Failed to delete image: %v"
	MsgClipboardEmpty = "Clipboard does not contain an image"
	MsgCopied         = "Image copied to clipboard"
)

// Remote is the upload server as seen by a session.
type Remote interface {
	Upload(ctx context.Context, a *compose.Artifact) (client.UploadResult, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, fileURL string) (string, error)
	Fetch(ctx context.Context, fileURL string) (imagesource.File, error)
}

// Clipboard moves images to and from the system clipboard.
type Clipboard interface {
	WriteImage(img image.Image) error
	ReadPNG() ([]byte, error)
}

// Options configures a session. Zero values are usable.
type Options struct {
	Remote    Remote
	Clipboard Clipboard
	Sink      notify.Sink
	// Capture grabs the screen area named by a monitor selector.
	Capture func(selector string) (*image.RGBA, error)

	Render  render.Options
	Compose compose.Options

	StrokeColor  color.Color
	StrokeWidth  float64
	HistoryLimit int
}

// Session is safe for concurrent use. Mutations are applied in call order.
type Session struct {
	mu sync.Mutex

	opts    Options
	sink    notify.Sink
	log     *history.Log
	surface *drawing.Surface
	loader  imagesource.Loader

	src     *imagesource.Source
	canvas  *image.RGBA
	layout  geometry.Layout
	loading bool
	gallery []string
}

type discard struct{}

func (discard) Notify(notify.Severity, string) {}

// New creates an empty session.
func New(opts Options) *Session {
	s := &Session{opts: opts, sink: opts.Sink}
	if s.sink == nil {
		s.sink = discard{}
	}
	var logOpts []history.Option
	if opts.HistoryLimit > 0 {
		logOpts = append(logOpts, history.WithLimit(opts.HistoryLimit))
	}
	s.log = history.New(logOpts...)
	var surfOpts []drawing.Option
	if opts.StrokeColor != nil {
		surfOpts = append(surfOpts, drawing.WithColor(opts.StrokeColor))
	}
	if opts.StrokeWidth > 0 {
		surfOpts = append(surfOpts, drawing.WithLineWidth(opts.StrokeWidth))
	}
	s.surface = drawing.NewSurface(surfOpts...)
	return s
}

func (s *Session) disabledLocked() bool { return s.loading || s.src == nil }

// Disabled reports whether manipulation input is currently ignored.
func (s *Session) Disabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabledLocked()
}

// Loading reports whether a decode or upload is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Source returns the current image source, or nil.
func (s *Session) Source() *imagesource.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src
}

// Canvas returns the last successfully rendered base canvas. The returned
// image is never modified by the session.
func (s *Session) Canvas() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canvas
}

// Layout returns the geometry of the current canvas.
func (s *Session) Layout() geometry.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout
}

// Values returns the effective transform values.
func (s *Session) Values() history.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Effective()
}

// History returns the number of undoable and redoable actions.
func (s *Session) History() (undo, redo int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Len(), s.log.RedoLen()
}

// Applied returns a copy of the applied actions, oldest first.
func (s *Session) Applied() []history.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Applied()
}

// rerenderLocked recomputes geometry from the log and redraws the canvas.
// On failure the previous canvas is kept.
func (s *Session) rerenderLocked() error {
	if s.src == nil {
		return nil
	}
	v := s.log.Effective()
	l, canvas, err := s.renderLocked(s.src, v)
	if err != nil {
		return err
	}
	s.layout, s.canvas = l, canvas
	s.surface.Resize(l.Width, l.Height)
	logrus.WithFields(logrus.Fields{
		"width":    l.Width,
		"height":   l.Height,
		"rotation": v.Rotation,
		"zoom":     v.Zoom,
	}).Debug("rendered canvas")
	return nil
}

// renderLocked draws src with v applied without touching session state.
func (s *Session) renderLocked(src *imagesource.Source, v history.Values) (geometry.Layout, *image.RGBA, error) {
	t := geometry.Transform{Rotation: v.Rotation, Zoom: v.Zoom, FlipH: v.FlipH, FlipV: v.FlipV}
	l, err := geometry.ComputeCanvas(src.Width, src.Height, t)
	if err != nil {
		logrus.WithError(err).Warn("compute canvas")
		return geometry.Layout{}, nil, err
	}
	canvas, err := render.Render(src.Image, l, s.opts.Render)
	if err != nil {
		logrus.WithError(err).Warn("render canvas")
		return geometry.Layout{}, nil, err
	}
	return l, canvas, nil
}

func (s *Session) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabledLocked() {
		return ErrDisabled
	}
	if err := fn(); err != nil {
		return err
	}
	return s.rerenderLocked()
}

// Apply appends a to the history.
func (s *Session) Apply(a history.Action) error {
	return s.mutate(func() error { return s.log.Append(a) })
}

// Rotate applies a rotation of deg degrees.
func (s *Session) Rotate(deg float64) error { return s.Apply(history.Rotate(deg)) }

// Zoom applies a zoom factor.
func (s *Session) Zoom(factor float64) error { return s.Apply(history.Zoom(factor)) }

// FlipHorizontal toggles the horizontal flip.
func (s *Session) FlipHorizontal() error {
	return s.mutate(s.log.ToggleHorizontalFlip)
}

// FlipVertical toggles the vertical flip.
func (s *Session) FlipVertical() error {
	return s.mutate(s.log.ToggleVerticalFlip)
}

// Undo steps back one action. Undo with nothing applied resets the history
// and reports false.
func (s *Session) Undo() (bool, error) {
	var ok bool
	err := s.mutate(func() error { ok = s.log.Undo(); return nil })
	return ok, err
}

// Redo reapplies the most recently undone action.
func (s *Session) Redo() (bool, error) {
	var ok bool
	err := s.mutate(func() error { ok = s.log.Redo(); return nil })
	return ok, err
}

// Reset clears the history and the drawing layer.
func (s *Session) Reset() error {
	return s.mutate(func() error {
		s.log.Reset()
		s.surface.Reset()
		return nil
	})
}

// Attach validates and decodes f and makes it the current image. Unsupported
// types and decode failures are reported through the sink and leave the
// session unchanged. A newer Attach supersedes this one.
func (s *Session) Attach(ctx context.Context, f imagesource.File) error {
	if err := imagesource.Validate(f.Name, f.ContentType); err != nil {
		s.sink.Notify(notify.Error, imagesource.ValidationMessage)
		return err
	}
	return s.load(ctx, f.Name, func(ctx context.Context) (*imagesource.Source, error) {
		return imagesource.Decode(ctx, f)
	})
}

// AttachImage makes an already decoded image the current one.
func (s *Session) AttachImage(ctx context.Context, name string, img image.Image) error {
	return s.load(ctx, name, func(context.Context) (*imagesource.Source, error) {
		return imagesource.FromImage(name, img)
	})
}

func (s *Session) load(ctx context.Context, name string, fn func(context.Context) (*imagesource.Source, error)) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	src, err := s.loader.Load(ctx, fn)

	s.mu.Lock()
	defer s.mu.Unlock()
	if errors.Is(err, imagesource.ErrSuperseded) {
		return err
	}
	s.loading = false
	if err != nil {
		logrus.WithError(err).WithField("name", name).Warn("load image")
		if !errors.Is(err, context.Canceled) {
			s.sink.Notify(notify.Error, fmt.Sprintf(MsgLoadFailed, err))
		}
		return err
	}

	l, canvas, err := s.renderLocked(src, history.New().Effective())
	if err != nil {
		s.sink.Notify(notify.Error, fmt.Sprintf(MsgLoadFailed, err))
		return err
	}
	s.src, s.layout, s.canvas = src, l, canvas
	s.log.Reset()
	s.surface.Reset()
	s.surface.Resize(l.Width, l.Height)
	logrus.WithFields(logrus.Fields{"name": src.Name, "width": src.Width, "height": src.Height}).Info("loaded image")
	return nil
}

// Pointer feeds a pointer event to the drawing layer. While the session is
// disabled only Up and Leave get through, so a stroke can still end.
func (s *Session) Pointer(ev drawing.PointerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabledLocked() && ev.Type != drawing.Up && ev.Type != drawing.Leave {
		return
	}
	s.surface.Handle(ev)
}

// Drawing returns a copy of the drawing layer.
func (s *Session) Drawing() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface.Snapshot()
}

func (s *Session) ClearDrawing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface.Clear()
}

func (s *Session) SetStrokeColor(c color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface.SetColor(c)
}

func (s *Session) SetStrokeWidth(w float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface.SetLineWidth(w)
}

func (s *Session) StrokeColor() color.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface.Color()
}

func (s *Session) composeLocked() (*compose.Artifact, error) {
	if s.src == nil || s.canvas == nil {
		return nil, compose.ErrPreconditionFailed
	}
	return compose.Compose(s.canvas, s.surface,
		compose.FileInfo{Name: s.src.Name, ContentType: s.src.ContentType}, s.opts.Compose)
}

// Compose merges the canvas and drawing layer into an upload artifact.
func (s *Session) Compose() (*compose.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composeLocked()
}

// Merged returns the canvas with the drawing layer drawn over it.
func (s *Session) Merged() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.src == nil || s.canvas == nil {
		return nil, compose.ErrPreconditionFailed
	}
	return compose.Merge(s.canvas, s.surface)
}

// Upload composes the current state and sends it to the remote. Editing is
// disabled until the upload finishes. The gallery is refreshed afterwards
// whatever the outcome.
func (s *Session) Upload(ctx context.Context) (client.UploadResult, error) {
	s.mu.Lock()
	if s.src == nil {
		s.mu.Unlock()
		s.sink.Notify(notify.Error, MsgNoImage)
		return client.UploadResult{}, compose.ErrPreconditionFailed
	}
	if s.loading {
		s.mu.Unlock()
		return client.UploadResult{}, ErrDisabled
	}
	if s.opts.Remote == nil {
		s.mu.Unlock()
		return client.UploadResult{}, fmt.Errorf("upload: no server configured")
	}
	artifact, err := s.composeLocked()
	if err != nil {
		s.mu.Unlock()
		logrus.WithError(err).Error("compose upload")
		s.sink.Notify(notify.Error, MsgComposeFailed)
		return client.UploadResult{}, err
	}
	s.loading = true
	s.mu.Unlock()

	res, err := s.opts.Remote.Upload(ctx, artifact)

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()

	if err != nil {
		s.sink.Notify(notify.Error, fmt.Sprintf(MsgUploadFailed, err))
	} else {
		s.sink.Notify(notify.Success, res.Message)
	}
	s.RefreshGallery(ctx)
	return res, err
}

// RefreshGallery reloads the list of uploaded images, most recent first.
// The previous list is kept on failure.
func (s *Session) RefreshGallery(ctx context.Context) ([]string, error) {
	if s.opts.Remote == nil {
		return nil, fmt.Errorf("gallery: no server configured")
	}
	urls, err := s.opts.Remote.List(ctx)
	if err != nil {
		s.sink.Notify(notify.Error, fmt.Sprintf(MsgGalleryFailed, err))
		return nil, err
	}
	s.mu.Lock()
	s.gallery = urls
	s.mu.Unlock()
	return urls, nil
}

// Gallery returns the last fetched list of uploaded images.
func (s *Session) Gallery() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.gallery...)
}

// Open fetches a gallery image and attaches it.
func (s *Session) Open(ctx context.Context, fileURL string) error {
	if s.opts.Remote == nil {
		return fmt.Errorf("open: no server configured")
	}
	f, err := s.opts.Remote.Fetch(ctx, fileURL)
	if err != nil {
		s.sink.Notify(notify.Error, fmt.Sprintf(MsgLoadFailed, err))
		return err
	}
	return s.Attach(ctx, f)
}

// DeleteImage removes a gallery image on the server, then refreshes the
// gallery. The local list only changes through the refresh.
func (s *Session) DeleteImage(ctx context.Context, fileURL string) error {
	if s.opts.Remote == nil {
		return fmt.Errorf("delete: no server configured")
	}
	msg, err := s.opts.Remote.Delete(ctx, fileURL)
	if err != nil {
		s.sink.Notify(notify.Error, fmt.Sprintf(MsgDeleteFailed, err))
		return err
	}
	s.sink.Notify(notify.Success, msg)
	_, err = s.RefreshGallery(ctx)
	return err
}

// CopyToClipboard puts the merged image on the clipboard.
func (s *Session) CopyToClipboard() error {
	if s.opts.Clipboard == nil {
		return fmt.Errorf("copy: no clipboard")
	}
	img, err := s.Merged()
	if err != nil {
		s.sink.Notify(notify.Error, MsgNoImage)
		return err
	}
	if err := s.opts.Clipboard.WriteImage(img); err != nil {
		notify.Errorf(s.sink, "Copy failed: %v", err)
		return err
	}
	s.sink.Notify(notify.Success, MsgCopied)
	return nil
}

// Paste attaches the image on the clipboard.
func (s *Session) Paste(ctx context.Context, name string) error {
	if s.opts.Clipboard == nil {
		return fmt.Errorf("paste: no clipboard")
	}
	data, err := s.opts.Clipboard.ReadPNG()
	if err != nil {
		s.sink.Notify(notify.Error, MsgClipboardEmpty)
		return err
	}
	return s.Attach(ctx, imagesource.File{Name: name, ContentType: "image/png", Data: data})
}

// CaptureScreen attaches a screenshot of the monitor matched by selector.
func (s *Session) CaptureScreen(ctx context.Context, name, selector string) error {
	if s.opts.Capture == nil {
		return fmt.Errorf("capture: not available")
	}
	img, err := s.opts.Capture(selector)
	if err != nil {
		notify.Errorf(s.sink, "Capture failed: %v", err)
		return err
	}
	return s.AttachImage(ctx, name, img)
}
