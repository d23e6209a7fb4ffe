// Package drawing implements the freehand drawing layer that sits on top of
// the transformed base image.
package drawing

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// DefaultLineWidth is the stroke width of a new surface, in pixels.
const DefaultLineWidth = 3.0

// State is the stroke state of a Surface.
type State int

const (
	Idle State = iota
	Stroking
)

func (s State) String() string {
	if s == Stroking {
		return "stroking"
	}
	return "idle"
}

// Point is a position on the surface in pixel coordinates.
type Point struct{ X, Y float64 }

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) fixed() fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(p.X * 64), Y: fixed.Int26_6(p.Y * 64)}
}

// Layer is the capability the compositor needs from a drawing layer.
type Layer interface {
	// Snapshot returns a copy of the layer's pixels, or nil when the layer
	// has never been sized.
	Snapshot() image.Image
	Clear()
}

// Surface is a resize-preserving raster buffer that records freehand strokes.
// It is not safe for concurrent use.
type Surface struct {
	buf   *image.RGBA
	state State
	last  Point
	color color.Color
	width float64
}

var _ Layer = (*Surface)(nil)

// Option configures a Surface.
type Option func(*Surface)

// WithColor sets the initial stroke colour.
func WithColor(c color.Color) Option { return func(s *Surface) { s.color = c } }

// WithLineWidth sets the stroke width in pixels.
func WithLineWidth(w float64) Option { return func(s *Surface) { s.width = w } }

// NewSurface returns an idle surface with no buffer. The buffer is created by
// the first Resize to a non-empty size.
func NewSurface(opts ...Option) *Surface {
	s := &Surface{color: DefaultColor, width: DefaultLineWidth}
	for _, o := range opts {
		o(s)
	}
	if s.width <= 0 {
		s.width = DefaultLineWidth
	}
	return s
}

func (s *Surface) State() State { return s.state }

func (s *Surface) Color() color.Color { return s.color }

func (s *Surface) SetColor(c color.Color) {
	if c != nil {
		s.color = c
	}
}

func (s *Surface) LineWidth() float64 { return s.width }

func (s *Surface) SetLineWidth(w float64) {
	if w > 0 {
		s.width = w
	}
}

// Size returns the buffer dimensions.
func (s *Surface) Size() (int, int) {
	if s.buf == nil {
		return 0, 0
	}
	b := s.buf.Bounds()
	return b.Dx(), b.Dy()
}

// Resize reallocates the buffer at w×h and copies the previous content back
// at the top-left corner without scaling. Non-positive sizes are ignored.
func (s *Surface) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	if cw, ch := s.Size(); cw == w && ch == h {
		return
	}
	next := image.NewRGBA(image.Rect(0, 0, w, h))
	if s.buf != nil {
		draw.Draw(next, next.Bounds(), s.buf, image.Point{}, draw.Src)
	}
	s.buf = next
}

// PointerDown starts a stroke at p.
func (s *Surface) PointerDown(p Point) {
	s.state = Stroking
	s.last = p
}

// PointerMove strokes the segment from the previous point to p. Moves while
// idle are ignored.
func (s *Surface) PointerMove(p Point) {
	if s.state != Stroking {
		return
	}
	s.strokeSegment(s.last, p)
	s.last = p
}

// PointerUp ends the current stroke.
func (s *Surface) PointerUp() { s.state = Idle }

// PointerLeave ends the current stroke when the pointer leaves the surface.
func (s *Surface) PointerLeave() { s.state = Idle }

// Clear erases the buffer to transparent. The stroke state is unchanged.
func (s *Surface) Clear() {
	if s.buf == nil {
		return
	}
	for i := range s.buf.Pix {
		s.buf.Pix[i] = 0
	}
}

// Reset erases the buffer and ends any stroke in progress.
func (s *Surface) Reset() {
	s.Clear()
	s.state = Idle
	s.last = Point{}
}

// Snapshot returns a copy of the buffer.
func (s *Surface) Snapshot() image.Image {
	if s.buf == nil {
		return nil
	}
	cp := image.NewRGBA(s.buf.Bounds())
	copy(cp.Pix, s.buf.Pix)
	return cp
}

func (s *Surface) strokeSegment(from, to Point) {
	if s.buf == nil {
		return
	}
	b := s.buf.Bounds()
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), s.buf, b)
	if from == to {
		// A zero-length path has no direction to cap; draw the round dot the
		// cap would have produced.
		filler := rasterx.NewFiller(b.Dx(), b.Dy(), scanner)
		rasterx.AddCircle(from.X, from.Y, s.width/2, filler)
		filler.SetColor(s.color)
		filler.Draw()
		return
	}
	stroker := rasterx.NewStroker(b.Dx(), b.Dy(), scanner)
	stroker.SetStroke(fixed.Int26_6(s.width*64), fixed.Int26_6(4*64), rasterx.RoundCap, nil, rasterx.RoundGap, rasterx.Round)
	stroker.Start(from.fixed())
	stroker.Line(to.fixed())
	stroker.Stop(false)
	stroker.SetColor(s.color)
	stroker.Draw()
}
