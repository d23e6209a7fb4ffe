// Package geometry maps an image's natural size and the effective transform
// values onto the size of the canvas and the affine matrix used to draw the
// image onto it.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/image/math/f64"
)

// ErrEmptyImage is returned for images without pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// Transform is the effective value of every transform axis.
type Transform struct {
	Rotation float64 // degrees
	Zoom     float64
	FlipH    float64 // +1 or -1
	FlipV    float64 // +1 or -1
}

// Identity is the transform with every axis at its default.
var Identity = Transform{Rotation: 0, Zoom: 1, FlipH: 1, FlipV: 1}

// Layout is the derived canvas state for one image and transform.
type Layout struct {
	Width, Height int
	// Native is true when the canvas uses the image's own footprint rather
	// than its diagonal.
	Native      bool
	QuarterTurn bool
	Diagonal    float64
	// Matrix maps source pixel coordinates to canvas coordinates.
	Matrix f64.Aff3
}

// Diagonal returns the length of the diagonal of a w×h rectangle.
func Diagonal(w, h int) float64 {
	return math.Hypot(float64(w), float64(h))
}

// IsQuarterTurn reports whether deg is exactly +90 or -90.
func IsQuarterTurn(deg float64) bool {
	return deg == 90 || deg == -90
}

// IsNative reports whether a w×h image rotated by deg keeps a canvas equal
// to its own (possibly swapped) footprint.
func IsNative(w, h int, deg float64) bool {
	switch deg {
	case 0, 180, -180:
		return true
	case 90, -90, 270, -270:
		return w == h
	}
	return false
}

// ComputeCanvas derives the canvas layout for a w×h image.
func ComputeCanvas(w, h int, t Transform) (Layout, error) {
	if w <= 0 || h <= 0 {
		return Layout{}, fmt.Errorf("compute canvas %dx%d: %w", w, h, ErrEmptyImage)
	}
	l := Layout{
		Diagonal:    Diagonal(w, h),
		Native:      IsNative(w, h, t.Rotation),
		QuarterTurn: IsQuarterTurn(t.Rotation),
	}
	switch {
	case l.Native && l.QuarterTurn:
		l.Width, l.Height = h, w
	case l.Native:
		l.Width, l.Height = w, h
	default:
		d := int(math.Ceil(l.Diagonal))
		l.Width, l.Height = d, d
	}
	l.Matrix = drawMatrix(w, h, l.Width, l.Height, t)
	return l, nil
}

// drawMatrix composes, outermost first: move the origin to the canvas
// centre, rotate, scale by zoom with the flip signs folded in, then centre
// the image on the origin. Flips are applied once, inside the zoom scale;
// a separate flip before the rotation would cancel it out.
func drawMatrix(w, h, cw, ch int, t Transform) f64.Aff3 {
	rad := t.Rotation * math.Pi / 180
	m := translate(float64(cw)/2, float64(ch)/2)
	m = mul(m, rotate(rad))
	m = mul(m, scale(t.FlipH*t.Zoom, t.FlipV*t.Zoom))
	m = mul(m, translate(-float64(w)/2, -float64(h)/2))
	return m
}

// Apply maps a source point through the layout matrix.
func (l Layout) Apply(x, y float64) (float64, float64) {
	m := l.Matrix
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

// Inverse returns the canvas-to-source matrix. ok is false for a singular
// matrix, which only happens with a zero zoom.
func (l Layout) Inverse() (f64.Aff3, bool) {
	m := l.Matrix
	det := m[0]*m[4] - m[1]*m[3]
	if det == 0 {
		return f64.Aff3{}, false
	}
	inv := f64.Aff3{
		m[4] / det, -m[1] / det, 0,
		-m[3] / det, m[0] / det, 0,
	}
	inv[2] = -(inv[0]*m[2] + inv[1]*m[5])
	inv[5] = -(inv[3]*m[2] + inv[4]*m[5])
	return inv, true
}

func mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3], a[0]*b[1] + a[1]*b[4], a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3], a[3]*b[1] + a[4]*b[4], a[3]*b[2] + a[4]*b[5] + a[5],
	}
}

func translate(x, y float64) f64.Aff3 { return f64.Aff3{1, 0, x, 0, 1, y} }

func scale(x, y float64) f64.Aff3 { return f64.Aff3{x, 0, 0, 0, y, 0} }

func rotate(rad float64) f64.Aff3 {
	s, c := math.Sincos(rad)
	return f64.Aff3{c, -s, 0, s, c, 0}
}
