// Package render rasterises a source image through a geometry.Layout into
// the base canvas layer.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/example/retouch/internal/geometry"
)

// ErrDecode is returned when the source cannot be rendered.
var ErrDecode = errors.New("image not decoded")

// Options configures a render.
type Options struct {
	// Interpolator resamples the source. Nil selects ApproxBiLinear.
	Interpolator xdraw.Interpolator
	// Background fills the canvas before the image is drawn. Nil leaves it
	// transparent.
	Background color.Color
}

// Interpolator returns the resampler registered under name. Unknown names
// report false.
func Interpolator(name string) (xdraw.Interpolator, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "approx", "approxbilinear":
		return xdraw.ApproxBiLinear, true
	case "nearest", "nearestneighbor":
		return xdraw.NearestNeighbor, true
	case "bilinear":
		return xdraw.BiLinear, true
	case "catmullrom":
		return xdraw.CatmullRom, true
	}
	return nil, false
}

// Render allocates a canvas sized to l and draws src through l.Matrix.
func Render(src image.Image, l geometry.Layout, opts Options) (*image.RGBA, error) {
	if src == nil {
		return nil, fmt.Errorf("render: %w", ErrDecode)
	}
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("render: empty source: %w", ErrDecode)
	}
	if l.Width <= 0 || l.Height <= 0 {
		return nil, fmt.Errorf("render: canvas %dx%d: %w", l.Width, l.Height, geometry.ErrEmptyImage)
	}
	dst := image.NewRGBA(image.Rect(0, 0, l.Width, l.Height))
	if opts.Background != nil {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)
	}
	interp := opts.Interpolator
	if interp == nil {
		interp = xdraw.ApproxBiLinear
	}
	// The layout matrix is expressed for a source whose origin is (0,0).
	m := l.Matrix
	if min := src.Bounds().Min; min != (image.Point{}) {
		m[2] -= m[0]*float64(min.X) + m[1]*float64(min.Y)
		m[5] -= m[3]*float64(min.X) + m[4]*float64(min.Y)
	}
	interp.Transform(dst, m, src, src.Bounds(), draw.Over, nil)
	return dst, nil
}

// Checkerboard fills rect of dst with alternating squares of size px.
func Checkerboard(dst draw.Image, rect image.Rectangle, size int, light, dark color.Color) {
	if size <= 0 {
		size = 8
	}
	lu, du := image.NewUniform(light), image.NewUniform(dark)
	for y := rect.Min.Y; y < rect.Max.Y; y += size {
		for x := rect.Min.X; x < rect.Max.X; x += size {
			cell := image.Rect(x, y, x+size, y+size).Intersect(rect)
			src := lu
			if ((x-rect.Min.X)/size+(y-rect.Min.Y)/size)%2 != 0 {
				src = du
			}
			draw.Draw(dst, cell, src, image.Point{}, draw.Src)
		}
	}
}
