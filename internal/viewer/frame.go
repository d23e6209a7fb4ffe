package viewer

import (
	"fmt"
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/retouch/internal/drawing"
	"github.com/example/retouch/internal/history"
	"github.com/example/retouch/internal/notify"
	"github.com/example/retouch/internal/render"
	"github.com/example/retouch/internal/theme"
)

const (
	statusHeight = 22
	checkerSize  = 8
	margin       = 8
)

// fitRect centres src inside area, shrinking it to fit. Images are never
// enlarged.
func fitRect(src, area image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	aw, ah := area.Dx(), area.Dy()
	if sw <= 0 || sh <= 0 || aw <= 0 || ah <= 0 {
		return image.Rectangle{}
	}
	scale := 1.0
	if s := float64(aw) / float64(sw); s < scale {
		scale = s
	}
	if s := float64(ah) / float64(sh); s < scale {
		scale = s
	}
	w := int(float64(sw) * scale)
	h := int(float64(sh) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	x := area.Min.X + (aw-w)/2
	y := area.Min.Y + (ah-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// toCanvas maps a window position inside dst to canvas pixels. ok is false
// when the position falls outside dst.
func toCanvas(x, y float32, dst image.Rectangle, canvas image.Point) (drawing.Point, bool) {
	if dst.Empty() {
		return drawing.Point{}, false
	}
	p := image.Pt(int(x), int(y))
	if !p.In(dst) {
		return drawing.Point{}, false
	}
	sx := float64(canvas.X) / float64(dst.Dx())
	sy := float64(canvas.Y) / float64(dst.Dy())
	return drawing.Pt((float64(x)-float64(dst.Min.X))*sx, (float64(y)-float64(dst.Min.Y))*sy), true
}

// canvasArea is the part of the window left for the image.
func canvasArea(width, height int) image.Rectangle {
	return image.Rect(margin, margin, width-margin, height-statusHeight-margin)
}

func statusText(v history.Values, undo, redo int, loading bool) string {
	flip := func(f float64) string {
		if f < 0 {
			return "on"
		}
		return "off"
	}
	s := fmt.Sprintf("rotate %g°  zoom %d%%  flip-h %s  flip-v %s  undo %d  redo %d",
		v.Rotation, zoomPercent(v.Zoom), flip(v.FlipH), flip(v.FlipV), undo, redo)
	if loading {
		s += "  loading..."
	}
	return s
}

// frame is everything needed to paint one window image.
type frame struct {
	width, height int
	canvas        *image.RGBA
	drawing       image.Image
	status        string
	note          *notify.Notification
	theme         *theme.Theme
}

func paintFrame(dst *image.RGBA, f frame) image.Rectangle {
	th := f.theme
	draw.Draw(dst, dst.Bounds(), image.NewUniform(th.Background), image.Point{}, draw.Src)

	var target image.Rectangle
	if f.canvas != nil {
		target = fitRect(f.canvas.Bounds(), canvasArea(f.width, f.height))
		render.Checkerboard(dst, target, checkerSize, th.CheckerLight, th.CheckerDark)
		xdraw.ApproxBiLinear.Scale(dst, target, f.canvas, f.canvas.Bounds(), draw.Over, nil)
		if f.drawing != nil {
			xdraw.ApproxBiLinear.Scale(dst, target, f.drawing, f.drawing.Bounds(), draw.Over, nil)
		}
	}

	bar := image.Rect(0, f.height-statusHeight, f.width, f.height)
	draw.Draw(dst, bar, image.NewUniform(th.StatusBackground), image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: basicfont.Face7x13}
	baseline := bar.Min.Y + (statusHeight+basicfont.Face7x13.Ascent)/2 - 1
	d.Dot = fixed.P(margin, baseline)
	d.DrawString(f.status)

	if f.note != nil {
		if f.note.Severity == notify.Error {
			d.Src = image.NewUniform(th.StatusError)
		}
		w := d.MeasureString(f.note.Message).Ceil()
		x := f.width - margin - w
		if lo := d.Dot.X.Ceil() + 2*margin; x < lo {
			x = lo
		}
		d.Dot = fixed.P(x, baseline)
		d.DrawString(f.note.Message)
	}
	return target
}
