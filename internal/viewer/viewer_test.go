package viewer

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"golang.org/x/mobile/event/key"

	"github.com/example/retouch/internal/history"
	"github.com/example/retouch/internal/notify"
	"github.com/example/retouch/internal/session"
	"github.com/example/retouch/internal/theme"
)

func TestKeyCommand(t *testing.T) {
	tests := []struct {
		name string
		ev   key.Event
		want command
		idx  int
	}{
		{"rotate", key.Event{Rune: 'r', Code: key.CodeR, Direction: key.DirPress}, cmdRotateCW, 0},
		{"rotate back", key.Event{Rune: 'R', Code: key.CodeR, Modifiers: key.ModShift, Direction: key.DirPress}, cmdRotateCCW, 0},
		{"zoom in", key.Event{Rune: '+', Direction: key.DirPress}, cmdZoomIn, 0},
		{"zoom in unshifted", key.Event{Rune: '=', Direction: key.DirPress}, cmdZoomIn, 0},
		{"zoom out", key.Event{Rune: '-', Direction: key.DirPress}, cmdZoomOut, 0},
		{"flip h", key.Event{Rune: 'h', Direction: key.DirPress}, cmdFlipH, 0},
		{"flip v", key.Event{Rune: 'v', Direction: key.DirPress}, cmdFlipV, 0},
		{"undo", key.Event{Rune: 'z', Code: key.CodeZ, Modifiers: key.ModControl, Direction: key.DirPress}, cmdUndo, 0},
		{"redo y", key.Event{Code: key.CodeY, Modifiers: key.ModControl, Direction: key.DirPress}, cmdRedo, 0},
		{"redo shift z", key.Event{Code: key.CodeZ, Modifiers: key.ModControl | key.ModShift, Direction: key.DirPress}, cmdRedo, 0},
		{"reset", key.Event{Code: key.CodeR, Modifiers: key.ModControl, Direction: key.DirPress}, cmdReset, 0},
		{"upload", key.Event{Code: key.CodeU, Modifiers: key.ModControl, Direction: key.DirPress}, cmdUpload, 0},
		{"copy", key.Event{Code: key.CodeC, Modifiers: key.ModControl, Direction: key.DirPress}, cmdCopy, 0},
		{"paste", key.Event{Code: key.CodeV, Modifiers: key.ModControl, Direction: key.DirPress}, cmdPaste, 0},
		{"clear", key.Event{Rune: 'c', Code: key.CodeC, Direction: key.DirPress}, cmdClear, 0},
		{"colour", key.Event{Rune: '3', Direction: key.DirPress}, cmdColor, 2},
		{"escape", key.Event{Code: key.CodeEscape, Direction: key.DirPress}, cmdQuit, 0},
		{"q", key.Event{Rune: 'q', Direction: key.DirPress}, cmdQuit, 0},
		{"release ignored", key.Event{Rune: 'r', Direction: key.DirRelease}, cmdNone, 0},
		{"unbound", key.Event{Rune: 'x', Direction: key.DirPress}, cmdNone, 0},
		{"unbound ctrl", key.Event{Code: key.CodeX, Modifiers: key.ModControl, Direction: key.DirPress}, cmdNone, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, idx := keyCommand(tt.ev)
			if got != tt.want || idx != tt.idx {
				t.Fatalf("keyCommand = %v,%d want %v,%d", got, idx, tt.want, tt.idx)
			}
		})
	}
}

func TestStepOption(t *testing.T) {
	rot := history.RotationOptions()
	tests := []struct {
		cur  float64
		dir  int
		want float64
	}{
		{0, 1, 45},
		{0, -1, -45},
		{135, 1, 135},
		{-135, -1, -135},
		{30, 1, 45},
		{30, -1, 0},
	}
	for _, tt := range tests {
		if got := stepOption(rot, tt.cur, tt.dir); got != tt.want {
			t.Errorf("stepOption(%v, %d) = %v want %v", tt.cur, tt.dir, got, tt.want)
		}
	}
	if got := stepOption(history.ZoomOptions(), 1, 1); got != 1.25 {
		t.Errorf("zoom step = %v", got)
	}
	if got := stepOption(nil, 7, 1); got != 7 {
		t.Errorf("empty options = %v", got)
	}
}

func TestFitRect(t *testing.T) {
	tests := []struct {
		src, area, want image.Rectangle
	}{
		{image.Rect(0, 0, 100, 50), image.Rect(0, 0, 200, 200), image.Rect(50, 75, 150, 125)},
		{image.Rect(0, 0, 400, 200), image.Rect(0, 0, 200, 200), image.Rect(0, 50, 200, 150)},
		{image.Rect(0, 0, 100, 400), image.Rect(10, 10, 110, 210), image.Rect(35, 10, 85, 210)},
		{image.Rect(0, 0, 0, 0), image.Rect(0, 0, 10, 10), image.Rectangle{}},
	}
	for _, tt := range tests {
		if got := fitRect(tt.src, tt.area); got != tt.want {
			t.Errorf("fitRect(%v, %v) = %v want %v", tt.src, tt.area, got, tt.want)
		}
	}
}

func TestToCanvas(t *testing.T) {
	dst := image.Rect(10, 20, 60, 120)
	p, ok := toCanvas(35, 70, dst, image.Pt(100, 200))
	if !ok || p.X != 50 || p.Y != 100 {
		t.Fatalf("toCanvas = %v %v", p, ok)
	}
	if _, ok := toCanvas(5, 70, dst, image.Pt(100, 200)); ok {
		t.Fatal("point left of target should be outside")
	}
	if _, ok := toCanvas(5, 5, image.Rectangle{}, image.Pt(1, 1)); ok {
		t.Fatal("empty target should never match")
	}
}

func TestStatusText(t *testing.T) {
	v := history.Values{Rotation: -45, Zoom: 1.5, FlipH: -1, FlipV: 1}
	got := statusText(v, 3, 1, true)
	for _, want := range []string{"rotate -45°", "zoom 150%", "flip-h on", "flip-v off", "undo 3", "redo 1", "loading"} {
		if !strings.Contains(got, want) {
			t.Errorf("status %q missing %q", got, want)
		}
	}
}

func TestPaintFrame(t *testing.T) {
	th := theme.Default()
	canvas := image.NewRGBA(image.Rect(0, 0, 50, 50))
	red := color.RGBA{255, 0, 0, 255}
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(red), image.Point{}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, 200, 150))
	target := paintFrame(dst, frame{
		width: 200, height: 150,
		canvas: canvas,
		status: "ready",
		note:   &notify.Notification{Severity: notify.Error, Message: "x"},
		theme:  th,
	})
	if target.Dx() != 50 || target.Dy() != 50 {
		t.Fatalf("target = %v", target)
	}
	c := target.Min.Add(image.Pt(25, 25))
	if got := dst.RGBAAt(c.X, c.Y); got != red {
		t.Errorf("canvas centre = %v", got)
	}
	if got := dst.RGBAAt(1, 1); got != th.Background {
		t.Errorf("background = %v", got)
	}
	if got := dst.RGBAAt(0, 149); got != th.StatusBackground {
		t.Errorf("status bar = %v", got)
	}
}

func TestDispatch(t *testing.T) {
	sess := session.New(session.Options{})
	if err := sess.AttachImage(context.Background(), "a.png", image.NewRGBA(image.Rect(0, 0, 20, 10))); err != nil {
		t.Fatal(err)
	}
	v := New(sess, Options{})

	steps := []command{cmdRotateCW, cmdRotateCW, cmdZoomIn, cmdFlipH}
	for _, c := range steps {
		if err := v.dispatch(c, 0); err != nil {
			t.Fatalf("dispatch %v: %v", c, err)
		}
	}
	got := sess.Values()
	if got.Rotation != 90 || got.Zoom != 1.25 || got.FlipH != -1 {
		t.Fatalf("values = %+v", got)
	}

	if err := v.dispatch(cmdUndo, 0); err != nil {
		t.Fatal(err)
	}
	if sess.Values().FlipH != 1 {
		t.Fatalf("undo did not revert flip: %+v", sess.Values())
	}
	if err := v.dispatch(cmdRotateCCW, 0); err != nil {
		t.Fatal(err)
	}
	if sess.Values().Rotation != 45 {
		t.Fatalf("rotation = %v", sess.Values().Rotation)
	}
	if err := v.dispatch(cmdReset, 0); err != nil {
		t.Fatal(err)
	}
	if sess.Values() != (history.Values{Rotation: 0, Zoom: 1, FlipH: 1, FlipV: 1}) {
		t.Fatalf("reset values = %+v", sess.Values())
	}

	if err := v.dispatch(cmdColor, 2); err != nil {
		t.Fatal(err)
	}
	if r, g, b, _ := sess.StrokeColor().RGBA(); r != 0xffff || g != 0 || b != 0 {
		t.Fatalf("stroke colour = %v", sess.StrokeColor())
	}
	_ = v.dispatch(cmdColor, 40)
	if r, _, _, _ := sess.StrokeColor().RGBA(); r != 0xffff {
		t.Fatal("out of range palette index changed colour")
	}
}

func TestDispatchDisabled(t *testing.T) {
	v := New(session.New(session.Options{}), Options{})
	if err := v.dispatch(cmdRotateCW, 0); err == nil {
		t.Fatal("expected error without image")
	}
}

func TestInitialSize(t *testing.T) {
	if w, h := initialSize(nil); w != minWidth || h != minHeight {
		t.Fatalf("empty = %d×%d", w, h)
	}
	w, h := initialSize(image.NewRGBA(image.Rect(0, 0, 800, 600)))
	if w != 800+2*margin || h != 600+2*margin+statusHeight {
		t.Fatalf("size = %d×%d", w, h)
	}
	if w, h := initialSize(image.NewRGBA(image.Rect(0, 0, 5000, 5000))); w != maxWidth || h != maxHeight {
		t.Fatalf("clamped = %d×%d", w, h)
	}
}
