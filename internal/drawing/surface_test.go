package drawing

import (
	"image"
	"image/color"
	"testing"
)

func opaqueCount(img image.Image) int {
	if img == nil {
		return 0
	}
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
				n++
			}
		}
	}
	return n
}

func alphaAt(img image.Image, x, y int) uint32 {
	_, _, _, a := img.At(x, y).RGBA()
	return a
}

func TestSnapshotNilBeforeResize(t *testing.T) {
	s := NewSurface()
	if s.Snapshot() != nil {
		t.Fatal("expected nil snapshot before the first resize")
	}
	s.PointerDown(Pt(1, 1))
	s.PointerMove(Pt(5, 5))
	if s.State() != Stroking {
		t.Fatalf("state = %v, want stroking", s.State())
	}
}

func TestStrokeDrawsAlongSegment(t *testing.T) {
	s := NewSurface(WithColor(color.RGBA{255, 0, 0, 255}))
	s.Resize(40, 20)
	s.PointerDown(Pt(5, 10))
	s.PointerMove(Pt(35, 10))
	s.PointerUp()
	snap := s.Snapshot()
	if alphaAt(snap, 20, 10) == 0 {
		t.Fatal("expected stroke pixel at (20,10)")
	}
	if alphaAt(snap, 20, 2) != 0 {
		t.Fatal("unexpected pixel far from the stroke")
	}
	r, _, _, _ := snap.At(20, 10).RGBA()
	if r>>8 < 200 {
		t.Fatalf("stroke colour red = %d, want red", r>>8)
	}
	if s.State() != Idle {
		t.Fatalf("state = %v, want idle", s.State())
	}
}

func TestRoundCapExtendsPastEndpoint(t *testing.T) {
	s := NewSurface(WithLineWidth(6))
	s.Resize(40, 20)
	s.PointerDown(Pt(10, 10))
	s.PointerMove(Pt(30, 10))
	snap := s.Snapshot()
	if alphaAt(snap, 8, 10) == 0 {
		t.Fatal("round cap should cover the pixel before the start point")
	}
}

func TestMoveWhileIdleIsIgnored(t *testing.T) {
	s := NewSurface()
	s.Resize(20, 20)
	s.PointerMove(Pt(2, 2))
	s.PointerMove(Pt(18, 18))
	if n := opaqueCount(s.Snapshot()); n != 0 {
		t.Fatalf("%d pixels drawn while idle", n)
	}
	s.PointerDown(Pt(2, 2))
	s.PointerLeave()
	s.PointerMove(Pt(18, 18))
	if n := opaqueCount(s.Snapshot()); n != 0 {
		t.Fatalf("%d pixels drawn after leave", n)
	}
}

func TestDownWithoutMoveDrawsNothing(t *testing.T) {
	s := NewSurface()
	s.Resize(20, 20)
	s.PointerDown(Pt(10, 10))
	s.PointerUp()
	if n := opaqueCount(s.Snapshot()); n != 0 {
		t.Fatalf("%d pixels drawn by a bare click", n)
	}
}

func TestZeroLengthMoveDrawsDot(t *testing.T) {
	s := NewSurface(WithLineWidth(4))
	s.Resize(20, 20)
	s.PointerDown(Pt(10, 10))
	s.PointerMove(Pt(10, 10))
	if alphaAt(s.Snapshot(), 10, 10) == 0 {
		t.Fatal("expected a dot at the pointer position")
	}
}

func TestTouchAndMouseAreEquivalent(t *testing.T) {
	mouse := NewSurface()
	touch := NewSurface()
	mouse.Resize(30, 30)
	touch.Resize(30, 30)
	events := []PointerEvent{
		{Type: Down, Point: Pt(3, 3)},
		{Type: Move, Point: Pt(15, 20)},
		{Type: Move, Point: Pt(27, 4)},
		{Type: Up},
	}
	for _, ev := range events {
		mouse.Handle(ev)
		ev.Source = Touch
		touch.Handle(ev)
	}
	a := mouse.Snapshot().(*image.RGBA)
	b := touch.Snapshot().(*image.RGBA)
	if string(a.Pix) != string(b.Pix) {
		t.Fatal("touch and mouse input produced different pixels")
	}
	if opaqueCount(a) == 0 {
		t.Fatal("expected pixels to be drawn")
	}
}

func TestResizePreservesTopLeftContent(t *testing.T) {
	s := NewSurface()
	s.Resize(20, 20)
	s.PointerDown(Pt(2, 5))
	s.PointerMove(Pt(12, 5))
	s.PointerUp()
	before := s.Snapshot().(*image.RGBA)

	s.Resize(40, 30)
	if w, h := s.Size(); w != 40 || h != 30 {
		t.Fatalf("size = %dx%d, want 40x30", w, h)
	}
	after := s.Snapshot().(*image.RGBA)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if before.RGBAAt(x, y) != after.RGBAAt(x, y) {
				t.Fatalf("pixel (%d,%d) changed after grow", x, y)
			}
		}
	}

	s.Resize(10, 10)
	shrunk := s.Snapshot().(*image.RGBA)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if before.RGBAAt(x, y) != shrunk.RGBAAt(x, y) {
				t.Fatalf("pixel (%d,%d) changed after shrink", x, y)
			}
		}
	}
}

func TestResizeIgnoresEmptySize(t *testing.T) {
	s := NewSurface()
	s.Resize(10, 10)
	s.Resize(0, 10)
	if w, h := s.Size(); w != 10 || h != 10 {
		t.Fatalf("size = %dx%d, want 10x10", w, h)
	}
}

func TestClearFromAnyState(t *testing.T) {
	s := NewSurface()
	s.Resize(20, 20)
	s.PointerDown(Pt(2, 2))
	s.PointerMove(Pt(18, 18))
	s.Clear()
	if n := opaqueCount(s.Snapshot()); n != 0 {
		t.Fatalf("%d pixels left after clear", n)
	}
	if s.State() != Stroking {
		t.Fatal("clear should not end the stroke")
	}
}

func TestResetEndsStroke(t *testing.T) {
	s := NewSurface()
	s.Resize(20, 20)
	s.PointerDown(Pt(2, 2))
	s.PointerMove(Pt(10, 10))
	s.Reset()
	if s.State() != Idle {
		t.Fatalf("state = %v after reset", s.State())
	}
	s.PointerMove(Pt(18, 18))
	if n := opaqueCount(s.Snapshot()); n != 0 {
		t.Fatalf("%d pixels after move following reset", n)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewSurface()
	s.Resize(10, 10)
	snap := s.Snapshot()
	s.PointerDown(Pt(1, 1))
	s.PointerMove(Pt(9, 9))
	if opaqueCount(snap) != 0 {
		t.Fatal("snapshot changed after drawing")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		err  bool
	}{
		{in: "#000000", want: color.RGBA{0, 0, 0, 255}},
		{in: "#ff8800", want: color.RGBA{255, 136, 0, 255}},
		{in: "#11223344", want: color.RGBA{0x11, 0x22, 0x33, 0x44}},
		{in: "red", want: color.RGBA{255, 0, 0, 255}},
		{in: "Lime", want: color.RGBA{0, 255, 0, 255}},
		{in: "", err: true},
		{in: "#12", err: true},
		{in: "#zzzzzz", err: true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if tt.err {
			if err == nil {
				t.Errorf("ParseColor(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseColor(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if got := FormatColor(color.RGBA{0x11, 0x22, 0x33, 0xff}); got != "#112233" {
		t.Errorf("FormatColor = %q", got)
	}
}
