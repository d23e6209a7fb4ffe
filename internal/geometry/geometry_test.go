package geometry

import (
	"errors"
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func withRotation(deg float64) Transform {
	t := Identity
	t.Rotation = deg
	return t
}

func TestComputeCanvasScenarios(t *testing.T) {
	tests := []struct {
		name          string
		w, h          int
		rot           float64
		wantW, wantH  int
		native, quart bool
	}{
		{"quarter turn swaps", 100, 200, 90, 200, 100, true, true},
		{"negative quarter turn swaps", 100, 200, -90, 200, 100, true, true},
		{"diagonal for 45", 100, 200, 45, 224, 224, false, false},
		{"half turn keeps", 100, 200, 180, 100, 200, true, false},
		{"identity keeps", 100, 200, 0, 100, 200, true, false},
		{"270 on non-square uses diagonal", 100, 200, 270, 224, 224, false, false},
		{"270 on square keeps", 50, 50, 270, 50, 50, true, false},
		{"-90 on square", 50, 50, -90, 50, 50, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := ComputeCanvas(tt.w, tt.h, withRotation(tt.rot))
			if err != nil {
				t.Fatal(err)
			}
			if l.Width != tt.wantW || l.Height != tt.wantH {
				t.Fatalf("canvas = %dx%d, want %dx%d", l.Width, l.Height, tt.wantW, tt.wantH)
			}
			if l.Native != tt.native || l.QuarterTurn != tt.quart {
				t.Fatalf("native=%v quarter=%v, want %v %v", l.Native, l.QuarterTurn, tt.native, tt.quart)
			}
		})
	}
}

func TestNativeSelection(t *testing.T) {
	all := []float64{-270, -180, -135, -90, -45, 0, 45, 90, 135, 180, 270}
	squareNative := map[float64]bool{-270: true, -180: true, -90: true, 0: true, 90: true, 180: true, 270: true}
	rectNative := map[float64]bool{-180: true, 0: true, 180: true}
	for _, deg := range all {
		if got := IsNative(64, 64, deg); got != squareNative[deg] {
			t.Errorf("square IsNative(%v) = %v", deg, got)
		}
		if got := IsNative(64, 32, deg); got != rectNative[deg] {
			t.Errorf("rect IsNative(%v) = %v", deg, got)
		}
	}
}

func TestNativeNonQuarterKeepsDimensions(t *testing.T) {
	for _, deg := range []float64{-180, 0, 180} {
		l, err := ComputeCanvas(30, 70, withRotation(deg))
		if err != nil {
			t.Fatal(err)
		}
		if l.Width != 30 || l.Height != 70 {
			t.Errorf("rotation %v: canvas %dx%d, want 30x70", deg, l.Width, l.Height)
		}
	}
}

func TestComputeCanvasIdempotent(t *testing.T) {
	tr := Transform{Rotation: 45, Zoom: 1.75, FlipH: -1, FlipV: 1}
	a, err := ComputeCanvas(123, 45, tr)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := ComputeCanvas(123, 45, tr)
	if a != b {
		t.Fatalf("layouts differ: %+v vs %+v", a, b)
	}
}

func TestComputeCanvasRejectsEmpty(t *testing.T) {
	if _, err := ComputeCanvas(0, 10, Identity); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("err = %v, want ErrEmptyImage", err)
	}
}

func TestMatrixCentresImage(t *testing.T) {
	for _, tr := range []Transform{
		Identity,
		{Rotation: 45, Zoom: 2, FlipH: -1, FlipV: 1},
		{Rotation: -90, Zoom: 0.5, FlipH: 1, FlipV: -1},
	} {
		l, err := ComputeCanvas(100, 200, tr)
		if err != nil {
			t.Fatal(err)
		}
		x, y := l.Apply(50, 100)
		if !near(x, float64(l.Width)/2) || !near(y, float64(l.Height)/2) {
			t.Errorf("%+v: image centre maps to (%v,%v), want canvas centre", tr, x, y)
		}
	}
}

func TestMatrixQuarterTurnIsClockwise(t *testing.T) {
	l, err := ComputeCanvas(100, 200, withRotation(90))
	if err != nil {
		t.Fatal(err)
	}
	x, y := l.Apply(0, 0)
	if !near(x, 200) || !near(y, 0) {
		t.Fatalf("top-left maps to (%v,%v), want (200,0)", x, y)
	}
}

func TestMatrixFlipMirrors(t *testing.T) {
	tr := Identity
	tr.FlipH = -1
	l, err := ComputeCanvas(100, 50, tr)
	if err != nil {
		t.Fatal(err)
	}
	x, y := l.Apply(0, 0)
	if !near(x, 100) || !near(y, 0) {
		t.Fatalf("top-left maps to (%v,%v), want (100,0)", x, y)
	}
	tr = Identity
	tr.FlipV = -1
	l, _ = ComputeCanvas(100, 50, tr)
	x, y = l.Apply(0, 0)
	if !near(x, 0) || !near(y, 50) {
		t.Fatalf("top-left maps to (%v,%v), want (0,50)", x, y)
	}
}

func TestMatrixZoomScalesAroundCentre(t *testing.T) {
	tr := Identity
	tr.Zoom = 2
	l, err := ComputeCanvas(100, 100, tr)
	if err != nil {
		t.Fatal(err)
	}
	x, y := l.Apply(0, 0)
	if !near(x, -50) || !near(y, -50) {
		t.Fatalf("top-left maps to (%v,%v), want (-50,-50)", x, y)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	l, err := ComputeCanvas(80, 40, Transform{Rotation: 45, Zoom: 1.5, FlipH: -1, FlipV: -1})
	if err != nil {
		t.Fatal(err)
	}
	inv, ok := l.Inverse()
	if !ok {
		t.Fatal("matrix should be invertible")
	}
	cx, cy := l.Apply(13, 27)
	sx := inv[0]*cx + inv[1]*cy + inv[2]
	sy := inv[3]*cx + inv[4]*cy + inv[5]
	if !near(sx, 13) || !near(sy, 27) {
		t.Fatalf("round trip = (%v,%v), want (13,27)", sx, sy)
	}
}
