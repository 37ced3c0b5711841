package screenshot

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"screen-translator/src/apperr"
)

func fakeCapturer(displays []image.Rectangle, fill color.RGBA) (*ScreenCapturer, *int) {
	calls := 0
	return &ScreenCapturer{
		numDisplays:   func() int { return len(displays) },
		displayBounds: func(i int) image.Rectangle { return displays[i] },
		captureRect: func(r image.Rectangle) (*image.RGBA, error) {
			calls++
			img := image.NewRGBA(r)
			for y := r.Min.Y; y < r.Max.Y; y++ {
				for x := r.Min.X; x < r.Max.X; x++ {
					img.SetRGBA(x, y, fill)
				}
			}
			return img, nil
		},
	}, &calls
}

func TestRegionNormalizeAllQuadrants(t *testing.T) {
	anchor := Point{X: 100, Y: 100}
	tests := []struct {
		name    string
		release Point
		want    Region
	}{
		{"down-right", Point{X: 300, Y: 200}, Region{X: 100, Y: 100, Width: 200, Height: 100}},
		{"down-left", Point{X: 40, Y: 150}, Region{X: 40, Y: 100, Width: 60, Height: 50}},
		{"up-right", Point{X: 130, Y: 20}, Region{X: 100, Y: 20, Width: 30, Height: 80}},
		{"up-left", Point{X: 0, Y: 0}, Region{X: 0, Y: 0, Width: 100, Height: 100}},
		{"no movement", anchor, Region{X: 100, Y: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RegionBetween(anchor, tt.release).Normalize()
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if !got.IsNormalized() {
				t.Errorf("expected normalized region, got %+v", got)
			}
		})
	}
	if !RegionBetween(anchor, anchor).Normalize().Empty() {
		t.Error("zero-movement drag must produce an empty region")
	}
}

func TestCaptureRejectsInvalidRegions(t *testing.T) {
	c, calls := fakeCapturer([]image.Rectangle{image.Rect(0, 0, 1920, 1080)}, color.RGBA{A: 255})

	for _, r := range []Region{
		{X: 0, Y: 0, Width: 0, Height: 0},
		{X: 10, Y: 10, Width: -5, Height: 5},
	} {
		_, err := c.Capture(r)
		if !apperr.Is(err, apperr.KindCapture) {
			t.Errorf("Capture(%+v): expected CaptureError, got %v", r, err)
		}
	}
	if *calls != 0 {
		t.Errorf("expected no capture primitive calls, got %d", *calls)
	}
}

func TestCaptureOutsideDisplays(t *testing.T) {
	c, _ := fakeCapturer([]image.Rectangle{image.Rect(0, 0, 800, 600)}, color.RGBA{A: 255})
	_, err := c.Capture(Region{X: 900, Y: 700, Width: 10, Height: 10})
	if !apperr.Is(err, apperr.KindCapture) {
		t.Fatalf("expected CaptureError, got %v", err)
	}

	none, _ := fakeCapturer(nil, color.RGBA{})
	_, err = none.Capture(Region{X: 0, Y: 0, Width: 10, Height: 10})
	if apperr.SubkindOf(err) != apperr.SubUnavailable {
		t.Fatalf("expected unavailable subkind with no displays, got %v", err)
	}
}

func TestCapturePrimitiveFailure(t *testing.T) {
	c, _ := fakeCapturer([]image.Rectangle{image.Rect(0, 0, 800, 600)}, color.RGBA{})
	boom := errors.New("permission denied")
	c.captureRect = func(image.Rectangle) (*image.RGBA, error) { return nil, boom }

	_, err := c.Capture(Region{X: 0, Y: 0, Width: 10, Height: 10})
	if !errors.Is(err, boom) || !apperr.Is(err, apperr.KindCapture) {
		t.Fatalf("expected wrapped CaptureError, got %v", err)
	}
}

func TestCaptureReturnsIndependentBuffer(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	c, _ := fakeCapturer([]image.Rectangle{image.Rect(0, 0, 800, 600)}, red)
	var live *image.RGBA
	inner := c.captureRect
	c.captureRect = func(r image.Rectangle) (*image.RGBA, error) {
		img, err := inner(r)
		live = img
		return img, err
	}

	got, err := c.Capture(Region{X: 100, Y: 50, Width: 4, Height: 3})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if got.Width() != 4 || got.Height() != 3 {
		t.Fatalf("expected 4x3 image, got %dx%d", got.Width(), got.Height())
	}
	if got.Bounds().Min != (image.Point{}) {
		t.Errorf("expected origin at (0,0), got %v", got.Bounds().Min)
	}

	live.SetRGBA(100, 50, color.RGBA{B: 255, A: 255})
	if got.RGBAAt(0, 0) != red {
		t.Errorf("captured buffer changed after source mutation: %#v", got.RGBAAt(0, 0))
	}
}

func TestPNGRoundTripKeepsPixels(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.SetRGBA(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	src.SetRGBA(1, 0, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	data, err := NewCapturedImage(src).EncodePNG()
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	back, err := DecodePNG(data)
	if err != nil {
		t.Fatalf("DecodePNG failed: %v", err)
	}
	if back.RGBAAt(1, 0) != src.RGBAAt(1, 0) {
		t.Errorf("pixel mismatch after PNG round trip")
	}
}

func TestVirtualBounds(t *testing.T) {
	// Requires a display; headless environments only log.
	if _, err := VirtualBounds(); err != nil {
		t.Logf("VirtualBounds unavailable (expected in headless environment): %v", err)
	}
}
