package gui

import (
	"context"
	"os"
	"runtime"
	"testing"

	"screen-translator/src/screenshot"
)

func TestClientPoint(t *testing.T) {
	origin := screenshot.Point{X: -1920, Y: 0}
	tests := []struct {
		name   string
		lParam uintptr
		want   screenshot.Point
	}{
		{"origin", 0, screenshot.Point{X: -1920, Y: 0}},
		{"positive", uintptr(200)<<16 | 100, screenshot.Point{X: -1820, Y: 200}},
		{"negative x", uintptr(5)<<16 | 0xFFF6, screenshot.Point{X: -1930, Y: 5}},
		{"negative y", uintptr(0xFFFF)<<16 | 1, screenshot.Point{X: -1919, Y: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clientPoint(tt.lParam, origin); got != tt.want {
				t.Fatalf("clientPoint(%#x) = %+v, want %+v", tt.lParam, got, tt.want)
			}
		})
	}
}

func TestStartRegionSelectionHeadless(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("headless behavior only applies off Windows")
	}
	_, cancelled, err := StartRegionSelection(context.Background())
	if err == nil || cancelled {
		t.Fatalf("StartRegionSelection() = cancelled %v, err %v; want unsupported error", cancelled, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := StartRegionSelection(ctx); err != context.Canceled {
		t.Fatalf("StartRegionSelection(cancelled ctx) err = %v", err)
	}
}

func TestStartRegionSelectionInteractive(t *testing.T) {
	if runtime.GOOS != "windows" {
		t.Skip("interactive region selection test is Windows-only")
	}
	if os.Getenv("SCREEN_TRANSLATOR_INTERACTIVE_TESTS") != "1" {
		t.Skip("set SCREEN_TRANSLATOR_INTERACTIVE_TESTS=1 to run interactive region selection test")
	}

	region, cancelled, err := StartRegionSelection(context.Background())
	if err != nil {
		t.Fatalf("StartRegionSelection failed: %v", err)
	}
	if cancelled {
		t.Skip("selection cancelled by the tester")
	}
	if region.Width <= 0 || region.Height <= 0 {
		t.Errorf("expected a normalized non-empty region, got %+v", region)
	}
}
