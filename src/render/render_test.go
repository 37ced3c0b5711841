package render

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"

	"screen-translator/src/apperr"
	"screen-translator/src/screenshot"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestDominantColorUniform(t *testing.T) {
	want := color.RGBA{R: 12, G: 200, B: 99, A: 255}
	if got := DominantColor(solid(7, 5, want)); got != want {
		t.Fatalf("DominantColor() = %v, want %v", got, want)
	}
}

func TestDominantColorTruncatesMean(t *testing.T) {
	img := solid(2, 1, color.RGBA{A: 255})
	img.SetRGBA(1, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	want := color.RGBA{R: 127, G: 127, B: 127, A: 255}
	if got := DominantColor(img); got != want {
		t.Fatalf("DominantColor() = %v, want %v", got, want)
	}
}

func TestDominantColorEmpty(t *testing.T) {
	got := DominantColor(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	if got != (color.RGBA{A: 255}) {
		t.Fatalf("DominantColor(empty) = %v, want opaque black", got)
	}
}

func TestDominantColorGenericImage(t *testing.T) {
	img := image.NewGray(image.Rect(3, 3, 5, 5))
	for i := range img.Pix {
		img.Pix[i] = 50
	}
	want := color.RGBA{R: 50, G: 50, B: 50, A: 255}
	if got := DominantColor(img); got != want {
		t.Fatalf("DominantColor() = %v, want %v", got, want)
	}
}

func TestFitTextLargestThatFits(t *testing.T) {
	faces := &BoldFaces{}
	l, err := FitText("CIAO", 300, 100, FitOptions{}, faces)
	if err != nil {
		t.Fatalf("FitText() error = %v", err)
	}
	if l.Size != DefaultMaxSize || l.Degenerate {
		t.Fatalf("FitText() size=%d degenerate=%v, want %d and false", l.Size, l.Degenerate, DefaultMaxSize)
	}
	if len(l.Lines) != 1 || l.Lines[0] != "CIAO" {
		t.Fatalf("FitText() lines = %q", l.Lines)
	}
}

func TestFitTextShrinksToFit(t *testing.T) {
	faces := &BoldFaces{}
	text := "the quick brown fox jumps over the lazy dog"
	big, err := FitText(text, 400, 200, FitOptions{}, faces)
	if err != nil {
		t.Fatalf("FitText() error = %v", err)
	}
	small, err := FitText(text, 120, 40, FitOptions{}, faces)
	if err != nil {
		t.Fatalf("FitText() error = %v", err)
	}
	if small.Size >= big.Size {
		t.Fatalf("small box size %d, want < %d", small.Size, big.Size)
	}
	if !small.Degenerate && (small.Width > 120 || small.Height > 40) {
		t.Fatalf("layout %dx%d exceeds 120x40", small.Width, small.Height)
	}
}

func TestFitTextMonotoneInBoxSize(t *testing.T) {
	faces := &BoldFaces{}
	text := "Lorem ipsum dolor sit amet, consectetur adipiscing elit"

	prev := DefaultMaxSize + 1
	for w := 400; w >= 40; w -= 30 {
		l, err := FitText(text, w, 60, FitOptions{}, faces)
		if err != nil {
			t.Fatalf("FitText(w=%d) error = %v", w, err)
		}
		if l.Size > prev {
			t.Fatalf("width %d chose %dpt, larger than %dpt at a wider box", w, l.Size, prev)
		}
		prev = l.Size
	}

	prev = DefaultMaxSize + 1
	for h := 120; h >= 5; h -= 5 {
		l, err := FitText(text, 150, h, FitOptions{}, faces)
		if err != nil {
			t.Fatalf("FitText(h=%d) error = %v", h, err)
		}
		if l.Size > prev {
			t.Fatalf("height %d chose %dpt, larger than %dpt at a taller box", h, l.Size, prev)
		}
		prev = l.Size
	}
}

func TestFitTextDegenerateClampsToMinimum(t *testing.T) {
	l, err := FitText(strings.Repeat("overflow ", 50), 10, 5, FitOptions{MaxSize: 12, MinSize: 4}, &BoldFaces{})
	if err != nil {
		t.Fatalf("FitText() error = %v", err)
	}
	if !l.Degenerate || l.Size != 4 {
		t.Fatalf("FitText() size=%d degenerate=%v, want 4 and true", l.Size, l.Degenerate)
	}
}

func TestFitTextIgnoresTrailingNewlines(t *testing.T) {
	faces := &BoldFaces{}
	plain, err := FitText("CIAO", 200, 20, FitOptions{}, faces)
	if err != nil {
		t.Fatalf("FitText() error = %v", err)
	}
	for _, text := range []string{"CIAO\n", "CIAO\r\n", "CIAO \n\n"} {
		l, err := FitText(text, 200, 20, FitOptions{}, faces)
		if err != nil {
			t.Fatalf("FitText(%q) error = %v", text, err)
		}
		if l.Size != plain.Size || len(l.Lines) != 1 {
			t.Errorf("FitText(%q) size=%d lines=%q, want size %d and one line", text, l.Size, l.Lines, plain.Size)
		}
	}
}

func TestWrapSplitsOversizeWord(t *testing.T) {
	face, err := (&BoldFaces{}).Face(16)
	if err != nil {
		t.Fatal(err)
	}
	lines := wrap(face, "a SUPERCALIFRAGILISTIC b", 60)
	if len(lines) < 3 {
		t.Fatalf("wrap() = %q, want the long word split over several lines", lines)
	}
	if lines[0] != "a" {
		t.Fatalf("wrap() first line = %q, want %q", lines[0], "a")
	}
	joined := strings.ReplaceAll(strings.Join(lines, ""), " ", "")
	if joined != "aSUPERCALIFRAGILISTICb" {
		t.Fatalf("wrap() lost runes: %q", lines)
	}
	for _, line := range lines {
		if line == "" {
			t.Fatalf("wrap() produced an empty line: %q", lines)
		}
	}
}

func TestRasterizeFillsBackground(t *testing.T) {
	bg := color.RGBA{R: 10, G: 20, B: 30, A: 255}
	frame := Rasterize(Layout{}, 4, 3, bg)
	if frame.Bounds() != image.Rect(0, 0, 4, 3) {
		t.Fatalf("frame bounds = %v", frame.Bounds())
	}
	if got := frame.RGBAAt(3, 2); got != bg {
		t.Fatalf("pixel = %v, want %v", got, bg)
	}
}

func TestRasterizeDrawsText(t *testing.T) {
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	l, err := FitText("CIAO", 200, 50, FitOptions{}, &BoldFaces{})
	if err != nil {
		t.Fatal(err)
	}
	frame := Rasterize(l, 200, 50, white)
	if DominantColor(frame) == white {
		t.Fatal("no glyph pixels were drawn")
	}
}

type fakeWindow struct {
	mu     sync.Mutex
	closes int
}

func (w *fakeWindow) Close() error {
	w.mu.Lock()
	w.closes++
	w.mu.Unlock()
	return nil
}

func (w *fakeWindow) closeCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closes
}

type fakeSurface struct {
	windows   []*fakeWindow
	dismisses []func()
	frames    []*image.RGBA
	err       error
}

func (s *fakeSurface) Open(region screenshot.Region, frame *image.RGBA, onDismiss func()) (Window, error) {
	if s.err != nil {
		return nil, s.err
	}
	w := &fakeWindow{}
	s.windows = append(s.windows, w)
	s.dismisses = append(s.dismisses, onDismiss)
	s.frames = append(s.frames, frame)
	return w, nil
}

func TestRendererShowReplacesPreviousOverlay(t *testing.T) {
	surface := &fakeSurface{}
	r := New(surface, nil, FitOptions{})
	bg := solid(10, 10, color.RGBA{R: 200, G: 200, B: 200, A: 255})

	if err := r.Show(screenshot.Region{X: 5, Y: 5, Width: 120, Height: 40}, "uno", bg); err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if err := r.Show(screenshot.Region{X: 50, Y: 50, Width: 120, Height: 40}, "due", bg); err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if len(surface.windows) != 2 {
		t.Fatalf("opened %d windows, want 2", len(surface.windows))
	}
	if surface.windows[0].closeCount() != 1 {
		t.Fatalf("first window closed %d times, want 1", surface.windows[0].closeCount())
	}
	if surface.windows[1].closeCount() != 0 {
		t.Fatal("second window closed early")
	}
	if got := surface.frames[1].RGBAAt(119, 39); got != (color.RGBA{R: 200, G: 200, B: 200, A: 255}) {
		t.Fatalf("frame corner = %v, want the dominant background", got)
	}
	if !r.IsOpen() {
		t.Fatal("IsOpen() = false after Show")
	}
}

func TestRendererDismissClosesOwnWindowOnly(t *testing.T) {
	surface := &fakeSurface{}
	r := New(surface, nil, FitOptions{})
	bg := solid(2, 2, color.RGBA{A: 255})
	region := screenshot.Region{Width: 80, Height: 30}

	if err := r.Show(region, "a", bg); err != nil {
		t.Fatal(err)
	}
	if err := r.Show(region, "b", bg); err != nil {
		t.Fatal(err)
	}

	// A late click on the first window must not close the second.
	surface.dismisses[0]()
	if !r.IsOpen() {
		t.Fatal("stale dismiss closed the current overlay")
	}
	surface.dismisses[1]()
	if r.IsOpen() {
		t.Fatal("IsOpen() = true after dismiss")
	}
	if surface.windows[1].closeCount() != 1 {
		t.Fatalf("second window closed %d times, want 1", surface.windows[1].closeCount())
	}
}

func TestRendererCloseIdempotent(t *testing.T) {
	surface := &fakeSurface{}
	r := New(surface, nil, FitOptions{})
	r.Close()
	if err := r.Show(screenshot.Region{Width: 50, Height: 20}, "x", solid(1, 1, color.RGBA{A: 255})); err != nil {
		t.Fatal(err)
	}
	r.Close()
	r.Close()
	if got := surface.windows[0].closeCount(); got != 1 {
		t.Fatalf("window closed %d times, want 1", got)
	}
}

func TestRendererShowNormalizesRegion(t *testing.T) {
	surface := &fakeSurface{}
	r := New(surface, nil, FitOptions{})
	if err := r.Show(screenshot.Region{X: 100, Y: 100, Width: -40, Height: -20}, "x", solid(1, 1, color.RGBA{A: 255})); err != nil {
		t.Fatal(err)
	}
	if b := surface.frames[0].Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Fatalf("frame = %v, want 40x20", b)
	}
}

func TestRendererShowErrors(t *testing.T) {
	r := New(&fakeSurface{}, nil, FitOptions{})
	err := r.Show(screenshot.Region{Width: 0, Height: 10}, "x", solid(1, 1, color.RGBA{}))
	if !apperr.Is(err, apperr.KindRender) {
		t.Fatalf("Show(empty) error = %v, want RenderError", err)
	}

	r = New(&fakeSurface{err: errors.New("no display")}, nil, FitOptions{})
	err = r.Show(screenshot.Region{Width: 10, Height: 10}, "x", solid(1, 1, color.RGBA{}))
	if !apperr.Is(err, apperr.KindRender) {
		t.Fatalf("Show() error = %v, want RenderError", err)
	}
	if r.IsOpen() {
		t.Fatal("IsOpen() = true after failed open")
	}
}
