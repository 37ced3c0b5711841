package screenshot

import (
	"fmt"
	"image"
	"log"

	"github.com/kbinani/screenshot"

	"screen-translator/src/apperr"
)

// Capturer rasterizes a screen region.
type Capturer interface {
	Capture(region Region) (*CapturedImage, error)
}

// ScreenCapturer reads live pixels from the attached displays.
type ScreenCapturer struct {
	numDisplays   func() int
	displayBounds func(int) image.Rectangle
	captureRect   func(image.Rectangle) (*image.RGBA, error)
}

// NewScreenCapturer returns a Capturer backed by the platform capture API.
func NewScreenCapturer() *ScreenCapturer {
	return &ScreenCapturer{
		numDisplays:   screenshot.NumActiveDisplays,
		displayBounds: screenshot.GetDisplayBounds,
		captureRect:   screenshot.CaptureRect,
	}
}

// Capture captures exactly region, which must be normalized and non-empty.
// No scaling or color conversion is applied.
func (s *ScreenCapturer) Capture(region Region) (*CapturedImage, error) {
	if !region.IsNormalized() || region.Empty() {
		return nil, apperr.New(apperr.KindCapture, apperr.SubInvalidInput,
			"invalid region dimensions: width=%d, height=%d", region.Width, region.Height)
	}

	n := s.numDisplays()
	if n == 0 {
		return nil, apperr.New(apperr.KindCapture, apperr.SubUnavailable, "no active displays found")
	}

	bounds := region.Bounds()
	onScreen := false
	for i := 0; i < n; i++ {
		if bounds.Overlaps(s.displayBounds(i)) {
			onScreen = true
			break
		}
	}
	if !onScreen {
		return nil, apperr.New(apperr.KindCapture, apperr.SubInvalidInput,
			"region %v lies outside every display", bounds)
	}

	img, err := s.captureRect(bounds)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindCapture, apperr.SubUnavailable, "failed to capture region")
	}
	log.Printf("CAPTURE: captured %dx%d at (%d,%d)", region.Width, region.Height, region.X, region.Y)

	return NewCapturedImage(img), nil
}

// VirtualBounds returns the union of all display bounds.
func VirtualBounds() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	return union, nil
}
