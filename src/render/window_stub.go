//go:build !windows

package render

import (
	"image"
	"log"

	"screen-translator/src/screenshot"
)

// NativeSurface has no window system to draw on outside Windows; it logs the
// overlay it would have shown.
type NativeSurface struct{}

func NewNativeSurface() *NativeSurface { return &NativeSurface{} }

type loggedWindow struct{}

func (loggedWindow) Close() error { return nil }

func (NativeSurface) Open(region screenshot.Region, frame *image.RGBA, onDismiss func()) (Window, error) {
	log.Printf("RENDER: overlay windows not implemented for this platform; would show %dx%d at (%d,%d)",
		region.Width, region.Height, region.X, region.Y)
	return loggedWindow{}, nil
}
