// Package gui hosts the native selection overlay: a dimmed, topmost window
// over the whole virtual screen that feeds pointer and key events into a
// selection.Tracker.
package gui

import (
	"context"
	"log"

	"screen-translator/src/screenshot"
	"screen-translator/src/selection"
)

// StartRegionSelection shows the overlay and blocks until the user selects a
// region, cancels, or ctx ends. Coordinates are virtual-screen pixels.
func StartRegionSelection(ctx context.Context) (screenshot.Region, bool, error) {
	log.Printf("OVERLAY: starting region selection")
	t := selection.NewTracker()
	t.OnTransition(func(prev, next selection.State) {
		log.Printf("OVERLAY: %s -> %s", prev, next)
	})

	region, cancelled, err := selectRegion(ctx, t)
	switch {
	case err != nil:
		log.Printf("OVERLAY: selection ended: %v", err)
	case cancelled:
		log.Printf("OVERLAY: selection cancelled")
	default:
		log.Printf("OVERLAY: selected X=%d Y=%d W=%d H=%d", region.X, region.Y, region.Width, region.Height)
	}
	return region, cancelled, err
}

// clientPoint decodes the signed client coordinates packed into a mouse
// message's lParam and shifts them into virtual-screen space. Coordinates go
// negative while the mouse is captured and dragged past the window edge.
func clientPoint(lParam uintptr, origin screenshot.Point) screenshot.Point {
	x := int(int16(uint16(lParam)))
	y := int(int16(uint16(lParam >> 16)))
	return screenshot.Point{X: x + origin.X, Y: y + origin.Y}
}
