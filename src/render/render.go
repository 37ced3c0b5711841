// Package render shows the translated text as a borderless overlay placed
// exactly over the original selection.
package render

import (
	"image"
	"log"
	"sync"

	"screen-translator/src/apperr"
	"screen-translator/src/screenshot"
)

// Window is an open overlay window.
type Window interface {
	// Close destroys the window and releases its drawing resources. It is
	// safe to call more than once.
	Close() error
}

// Surface opens overlay windows. onDismiss runs when the user clicks inside
// the window; surfaces call it off their UI thread.
type Surface interface {
	Open(region screenshot.Region, frame *image.RGBA, onDismiss func()) (Window, error)
}

// Renderer keeps at most one overlay open.
type Renderer struct {
	surface Surface
	faces   FaceSource
	opts    FitOptions

	mu      sync.Mutex
	current *handle
}

// handle identifies one Show call so a late dismiss cannot close a newer
// overlay.
type handle struct {
	win Window
}

func New(surface Surface, faces FaceSource, opts FitOptions) *Renderer {
	if faces == nil {
		faces = &BoldFaces{}
	}
	return &Renderer{surface: surface, faces: faces, opts: opts.withDefaults()}
}

// Show closes any open overlay, then opens a new one over region filled with
// the background's dominant color and text fitted to the region.
func (r *Renderer) Show(region screenshot.Region, text string, background image.Image) error {
	r.Close()

	region = region.Normalize()
	if region.Empty() {
		return apperr.New(apperr.KindRender, apperr.SubInvalidInput, "cannot render into empty region")
	}

	fill := DominantColor(background)
	layout, err := FitText(text, region.Width, region.Height, r.opts, r.faces)
	if err != nil {
		return apperr.Wrap(err, apperr.KindRender, apperr.SubUnavailable, "font unavailable")
	}
	if layout.Degenerate {
		log.Printf("RENDER: text does not fit %dx%d even at %dpt, clamped", region.Width, region.Height, layout.Size)
	}
	frame := Rasterize(layout, region.Width, region.Height, fill)

	r.mu.Lock()
	defer r.mu.Unlock()

	h := &handle{}
	win, err := r.surface.Open(region, frame, func() { r.dismiss(h) })
	if err != nil {
		return apperr.Wrap(err, apperr.KindRender, apperr.SubUnavailable, "failed to open overlay window")
	}
	h.win = win
	r.current = h
	log.Printf("RENDER: overlay at (%d,%d) %dx%d, %dpt, %d lines, fill=%v",
		region.X, region.Y, region.Width, region.Height, layout.Size, len(layout.Lines), fill)
	return nil
}

// Close closes the open overlay, if any.
func (r *Renderer) Close() {
	r.mu.Lock()
	var win Window
	if r.current != nil {
		win = r.current.win
	}
	r.current = nil
	r.mu.Unlock()

	if win != nil {
		if err := win.Close(); err != nil {
			log.Printf("RENDER: close failed: %v", err)
		}
	}
}

// IsOpen reports whether an overlay is currently shown.
func (r *Renderer) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil
}

func (r *Renderer) dismiss(h *handle) {
	r.mu.Lock()
	if r.current == h {
		r.current = nil
	}
	win := h.win
	r.mu.Unlock()

	if win != nil {
		_ = win.Close()
	}
}
