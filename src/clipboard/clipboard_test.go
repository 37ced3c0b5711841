package clipboard

import (
	"testing"

	"screen-translator/src/apperr"
)

func TestWrite(t *testing.T) {
	// Needs a desktop session; headless environments only log.
	if err := Init(); err != nil {
		if !apperr.Is(err, apperr.KindClipboard) {
			t.Errorf("expected ClipboardError from Init, got %v", err)
		}
		if werr := (System{}).Write("test text"); !apperr.Is(werr, apperr.KindClipboard) {
			t.Errorf("expected ClipboardError after failed Init, got %v", werr)
		}
		t.Logf("clipboard unavailable (expected in headless environment): %v", err)
		return
	}
	if err := (System{}).Write("test text"); err != nil {
		t.Errorf("Failed to write to clipboard: %v", err)
	}
}
