//go:build !windows

package gui

import (
	"context"
	"errors"

	"screen-translator/src/screenshot"
	"screen-translator/src/selection"
)

var errNoOverlay = errors.New("interactive region selection not implemented for this platform")

func selectRegion(ctx context.Context, t *selection.Tracker) (screenshot.Region, bool, error) {
	t.Close()
	if err := ctx.Err(); err != nil {
		return screenshot.Region{}, true, err
	}
	return screenshot.Region{}, false, errNoOverlay
}
