// Package overlay exposes the interactive region selector to the pipeline.
package overlay

import (
	"context"

	"screen-translator/src/gui"
	"screen-translator/src/screenshot"
)

// Selector is a blocking region-selection API. If cancelled is true the
// region is undefined and err is nil. When ctx ends first, err is ctx.Err().
type Selector interface {
	Select(ctx context.Context) (region screenshot.Region, cancelled bool, err error)
}

// NewSelector returns the native full-screen selector.
func NewSelector() Selector { return nativeSelector{} }

type nativeSelector struct{}

func (nativeSelector) Select(ctx context.Context) (screenshot.Region, bool, error) {
	return gui.StartRegionSelection(ctx)
}
