package screenshot

import "image"

// Region is a screen rectangle in virtual-screen coordinates. While a drag is
// in progress Width and Height may be negative; call Normalize before using a
// Region as a capture area.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

type Point struct {
	X int
	Y int
}

// RegionBetween returns the signed region spanning anchor to p.
func RegionBetween(anchor, p Point) Region {
	return Region{X: anchor.X, Y: anchor.Y, Width: p.X - anchor.X, Height: p.Y - anchor.Y}
}

// Normalize returns an equivalent region with non-negative size whose origin
// is the minimum corner.
func (r Region) Normalize() Region {
	if r.Width < 0 {
		r.X += r.Width
		r.Width = -r.Width
	}
	if r.Height < 0 {
		r.Y += r.Height
		r.Height = -r.Height
	}
	return r
}

// Empty reports whether the region has zero area. The empty region is the
// "nothing selected" sentinel.
func (r Region) Empty() bool {
	return r.Width == 0 || r.Height == 0
}

// IsNormalized reports whether the region has non-negative size.
func (r Region) IsNormalized() bool {
	return r.Width >= 0 && r.Height >= 0
}

// Bounds converts the normalized region to an image.Rectangle.
func (r Region) Bounds() image.Rectangle {
	n := r.Normalize()
	return image.Rect(n.X, n.Y, n.X+n.Width, n.Y+n.Height)
}
