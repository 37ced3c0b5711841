package render

import (
	"image"
	"image/color"
)

// DominantColor returns the per-channel integer mean of every pixel in img.
// Fractions are truncated, so an even black/white split gives 127. An empty
// image yields opaque black.
func DominantColor(img image.Image) color.RGBA {
	b := img.Bounds()
	total := uint64(b.Dx()) * uint64(b.Dy())
	if b.Empty() || total == 0 {
		return color.RGBA{A: 255}
	}

	var r, g, bl uint64
	if rgba, ok := img.(interface{ RGBAAt(x, y int) color.RGBA }); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				p := rgba.RGBAAt(x, y)
				r += uint64(p.R)
				g += uint64(p.G)
				bl += uint64(p.B)
			}
		}
	} else {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				p := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
				r += uint64(p.R)
				g += uint64(p.G)
				bl += uint64(p.B)
			}
		}
	}

	return color.RGBA{
		R: uint8(r / total),
		G: uint8(g / total),
		B: uint8(bl / total),
		A: 255,
	}
}
