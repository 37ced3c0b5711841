package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Rasterize paints the overlay frame: a flat background with the layout's
// lines drawn left- and top-aligned in solid black.
func Rasterize(l Layout, width, height int, bg color.RGBA) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(frame, frame.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	if l.face == nil {
		return frame
	}

	m := l.face.Metrics()
	d := &font.Drawer{
		Dst:  frame,
		Src:  image.NewUniform(color.Black),
		Face: l.face,
	}
	baseline := m.Ascent
	for _, line := range l.Lines {
		d.Dot = fixed.Point26_6{X: 0, Y: baseline}
		d.DrawString(line)
		baseline += m.Height
	}
	return frame
}
