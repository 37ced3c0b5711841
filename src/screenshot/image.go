package screenshot

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
)

// CapturedImage is an immutable pixel buffer produced by a capture. It
// implements image.Image so it can be read by encoders and renderers, but it
// exposes no way to modify the pixels.
type CapturedImage struct {
	pix *image.RGBA
}

// NewCapturedImage copies src into a fresh buffer anchored at (0,0). Later
// changes to src are not visible through the result.
func NewCapturedImage(src image.Image) *CapturedImage {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return &CapturedImage{pix: dst}
}

func (c *CapturedImage) Width() int  { return c.pix.Rect.Dx() }
func (c *CapturedImage) Height() int { return c.pix.Rect.Dy() }

func (c *CapturedImage) ColorModel() color.Model { return color.RGBAModel }
func (c *CapturedImage) Bounds() image.Rectangle { return c.pix.Rect }
func (c *CapturedImage) At(x, y int) color.Color { return c.pix.RGBAAt(x, y) }

// RGBAAt returns the pixel at (x, y) without an interface conversion.
func (c *CapturedImage) RGBAAt(x, y int) color.RGBA { return c.pix.RGBAAt(x, y) }

// EncodePNG serializes the image losslessly.
func (c *CapturedImage) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, c.pix); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodePNG reads a PNG payload into a CapturedImage.
func DecodePNG(data []byte) (*CapturedImage, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG: %w", err)
	}
	return NewCapturedImage(img), nil
}
