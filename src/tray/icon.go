package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"runtime"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const iconSize = 32

var (
	iconFrame = color.RGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0xff}
	iconFill  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	iconText  = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
)

// languageFrames tints the frame per target language.
var languageFrames = map[string]color.RGBA{
	"it": {R: 0x00, G: 0x92, B: 0x46, A: 0xff},
	"es": {R: 0xc6, G: 0x0b, B: 0x1e, A: 0xff},
	"fr": {R: 0x00, G: 0x55, B: 0xa4, A: 0xff},
	"de": {R: 0x20, G: 0x20, B: 0x20, A: 0xff},
	"en": {R: 0x01, G: 0x21, B: 0x69, A: 0xff},
}

func frameColor(lang string) color.RGBA {
	if c, ok := languageFrames[lang]; ok {
		return c
	}
	return iconFrame
}

// iconImage draws the tray glyph: a selection frame holding the target
// language code, or a "T" when no language is known.
func iconImage(lang string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(frameColor(lang)), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(3, 3, iconSize-3, iconSize-3), image.NewUniform(iconFill), image.Point{}, draw.Src)

	label := strings.ToUpper(lang)
	face := basicfont.Face7x13
	if label == "" || font.MeasureString(face, label).Ceil() > iconSize-6 {
		draw.Draw(img, image.Rect(8, 8, iconSize-8, 12), image.NewUniform(iconText), image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(14, 12, 18, iconSize-7), image.NewUniform(iconText), image.Point{}, draw.Src)
		return img
	}

	d := font.Drawer{Dst: img, Src: image.NewUniform(iconText), Face: face}
	w := d.MeasureString(label).Ceil()
	m := face.Metrics()
	textH := (m.Ascent + m.Descent).Ceil()
	d.Dot = fixed.P((iconSize-w)/2, (iconSize-textH)/2+m.Ascent.Ceil())
	d.DrawString(label)
	return img
}

// Icon returns the tray icon for lang in the format systray expects on this
// platform: ICO on Windows, PNG elsewhere.
func Icon(lang string) []byte {
	data, err := iconPNG(lang)
	if err != nil {
		return nil
	}
	if runtime.GOOS == "windows" {
		return wrapICO(data, iconSize)
	}
	return data
}

func iconPNG(lang string) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, iconImage(lang)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// wrapICO packs a single PNG image into an ICO container.
func wrapICO(pngData []byte, size int) []byte {
	const headerLen = 6 + 16
	var buf bytes.Buffer
	le := binary.LittleEndian
	_ = binary.Write(&buf, le, [3]uint16{0, 1, 1}) // reserved, type icon, count
	buf.WriteByte(byte(size))
	buf.WriteByte(byte(size))
	buf.WriteByte(0)                       // palette
	buf.WriteByte(0)                       // reserved
	_ = binary.Write(&buf, le, uint16(1))  // planes
	_ = binary.Write(&buf, le, uint16(32)) // bpp
	_ = binary.Write(&buf, le, uint32(len(pngData)))
	_ = binary.Write(&buf, le, uint32(headerLen))
	buf.Write(pngData)
	return buf.Bytes()
}
