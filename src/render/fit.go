package render

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

const (
	DefaultMaxSize = 16
	DefaultMinSize = 1
	// screenDPI converts point sizes to pixels the way desktop toolkits do.
	screenDPI = 96
)

// FaceSource provides a font face for a point size.
type FaceSource interface {
	Face(size int) (font.Face, error)
}

// BoldFaces serves the bundled Go Bold typeface at any size. Faces are
// cached and shared; callers must not close them.
type BoldFaces struct {
	once  sync.Once
	font  *opentype.Font
	err   error
	mu    sync.Mutex
	faces map[int]font.Face
}

func (b *BoldFaces) Face(size int) (font.Face, error) {
	b.once.Do(func() {
		b.font, b.err = opentype.Parse(gobold.TTF)
		b.faces = make(map[int]font.Face)
	})
	if b.err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", b.err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if f, ok := b.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(b.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     screenDPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %dpt face: %w", size, err)
	}
	b.faces[size] = f
	return f, nil
}

// FitOptions bounds the font-size search.
type FitOptions struct {
	MaxSize int
	MinSize int
}

func (o FitOptions) withDefaults() FitOptions {
	if o.MaxSize <= 0 {
		o.MaxSize = DefaultMaxSize
	}
	if o.MinSize <= 0 {
		o.MinSize = DefaultMinSize
	}
	if o.MinSize > o.MaxSize {
		o.MinSize = o.MaxSize
	}
	return o
}

// Layout is text wrapped to a box at a chosen size.
type Layout struct {
	Size       int
	Lines      []string
	Width      int
	Height     int
	Degenerate bool // nothing fit; Size is the minimum
	face       font.Face
}

// FitText picks the largest size from opts.MaxSize down to opts.MinSize, in
// whole-point steps, at which text wrapped to width fits inside width x
// height. When no size fits it returns the minimum-size layout with
// Degenerate set instead of failing.
func FitText(text string, width, height int, opts FitOptions, faces FaceSource) (Layout, error) {
	opts = opts.withDefaults()

	var last Layout
	for size := opts.MaxSize; size >= opts.MinSize; size-- {
		face, err := faces.Face(size)
		if err != nil {
			return Layout{}, err
		}
		l := measure(face, text, width)
		l.Size = size
		if l.Width <= width && l.Height <= height {
			return l, nil
		}
		last = l
	}
	last.Degenerate = true
	return last, nil
}

func measure(face font.Face, text string, maxWidth int) Layout {
	// Trailing blank lines would only shrink the font.
	text = strings.TrimRight(text, " \t\r\n")
	lines := wrap(face, text, maxWidth)
	lineHeight := face.Metrics().Height.Ceil()

	w := 0
	for _, line := range lines {
		if lw := font.MeasureString(face, line).Ceil(); lw > w {
			w = lw
		}
	}
	h := 0
	if text != "" {
		h = len(lines) * lineHeight
	}
	return Layout{Lines: lines, Width: w, Height: h, face: face}
}

// wrap breaks text at word boundaries so each line fits maxWidth. Explicit
// newlines are kept. A word wider than maxWidth starts its own line and is
// split between runes.
func wrap(face font.Face, text string, maxWidth int) []string {
	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		current := ""
		for _, word := range words {
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if font.MeasureString(face, candidate).Ceil() <= maxWidth {
				current = candidate
				continue
			}
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			if font.MeasureString(face, word).Ceil() <= maxWidth {
				current = word
				continue
			}
			chunks := splitRunes(face, word, maxWidth)
			lines = append(lines, chunks[:len(chunks)-1]...)
			current = chunks[len(chunks)-1]
		}
		lines = append(lines, current)
	}
	return lines
}

// splitRunes cuts word into pieces no wider than maxWidth; every piece holds
// at least one rune.
func splitRunes(face font.Face, word string, maxWidth int) []string {
	var chunks []string
	start := 0
	for i := 0; i < len(word); {
		_, n := utf8.DecodeRuneInString(word[i:])
		if i > start && font.MeasureString(face, word[start:i+n]).Ceil() > maxWidth {
			chunks = append(chunks, word[start:i])
			start = i
		}
		i += n
	}
	return append(chunks, word[start:])
}
