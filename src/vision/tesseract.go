//go:build tesseract

package vision

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"screen-translator/src/apperr"
	"screen-translator/src/screenshot"
)

func init() {
	localBackend = func() (Recognizer, error) { return &TesseractClient{}, nil }
}

// TesseractClient recognizes text on-device with libtesseract. It honours
// ctx only between stages since the engine call itself is not interruptible.
type TesseractClient struct {
	Languages []string
}

func (t *TesseractClient) Recognize(ctx context.Context, img *screenshot.CapturedImage) (string, error) {
	payload, err := img.EncodePNG()
	if err != nil {
		return "", apperr.Wrap(err, apperr.KindRecognition, apperr.SubMalformed, "failed to serialize image")
	}

	client := gosseract.NewClient()
	defer client.Close()

	if len(t.Languages) > 0 {
		if err := client.SetLanguage(t.Languages...); err != nil {
			return "", apperr.Wrap(err, apperr.KindRecognition, apperr.SubConfig, "failed to set languages")
		}
	}
	if err := client.SetImageFromBytes(payload); err != nil {
		return "", apperr.Wrap(err, apperr.KindRecognition, apperr.SubMalformed, "failed to load image")
	}
	if err := ctx.Err(); err != nil {
		return "", transportError(err)
	}

	text, err := client.Text()
	if err != nil {
		return "", apperr.Wrap(err, apperr.KindRecognition, apperr.SubUnavailable, "tesseract failed")
	}
	return strings.TrimSpace(text), nil
}
