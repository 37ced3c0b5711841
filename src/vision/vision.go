// Package vision extracts text from captured images through the Google Cloud
// Vision text-detection API.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"screen-translator/src/apperr"
	"screen-translator/src/screenshot"
)

const (
	DefaultEndpoint = "https://vision.googleapis.com/v1/images:annotate"
	featureText     = "TEXT_DETECTION"
	maxErrorBody    = 4096
)

// Config configures a Client. Endpoint defaults to the public API.
type Config struct {
	APIKey     string
	Endpoint   string
	HTTPClient *http.Client
}

// Client is the remote recognizer.
type Client struct {
	apiKey   string
	endpoint string
	http     *http.Client
}

func New(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 45 * time.Second}
	}
	return &Client{apiKey: cfg.APIKey, endpoint: endpoint, http: hc}
}

// images:annotate wire structures
type annotateRequest struct {
	Requests []imageRequest `json:"requests"`
}

type imageRequest struct {
	Image    imageContent `json:"image"`
	Features []feature    `json:"features"`
}

type imageContent struct {
	Content string `json:"content"`
}

type feature struct {
	Type string `json:"type"`
}

type annotateResponse struct {
	Responses []imageResponse `json:"responses"`
	Error     *apiError       `json:"error,omitempty"`
}

type imageResponse struct {
	FullTextAnnotation *textAnnotation `json:"fullTextAnnotation,omitempty"`
	Error              *apiError       `json:"error,omitempty"`
}

type textAnnotation struct {
	Text string `json:"text"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Recognize returns the full-text annotation of img, or "" when the service
// detected no text.
func (c *Client) Recognize(ctx context.Context, img *screenshot.CapturedImage) (string, error) {
	if c.apiKey == "" {
		return "", apperr.New(apperr.KindRecognition, apperr.SubConfig, "API key is required")
	}

	payload, err := img.EncodePNG()
	if err != nil {
		return "", apperr.Wrap(err, apperr.KindRecognition, apperr.SubMalformed, "failed to serialize image")
	}

	request := annotateRequest{
		Requests: []imageRequest{{
			Image:    imageContent{Content: base64.StdEncoding.EncodeToString(payload)},
			Features: []feature{{Type: featureText}},
		}},
	}

	log.Printf("VISION: annotating %dx%d image (%d bytes)", img.Width(), img.Height(), len(payload))
	response, err := c.makeAPIRequest(ctx, request)
	if err != nil {
		return "", err
	}

	if response.Responses == nil {
		return "", apperr.New(apperr.KindRecognition, apperr.SubMalformed, "response has no responses field")
	}
	if len(response.Responses) == 0 {
		return "", apperr.New(apperr.KindRecognition, apperr.SubMalformed, "response has no entries")
	}
	first := response.Responses[0]
	if first.Error != nil {
		return "", apperr.New(apperr.KindRecognition, apperr.SubStatus,
			"annotate error: %s (code: %d)", first.Error.Message, first.Error.Code)
	}
	if first.FullTextAnnotation == nil {
		return "", nil
	}
	// The annotation always ends with a newline.
	return strings.TrimRight(first.FullTextAnnotation.Text, " \t\r\n"), nil
}

func (c *Client) makeAPIRequest(ctx context.Context, request annotateRequest) (*annotateResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindRecognition, apperr.SubMalformed, "failed to marshal request")
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindRecognition, apperr.SubConfig, "invalid endpoint %q", c.endpoint)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(jsonData))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindRecognition, apperr.SubConfig, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var decoded annotateResponse
		if json.Unmarshal(body, &decoded) == nil && decoded.Error != nil {
			return nil, apperr.New(apperr.KindRecognition, apperr.SubStatus,
				"API returned status %d: %s", resp.StatusCode, decoded.Error.Message)
		}
		return nil, apperr.New(apperr.KindRecognition, apperr.SubStatus, "API returned status %d", resp.StatusCode)
	}

	var response annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, transportError(ctxErr)
		}
		return nil, apperr.Wrap(err, apperr.KindRecognition, apperr.SubMalformed, "failed to decode response")
	}
	return &response, nil
}

func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(err, apperr.KindRecognition, apperr.SubTimeout, "request timed out")
	}
	return apperr.Wrap(err, apperr.KindRecognition, apperr.SubTransport, "API request failed")
}

// Recognizer is implemented by every text-detection backend.
type Recognizer interface {
	Recognize(ctx context.Context, img *screenshot.CapturedImage) (string, error)
}

// localBackend is set by builds that include an on-device recognizer.
var localBackend func() (Recognizer, error)

// NewRecognizer returns the backend named by provider: "google" (default) or
// "tesseract" when built with the tesseract tag.
func NewRecognizer(provider string, cfg Config) (Recognizer, error) {
	switch provider {
	case "", "google":
		return New(cfg), nil
	case "tesseract":
		if localBackend == nil {
			return nil, fmt.Errorf("tesseract backend not compiled in; rebuild with -tags tesseract")
		}
		return localBackend()
	default:
		return nil, fmt.Errorf("unknown OCR provider %q", provider)
	}
}
