// Package translate sends recognized text to the Google Cloud Translation v2
// API.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"screen-translator/src/apperr"
)

const (
	DefaultEndpoint = "https://translation.googleapis.com/language/translate/v2"
	maxErrorBody    = 4096
)

type Config struct {
	APIKey     string
	Endpoint   string
	HTTPClient *http.Client
}

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

type translateRequest struct {
	Q      string `json:"q"`
	Target string `json:"target"`
	Format string `json:"format,omitempty"`
}

type translateResponse struct {
	Data  *translationData `json:"data"`
	Error *apiError        `json:"error,omitempty"`
}

type translationData struct {
	Translations []translation `json:"translations"`
}

type translation struct {
	TranslatedText         *string `json:"translatedText"`
	DetectedSourceLanguage string  `json:"detectedSourceLanguage,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Translate returns text translated into target. Empty text short-circuits
// to "" without a request.
func (c *Client) Translate(ctx context.Context, text, target string) (string, error) {
	if text == "" {
		return "", nil
	}
	if c.apiKey == "" {
		return "", apperr.New(apperr.KindTranslation, apperr.SubConfig, "API key is required")
	}
	if target == "" {
		return "", apperr.New(apperr.KindTranslation, apperr.SubConfig, "target language is required")
	}

	// "text" keeps line breaks and avoids HTML entities in the result.
	request := translateRequest{Q: text, Target: target, Format: "text"}
	log.Printf("TRANSLATE: %d chars -> %s", len(text), target)

	response, err := c.makeAPIRequest(ctx, request)
	if err != nil {
		return "", err
	}

	if response.Data == nil || len(response.Data.Translations) == 0 {
		return "", apperr.New(apperr.KindTranslation, apperr.SubMalformed, "response has no translations")
	}
	first := response.Data.Translations[0]
	if first.TranslatedText == nil {
		return "", apperr.New(apperr.KindTranslation, apperr.SubMalformed, "translation has no translatedText field")
	}
	if first.DetectedSourceLanguage != "" {
		log.Printf("TRANSLATE: detected source language %s", first.DetectedSourceLanguage)
	}
	return *first.TranslatedText, nil
}

func (c *Client) makeAPIRequest(ctx context.Context, request translateRequest) (*translateResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindTranslation, apperr.SubMalformed, "failed to marshal request")
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindTranslation, apperr.SubConfig, "invalid endpoint %q", c.endpoint)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(jsonData))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindTranslation, apperr.SubConfig, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var decoded translateResponse
		if json.Unmarshal(body, &decoded) == nil && decoded.Error != nil {
			return nil, apperr.New(apperr.KindTranslation, apperr.SubStatus,
				"API returned status %d: %s", resp.StatusCode, decoded.Error.Message)
		}
		return nil, apperr.New(apperr.KindTranslation, apperr.SubStatus, "API returned status %d", resp.StatusCode)
	}

	var response translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, transportError(ctxErr)
		}
		return nil, apperr.Wrap(err, apperr.KindTranslation, apperr.SubMalformed, "failed to decode response")
	}
	return &response, nil
}

func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(err, apperr.KindTranslation, apperr.SubTimeout, "request timed out")
	}
	return apperr.Wrap(err, apperr.KindTranslation, apperr.SubTransport, "API request failed")
}
