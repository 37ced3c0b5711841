// Package runtimeinit loads configuration and builds the recognition and
// translation clients shared by the tray app and the command-line tool.
package runtimeinit

import (
	"fmt"
	"log"

	"screen-translator/src/apperr"
	"screen-translator/src/config"
	"screen-translator/src/logutil"
	"screen-translator/src/translate"
	"screen-translator/src/vision"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
}

// Clients are the two remote stages of a translation run.
type Clients struct {
	Recognizer vision.Recognizer
	Translator *translate.Client
}

// Bootstrap loads the configuration and applies its logging settings.
func Bootstrap(opts Options) (*config.Config, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}
	return cfg, nil
}

// NewClients builds the recognizer and translator described by cfg. A
// missing key is only tolerated with the local tesseract recognizer.
func NewClients(cfg *config.Config) (Clients, error) {
	if cfg.APIKey == "" && cfg.OCRProvider != "tesseract" {
		return Clients{}, MissingKeyError(cfg)
	}
	recognizer, err := vision.NewRecognizer(cfg.OCRProvider, vision.Config{
		APIKey:   cfg.APIKey,
		Endpoint: cfg.VisionEndpoint,
	})
	if err != nil {
		return Clients{}, apperr.Wrap(err, apperr.KindRecognition, apperr.SubConfig, "recognizer unavailable")
	}
	translator := translate.New(translate.Config{
		APIKey:   cfg.APIKey,
		Endpoint: cfg.TranslateEndpoint,
	})
	log.Printf("Clients ready: provider=%s key=%s", cfg.OCRProvider, logutil.RedactKey(cfg.APIKey))
	return Clients{Recognizer: recognizer, Translator: translator}, nil
}

func MissingKeyError(cfg *config.Config) error {
	return apperr.New(apperr.KindRecognition, apperr.SubConfig,
		"%s not found. Checked key file %s and the %s env var",
		config.APIKeyEnvVar, cfg.APIKeyPath, config.APIKeyEnvVar)
}
