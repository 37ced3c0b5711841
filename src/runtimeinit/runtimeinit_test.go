package runtimeinit

import (
	"path/filepath"
	"strings"
	"testing"

	"screen-translator/src/apperr"
	"screen-translator/src/config"
)

func TestNewClientsMissingKey(t *testing.T) {
	_, err := NewClients(&config.Config{APIKeyPath: "/nowhere", OCRProvider: "google"})
	if err == nil {
		t.Fatal("Expected missing key error")
	}
	if apperr.SubkindOf(err) != apperr.SubConfig {
		t.Fatalf("Expected config subkind, got %v", apperr.SubkindOf(err))
	}
	if !strings.Contains(err.Error(), config.APIKeyEnvVar) {
		t.Fatalf("Expected the env var to be named, got %q", err)
	}
}

func TestNewClientsUnknownProvider(t *testing.T) {
	_, err := NewClients(&config.Config{APIKey: "k", OCRProvider: "abbyy"})
	if err == nil || apperr.KindOf(err) != apperr.KindRecognition {
		t.Fatalf("Expected recognition error, got %v", err)
	}
}

func TestNewClients(t *testing.T) {
	c, err := NewClients(&config.Config{APIKey: "k", OCRProvider: "google"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Recognizer == nil || c.Translator == nil {
		t.Fatalf("Expected both clients, got %+v", c)
	}
}

func TestBootstrapAppliesOverrides(t *testing.T) {
	t.Setenv(config.APIKeyEnvVar, "")
	keyFile := filepath.Join(t.TempDir(), "key")
	var logging *bool
	cfg, err := Bootstrap(Options{
		LoadOptions:  config.LoadOptions{APIKeyPathOverride: keyFile, TargetLanguageOverride: "ja"},
		SetupLogging: func(b bool) { logging = &b },
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKeyPath != keyFile || cfg.TargetLanguage != "ja" {
		t.Fatalf("Overrides not applied: %+v", cfg)
	}
	if logging == nil {
		t.Fatal("Expected SetupLogging to be called")
	}
}
