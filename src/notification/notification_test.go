package notification

import (
	"errors"
	"strings"
	"testing"

	"screen-translator/src/apperr"
)

func TestStartupMessage(t *testing.T) {
	cfgErr := apperr.New(apperr.KindRecognition, apperr.SubConfig, "API key missing")
	if msg := startupMessage(cfgErr); !strings.Contains(msg, "GOOGLE_API_KEY") || !strings.Contains(msg, "API key missing") {
		t.Fatalf("config message = %q", msg)
	}
	if msg := startupMessage(errors.New("dial tcp: refused")); !strings.Contains(msg, "network") {
		t.Fatalf("generic message = %q", msg)
	}
}
