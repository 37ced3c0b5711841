package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, KindRecognition, SubTransport, "vision request to %s", "localhost")

	msg := err.Error()
	if !strings.Contains(msg, "RecognitionError/transport") {
		t.Errorf("expected kind/subkind prefix, got %q", msg)
	}
	if !strings.Contains(msg, "connection refused") {
		t.Errorf("expected cause in message, got %q", msg)
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	base := New(KindTranslation, SubMalformed, "missing translations")
	wrapped := fmt.Errorf("run failed: %w", base)

	if got := KindOf(wrapped); got != KindTranslation {
		t.Errorf("KindOf = %v, want %v", got, KindTranslation)
	}
	if got := SubkindOf(wrapped); got != SubMalformed {
		t.Errorf("SubkindOf = %v, want %v", got, SubMalformed)
	}
	if !Is(wrapped, KindTranslation) {
		t.Error("expected Is to match translation kind")
	}
	if Is(wrapped, KindCapture) {
		t.Error("did not expect Is to match capture kind")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("expected plain errors to have unknown kind")
	}
	if Is(nil, KindUnknown) {
		t.Error("nil error must not match any kind")
	}
}
