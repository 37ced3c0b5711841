// Package apperr defines the error kinds a translation run can fail with.
// Every stage failure is reported as an *Error so the shell can tell which
// stage failed and why without parsing messages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind names the pipeline stage that failed.
type Kind int

const (
	KindUnknown Kind = iota
	KindCapture
	KindRecognition
	KindTranslation
	KindClipboard
	KindRender
)

func (k Kind) String() string {
	switch k {
	case KindCapture:
		return "CaptureError"
	case KindRecognition:
		return "RecognitionError"
	case KindTranslation:
		return "TranslationError"
	case KindClipboard:
		return "ClipboardError"
	case KindRender:
		return "RenderError"
	default:
		return "UnknownError"
	}
}

// Subkind narrows down the cause within a Kind.
type Subkind int

const (
	SubUnspecified  Subkind = iota
	SubTransport            // request never produced a response
	SubStatus               // non-success HTTP status or API error object
	SubMalformed            // body missing expected fields or not JSON
	SubTimeout              // stage deadline exceeded
	SubUnavailable          // primitive missing (no display, no clipboard)
	SubConfig               // missing key, bad endpoint
	SubInvalidInput         // empty or out-of-range region
)

func (s Subkind) String() string {
	return [...]string{"unspecified", "transport", "status", "malformed", "timeout", "unavailable", "config", "invalid-input"}[s]
}

// Error is the structured error returned by every stage.
type Error struct {
	Kind    Kind
	Sub     Subkind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("[%s/%s] %s", e.Kind, e.Sub, e.Message)
	if e.Cause != nil {
		s += fmt.Sprintf(": %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// New creates an error without a cause.
func New(kind Kind, sub Subkind, format string, args ...any) *Error {
	return &Error{Kind: kind, Sub: sub, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error around cause.
func Wrap(cause error, kind Kind, sub Subkind, format string, args ...any) *Error {
	return &Error{Kind: kind, Sub: sub, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// SubkindOf extracts the Subkind of err, or SubUnspecified.
func SubkindOf(err error) Subkind {
	var e *Error
	if errors.As(err, &e) {
		return e.Sub
	}
	return SubUnspecified
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
