package analysis

import (
	"errors"
	"strings"

	"documind-backend/internal/classify"
	"documind-backend/internal/documents"
	"documind-backend/internal/ocr"
)

// Kind is the stable failure code reported to callers and metrics.
type Kind string

const (
	KindInvalidInput         Kind = "invalid_input"
	KindExtractionFailed     Kind = "extraction_failed"
	KindNoTextFound          Kind = "no_text_found"
	KindModelUnavailable     Kind = "model_unavailable"
	KindClassificationFailed Kind = "classification_failed"
	KindStorage              Kind = "storage_error"
)

// ErrInvalidUpload marks an upload rejected before any processing.
var ErrInvalidUpload = errors.New("invalid upload")

// Error is a pipeline failure. Nothing is archived when Process returns one.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the failure kind carried by err.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if kind, ok := classifyFailure(err); ok {
		return kind
	}
	return KindClassificationFailed
}

func classifyFailure(err error) (Kind, bool) {
	switch {
	case errors.Is(err, ErrInvalidUpload), errors.Is(err, documents.ErrInvalidInput):
		return KindInvalidInput, true
	case errors.Is(err, ocr.ErrNoText):
		return KindNoTextFound, true
	case errors.Is(err, ocr.ErrExtraction):
		return KindExtractionFailed, true
	case errors.Is(err, documents.ErrStorage):
		return KindStorage, true
	case errors.Is(err, classify.ErrModelUnavailable):
		return KindModelUnavailable, true
	}
	return "", false
}

// fail wraps err with its known kind, or fallback when err carries none.
func fail(fallback Kind, err error) *Error {
	if kind, ok := classifyFailure(err); ok {
		return &Error{Kind: kind, Err: err}
	}
	return &Error{Kind: fallback, Err: err}
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
