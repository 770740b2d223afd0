package ocr

import "errors"

var (
	// ErrExtraction covers unreadable files, unsupported formats and engine failures.
	ErrExtraction = errors.New("text extraction failed")
	// ErrNoText means extraction succeeded but produced no usable text.
	ErrNoText = errors.New("no text found in document")
)
