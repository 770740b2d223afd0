package documents

import "errors"

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidInput = errors.New("invalid document")
	ErrStorage      = errors.New("storage error")
)
