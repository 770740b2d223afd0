package classify

import "errors"

var (
	// ErrModelUnavailable means the classifier's model artifacts are missing or unreachable.
	ErrModelUnavailable = errors.New("classification model unavailable")
	// ErrEmptyInput is returned for empty or whitespace-only text.
	ErrEmptyInput = errors.New("classification input is empty")
	// ErrInvalidPrediction is returned when the model output is out of range.
	ErrInvalidPrediction = errors.New("invalid classification output")
)
