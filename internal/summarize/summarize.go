// Package summarize wraps an abstractive summarization model. Summarize never
// returns an error; failures are encoded in the returned summary text.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"documind-backend/internal/inference"
	"documind-backend/internal/shared/telemetry"
)

// TooShortMessage is returned for documents under MinWords words.
const TooShortMessage = "Document is too short to summarize"

const (
	MinWords              = 50
	DefaultMaxInputTokens = 1000
	DefaultMinLength      = 30
	DefaultMaxLength      = 130
)

// Status describes how a summary was produced.
type Status string

const (
	StatusOK       Status = "ok"
	StatusTooShort Status = "too_short"
	StatusFailed   Status = "failed"
)

// Params are the generation bounds passed to the model.
type Params struct {
	MinLength int
	MaxLength int
	Sample    bool
}

// Model is an abstractive summarizer with its own tokenizer.
type Model interface {
	Tokenize(ctx context.Context, text string) ([]int, error)
	Detokenize(ctx context.Context, ids []int) (string, error)
	Generate(ctx context.Context, text string, p Params) (string, error)
}

// Summary is the outcome of one Summarize call.
type Summary struct {
	Text   string `json:"text"`
	Status Status `json:"status"`
	Err    error  `json:"-"`
}

// Degraded reports whether the text is a placeholder rather than a model summary.
func (s Summary) Degraded() bool {
	return s.Status != StatusOK
}

// Summarizer cleans, guards and bounds text before calling the model.
type Summarizer struct {
	Model          Model
	MaxInputTokens int
	MinLength      int
	MaxLength      int
	// Timeout bounds each model call; zero means no extra deadline.
	Timeout time.Duration
}

// New returns a Summarizer with default bounds.
func New(model Model, timeout time.Duration) *Summarizer {
	return &Summarizer{
		Model:          model,
		MaxInputTokens: DefaultMaxInputTokens,
		MinLength:      DefaultMinLength,
		MaxLength:      DefaultMaxLength,
		Timeout:        timeout,
	}
}

// Clean collapses whitespace runs into single spaces and trims.
func Clean(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Summarize produces a summary of text. Texts under MinWords words get
// TooShortMessage without touching the model.
func (s *Summarizer) Summarize(ctx context.Context, text string) Summary {
	cleaned := Clean(text)
	if len(strings.Fields(cleaned)) < MinWords {
		return Summary{Text: TooShortMessage, Status: StatusTooShort}
	}

	out, err := s.generate(ctx, cleaned)
	if err != nil {
		telemetry.Warn("summarize.failed", map[string]any{
			"error_type": errorType(err),
			"error":      err.Error(),
		})
		return Summary{
			Text:   fmt.Sprintf("Error generating summary: %s: %s", errorType(err), err.Error()),
			Status: StatusFailed,
			Err:    err,
		}
	}
	return Summary{Text: strings.TrimSpace(out), Status: StatusOK}
}

func (s *Summarizer) generate(ctx context.Context, cleaned string) (out string, err error) {
	if s.Model == nil {
		return "", inference.ErrNotConfigured
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = &panicError{value: rec}
		}
	}()

	input := cleaned
	var ids []int
	if err := s.call(ctx, func(ctx context.Context) (err error) {
		ids, err = s.Model.Tokenize(ctx, cleaned)
		return err
	}); err != nil {
		return "", fmt.Errorf("tokenize: %w", err)
	}
	if max := s.maxInputTokens(); len(ids) > max {
		if err := s.call(ctx, func(ctx context.Context) (err error) {
			input, err = s.Model.Detokenize(ctx, ids[:max])
			return err
		}); err != nil {
			return "", fmt.Errorf("detokenize: %w", err)
		}
	}

	params := Params{MinLength: s.MinLength, MaxLength: s.MaxLength, Sample: false}
	if params.MinLength <= 0 {
		params.MinLength = DefaultMinLength
	}
	if params.MaxLength <= 0 {
		params.MaxLength = DefaultMaxLength
	}
	if err := s.call(ctx, func(ctx context.Context) (err error) {
		out, err = s.Model.Generate(ctx, input, params)
		return err
	}); err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return out, nil
}

func (s *Summarizer) call(ctx context.Context, fn func(context.Context) error) error {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	return fn(ctx)
}

func (s *Summarizer) maxInputTokens() int {
	if s.MaxInputTokens <= 0 {
		return DefaultMaxInputTokens
	}
	return s.MaxInputTokens
}

type panicError struct {
	value any
}

func (p *panicError) Error() string {
	return fmt.Sprintf("model panicked: %v", p.value)
}

// errorType names the failure for the placeholder summary.
func errorType(err error) string {
	var pe *panicError
	var statusErr *inference.StatusError
	switch {
	case errors.As(err, &pe):
		return "PanicError"
	case errors.Is(err, context.DeadlineExceeded):
		return "TimeoutError"
	case errors.Is(err, context.Canceled):
		return "CanceledError"
	case errors.Is(err, inference.ErrNotConfigured), errors.Is(err, inference.ErrUnavailable):
		return "ModelUnavailableError"
	case errors.Is(err, inference.ErrInvalidResponse):
		return "InvalidResponseError"
	case errors.As(err, &statusErr):
		return "StatusError"
	default:
		return "SummarizationError"
	}
}
