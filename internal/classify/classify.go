// Package classify wraps the sequence-classification model.
package classify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"documind-backend/internal/inference"
)

// Prediction is the raw model output.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"score"`
}

// Model maps text to a raw label and confidence.
type Model interface {
	Predict(ctx context.Context, text string) (Prediction, error)
}

// Classifier validates model output and applies the label remap table.
type Classifier struct {
	Model Model
	// Labels maps raw model labels to display categories; unknown labels pass through.
	Labels  map[string]string
	Timeout time.Duration
}

// New returns a Classifier. A nil model yields ErrModelUnavailable on every call.
func New(model Model, labels map[string]string, timeout time.Duration) *Classifier {
	if model == nil {
		model = PlaceholderModel{}
	}
	return &Classifier{Model: model, Labels: labels, Timeout: timeout}
}

// Classify returns the remapped category and confidence for text.
func (c *Classifier) Classify(ctx context.Context, text string) (string, float64, error) {
	if strings.TrimSpace(text) == "" {
		return "", 0, ErrEmptyInput
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	pred, err := c.Model.Predict(ctx, text)
	if err != nil {
		if errors.Is(err, inference.ErrUnavailable) || errors.Is(err, inference.ErrNotConfigured) ||
			errors.Is(err, context.DeadlineExceeded) {
			return "", 0, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
		return "", 0, fmt.Errorf("classify: %w", err)
	}
	if math.IsNaN(pred.Confidence) || pred.Confidence < 0 || pred.Confidence > 1 {
		return "", 0, fmt.Errorf("%w: confidence %v", ErrInvalidPrediction, pred.Confidence)
	}
	label := strings.TrimSpace(pred.Label)
	if label == "" {
		return "", 0, fmt.Errorf("%w: empty label", ErrInvalidPrediction)
	}
	return c.Remap(label), pred.Confidence, nil
}

// Remap translates a raw label through the lookup table.
func (c *Classifier) Remap(label string) string {
	if display, ok := c.Labels[label]; ok {
		return display
	}
	return label
}

// Ready probes the model when it supports readiness checks.
func (c *Classifier) Ready(ctx context.Context) error {
	type prober interface {
		Ready(ctx context.Context) error
	}
	p, ok := c.Model.(prober)
	if !ok {
		return nil
	}
	if err := p.Ready(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return nil
}

// PlaceholderModel is used when no classifier endpoint is configured.
type PlaceholderModel struct{}

// Predict returns ErrModelUnavailable.
func (PlaceholderModel) Predict(ctx context.Context, text string) (Prediction, error) {
	_ = ctx
	_ = text
	return Prediction{}, ErrModelUnavailable
}

// Ready returns ErrModelUnavailable.
func (PlaceholderModel) Ready(ctx context.Context) error {
	return ErrModelUnavailable
}
