package extraction

import (
	"context"
	"time"

	"documind-backend/internal/shared/telemetry"
)

// Engine combines entity recognition with the category rule table.
type Engine struct {
	// Recognizer is optional; without it entity fields are omitted.
	Recognizer EntityRecognizer
	Rules      *Registry
	Timeout    time.Duration
}

// NewEngine builds an engine over the default rule table.
func NewEngine(recognizer EntityRecognizer, timeout time.Duration) *Engine {
	return &Engine{Recognizer: recognizer, Rules: DefaultRegistry(), Timeout: timeout}
}

// Extract returns the fields found in text for category. It never fails: a
// recognizer error only drops the entity fields.
func (e *Engine) Extract(ctx context.Context, text, category string) Result {
	out := Result{}
	if e.Recognizer != nil && text != "" {
		for k, v := range e.entities(ctx, text) {
			out[k] = v
		}
	}
	for _, rule := range e.Rules.Rules(category) {
		if v, ok := rule.Apply(text); ok {
			out[rule.Field()] = v
		}
	}
	return out
}

func (e *Engine) entities(ctx context.Context, text string) Result {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	ents, err := e.Recognizer.Recognize(ctx, text)
	if err != nil {
		telemetry.Warn("extraction.entities_failed", map[string]any{"error": err.Error()})
		return nil
	}
	return entityFields(ents)
}
