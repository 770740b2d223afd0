package extraction

import (
	"strings"
	"sync"
)

// Registry maps a document category to the rules that apply to it.
type Registry struct {
	mu    sync.RWMutex
	rules map[string][]Rule
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string][]Rule)}
}

// DefaultRegistry returns the stock rule table.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("email", EmailRule{}, SubjectRule{})
	r.Register("resume", EmailRule{}, PhoneRule{})
	r.Register("invoice", TotalAmountRule{}, DatesRule{})
	return r
}

// Register appends rules for category.
func (r *Registry) Register(category string, rules ...Rule) {
	key := normalizeCategory(category)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[key] = append(r.rules[key], rules...)
}

// Rules returns the rules registered for category.
func (r *Registry) Rules(category string) []Rule {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Rule(nil), r.rules[normalizeCategory(category)]...)
}

// Categories lists categories with at least one rule.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.rules))
	for k := range r.rules {
		out = append(out, k)
	}
	return out
}

func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}
