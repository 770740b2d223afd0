package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

const defaultCheckTimeout = 2 * time.Second

// CheckFunc reports whether one dependency is usable.
type CheckFunc func(ctx context.Context) error

type check struct {
	fn       CheckFunc
	required bool
}

// Service runs registered dependency checks.
type Service struct {
	Timeout time.Duration

	mu     sync.RWMutex
	checks map[string]check
}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{Timeout: defaultCheckTimeout, checks: make(map[string]check)}
}

// Register adds a named check. A failing required check marks the service
// unhealthy; an optional one is only reported.
func (s *Service) Register(name string, required bool, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check{fn: fn, required: required}
}

// Report is the health payload.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks"`
}

// Status runs every check concurrently, each under its own timeout.
func (s *Service) Status(ctx context.Context) Report {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	checks := make([]check, len(names))
	for i, name := range names {
		checks[i] = s.checks[name]
	}
	s.mu.RUnlock()

	results := make([]error, len(names))
	var wg sync.WaitGroup
	for i := range checks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, s.timeout())
			defer cancel()
			results[i] = checks[i].fn(cctx)
		}(i)
	}
	wg.Wait()

	report := Report{OK: true, Checks: make(map[string]string, len(names))}
	for i, name := range names {
		if results[i] == nil {
			report.Checks[name] = "ok"
			continue
		}
		report.Checks[name] = "unavailable"
		if checks[i].required {
			report.OK = false
		}
	}
	return report
}

func (s *Service) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return defaultCheckTimeout
}
