package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service runs named dependency checks concurrently.
type Service struct {
	checkers map[string]Checker
	timeout  time.Duration
}

// New creates a Service. Nil checkers are skipped. timeout bounds each check (0 = none).
func New(checkers map[string]Checker, timeout time.Duration) *Service {
	c := make(map[string]Checker, len(checkers))
	for name, ch := range checkers {
		if ch != nil {
			c[name] = ch
		}
	}
	return &Service{checkers: c, timeout: timeout}
}

// Names lists the registered checks in sorted order.
func (s *Service) Names() []string {
	names := make([]string, 0, len(s.checkers))
	for name := range s.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.checkers))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, ch := range s.checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx := ctx
			if s.timeout > 0 {
				var cancel context.CancelFunc
				cctx, cancel = context.WithTimeout(ctx, s.timeout)
				defer cancel()
			}
			res := CheckOK
			if err := ch.HealthCheck(cctx); err != nil {
				res = CheckError
			}
			mu.Lock()
			checks[name] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	failed := 0
	for _, v := range checks {
		if v == CheckError {
			failed++
		}
	}

	status := Healthy
	switch {
	case failed > 0 && failed == len(checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
