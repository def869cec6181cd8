package seeker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	healthuc "github.com/kailas-cloud/seeker/internal/usecase/health"
)

// HealthStatus is the outcome of probing the retriever and the language model.
// Providers the SDK did not build (custom embedders, synthesizers, the pipeline) have no health check.
type HealthStatus struct {
	Status  string            // "ok", "degraded", "error"
	Backend string            // retrieval backend kind
	Checks  map[string]string // "retriever", "llm" → "ok"/"error"
}

// Healthy reports whether every check passed.
func (h HealthStatus) Healthy() bool { return h.Status == string(healthuc.Healthy) }

// Failing lists the checks that did not pass, sorted.
func (h HealthStatus) Failing() []string {
	var out []string
	for name, res := range h.Checks {
		if res != string(healthuc.CheckOK) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Health runs the checks concurrently, each bounded by a five second timeout.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.healthSvc.Check(ctx)

	h := HealthStatus{
		Status:  string(report.Status),
		Backend: c.obs.backend,
		Checks:  make(map[string]string, len(report.Checks)),
	}
	for name, res := range report.Checks {
		h.Checks[name] = string(res)
	}

	var err error
	if !h.Healthy() {
		err = fmt.Errorf("seeker: unhealthy: %s", strings.Join(h.Failing(), ", "))
	}
	c.obs.observe("health", start, err)
	return h
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
