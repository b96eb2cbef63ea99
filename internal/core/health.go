package core

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
)

// healthCheckTimeout bounds the whole health check.
const healthCheckTimeout = 2 * time.Second

// HealthProbe checks one dependency.
type HealthProbe interface {
	Name() string
	Check(ctx context.Context) error
}

type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

// HandleHealth runs every probe concurrently. It answers 200 when all pass and
// 503 when any fails or does not finish within healthCheckTimeout.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{Status: "healthy"}
	if s.Config != nil {
		resp.Version = s.Config.Build.Version
	}

	probes := s.HealthProbes
	if len(probes) == 0 {
		JSON(w, r, http.StatusOK, resp)
		return
	}

	// Each goroutine writes only its own slot.
	results := make([]error, len(probes))
	var g errgroup.Group
	for i, probe := range probes {
		g.Go(func() error {
			results[i] = runProbe(ctx, probe)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	timedOut := false
	select {
	case <-done:
	case <-ctx.Done():
		timedOut = true
	}

	resp.Components = make(map[string]componentStatus, len(probes))
	status := http.StatusOK
	for i, probe := range probes {
		var err error
		if timedOut {
			err = fmt.Errorf("health check timed out")
		} else {
			err = results[i]
		}

		if err != nil {
			status = http.StatusServiceUnavailable
			resp.Status = "unhealthy"
			resp.Components[probe.Name()] = componentStatus{Status: "unhealthy", Message: err.Error()}
			continue
		}
		resp.Components[probe.Name()] = componentStatus{Status: "healthy"}
	}

	JSON(w, r, status, resp)
}

func runProbe(ctx context.Context, p HealthProbe) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			err = fmt.Errorf("probe panicked: %v", rvr)
		}
	}()
	return p.Check(ctx)
}

// BreakerProbe reports a circuit breaker as unhealthy while it is open.
type BreakerProbe struct {
	name  string
	state func() gobreaker.State
}

// NewBreakerProbe creates a probe over the given state accessor.
func NewBreakerProbe(name string, state func() gobreaker.State) *BreakerProbe {
	return &BreakerProbe{name: name, state: state}
}

// Name returns the probe name.
func (p *BreakerProbe) Name() string { return p.name }

// Check fails while the breaker is open. Half-open counts as healthy since the
// breaker is already probing the upstream.
func (p *BreakerProbe) Check(context.Context) error {
	if st := p.state(); st == gobreaker.StateOpen {
		return fmt.Errorf("circuit breaker %s", st)
	}
	return nil
}
