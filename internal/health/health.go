// SPDX-License-Identifier: MIT

// Package health provides liveness and readiness endpoints with per-component
// status for container probes.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/ManuGH/informant/internal/log"
)

// Status represents the overall health/readiness status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a component health check
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse represents the full health check response
type HealthResponse struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker defines the interface for health checks
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager manages health and readiness checks
type Manager struct {
	version  string
	timeout  time.Duration
	checkers []Checker
}

// NewManager creates a new health check manager
func NewManager(version string) *Manager {
	return &Manager{
		version: version,
		timeout: 2 * time.Second,
	}
}

// RegisterChecker adds a health checker to the manager
func (m *Manager) RegisterChecker(checker Checker) {
	m.checkers = append(m.checkers, checker)
}

// run executes every checker and folds the results into one status.
func (m *Manager) run(ctx context.Context) (Status, map[string]CheckResult) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	status := StatusHealthy
	checks := make(map[string]CheckResult, len(m.checkers))
	for _, checker := range m.checkers {
		result := checker.Check(ctx)
		checks[checker.Name()] = result
		switch result.Status {
		case StatusUnhealthy:
			status = StatusUnhealthy
		case StatusDegraded:
			if status == StatusHealthy {
				status = StatusDegraded
			}
		}
	}
	return status, checks
}

// Health performs a health check (liveness probe). Component checks only run
// when verbose is set; liveness itself never depends on them.
func (m *Manager) Health(ctx context.Context, verbose bool) HealthResponse {
	resp := HealthResponse{
		Status:    StatusHealthy,
		Version:   m.version,
		Timestamp: time.Now(),
	}
	if verbose && len(m.checkers) > 0 {
		resp.Status, resp.Checks = m.run(ctx)
	}
	return resp
}

// Ready performs a readiness check (readiness probe). Any unhealthy component
// makes the service not ready; degraded components do not.
func (m *Manager) Ready(ctx context.Context) ReadinessResponse {
	resp := ReadinessResponse{
		Ready:     true,
		Status:    StatusHealthy,
		Timestamp: time.Now(),
	}
	if len(m.checkers) == 0 {
		return resp
	}
	resp.Status, resp.Checks = m.run(ctx)
	resp.Ready = resp.Status != StatusUnhealthy
	return resp
}

// ServeHealth handles HTTP health check requests
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	verbose := r.URL.Query().Get("verbose") == "true"
	resp := m.Health(r.Context(), verbose)

	render.Status(r, http.StatusOK) // Always 200 for liveness
	render.JSON(w, r, resp)

	logger := log.WithContext(r.Context(), log.WithComponent("health"))
	logger.Debug().
		Str("event", "health.checked").
		Str("status", string(resp.Status)).
		Bool("verbose", verbose).
		Msg("health check performed")
}

// ServeReady handles HTTP readiness check requests
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	resp := m.Ready(r.Context())

	if resp.Ready {
		render.Status(r, http.StatusOK)
	} else {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, resp)

	logger := log.WithContext(r.Context(), log.WithComponent("health"))
	logger.Debug().
		Str("event", "readiness.checked").
		Str("status", string(resp.Status)).
		Bool("ready", resp.Ready).
		Msg("readiness check performed")
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc struct {
	name string
	fn   func(ctx context.Context) error
}

// NewCheckerFunc reports unhealthy whenever fn returns an error.
func NewCheckerFunc(name string, fn func(ctx context.Context) error) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

func (c *CheckerFunc) Name() string { return c.name }

func (c *CheckerFunc) Check(ctx context.Context) CheckResult {
	start := time.Now()
	if err := c.fn(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		return CheckResult{Status: StatusDegraded, Message: "slow: " + elapsed.Round(time.Millisecond).String()}
	}
	return CheckResult{Status: StatusHealthy}
}
