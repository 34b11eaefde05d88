package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
)

// HealthChecker exposes liveness and readiness probes.
type HealthChecker interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// ComponentChecker aggregates component health results by name.
type ComponentChecker interface {
	Check(ctx context.Context) map[string]string
}

// Probes implements HealthChecker on top of the component checks.
type Probes struct {
	checker ComponentChecker
	log     *slog.Logger
}

// NewProbes creates a new Probes instance. A nil checker makes
// readiness always succeed.
func NewProbes(checker ComponentChecker, log *slog.Logger) *Probes {
	if log == nil {
		log = slog.Default()
	}
	return &Probes{checker: checker, log: log}
}

// Liveness reports success as long as the process can respond.
func (p *Probes) Liveness(ctx context.Context) error {
	return nil
}

// Readiness fails when any registered component reports unhealthy.
func (p *Probes) Readiness(ctx context.Context) error {
	if p.checker == nil {
		return nil
	}

	for name, status := range p.checker.Check(ctx) {
		if status != "OK" {
			return fmt.Errorf("component %s unhealthy: %s", name, status)
		}
	}

	return nil
}
