package health

import (
	"context"
	"fmt"
	"time"
)

// Result is the outcome of a single dependency probe.
// Probes never return errors to the caller; failures are folded into
// the status and message.
type Result struct {
	Status   Status                 `json:"status"`
	Message  string                 `json:"message,omitempty"`
	Duration time.Duration          `json:"-"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// DurationMs returns the probe duration in milliseconds for serialization.
func (r Result) DurationMs() float64 {
	return float64(r.Duration) / float64(time.Millisecond)
}

// Probe checks one dependency. Implementations must translate every
// internal error into a Result status rather than returning it.
type Probe interface {
	// Name identifies the dependency (e.g. "database", "oauth").
	Name() string

	// Check runs the probe. It must honor ctx cancellation.
	Check(ctx context.Context) Result
}

// probeFunc adapts a plain function to the Probe interface.
type probeFunc struct {
	name string
	fn   func(ctx context.Context) Result
}

// NewProbeFunc wraps fn as a named Probe.
func NewProbeFunc(name string, fn func(ctx context.Context) Result) Probe {
	return &probeFunc{name: name, fn: fn}
}

func (p *probeFunc) Name() string { return p.name }

func (p *probeFunc) Check(ctx context.Context) Result { return p.fn(ctx) }

// DefaultProbeTimeout bounds a single probe so a hung dependency cannot
// stall the aggregator. Tunable via AggregatorConfig.ProbeTimeout.
const DefaultProbeTimeout = 5 * time.Second

// runProbe executes p under a bounded deadline. A probe that exceeds the
// deadline is reported as unknown, not unhealthy: the dependency state
// was never observed.
func runProbe(ctx context.Context, p Probe, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan Result, 1)
	go func() {
		done <- p.Check(ctx)
	}()

	select {
	case res := <-done:
		if res.Duration == 0 {
			res.Duration = time.Since(start)
		}
		return res
	case <-ctx.Done():
		return Result{
			Status:   StatusUnknown,
			Message:  fmt.Sprintf("%s probe timed out after %s", p.Name(), timeout),
			Duration: time.Since(start),
		}
	}
}
