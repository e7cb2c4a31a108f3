package health

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MetricKind identifies a rolling performance counter.
type MetricKind string

const (
	MetricDBQuery MetricKind = "db_query"
	MetricAPICall MetricKind = "api_call"
	MetricSync    MetricKind = "sync"
)

// Performance holds the rolling averages tracked by the aggregator.
type Performance struct {
	AvgDBQueryTimeMs float64 `json:"avgDbQueryTimeMs"`
	AvgAPICallTimeMs float64 `json:"avgApiCallTimeMs"`
	AvgSyncTimeMs    float64 `json:"avgSyncTimeMs"`
}

// SystemHealth is a snapshot of the app process. It deliberately carries
// no timestamp: route handlers stamp responses at serialization time so
// the stamp cannot drift from transmission.
type SystemHealth struct {
	Status        Status            `json:"status"`
	Services      map[string]Result `json:"services"`
	Performance   Performance       `json:"performance"`
	UptimeSeconds int64             `json:"uptimeSeconds"`
	LastActivity  *time.Time        `json:"lastActivity"`
	ErrorCount    int64             `json:"errorCount"`
}

// CheckResult pairs a health snapshot with the audit-write outcome, so a
// failed audit write surfaces as a soft warning instead of disappearing
// into control flow.
type CheckResult struct {
	Health SystemHealth
	Audit  AuditOutcome
}

// AggregatorConfig holds configuration for the health aggregator.
type AggregatorConfig struct {
	// Probes are the dependency checks to run on every CheckHealth call.
	Probes []Probe

	// Logger for aggregator operations.
	Logger zerolog.Logger

	// Audit receives one JSONL entry per check. Optional.
	Audit *AuditLogger

	// ProbeTimeout bounds each individual probe.
	// Default: DefaultProbeTimeout.
	ProbeTimeout time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Aggregator runs the configured dependency probes and combines their
// results into one overall status. It is constructed once at startup and
// injected into handlers; all counters live on the instance so tests can
// use isolated aggregators without leaking state.
type Aggregator struct {
	probes       []Probe
	logger       zerolog.Logger
	audit        *AuditLogger
	probeTimeout time.Duration
	now          func() time.Time
	started      time.Time

	mu           sync.Mutex
	totals       map[MetricKind]time.Duration
	counts       map[MetricKind]int64
	errorCount   int64
	lastActivity time.Time
}

// NewAggregator creates a health aggregator.
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	probeTimeout := cfg.ProbeTimeout
	if probeTimeout == 0 {
		probeTimeout = DefaultProbeTimeout
	}
	return &Aggregator{
		probes:       cfg.Probes,
		logger:       cfg.Logger,
		audit:        cfg.Audit,
		probeTimeout: probeTimeout,
		now:          now,
		started:      now(),
		totals:       make(map[MetricKind]time.Duration),
		counts:       make(map[MetricKind]int64),
	}
}

// TrackMetric records one observation for a rolling average.
func (a *Aggregator) TrackMetric(kind MetricKind, d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totals[kind] += d
	a.counts[kind]++
	a.lastActivity = a.now()
}

// LogError bumps the process-wide error count.
func (a *Aggregator) LogError(err error) {
	a.mu.Lock()
	a.errorCount++
	a.lastActivity = a.now()
	a.mu.Unlock()

	a.logger.Error().Err(err).Msg("application error recorded")
}

// CheckHealth runs all probes concurrently, combines their statuses
// (worst wins), and appends one audit line. An audit-write failure is
// reported in the returned AuditOutcome and never fails the check.
func (a *Aggregator) CheckHealth(ctx context.Context) CheckResult {
	services := make(map[string]Result, len(a.probes))

	type probeOutcome struct {
		name string
		res  Result
	}

	results := make(chan probeOutcome, len(a.probes))
	for _, p := range a.probes {
		go func(p Probe) {
			results <- probeOutcome{name: p.Name(), res: runProbe(ctx, p, a.probeTimeout)}
		}(p)
	}

	statuses := make([]Status, 0, len(a.probes))
	for range a.probes {
		out := <-results
		services[out.name] = out.res
		statuses = append(statuses, out.res.Status)

		if out.name == "database" && out.res.Status == StatusHealthy {
			a.TrackMetric(MetricDBQuery, out.res.Duration)
		}
	}

	overall := StatusHealthy
	if len(statuses) > 0 {
		overall = Worst(statuses...)
	}

	health := SystemHealth{
		Status:      overall,
		Services:    services,
		Performance: a.performance(),
	}

	a.mu.Lock()
	health.UptimeSeconds = int64(a.now().Sub(a.started).Seconds())
	health.ErrorCount = a.errorCount
	if !a.lastActivity.IsZero() {
		la := a.lastActivity
		health.LastActivity = &la
	}
	a.mu.Unlock()

	return CheckResult{
		Health: health,
		Audit:  a.writeAudit(health),
	}
}

func (a *Aggregator) performance() Performance {
	a.mu.Lock()
	defer a.mu.Unlock()

	avg := func(kind MetricKind) float64 {
		if a.counts[kind] == 0 {
			return 0
		}
		return float64(a.totals[kind]/time.Duration(a.counts[kind])) / float64(time.Millisecond)
	}

	return Performance{
		AvgDBQueryTimeMs: avg(MetricDBQuery),
		AvgAPICallTimeMs: avg(MetricAPICall),
		AvgSyncTimeMs:    avg(MetricSync),
	}
}

func (a *Aggregator) writeAudit(health SystemHealth) AuditOutcome {
	if a.audit == nil {
		return AuditOutcome{Written: false}
	}

	serviceStatuses := make(map[string]Status, len(health.Services))
	for name, res := range health.Services {
		serviceStatuses[name] = res.Status
	}

	err := a.audit.Append(AuditEntry{
		CheckedAt:     a.now().UTC(),
		Status:        health.Status,
		Services:      serviceStatuses,
		UptimeSeconds: health.UptimeSeconds,
		ErrorCount:    health.ErrorCount,
	})
	if err != nil {
		a.logger.Warn().Err(err).Msg("health audit write failed")
		return AuditOutcome{Written: false, Error: err.Error()}
	}
	return AuditOutcome{Written: true}
}
