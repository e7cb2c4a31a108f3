package health

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// DefaultCronMaxAge is how stale the last cron heartbeat may be before
// the sync cron is considered dead.
const DefaultCronMaxAge = 24 * time.Hour

// cronEntry is one heartbeat line in the cron health log.
type cronEntry struct {
	Status    string    `json:"status"`
	CheckedAt time.Time `json:"checkedAt"`
}

// CronProbeConfig holds configuration for the cron freshness probe.
type CronProbeConfig struct {
	// Path is the cron heartbeat log (JSONL, one entry per run).
	Path string

	// MaxAge is the staleness threshold. Default: 24h.
	MaxAge time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// CronProbe checks that the scheduled sync job has run recently by
// reading the last heartbeat line it wrote.
type CronProbe struct {
	path   string
	maxAge time.Duration
	now    func() time.Time
}

// NewCronProbe creates a cron log freshness probe.
func NewCronProbe(cfg CronProbeConfig) *CronProbe {
	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = DefaultCronMaxAge
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &CronProbe{path: cfg.Path, maxAge: maxAge, now: now}
}

// Name implements Probe.
func (p *CronProbe) Name() string { return "cron" }

// LastCheck returns the timestamp of the most recent heartbeat, or the
// zero time when no heartbeat is available.
func (p *CronProbe) LastCheck() time.Time {
	entry, err := p.lastEntry()
	if err != nil {
		return time.Time{}
	}
	return entry.CheckedAt
}

// Check reports unhealthy when the last heartbeat is older than MaxAge
// and unknown when the log file does not exist.
func (p *CronProbe) Check(_ context.Context) Result {
	start := p.now()

	entry, err := p.lastEntry()
	if err != nil {
		if os.IsNotExist(err) {
			return Result{
				Status:   StatusUnknown,
				Message:  "Health file not found",
				Duration: p.now().Sub(start),
			}
		}
		return Result{
			Status:   StatusUnknown,
			Message:  "cron log unreadable: " + err.Error(),
			Duration: p.now().Sub(start),
		}
	}

	age := p.now().Sub(entry.CheckedAt)
	details := map[string]interface{}{
		"lastCheck": entry.CheckedAt.Format(time.RFC3339),
	}

	if age > p.maxAge {
		return Result{
			Status:   StatusUnhealthy,
			Message:  fmt.Sprintf("Last check was %.0f hours ago", age.Hours()),
			Duration: p.now().Sub(start),
			Details:  details,
		}
	}

	return Result{
		Status:   StatusHealthy,
		Message:  fmt.Sprintf("Last check was %.0f minutes ago", age.Minutes()),
		Duration: p.now().Sub(start),
		Details:  details,
	}
}

// cronTailWindow bounds how much of the heartbeat log the probe reads.
// The log grows one short line per sync run forever; scanning only the
// tail keeps per-poll latency flat on long-lived deployments.
const cronTailWindow = 64 * 1024

// lastEntry reads the final parseable line of the heartbeat log.
// Concurrent appends can tear the last line; a torn line is skipped in
// favor of the previous complete one.
func (p *CronProbe) lastEntry() (cronEntry, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return cronEntry{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return cronEntry{}, err
	}
	tailing := info.Size() > cronTailWindow
	if tailing {
		if _, err := f.Seek(info.Size()-cronTailWindow, io.SeekStart); err != nil {
			return cronEntry{}, err
		}
	}

	scanner := bufio.NewScanner(f)
	if tailing {
		// Discard the line cut by the window edge; the window holds
		// hundreds of complete lines after it.
		scanner.Scan()
	}

	var last cronEntry
	found := false
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry cronEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		last = entry
		found = true
	}
	if err := scanner.Err(); err != nil {
		return cronEntry{}, err
	}
	if !found {
		return cronEntry{}, os.ErrNotExist
	}
	return last, nil
}

// WriteCronHeartbeat appends a heartbeat entry to the cron log. The sync
// worker calls this after every scheduled run.
func WriteCronHeartbeat(path string, status string, at time.Time) error {
	entry := cronEntry{Status: status, CheckedAt: at.UTC()}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling heartbeat: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening cron log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing heartbeat: %w", err)
	}
	return nil
}
