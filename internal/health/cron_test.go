package health_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glassfeed/glassfeed/internal/health"
)

func TestCronProbe_MissingFile(t *testing.T) {
	probe := health.NewCronProbe(health.CronProbeConfig{
		Path: filepath.Join(t.TempDir(), "cron.jsonl"),
	})

	res := probe.Check(context.Background())
	assert.Equal(t, health.StatusUnknown, res.Status)
	assert.Equal(t, "Health file not found", res.Message)
	assert.True(t, probe.LastCheck().IsZero())
}

func TestCronProbe_Fresh(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "cron.jsonl")
	require.NoError(t, health.WriteCronHeartbeat(path, "ok", now.Add(-30*time.Minute)))

	probe := health.NewCronProbe(health.CronProbeConfig{
		Path: path,
		Now:  func() time.Time { return now },
	})

	res := probe.Check(context.Background())
	assert.Equal(t, health.StatusHealthy, res.Status)
	assert.Contains(t, res.Message, "Last check was")
	assert.Equal(t, now.Add(-30*time.Minute), probe.LastCheck())
}

func TestCronProbe_Stale(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "cron.jsonl")
	require.NoError(t, health.WriteCronHeartbeat(path, "ok", now.Add(-25*time.Hour)))

	probe := health.NewCronProbe(health.CronProbeConfig{
		Path: path,
		Now:  func() time.Time { return now },
	})

	res := probe.Check(context.Background())
	assert.Equal(t, health.StatusUnhealthy, res.Status)
	assert.Contains(t, res.Message, "Last check was")
	assert.Contains(t, res.Message, "hours ago")
}

func TestCronProbe_UsesLastEntry(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "cron.jsonl")
	require.NoError(t, health.WriteCronHeartbeat(path, "ok", now.Add(-48*time.Hour)))
	require.NoError(t, health.WriteCronHeartbeat(path, "ok", now.Add(-1*time.Hour)))

	probe := health.NewCronProbe(health.CronProbeConfig{
		Path: path,
		Now:  func() time.Time { return now },
	})

	res := probe.Check(context.Background())
	assert.Equal(t, health.StatusHealthy, res.Status)
}

func TestCronProbe_LargeLogReadsTail(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "cron.jsonl")

	// Years of accumulated heartbeats, well past the probe's tail
	// window, with only the final entry fresh.
	var log strings.Builder
	for i := 0; i < 3000; i++ {
		at := now.Add(-time.Duration(3000-i) * time.Hour).Format(time.RFC3339)
		log.WriteString(`{"status":"healthy","checkedAt":"` + at + `"}` + "\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(log.String()), 0o644))
	require.NoError(t, health.WriteCronHeartbeat(path, "healthy", now.Add(-30*time.Minute)))

	probe := health.NewCronProbe(health.CronProbeConfig{
		Path: path,
		Now:  func() time.Time { return now },
	})

	res := probe.Check(context.Background())
	assert.Equal(t, health.StatusHealthy, res.Status)
	assert.Equal(t, now.Add(-30*time.Minute), probe.LastCheck())
}

func TestCronProbe_SkipsTornLine(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "cron.jsonl")
	require.NoError(t, health.WriteCronHeartbeat(path, "ok", now.Add(-1*time.Hour)))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"status":"ok","checkedAt":"2026-`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	probe := health.NewCronProbe(health.CronProbeConfig{
		Path: path,
		Now:  func() time.Time { return now },
	})

	res := probe.Check(context.Background())
	assert.Equal(t, health.StatusHealthy, res.Status)
}
