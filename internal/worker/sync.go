package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/glassfeed/glassfeed/internal/feed"
	"github.com/glassfeed/glassfeed/internal/health"
)

// Syncer runs one feed synchronization cycle.
type Syncer interface {
	Sync(ctx context.Context) (*feed.SyncResult, error)
}

// SyncJob runs scheduled feed syncs and writes the cron heartbeat the
// health endpoints read.
type SyncJob struct {
	config SyncConfig
	syncer Syncer
	logger zerolog.Logger

	metrics *SyncMetrics
}

// SyncMetrics tracks sync job statistics.
type SyncMetrics struct {
	mu sync.RWMutex

	TotalRuns        int64
	SuccessfulRuns   int64
	FailedRuns       int64
	SkippedRuns      int64
	ArticlesFetched  int64
	ArticlesUpserted int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// SyncJobConfig holds configuration for creating a SyncJob.
type SyncJobConfig struct {
	Config SyncConfig
	Syncer Syncer
	Logger zerolog.Logger
}

// NewSyncJob creates a new sync job processor.
func NewSyncJob(cfg SyncJobConfig) *SyncJob {
	config := cfg.Config
	if config.Timeout == 0 {
		config = DefaultSyncConfig()
	}

	return &SyncJob{
		config:  config,
		syncer:  cfg.Syncer,
		logger:  cfg.Logger,
		metrics: &SyncMetrics{},
	}
}

// SyncRunResult contains the outcome of one scheduled run.
type SyncRunResult struct {
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
	ArticlesFetched  int
	ArticlesUpserted int
	Failed           int
	Skipped          bool
	Err              error
}

// Run executes one sync cycle and records a heartbeat. A paused sync is
// a skip, not a failure: the cron itself is alive.
func (j *SyncJob) Run(ctx context.Context) *SyncRunResult {
	startTime := time.Now()
	result := &SyncRunResult{StartTime: startTime}

	j.logger.Info().Msg("starting scheduled feed sync")

	runCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	syncResult, err := j.syncer.Sync(runCtx)
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	switch {
	case errors.Is(err, feed.ErrSyncPaused):
		result.Skipped = true
		j.logger.Info().Msg("sync paused by feature flag, skipping run")
	case err != nil:
		result.Err = err
		j.logger.Error().Err(err).Msg("scheduled sync failed")
	default:
		result.ArticlesFetched = syncResult.ArticlesFetched
		result.ArticlesUpserted = syncResult.ArticlesUpserted
		result.Failed = syncResult.Failed
		j.logger.Info().
			Dur("duration", result.Duration).
			Int("fetched", result.ArticlesFetched).
			Int("upserted", result.ArticlesUpserted).
			Int("failed", result.Failed).
			Msg("scheduled sync completed")
	}

	j.writeHeartbeat(result)
	j.updateMetrics(result)

	return result
}

// writeHeartbeat appends the run outcome to the cron heartbeat log. A
// write failure is logged and swallowed: a full disk must not turn a
// successful sync into a failed job.
func (j *SyncJob) writeHeartbeat(result *SyncRunResult) {
	status := "healthy"
	if result.Err != nil {
		status = "unhealthy"
	}

	if err := health.WriteCronHeartbeat(j.config.HeartbeatPath, status, result.EndTime); err != nil {
		j.logger.Warn().Err(err).Msg("failed to write cron heartbeat")
	}
}

func (j *SyncJob) updateMetrics(result *SyncRunResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	switch {
	case result.Skipped:
		j.metrics.SkippedRuns++
	case result.Err != nil:
		j.metrics.FailedRuns++
	default:
		j.metrics.SuccessfulRuns++
	}
	j.metrics.ArticlesFetched += int64(result.ArticlesFetched)
	j.metrics.ArticlesUpserted += int64(result.ArticlesUpserted)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *SyncJob) GetMetrics() SyncMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return SyncMetrics{
		TotalRuns:        j.metrics.TotalRuns,
		SuccessfulRuns:   j.metrics.SuccessfulRuns,
		FailedRuns:       j.metrics.FailedRuns,
		SkippedRuns:      j.metrics.SkippedRuns,
		ArticlesFetched:  j.metrics.ArticlesFetched,
		ArticlesUpserted: j.metrics.ArticlesUpserted,
		LastRunAt:        j.metrics.LastRunAt,
		LastRunDuration:  j.metrics.LastRunDuration,
		TotalDuration:    j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *SyncJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"successful_runs":   m.SuccessfulRuns,
		"failed_runs":       m.FailedRuns,
		"skipped_runs":      m.SkippedRuns,
		"articles_fetched":  m.ArticlesFetched,
		"articles_upserted": m.ArticlesUpserted,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}
