// Package worker provides background job processing for GlassFeed.
package worker

import (
	"os"
	"path/filepath"
	"time"
)

// SyncConfig holds configuration for the scheduled feed sync job.
type SyncConfig struct {
	// Timeout bounds a single sync run.
	// Default: 5 minutes
	Timeout time.Duration

	// HeartbeatPath is the cron heartbeat log the health endpoints read.
	// Default: logs/cron-health.jsonl
	HeartbeatPath string

	// HealthCheckTimeout bounds a health_check job.
	// Default: 30 seconds
	HealthCheckTimeout time.Duration
}

// DefaultSyncConfig returns the default sync job configuration.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		Timeout:            5 * time.Minute,
		HeartbeatPath:      filepath.Join("logs", "cron-health.jsonl"),
		HealthCheckTimeout: 30 * time.Second,
	}
}

// SyncConfigFromEnv builds a sync config from environment variables,
// falling back to defaults.
func SyncConfigFromEnv() SyncConfig {
	cfg := DefaultSyncConfig()

	if raw := os.Getenv("SYNC_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if dir := os.Getenv("LOG_DIR"); dir != "" {
		cfg.HeartbeatPath = filepath.Join(dir, "cron-health.jsonl")
	}

	return cfg
}
