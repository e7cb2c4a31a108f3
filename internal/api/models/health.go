package models

import (
	"github.com/glassfeed/glassfeed/internal/health"
)

// PingResponse is the minimal liveness body returned when ping mode is
// requested. It carries no other fields.
type PingResponse struct {
	Status string `json:"status"`
	Ping   bool   `json:"ping"`
}

// SummaryServices holds the per-service statuses of the health summary.
type SummaryServices struct {
	App      health.Status `json:"app"`
	Database health.Status `json:"database"`
	Sync     health.Status `json:"sync"`
}

// HealthSummaryResponse is the body of GET /api/health.
type HealthSummaryResponse struct {
	Status    health.Status   `json:"status"`
	Timestamp Timestamp       `json:"timestamp"`
	Services  SummaryServices `json:"services"`
}

// AppHealthResponse is the body of GET /api/health/app: the full system
// snapshot stamped with a response-time timestamp.
type AppHealthResponse struct {
	health.SystemHealth
	Message   string    `json:"message,omitempty"`
	Timestamp Timestamp `json:"timestamp"`
}

// DatabaseHealthResponse is the body of GET /api/health/db.
type DatabaseHealthResponse struct {
	Status      health.Status `json:"status"`
	Database    string        `json:"database"`
	Connection  *string       `json:"connection"`
	Environment string        `json:"environment"`
	QueryTimeMs *float64      `json:"queryTime"`
	Message     string        `json:"message,omitempty"`
	Timestamp   Timestamp     `json:"timestamp"`
}

// CronHealthResponse is the body of GET /api/health/cron.
type CronHealthResponse struct {
	Status      health.Status `json:"status"`
	Message     string        `json:"message"`
	Environment string        `json:"environment"`
	LastCheck   *Timestamp    `json:"lastCheck"`
	Timestamp   Timestamp     `json:"timestamp"`
}

// FreshnessHealthResponse is the body of GET /api/health/freshness.
// Status uses "stale" rather than "unhealthy" when no recent articles exist.
type FreshnessHealthResponse struct {
	Status            string     `json:"status"`
	Message           string     `json:"message,omitempty"`
	LatestArticleTime *Timestamp `json:"latestArticleTime"`
	HoursSinceLatest  *int       `json:"hoursSinceLatest"`
	ArticlesLast24h   int        `json:"articlesLast24h"`
	TotalArticles     int        `json:"totalArticles"`
	Timestamp         Timestamp  `json:"timestamp"`
}

// DependencyHealthResponse is the shallow per-dependency body used by
// GET /api/health/parsing and GET /api/health/claude.
type DependencyHealthResponse struct {
	Status    health.Status `json:"status"`
	Service   string        `json:"service"`
	Message   string        `json:"message,omitempty"`
	Timestamp Timestamp     `json:"timestamp"`
}
