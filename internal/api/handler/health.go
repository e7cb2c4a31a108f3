// Package handler provides HTTP handlers for the GlassFeed API.
package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/glassfeed/glassfeed/internal/api/models"
	"github.com/glassfeed/glassfeed/internal/api/response"
	"github.com/glassfeed/glassfeed/internal/feed"
	"github.com/glassfeed/glassfeed/internal/health"
)

// EnvTest is the environment name under which health handlers skip real
// dependency probing and return canned responses, keeping automated tests
// hermetic.
const EnvTest = "test"

// FreshnessService is the slice of the feed service the freshness
// endpoint needs.
type FreshnessService interface {
	Freshness(ctx context.Context) (feed.FreshnessStats, error)
}

// HealthHandlerConfig holds the dependencies of the health endpoints.
type HealthHandlerConfig struct {
	// Aggregator runs the full dependency probe set.
	Aggregator *health.Aggregator

	// Database is the narrow connectivity probe for /api/health/db.
	Database *health.DatabaseProbe

	// Cron is the heartbeat freshness probe for /api/health/cron.
	Cron *health.CronProbe

	// Feed answers article freshness queries.
	Feed FreshnessService

	// Parsing reports the feed-parsing pipeline status.
	Parsing health.Probe

	// Claude reports the enrichment dependency status.
	Claude health.Probe

	// Environment is the deployment environment (APP_ENV).
	Environment string

	// DatabaseName is reported verbatim by /api/health/db.
	DatabaseName string

	// Now overrides the clock, for tests.
	Now func() time.Time

	Logger zerolog.Logger
}

// HealthHandler serves the diagnostic endpoints under /api/health.
// Handlers stamp a fresh timestamp per request; the aggregator snapshot
// itself carries none.
type HealthHandler struct {
	aggregator  *health.Aggregator
	database    *health.DatabaseProbe
	cron        *health.CronProbe
	feed        FreshnessService
	parsing     health.Probe
	claude      health.Probe
	environment string
	dbName      string
	now         func() time.Time
	logger      zerolog.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(cfg HealthHandlerConfig) *HealthHandler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	dbName := cfg.DatabaseName
	if dbName == "" {
		dbName = "glassfeed"
	}
	return &HealthHandler{
		aggregator:  cfg.Aggregator,
		database:    cfg.Database,
		cron:        cfg.Cron,
		feed:        cfg.Feed,
		parsing:     cfg.Parsing,
		claude:      cfg.Claude,
		environment: cfg.Environment,
		dbName:      dbName,
		now:         now,
		logger:      cfg.Logger,
	}
}

func (h *HealthHandler) isTestEnv() bool {
	return h.environment == EnvTest
}

func (h *HealthHandler) stamp() models.Timestamp {
	return models.Timestamp(h.now())
}

// checkHealth runs the aggregator, converting a panic in any probe into
// an unhealthy snapshot. The health routes are the outermost boundary and
// must never surface an internal failure as anything but a status.
func (h *HealthHandler) checkHealth(ctx context.Context) (result health.CheckResult) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error().Interface("panic", rec).Msg("health aggregation panicked")
			result = health.CheckResult{
				Health: health.SystemHealth{
					Status:   health.StatusUnhealthy,
					Services: map[string]health.Result{},
				},
			}
		}
	}()
	return h.aggregator.CheckHealth(ctx)
}

// Summary handles GET /api/health - the condensed multi-service overview.
func (h *HealthHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if h.isTestEnv() {
		response.JSON(w, r, http.StatusOK, models.HealthSummaryResponse{
			Status:    health.StatusHealthy,
			Timestamp: h.stamp(),
			Services: models.SummaryServices{
				App:      health.StatusHealthy,
				Database: health.StatusHealthy,
				Sync:     health.StatusHealthy,
			},
		})
		return
	}

	result := h.checkHealth(r.Context())

	statusFor := func(name string) health.Status {
		if res, ok := result.Health.Services[name]; ok {
			return res.Status
		}
		return health.StatusUnknown
	}

	body := models.HealthSummaryResponse{
		Status:    result.Health.Status,
		Timestamp: h.stamp(),
		Services: models.SummaryServices{
			App:      result.Health.Status,
			Database: statusFor("database"),
			Sync:     statusFor("cron"),
		},
	}

	code := http.StatusOK
	if result.Health.Status == health.StatusUnhealthy {
		code = http.StatusInternalServerError
	}
	response.JSON(w, r, code, body)
}

// App handles GET /api/health/app - the full system snapshot, or the
// minimal ping body when the ping query flag is exactly "true".
func (h *HealthHandler) App(w http.ResponseWriter, r *http.Request) {
	// Exact lowercase match only; "TRUE", "1", "yes" all fall through
	// to the full response.
	if r.URL.Query().Get("ping") == "true" {
		response.JSON(w, r, http.StatusOK, models.PingResponse{Status: "ok", Ping: true})
		return
	}

	if h.isTestEnv() {
		response.JSON(w, r, http.StatusOK, models.AppHealthResponse{
			SystemHealth: health.SystemHealth{Status: health.StatusHealthy},
			Message:      "Health checks skipped in test environment",
			Timestamp:    h.stamp(),
		})
		return
	}

	result := h.checkHealth(r.Context())
	body := models.AppHealthResponse{
		SystemHealth: result.Health,
		Timestamp:    h.stamp(),
	}

	code := http.StatusOK
	if result.Health.Status != health.StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, body)
}

// Database handles GET /api/health/db.
func (h *HealthHandler) Database(w http.ResponseWriter, r *http.Request) {
	if h.isTestEnv() {
		response.JSON(w, r, http.StatusOK, models.DatabaseHealthResponse{
			Status:      health.StatusHealthy,
			Database:    h.dbName,
			Environment: h.environment,
			Message:     "Database health check skipped in test environment",
			Timestamp:   h.stamp(),
		})
		return
	}

	res := h.database.Check(r.Context())

	body := models.DatabaseHealthResponse{
		Status:      res.Status,
		Database:    h.dbName,
		Environment: h.environment,
		Message:     res.Message,
		Timestamp:   h.stamp(),
	}

	code := http.StatusServiceUnavailable
	if res.Status == health.StatusHealthy {
		code = http.StatusOK
		connected := "connected"
		body.Connection = &connected
		queryTime := res.DurationMs()
		body.QueryTimeMs = &queryTime
	}
	response.JSON(w, r, code, body)
}

// Cron handles GET /api/health/cron. Responses are never cacheable: a
// stale cached body would defeat the staleness check itself.
func (h *HealthHandler) Cron(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store, max-age=0")

	if h.isTestEnv() {
		response.JSON(w, r, http.StatusOK, models.CronHealthResponse{
			Status:      health.StatusHealthy,
			Message:     "Cron health check skipped in test environment",
			Environment: h.environment,
			LastCheck:   nil,
			Timestamp:   h.stamp(),
		})
		return
	}

	res := h.cron.Check(r.Context())

	var lastCheck *models.Timestamp
	if last := h.cron.LastCheck(); !last.IsZero() {
		ts := models.Timestamp(last)
		lastCheck = &ts
	}

	body := models.CronHealthResponse{
		Status:      res.Status,
		Message:     res.Message,
		Environment: h.environment,
		LastCheck:   lastCheck,
		Timestamp:   h.stamp(),
	}

	code := http.StatusOK
	if res.Status != health.StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, body)
}

// Freshness handles GET /api/health/freshness - article sync recency.
func (h *HealthHandler) Freshness(w http.ResponseWriter, r *http.Request) {
	if h.isTestEnv() {
		response.JSON(w, r, http.StatusOK, models.FreshnessHealthResponse{
			Status:    string(health.StatusHealthy),
			Message:   "Freshness check skipped in test environment",
			Timestamp: h.stamp(),
		})
		return
	}

	stats, err := h.feed.Freshness(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("freshness query failed")
		response.JSON(w, r, http.StatusServiceUnavailable, models.FreshnessHealthResponse{
			Status:    "error",
			Message:   "freshness query failed: " + err.Error(),
			Timestamp: h.stamp(),
		})
		return
	}

	body := models.FreshnessHealthResponse{
		Status:          string(health.StatusHealthy),
		ArticlesLast24h: stats.ArticlesLast24h,
		TotalArticles:   stats.TotalArticles,
		Timestamp:       h.stamp(),
	}
	if stats.LatestArticleTime != nil {
		ts := models.Timestamp(*stats.LatestArticleTime)
		body.LatestArticleTime = &ts
		hours := stats.HoursSinceLatest
		body.HoursSinceLatest = &hours
	}

	code := http.StatusOK
	if stats.ArticlesLast24h == 0 {
		code = http.StatusServiceUnavailable
		body.Status = "stale"
		body.Message = "No articles synced in the last 24 hours"
	}
	response.JSON(w, r, code, body)
}

// Parsing handles GET /api/health/parsing - feed parsing pipeline status.
func (h *HealthHandler) Parsing(w http.ResponseWriter, r *http.Request) {
	h.dependency(w, r, h.parsing, "parsing")
}

// Claude handles GET /api/health/claude - enrichment dependency status.
func (h *HealthHandler) Claude(w http.ResponseWriter, r *http.Request) {
	h.dependency(w, r, h.claude, "claude")
}

// dependency serves a shallow single-dependency status payload.
func (h *HealthHandler) dependency(w http.ResponseWriter, r *http.Request, probe health.Probe, service string) {
	if h.isTestEnv() {
		response.JSON(w, r, http.StatusOK, models.DependencyHealthResponse{
			Status:    health.StatusHealthy,
			Service:   service,
			Message:   fmt.Sprintf("%s health check skipped in test environment", service),
			Timestamp: h.stamp(),
		})
		return
	}

	res := probe.Check(r.Context())

	code := http.StatusOK
	if res.Status != health.StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, models.DependencyHealthResponse{
		Status:    res.Status,
		Service:   service,
		Message:   res.Message,
		Timestamp: h.stamp(),
	})
}
