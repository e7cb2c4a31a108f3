// Package api provides the HTTP API for GlassFeed.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/glassfeed/glassfeed/internal/api/handler"
	"github.com/glassfeed/glassfeed/internal/api/middleware"
	"github.com/glassfeed/glassfeed/internal/auth"
	"github.com/glassfeed/glassfeed/internal/docs"
	"github.com/glassfeed/glassfeed/internal/feed"
	"github.com/glassfeed/glassfeed/internal/featureflags"
	"github.com/glassfeed/glassfeed/internal/health"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Environment string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Health endpoint dependencies.
	Aggregator    *health.Aggregator
	DatabaseProbe *health.DatabaseProbe
	CronProbe     *health.CronProbe
	ParsingProbe  health.Probe
	ClaudeProbe   health.Probe
	DatabaseName  string

	// Feed endpoints.
	FeedService *feed.Service
	ArticleRepo feed.Repository

	// Auth + admin.
	AuthService        *auth.Service
	FeatureFlagService *featureflags.Service
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "glassfeed-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(handler.HealthHandlerConfig{
		Aggregator:   cfg.Aggregator,
		Database:     cfg.DatabaseProbe,
		Cron:         cfg.CronProbe,
		Feed:         cfg.FeedService,
		Parsing:      cfg.ParsingProbe,
		Claude:       cfg.ClaudeProbe,
		Environment:  cfg.Environment,
		DatabaseName: cfg.DatabaseName,
		Logger:       cfg.Logger,
	})
	articleHandler := handler.NewArticleHandler(cfg.ArticleRepo)
	syncHandler := handler.NewSyncHandler(cfg.FeedService, cfg.Logger)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService)
	docsHandler := handler.NewDocsHandler(docs.Config{Version: cfg.Version}, cfg.Logger)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.AuthService)

	// Create rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	r.Route("/api", func(r chi.Router) {
		// Health endpoints (public, unthrottled so monitors can poll freely)
		r.Route("/health", func(r chi.Router) {
			r.Get("/", healthHandler.Summary)
			r.Get("/app", healthHandler.App)
			r.Get("/db", healthHandler.Database)
			r.Get("/cron", healthHandler.Cron)
			r.Get("/freshness", healthHandler.Freshness)
			r.Get("/parsing", healthHandler.Parsing)
			r.Get("/claude", healthHandler.Claude)
		})

		// Article read endpoints (public) - standard rate limiting
		r.Route("/articles", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", articleHandler.ListArticles)
			r.Get("/{articleId}", articleHandler.GetArticle)
		})

		// Manual sync trigger - service token required, expensive compute
		r.With(authMiddleware, expensiveRateLimit).Post("/sync", syncHandler.TriggerSync)

		// Admin endpoints (service token required)
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)

			r.Route("/feature-flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
			})
		})
	})

	// API documentation (public)
	r.Route("/reader/api-docs", func(r chi.Router) {
		r.Get("/", docsHandler.Page)
		r.Get("/openapi.json", docsHandler.OpenAPI)
	})

	return r
}
