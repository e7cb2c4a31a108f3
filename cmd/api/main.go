// Package main provides the entrypoint for the GlassFeed API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/glassfeed/glassfeed/internal/api"
	"github.com/glassfeed/glassfeed/internal/api/middleware"
	"github.com/glassfeed/glassfeed/internal/auth"
	"github.com/glassfeed/glassfeed/internal/database"
	"github.com/glassfeed/glassfeed/internal/featureflags"
	"github.com/glassfeed/glassfeed/internal/feed"
	"github.com/glassfeed/glassfeed/internal/feed/inoreader"
	"github.com/glassfeed/glassfeed/internal/health"
	"github.com/glassfeed/glassfeed/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "glassfeed-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting GlassFeed API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize feature flags repository and service
	ffRepo := featureflags.NewPostgresRepository(pool)
	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: ffRepo,
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})
	log.Info().Msg("feature flags service initialized")

	// Initialize health probes. The oauth probe and the provider client
	// share the token file so the health signal tracks the credential
	// sync actually uses.
	tokenPath := os.Getenv("GLASSFEED_TOKEN_FILE")
	if tokenPath == "" {
		tokenPath = health.DefaultTokenPath()
	}

	databaseProbe := health.NewDatabaseProbe(pool)
	tokenProbe := health.NewTokenProbe(health.TokenProbeConfig{
		Path: tokenPath,
	})
	cronProbe := health.NewCronProbe(health.CronProbeConfig{
		Path: filepath.Join(logDir, "cron-health.jsonl"),
	})

	auditLogger := health.NewAuditLogger(logDir)

	aggregator := health.NewAggregator(health.AggregatorConfig{
		Probes: []health.Probe{databaseProbe, tokenProbe, cronProbe},
		Logger: log,
		Audit:  auditLogger,
	})
	log.Info().Msg("health aggregator initialized")

	// Initialize feed provider and sync service
	providerConfig := inoreader.ClientConfig{
		BaseURL: os.Getenv("INOREADER_BASE_URL"),
		Logger:  log,
	}
	if staticToken := os.Getenv("INOREADER_ACCESS_TOKEN"); staticToken != "" {
		providerConfig.AccessToken = staticToken
		log.Warn().Msg("using static INOREADER_ACCESS_TOKEN, bypassing the encrypted token file")
	} else {
		tokenKey := os.Getenv("GLASSFEED_TOKEN_KEY")
		providerConfig.TokenSource = func(context.Context) (string, error) {
			return health.ReadAccessToken(tokenPath, tokenKey)
		}
	}
	provider := inoreader.NewClient(providerConfig)

	articleRepo := feed.NewPostgresRepository(pool)
	feedService := feed.NewService(feed.ServiceConfig{
		Provider:   provider,
		Repository: articleRepo,
		Flags:      ffService,
		Metrics:    aggregator,
		Logger:     log,
	})
	log.Info().Msg("feed service initialized")

	// Shallow dependency probes for /api/health/parsing and /claude.
	parsingProbe := health.NewProbeFunc("parsing", func(ctx context.Context) health.Result {
		if ffService.IsProviderCachedOnly(ctx) {
			return health.Result{
				Status:  health.StatusDegraded,
				Message: "provider set to cached-only mode",
			}
		}
		if !provider.Healthy() {
			return health.Result{
				Status:  health.StatusUnhealthy,
				Message: "feed provider circuit open",
			}
		}
		return health.Result{Status: health.StatusHealthy, Message: "parsing pipeline operational"}
	})
	claudeProbe := health.NewProbeFunc("claude", func(ctx context.Context) health.Result {
		if ffService.IsEnrichmentDisabled(ctx) {
			return health.Result{
				Status:  health.StatusDegraded,
				Message: "enrichment disabled by feature flag",
			}
		}
		return health.Result{Status: health.StatusHealthy, Message: "enrichment operational"}
	})

	// Initialize JWT service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
		Issuer:     "https://api.glassfeed.app",
		Audience:   serviceName,
	})
	authService := auth.NewService(jwtService)
	log.Info().Msg("auth service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Environment:        env,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            metrics,
		Aggregator:         aggregator,
		DatabaseProbe:      databaseProbe,
		CronProbe:          cronProbe,
		ParsingProbe:       parsingProbe,
		ClaudeProbe:        claudeProbe,
		DatabaseName:       dbConfig.Database,
		FeedService:        feedService,
		ArticleRepo:        articleRepo,
		AuthService:        authService,
		FeatureFlagService: ffService,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
