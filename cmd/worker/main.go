// Package main provides the entrypoint for the GlassFeed sync worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/glassfeed/glassfeed/internal/database"
	"github.com/glassfeed/glassfeed/internal/featureflags"
	"github.com/glassfeed/glassfeed/internal/feed"
	"github.com/glassfeed/glassfeed/internal/feed/inoreader"
	"github.com/glassfeed/glassfeed/internal/health"
	"github.com/glassfeed/glassfeed/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "glassfeed-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting GlassFeed worker")

	// Worker also exposes a health endpoint for Cloud Run.
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Feature flags gate sync runs.
	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewPostgresRepository(pool),
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})

	// Sync configuration and health probes. The oauth probe and the
	// provider client share the token file so the health signal tracks
	// the credential sync actually uses.
	syncConfig := worker.SyncConfigFromEnv()

	tokenPath := os.Getenv("GLASSFEED_TOKEN_FILE")
	if tokenPath == "" {
		tokenPath = health.DefaultTokenPath()
	}
	tokenProbe := health.NewTokenProbe(health.TokenProbeConfig{
		Path: tokenPath,
	})
	cronProbe := health.NewCronProbe(health.CronProbeConfig{
		Path: syncConfig.HeartbeatPath,
	})
	aggregator := health.NewAggregator(health.AggregatorConfig{
		Probes: []health.Probe{health.NewDatabaseProbe(pool), tokenProbe, cronProbe},
		Logger: log,
	})

	// Feed provider and sync service.
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
	feedService := feed.NewService(feed.ServiceConfig{
		Provider:   provider,
		Repository: feed.NewPostgresRepository(pool),
		Flags:      ffService,
		Metrics:    aggregator,
		Logger:     log,
	})

	syncJob := worker.NewSyncJob(worker.SyncJobConfig{
		Config: syncConfig,
		Syncer: feedService,
		Logger: log,
	})

	// Pub/Sub handler drives the job queue.
	pubsubHandler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        os.Getenv("PUBSUB_PROJECT_ID"),
		SubscriptionName: os.Getenv("PUBSUB_SUBSCRIPTION"),
		SyncJob:          syncJob,
		Aggregator:       aggregator,
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pubsub handler")
	}
	defer pubsubHandler.Close()

	// Health check endpoint for the container platform.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Start processing messages.
	go func() {
		if err := pubsubHandler.Start(ctx); err != nil && ctx.Err() == nil {
			log.Fatal().Err(err).Msg("pubsub handler error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
