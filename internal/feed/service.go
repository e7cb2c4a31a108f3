package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/glassfeed/glassfeed/internal/health"
)

// Provider fetches article payloads from the external feed provider.
type Provider interface {
	// FetchArticles retrieves up to limit items from the reading stream.
	FetchArticles(ctx context.Context, limit int) ([]ProviderItem, error)
}

// Flags exposes the feature flags the sync service consults.
type Flags interface {
	IsSyncPaused(ctx context.Context) bool
}

// MetricTracker receives sync timings and errors, normally the health
// aggregator.
type MetricTracker interface {
	TrackMetric(kind health.MetricKind, d time.Duration)
	LogError(err error)
}

// ServiceConfig holds configuration for the sync service.
type ServiceConfig struct {
	Provider   Provider
	Repository Repository
	Flags      Flags
	Metrics    MetricTracker
	Logger     zerolog.Logger

	// BatchSize is how many items to request per sync. Default: 100.
	BatchSize int

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service synchronizes articles from the feed provider into local storage.
type Service struct {
	provider  Provider
	repo      Repository
	flags     Flags
	metrics   MetricTracker
	logger    zerolog.Logger
	batchSize int
	now       func() time.Time
}

// NewService creates a new sync service.
func NewService(cfg ServiceConfig) *Service {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		provider:  cfg.Provider,
		repo:      cfg.Repository,
		flags:     cfg.Flags,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		batchSize: batchSize,
		now:       now,
	}
}

// Sync fetches the latest items from the provider, maps them into local
// article records, and upserts them. Returns ErrSyncPaused when the
// sync.paused flag is set.
func (s *Service) Sync(ctx context.Context) (*SyncResult, error) {
	if s.flags != nil && s.flags.IsSyncPaused(ctx) {
		s.logger.Info().Msg("sync skipped, paused by feature flag")
		return nil, ErrSyncPaused
	}

	start := s.now()
	result := &SyncResult{StartedAt: start}

	apiStart := s.now()
	items, err := s.provider.FetchArticles(ctx, s.batchSize)
	if s.metrics != nil {
		s.metrics.TrackMetric(health.MetricAPICall, s.now().Sub(apiStart))
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.LogError(err)
		}
		return nil, fmt.Errorf("fetching provider articles: %w", err)
	}
	result.ArticlesFetched = len(items)

	articles := make([]Article, 0, len(items))
	for _, item := range items {
		articles = append(articles, MapArticle(item, s.now()))
	}

	written, err := s.repo.UpsertArticles(ctx, articles)
	result.ArticlesUpserted = written
	if err != nil {
		result.Failed = len(articles) - written
		if s.metrics != nil {
			s.metrics.LogError(err)
		}
		return result, fmt.Errorf("upserting articles: %w", err)
	}

	result.Duration = s.now().Sub(start)
	result.DurationMs = result.Duration.Milliseconds()
	if s.metrics != nil {
		s.metrics.TrackMetric(health.MetricSync, result.Duration)
	}

	s.logger.Info().
		Int("fetched", result.ArticlesFetched).
		Int("upserted", result.ArticlesUpserted).
		Dur("duration", result.Duration).
		Msg("sync completed")

	return result, nil
}

// Freshness reports article freshness stats from the repository.
func (s *Service) Freshness(ctx context.Context) (FreshnessStats, error) {
	return s.repo.FreshnessStats(ctx)
}
