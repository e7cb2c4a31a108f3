package feed

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository,
// used in tests and local development.
type InMemoryRepository struct {
	mu       sync.RWMutex
	byItemID map[string]Article
	now      func() time.Time
}

// NewInMemoryRepository creates a new in-memory article repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byItemID: make(map[string]Article),
		now:      time.Now,
	}
}

// WithClock overrides the repository clock, for tests.
func (r *InMemoryRepository) WithClock(now func() time.Time) *InMemoryRepository {
	r.now = now
	return r
}

// UpsertArticles inserts or updates articles keyed by provider item ID.
func (r *InMemoryRepository) UpsertArticles(_ context.Context, articles []Article) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range articles {
		if existing, ok := r.byItemID[a.ProviderItemID]; ok {
			a.ID = existing.ID
		}
		r.byItemID[a.ProviderItemID] = a
	}
	return len(articles), nil
}

// GetArticle retrieves an article by ID.
func (r *InMemoryRepository) GetArticle(_ context.Context, id string) (*Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.byItemID {
		if a.ID == id {
			found := a
			return &found, nil
		}
	}
	return nil, ErrArticleNotFound
}

// ListArticles retrieves articles ordered by published_at descending.
func (r *InMemoryRepository) ListArticles(_ context.Context, opts ListOptions) ([]Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	articles := make([]Article, 0, len(r.byItemID))
	for _, a := range r.byItemID {
		articles = append(articles, a)
	}
	sort.Slice(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if opts.Offset >= len(articles) {
		return []Article{}, nil
	}
	end := opts.Offset + limit
	if end > len(articles) {
		end = len(articles)
	}
	return articles[opts.Offset:end], nil
}

// FreshnessStats reports how current the article store is.
func (r *InMemoryRepository) FreshnessStats(_ context.Context) (FreshnessStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	stats := FreshnessStats{TotalArticles: len(r.byItemID)}

	var latest time.Time
	for _, a := range r.byItemID {
		if a.PublishedAt.After(latest) {
			latest = a.PublishedAt
		}
		if now.Sub(a.PublishedAt) < 24*time.Hour {
			stats.ArticlesLast24h++
		}
	}

	if !latest.IsZero() {
		l := latest
		stats.LatestArticleTime = &l
		stats.HoursSinceLatest = int(now.Sub(latest).Hours())
	}
	return stats, nil
}
