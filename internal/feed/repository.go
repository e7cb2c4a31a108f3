package feed

import "context"

// Repository defines the interface for article storage.
type Repository interface {
	// UpsertArticles inserts or updates articles keyed by provider item
	// ID. Returns the number of rows written.
	UpsertArticles(ctx context.Context, articles []Article) (int, error)

	// GetArticle retrieves an article by ID.
	GetArticle(ctx context.Context, id string) (*Article, error)

	// ListArticles retrieves articles ordered by published_at descending.
	ListArticles(ctx context.Context, opts ListOptions) ([]Article, error)

	// FreshnessStats reports how current the article store is.
	FreshnessStats(ctx context.Context) (FreshnessStats, error)
}
