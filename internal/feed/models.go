// Package feed provides article storage and synchronization against the
// external feed provider.
package feed

import (
	"errors"
	"time"
)

// Predefined feed errors.
var (
	// ErrArticleNotFound is returned when an article does not exist.
	ErrArticleNotFound = errors.New("article not found")

	// ErrSyncPaused is returned when the sync feature flag pauses syncing.
	ErrSyncPaused = errors.New("sync is paused")
)

// Article is a locally stored feed article.
type Article struct {
	ID             string     `json:"id"`
	ProviderItemID string     `json:"providerItemId"`
	FeedTitle      string     `json:"feedTitle,omitempty"`
	Title          string     `json:"title"`
	Author         *string    `json:"author"`
	Content        string     `json:"content"`
	URL            string     `json:"url,omitempty"`
	PublishedAt    time.Time  `json:"publishedAt"`
	FetchedAt      time.Time  `json:"fetchedAt"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
}

// FreshnessStats summarizes how current the local article store is.
type FreshnessStats struct {
	LatestArticleTime *time.Time `json:"latestArticleTime"`
	HoursSinceLatest  int        `json:"hoursSinceLatest"`
	ArticlesLast24h   int        `json:"articlesLast24h"`
	TotalArticles     int        `json:"totalArticles"`
}

// SyncResult summarizes one synchronization run.
type SyncResult struct {
	StartedAt        time.Time     `json:"startedAt"`
	Duration         time.Duration `json:"-"`
	DurationMs       int64         `json:"durationMs"`
	ArticlesFetched  int           `json:"articlesFetched"`
	ArticlesUpserted int           `json:"articlesUpserted"`
	Failed           int           `json:"failed"`
}

// ListOptions controls article listing.
type ListOptions struct {
	Limit  int
	Offset int
}
