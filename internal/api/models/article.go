package models

import "time"

// Article is the API representation of a stored article.
type Article struct {
	ID          string     `json:"id"`
	FeedTitle   string     `json:"feedTitle,omitempty"`
	Title       string     `json:"title"`
	Author      *string    `json:"author"`
	Content     string     `json:"content"`
	URL         string     `json:"url,omitempty"`
	PublishedAt time.Time  `json:"publishedAt"`
	FetchedAt   time.Time  `json:"fetchedAt"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
}

// ArticleList is a paged list of articles.
type ArticleList struct {
	Items []Article         `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}

// SyncTriggerResponse is the body returned after a manually triggered sync.
type SyncTriggerResponse struct {
	Status           string    `json:"status"`
	StartedAt        Timestamp `json:"startedAt"`
	DurationMs       int64     `json:"durationMs"`
	ArticlesFetched  int       `json:"articlesFetched"`
	ArticlesUpserted int       `json:"articlesUpserted"`
	Failed           int       `json:"failed"`
}
