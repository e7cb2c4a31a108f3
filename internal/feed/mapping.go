package feed

import (
	"time"

	"github.com/google/uuid"
)

// ProviderItem is one article as delivered by the feed provider's
// stream-contents endpoint.
type ProviderItem struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Published int64           `json:"published"` // unix seconds
	Canonical []ProviderLink  `json:"canonical"`
	Content   *ProviderHTML   `json:"content"`
	Summary   *ProviderHTML   `json:"summary"`
	Origin    *ProviderOrigin `json:"origin"`
}

// ProviderLink is a canonical link entry on a provider item.
type ProviderLink struct {
	Href string `json:"href"`
}

// ProviderHTML wraps an HTML fragment on a provider item.
type ProviderHTML struct {
	Content string `json:"content"`
}

// ProviderOrigin identifies the source feed of a provider item.
type ProviderOrigin struct {
	StreamID string `json:"streamId"`
	Title    string `json:"title"`
}

// MapArticle converts a provider item into a local article record.
// Missing provider fields fall back per field: title to "Untitled",
// author to nil, content through content then summary to "".
func MapArticle(item ProviderItem, fetchedAt time.Time) Article {
	title := item.Title
	if title == "" {
		title = "Untitled"
	}

	var author *string
	if item.Author != "" {
		a := item.Author
		author = &a
	}

	content := ""
	switch {
	case item.Content != nil && item.Content.Content != "":
		content = item.Content.Content
	case item.Summary != nil && item.Summary.Content != "":
		content = item.Summary.Content
	}

	url := ""
	if len(item.Canonical) > 0 {
		url = item.Canonical[0].Href
	}

	feedTitle := ""
	if item.Origin != nil {
		feedTitle = item.Origin.Title
	}

	publishedAt := time.Unix(item.Published, 0).UTC()
	if item.Published == 0 {
		publishedAt = fetchedAt.UTC()
	}

	return Article{
		ID:             uuid.NewString(),
		ProviderItemID: item.ID,
		FeedTitle:      feedTitle,
		Title:          title,
		Author:         author,
		Content:        content,
		URL:            url,
		PublishedAt:    publishedAt,
		FetchedAt:      fetchedAt.UTC(),
	}
}
