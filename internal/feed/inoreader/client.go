// Package inoreader provides a client for the Inoreader stream API,
// the external feed provider GlassFeed syncs against.
package inoreader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/glassfeed/glassfeed/internal/feed"
	"github.com/glassfeed/glassfeed/internal/provider/resilience"
)

const (
	// ProviderName identifies this feed provider.
	ProviderName = "inoreader"

	// DefaultBaseURL is the Inoreader API base URL.
	DefaultBaseURL = "https://www.inoreader.com/reader/api/0"

	// ReadingListStream is the stream containing all subscribed feeds.
	ReadingListStream = "user/-/state/com.google/reading-list"
)

// ClientConfig holds configuration for the Inoreader client.
type ClientConfig struct {
	// AccessToken is a static OAuth bearer token, used when no
	// TokenSource is configured.
	AccessToken string

	// TokenSource supplies the bearer token per request, normally by
	// decrypting the token file the oauth health probe validates.
	// Takes precedence over AccessToken.
	TokenSource func(ctx context.Context) (string, error)

	// BaseURL is the API base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Inoreader API client.
type Client struct {
	accessToken string
	tokenSource func(ctx context.Context) (string, error)
	baseURL     string
	httpClient  *resilience.Client
	logger      zerolog.Logger
}

// NewClient creates a new Inoreader client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.Config{Name: ProviderName})
	}

	return &Client{
		accessToken: cfg.AccessToken,
		tokenSource: cfg.TokenSource,
		baseURL:     baseURL,
		httpClient:  httpClient,
		logger:      cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Healthy reports whether the provider circuit breaker is closed.
func (c *Client) Healthy() bool {
	return c.httpClient.Healthy()
}

// streamContentsResponse is the provider's stream-contents envelope.
type streamContentsResponse struct {
	Items        []feed.ProviderItem `json:"items"`
	Continuation string              `json:"continuation"`
}

// FetchArticles retrieves up to limit items from the reading list.
func (c *Client) FetchArticles(ctx context.Context, limit int) ([]feed.ProviderItem, error) {
	if limit <= 0 {
		limit = 100
	}

	token := c.accessToken
	if c.tokenSource != nil {
		var err error
		token, err = c.tokenSource(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading access token: %w", err)
		}
	}

	url := c.baseURL + "/stream/contents/" + ReadingListStream + "?n=" + strconv.Itoa(limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var payload streamContentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	c.logger.Debug().
		Int("items", len(payload.Items)).
		Msg("fetched provider stream")

	return payload.Items, nil
}
