package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glassfeed/glassfeed/internal/api"
	"github.com/glassfeed/glassfeed/internal/auth"
	"github.com/glassfeed/glassfeed/internal/feed"
	"github.com/glassfeed/glassfeed/internal/featureflags"
	"github.com/glassfeed/glassfeed/internal/health"
)

// okPinger simulates a reachable database.
type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

// downPinger simulates an unreachable database.
type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

// stubProvider returns canned feed items.
type stubProvider struct {
	items []feed.ProviderItem
}

func (p *stubProvider) FetchArticles(context.Context, int) ([]feed.ProviderItem, error) {
	return p.items, nil
}

func healthyProbe(name string) health.Probe {
	return health.NewProbeFunc(name, func(context.Context) health.Result {
		return health.Result{Status: health.StatusHealthy}
	})
}

type routerOptions struct {
	environment string
	pinger      health.Pinger
	cronPath    string
	articles    []feed.Article
}

func newTestJWT() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: "router-test-signing-key",
		Issuer:     "https://api.glassfeed.test",
		Audience:   "glassfeed-api",
	})
}

func newTestRouter(t *testing.T, opts routerOptions) http.Handler {
	t.Helper()

	if opts.environment == "" {
		opts.environment = "production"
	}
	var pinger health.Pinger = okPinger{}
	if opts.pinger != nil {
		pinger = opts.pinger
	}
	cronPath := opts.cronPath
	if cronPath == "" {
		cronPath = filepath.Join(t.TempDir(), "cron-health.jsonl")
		require.NoError(t, health.WriteCronHeartbeat(cronPath, "healthy", time.Now()))
	}

	logger := zerolog.New(io.Discard)

	dbProbe := health.NewDatabaseProbe(pinger)
	cronProbe := health.NewCronProbe(health.CronProbeConfig{Path: cronPath})

	aggregator := health.NewAggregator(health.AggregatorConfig{
		Probes: []health.Probe{dbProbe, cronProbe},
		Logger: logger,
		Audit:  health.NewAuditLogger(t.TempDir()),
	})

	repo := feed.NewInMemoryRepository()
	if len(opts.articles) > 0 {
		_, err := repo.UpsertArticles(context.Background(), opts.articles)
		require.NoError(t, err)
	}

	feedService := feed.NewService(feed.ServiceConfig{
		Provider:   &stubProvider{items: []feed.ProviderItem{{ID: "item-1", Title: "Synced"}}},
		Repository: repo,
		Metrics:    aggregator,
		Logger:     logger,
	})

	flagService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewInMemoryRepository(),
		Logger:     logger,
	})

	return api.NewRouter(api.RouterConfig{
		Version:            "test",
		Environment:        opts.environment,
		Logger:             logger,
		Aggregator:         aggregator,
		DatabaseProbe:      dbProbe,
		CronProbe:          cronProbe,
		ParsingProbe:       healthyProbe("parsing"),
		ClaudeProbe:        healthyProbe("claude"),
		DatabaseName:       "glassfeed",
		FeedService:        feedService,
		ArticleRepo:        repo,
		AuthService:        auth.NewService(newTestJWT()),
		FeatureFlagService: flagService,
	})
}

func doGet(t *testing.T, router http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestRouter_HealthSummary(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	rec, body := doGet(t, router, "/api/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["timestamp"])

	services, ok := body["services"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "healthy", services["app"])
	assert.Equal(t, "healthy", services["database"])
	assert.Equal(t, "healthy", services["sync"])
}

func TestRouter_HealthSummary_DatabaseDownIs500(t *testing.T) {
	router := newTestRouter(t, routerOptions{pinger: downPinger{}})

	rec, body := doGet(t, router, "/api/health")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "unhealthy", body["status"])
}

func TestRouter_AppHealth_PingMode(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	rec, body := doGet(t, router, "/api/health/app?ping=true&verbose=1")

	assert.Equal(t, http.StatusOK, rec.Code)
	// Exactly two keys, nothing else.
	assert.Len(t, body, 2)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["ping"])
}

func TestRouter_AppHealth_PingVariantsFallThrough(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	for _, value := range []string{"TRUE", "True", "1", "yes"} {
		t.Run(value, func(t *testing.T) {
			rec, body := doGet(t, router, "/api/health/app?ping="+value)

			assert.Equal(t, http.StatusOK, rec.Code)
			// Full response, not the minimal ping body.
			assert.Contains(t, body, "services")
			assert.Contains(t, body, "timestamp")
		})
	}
}

func TestRouter_AppHealth_FullResponse(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	rec, body := doGet(t, router, "/api/health/app")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Contains(t, body, "performance")
	assert.Contains(t, body, "uptimeSeconds")
	assert.NotEmpty(t, body["timestamp"])
}

func TestRouter_AppHealth_DatabaseDownIs503(t *testing.T) {
	router := newTestRouter(t, routerOptions{pinger: downPinger{}})

	rec, body := doGet(t, router, "/api/health/app")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestRouter_Timestamps_MonotonicAcrossRequests(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	_, first := doGet(t, router, "/api/health/app")
	_, second := doGet(t, router, "/api/health/app")

	t1, err := time.Parse(time.RFC3339, first["timestamp"].(string))
	require.NoError(t, err)
	t2, err := time.Parse(time.RFC3339, second["timestamp"].(string))
	require.NoError(t, err)

	assert.False(t, t2.Before(t1), "timestamps must be non-decreasing")
}

func TestRouter_DatabaseHealth(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	rec, body := doGet(t, router, "/api/health/db")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "glassfeed", body["database"])
	assert.Equal(t, "connected", body["connection"])
	assert.NotNil(t, body["queryTime"])
}

func TestRouter_DatabaseHealth_Down(t *testing.T) {
	router := newTestRouter(t, routerOptions{pinger: downPinger{}})

	rec, body := doGet(t, router, "/api/health/db")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Nil(t, body["connection"])
	assert.Nil(t, body["queryTime"])
}

func TestRouter_CronHealth_Fresh(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	rec, body := doGet(t, router, "/api/health/cron")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Contains(t, body["message"], "Last check was")
	assert.NotNil(t, body["lastCheck"])
	assert.Equal(t, "no-store, max-age=0", rec.Header().Get("Cache-Control"))
}

func TestRouter_CronHealth_Stale(t *testing.T) {
	cronPath := filepath.Join(t.TempDir(), "cron-health.jsonl")
	require.NoError(t, health.WriteCronHeartbeat(cronPath, "healthy", time.Now().Add(-25*time.Hour)))
	router := newTestRouter(t, routerOptions{cronPath: cronPath})

	rec, body := doGet(t, router, "/api/health/cron")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Contains(t, body["message"], "Last check was")
}

func TestRouter_CronHealth_MissingFile(t *testing.T) {
	router := newTestRouter(t, routerOptions{
		cronPath: filepath.Join(t.TempDir(), "does-not-exist.jsonl"),
	})

	rec, body := doGet(t, router, "/api/health/cron")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unknown", body["status"])
	assert.Equal(t, "Health file not found", body["message"])
}

func TestRouter_CronHealth_TestEnvironmentSkips(t *testing.T) {
	router := newTestRouter(t, routerOptions{
		environment: "test",
		cronPath:    filepath.Join(t.TempDir(), "does-not-exist.jsonl"),
	})

	rec, body := doGet(t, router, "/api/health/cron")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Cron health check skipped in test environment", body["message"])
	assert.Nil(t, body["lastCheck"])
	assert.Equal(t, "no-store, max-age=0", rec.Header().Get("Cache-Control"))
}

func TestRouter_Freshness_RecentArticles(t *testing.T) {
	now := time.Now()
	router := newTestRouter(t, routerOptions{
		articles: []feed.Article{
			{ID: "1", ProviderItemID: "a", Title: "Recent", PublishedAt: now.Add(-3 * time.Hour)},
		},
	})

	rec, body := doGet(t, router, "/api/health/freshness")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(1), body["articlesLast24h"])
	assert.Equal(t, float64(3), body["hoursSinceLatest"])
}

func TestRouter_Freshness_StaleIs503(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	rec, body := doGet(t, router, "/api/health/freshness")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "stale", body["status"])
}

func TestRouter_DependencyProbes(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	for _, path := range []string{"/api/health/parsing", "/api/health/claude"} {
		rec, body := doGet(t, router, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "healthy", body["status"], path)
	}
}

func TestRouter_Docs(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	req := httptest.NewRequest(http.MethodGet, "/reader/api-docs/", http.NoBody)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "openapi.json")
}

func TestRouter_OpenAPIDocument(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	rec, body := doGet(t, router, "/reader/api-docs/openapi.json")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "3.0.0", body["openapi"])

	paths, ok := body["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/api/health/freshness")
}

func TestRouter_SyncRequiresServiceToken(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	req := httptest.NewRequest(http.MethodPost, "/api/sync", http.NoBody)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRouter_SyncWithServiceToken(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	token, _, err := newTestJWT().GenerateServiceToken("glassfeed-worker")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/sync", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["articlesUpserted"])
}

func TestRouter_ListArticles(t *testing.T) {
	now := time.Now()
	router := newTestRouter(t, routerOptions{
		articles: []feed.Article{
			{ID: "1", ProviderItemID: "a", Title: "First", PublishedAt: now.Add(-1 * time.Hour)},
			{ID: "2", ProviderItemID: "b", Title: "Second", PublishedAt: now.Add(-2 * time.Hour)},
		},
	})

	rec, body := doGet(t, router, "/api/articles/")

	assert.Equal(t, http.StatusOK, rec.Code)
	items, ok := body["items"].([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestRouter_GetArticle_NotFound(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	rec, _ := doGet(t, router, "/api/articles/missing")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRouter_RequestIDHeaderOnResponses(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	rec, _ := doGet(t, router, "/api/health")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
