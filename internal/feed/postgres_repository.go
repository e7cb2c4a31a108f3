package feed

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresRepository creates a new PostgreSQL article repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool, now: time.Now}
}

// UpsertArticles inserts or updates articles keyed by provider item ID.
func (r *PostgresRepository) UpsertArticles(ctx context.Context, articles []Article) (int, error) {
	query := `
		INSERT INTO articles (
			id, provider_item_id, feed_title, title, author,
			content, url, published_at, fetched_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (provider_item_id) DO UPDATE SET
			feed_title = EXCLUDED.feed_title,
			title = EXCLUDED.title,
			author = EXCLUDED.author,
			content = EXCLUDED.content,
			url = EXCLUDED.url,
			published_at = EXCLUDED.published_at,
			fetched_at = EXCLUDED.fetched_at
	`

	written := 0
	for _, a := range articles {
		_, err := r.pool.Exec(ctx, query,
			a.ID, a.ProviderItemID, a.FeedTitle, a.Title, a.Author,
			a.Content, a.URL, a.PublishedAt, a.FetchedAt,
		)
		if err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// GetArticle retrieves an article by ID.
func (r *PostgresRepository) GetArticle(ctx context.Context, id string) (*Article, error) {
	query := `
		SELECT
			id, provider_item_id, feed_title, title, author,
			content, url, published_at, fetched_at, read_at
		FROM articles
		WHERE id = $1
	`

	var article Article
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&article.ID,
		&article.ProviderItemID,
		&article.FeedTitle,
		&article.Title,
		&article.Author,
		&article.Content,
		&article.URL,
		&article.PublishedAt,
		&article.FetchedAt,
		&article.ReadAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	return &article, nil
}

// ListArticles retrieves articles ordered by published_at descending.
func (r *PostgresRepository) ListArticles(ctx context.Context, opts ListOptions) ([]Article, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT
			id, provider_item_id, feed_title, title, author,
			content, url, published_at, fetched_at, read_at
		FROM articles
		ORDER BY published_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var article Article
		err := rows.Scan(
			&article.ID,
			&article.ProviderItemID,
			&article.FeedTitle,
			&article.Title,
			&article.Author,
			&article.Content,
			&article.URL,
			&article.PublishedAt,
			&article.FetchedAt,
			&article.ReadAt,
		)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

// FreshnessStats reports the latest published_at, the count of articles
// published in the last 24 hours, and the total article count.
func (r *PostgresRepository) FreshnessStats(ctx context.Context) (FreshnessStats, error) {
	query := `
		SELECT
			MAX(published_at),
			COUNT(*) FILTER (WHERE published_at > NOW() - INTERVAL '24 hours'),
			COUNT(*)
		FROM articles
	`

	var stats FreshnessStats
	var latest *time.Time
	err := r.pool.QueryRow(ctx, query).Scan(&latest, &stats.ArticlesLast24h, &stats.TotalArticles)
	if err != nil {
		return FreshnessStats{}, err
	}

	if latest != nil {
		stats.LatestArticleTime = latest
		stats.HoursSinceLatest = int(r.now().Sub(*latest).Hours())
	}
	return stats, nil
}
