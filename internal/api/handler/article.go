package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/glassfeed/glassfeed/internal/api/models"
	"github.com/glassfeed/glassfeed/internal/api/response"
	"github.com/glassfeed/glassfeed/internal/feed"
)

const (
	defaultArticleLimit = 50
	maxArticleLimit     = 200
)

// ArticleHandler handles article read endpoints.
type ArticleHandler struct {
	repo feed.Repository
}

// NewArticleHandler creates a new ArticleHandler.
func NewArticleHandler(repo feed.Repository) *ArticleHandler {
	return &ArticleHandler{repo: repo}
}

// ListArticles handles GET /api/articles.
func (h *ArticleHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	limit := defaultArticleLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxArticleLimit {
			response.BadRequest(w, r, "invalid limit", []models.FieldError{
				{Field: "limit", Message: "must be an integer between 1 and 200", Code: "OUT_OF_RANGE"},
			})
			return
		}
		limit = parsed
	}

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.BadRequest(w, r, "invalid offset", []models.FieldError{
				{Field: "offset", Message: "must be a non-negative integer", Code: "OUT_OF_RANGE"},
			})
			return
		}
		offset = parsed
	}

	articles, err := h.repo.ListArticles(r.Context(), feed.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		response.InternalError(w, r, "failed to list articles")
		return
	}

	items := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		items = append(items, toArticleModel(a))
	}

	response.JSON(w, r, http.StatusOK, models.ArticleList{
		Items: items,
		Meta:  models.PagedResponseMeta{Limit: limit},
	})
}

// GetArticle handles GET /api/articles/{articleId}.
func (h *ArticleHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "articleId")

	article, err := h.repo.GetArticle(r.Context(), articleID)
	if err != nil {
		if errors.Is(err, feed.ErrArticleNotFound) {
			response.NotFound(w, r, "article not found")
			return
		}
		response.InternalError(w, r, "failed to load article")
		return
	}

	response.JSON(w, r, http.StatusOK, toArticleModel(*article))
}

func toArticleModel(a feed.Article) models.Article {
	return models.Article{
		ID:          a.ID,
		FeedTitle:   a.FeedTitle,
		Title:       a.Title,
		Author:      a.Author,
		Content:     a.Content,
		URL:         a.URL,
		PublishedAt: a.PublishedAt,
		FetchedAt:   a.FetchedAt,
		ReadAt:      a.ReadAt,
	}
}
