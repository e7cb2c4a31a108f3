package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/glassfeed/glassfeed/internal/api/models"
	"github.com/glassfeed/glassfeed/internal/api/response"
	"github.com/glassfeed/glassfeed/internal/feed"
)

// Syncer is the slice of the feed service the sync endpoint needs.
type Syncer interface {
	Sync(ctx context.Context) (*feed.SyncResult, error)
}

// SyncHandler handles the manual sync trigger.
type SyncHandler struct {
	syncer Syncer
	logger zerolog.Logger
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncer Syncer, logger zerolog.Logger) *SyncHandler {
	return &SyncHandler{syncer: syncer, logger: logger}
}

// TriggerSync handles POST /api/sync - runs one sync cycle immediately.
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	result, err := h.syncer.Sync(r.Context())
	if err != nil {
		if errors.Is(err, feed.ErrSyncPaused) {
			response.Conflict(w, r, "sync is paused by feature flag")
			return
		}
		h.logger.Error().Err(err).Msg("manual sync failed")
		response.ServiceUnavailable(w, r, "sync failed: "+err.Error())
		return
	}

	response.JSON(w, r, http.StatusOK, models.SyncTriggerResponse{
		Status:           "ok",
		StartedAt:        models.Timestamp(result.StartedAt),
		DurationMs:       result.DurationMs,
		ArticlesFetched:  result.ArticlesFetched,
		ArticlesUpserted: result.ArticlesUpserted,
		Failed:           result.Failed,
	})
}
