package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/glassfeed/glassfeed/internal/api/response"
	"github.com/glassfeed/glassfeed/internal/docs"
)

// DocsHandler serves the generated API documentation. The HTML page and
// the raw document are built once at startup; the doc only changes with
// the binary version.
type DocsHandler struct {
	page   []byte
	spec   []byte
	logger zerolog.Logger
}

// NewDocsHandler creates a new DocsHandler.
func NewDocsHandler(cfg docs.Config, logger zerolog.Logger) *DocsHandler {
	page, err := docs.HTML(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to render docs page")
	}
	spec, err := docs.JSON(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to render openapi document")
	}
	return &DocsHandler{page: page, spec: spec, logger: logger}
}

// Page handles GET /reader/api-docs - the HTML viewer.
func (h *DocsHandler) Page(w http.ResponseWriter, r *http.Request) {
	if h.page == nil {
		response.InternalError(w, r, "documentation unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.page)
}

// OpenAPI handles GET /reader/api-docs/openapi.json. The document is
// CORS-enabled so external tooling can fetch it from any origin.
func (h *DocsHandler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	if h.spec == nil {
		response.InternalError(w, r, "documentation unavailable")
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.spec)
}
