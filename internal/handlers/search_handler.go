package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/interfaces"
)

// SearchHandler exposes the document index for inspection
type SearchHandler struct {
	search interfaces.SearchService
	logger arbor.ILogger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(search interfaces.SearchService, logger arbor.ILogger) *SearchHandler {
	return &SearchHandler{
		search: search,
		logger: logger,
	}
}

// GetDocumentHandler handles GET /api/search/documents/{id} requests and
// returns the indexed document behind a search result.
func (h *SearchHandler) GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if h.search == nil {
		http.Error(w, "Internal Server Error: Search service unavailable.", http.StatusServiceUnavailable)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/search/documents/")
	if id == "" {
		http.Error(w, "Invalid document id", http.StatusBadRequest)
		return
	}

	result, err := h.search.GetDocument(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to get indexed document")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if result == nil {
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
