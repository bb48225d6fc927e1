package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/interfaces"
)

// DocumentHandler serves generated report documents from blob storage
type DocumentHandler struct {
	blob   interfaces.BlobStorage
	logger arbor.ILogger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(blob interfaces.BlobStorage, logger arbor.ILogger) *DocumentHandler {
	return &DocumentHandler{
		blob:   blob,
		logger: logger,
	}
}

// ListHandler handles GET /api/documents requests. An optional prefix
// query parameter scopes the listing.
func (h *DocumentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if h.blob == nil {
		http.Error(w, "Internal Server Error: Blob service unavailable.", http.StatusServiceUnavailable)
		return
	}

	prefix := r.URL.Query().Get("prefix")

	infos, err := h.blob.List(r.Context(), prefix)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list documents")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(infos),
		"documents": infos,
	})
}

// DownloadHandler handles GET /api/documents/{name} requests. Blob names
// contain the report prefix, so the remainder of the path is the name.
func (h *DocumentHandler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if h.blob == nil {
		http.Error(w, "Internal Server Error: Blob service unavailable.", http.StatusServiceUnavailable)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	if name == "" || strings.Contains(name, "..") {
		http.Error(w, "Invalid document name", http.StatusBadRequest)
		return
	}

	content, contentType, err := h.blob.Download(r.Context(), name)
	if err != nil {
		if errors.Is(err, interfaces.ErrBlobNotFound) {
			http.Error(w, "Document not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("name", name).Msg("Failed to download document")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}
