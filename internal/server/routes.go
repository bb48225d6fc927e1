package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Question answering
	mux.HandleFunc("/api/answer", s.app.AnswerHandler.AnswerHandler)
	mux.HandleFunc("/api/answer/health", s.app.AnswerHandler.HealthHandler)

	// API routes - Generated report documents
	mux.HandleFunc("/api/documents", s.app.DocumentHandler.ListHandler)
	mux.HandleFunc("/api/documents/", s.app.DocumentHandler.DownloadHandler)

	// API routes - Indexed source documents
	mux.HandleFunc("/api/search/documents/", s.app.SearchHandler.GetDocumentHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.AnswerHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
