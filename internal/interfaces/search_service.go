package interfaces

import (
	"context"

	"github.com/ternarybob/respondeo/internal/models"
)

// SearchService queries the document index for snippets relevant to a
// question. Failures wrap ErrSearchUnavailable; the orchestrator treats
// them as non-fatal and substitutes a degraded context.
type SearchService interface {
	// Search returns up to topK normalized results for the query text.
	Search(ctx context.Context, queryText string, topK int) ([]models.SearchResult, error)

	// GetDocument retrieves a single indexed document by its key.
	// Returns nil without error when the document does not exist.
	GetDocument(ctx context.Context, id string) (*models.SearchResult, error)
}
