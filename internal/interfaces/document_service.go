package interfaces

import (
	"context"

	"github.com/ternarybob/respondeo/internal/models"
)

// DocumentService renders a question/answer/sources report into a binary
// document, names it, and uploads it to blob storage. Any rendering or
// upload error wraps ErrDocumentGeneration; the orchestrator recovers by
// returning a null document URL.
type DocumentService interface {
	// Generate builds and uploads the report document. templateName is
	// optional; when a template of that name exists it is used as the
	// rendering base, otherwise a default layout is synthesized.
	Generate(ctx context.Context, question, answer string, sources []string, templateName string) (*models.GeneratedDocument, error)
}
