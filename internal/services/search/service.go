package search

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// fieldFallbacks maps each normalized result field to an ordered list of
// candidate raw field names. Indexer pipelines disagree on naming, so the
// first candidate present wins.
var fieldFallbacks = map[string][]string{
	"id":         {"id", "metadata_spo_item_id", "metadata_storage_path"},
	"title":      {"title", "metadata_spo_item_name", "metadata_storage_name"},
	"content":    {"content", "chunk", "text"},
	"source":     {"source", "metadata_spo_item_path", "metadata_storage_path"},
	"sourceFile": {"sourceFile", "metadata_spo_item_name", "metadata_storage_name"},
	"sourceUri":  {"sourceUri", "metadata_spo_item_weburi", "url"},
}

// Service implements interfaces.SearchService over a search index client
type Service struct {
	client *Client
	logger arbor.ILogger
	topK   int
}

// Compile-time interface check
var _ interfaces.SearchService = (*Service)(nil)

// NewService creates a search service. topK <= 0 selects the default.
func NewService(client *Client, logger arbor.ILogger, topK int) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{
		client: client,
		logger: logger,
		topK:   topK,
	}
}

// Search queries the index and returns normalized results. topK <= 0 uses
// the service default. Any transport or decode failure wraps
// ErrSearchUnavailable.
func (s *Service) Search(ctx context.Context, queryText string, topK int) ([]models.SearchResult, error) {
	if topK <= 0 {
		topK = s.topK
	}

	raw, err := s.client.query(ctx, queryText, topK)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Search index query failed")
		return nil, fmt.Errorf("%w: %v", interfaces.ErrSearchUnavailable, err)
	}

	results := make([]models.SearchResult, 0, len(raw))
	for _, doc := range raw {
		results = append(results, normalizeResult(doc))
	}

	s.logger.Debug().
		Int("count", len(results)).
		Msg("Search results normalized")

	return results, nil
}

// GetDocument retrieves a single indexed document by key. Missing
// documents return nil without error.
func (s *Service) GetDocument(ctx context.Context, id string) (*models.SearchResult, error) {
	doc, err := s.client.lookup(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrSearchUnavailable, err)
	}
	if doc == nil {
		return nil, nil
	}

	result := normalizeResult(doc)
	return &result, nil
}

// normalizeResult maps a raw index document to a SearchResult using the
// fallback table.
func normalizeResult(doc map[string]interface{}) models.SearchResult {
	result := models.SearchResult{
		ID:         stringField(doc, fieldFallbacks["id"], ""),
		Title:      stringField(doc, fieldFallbacks["title"], "Untitled"),
		Content:    stringField(doc, fieldFallbacks["content"], ""),
		Source:     stringField(doc, fieldFallbacks["source"], ""),
		SourceFile: stringField(doc, fieldFallbacks["sourceFile"], ""),
		SourceURI:  stringField(doc, fieldFallbacks["sourceUri"], ""),
	}

	if score, ok := doc["@search.score"].(float64); ok {
		result.Score = score
	}

	if captions, ok := doc["@search.captions"].([]interface{}); ok {
		for _, c := range captions {
			if m, ok := c.(map[string]interface{}); ok {
				if text, ok := m["text"].(string); ok && text != "" {
					result.Captions = append(result.Captions, text)
				}
			}
		}
	}

	return result
}

// stringField returns the first non-empty string among candidates, or def.
func stringField(doc map[string]interface{}, candidates []string, def string) string {
	for _, name := range candidates {
		if v, ok := doc[name].(string); ok && v != "" {
			return v
		}
	}
	return def
}
