package answer

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

const (
	// DefaultSystemPrompt is used when no system prompt file is configured
	// or the configured file cannot be read.
	DefaultSystemPrompt = "You are a helpful AI assistant."

	contextHeader     = "\n\nRelevant Document Snippets:\n"
	noResultsContext  = "\n\nNo relevant documents found in the search index for this query."
	degradedContext   = "\n\nError retrieving documents from search index."
	unknownSourceName = "Unknown Source"
)

// Service orchestrates the answer pipeline: search, context assembly,
// completion, document generation, response assembly. Stage failures are
// isolated per class: search degrades the context, completion aborts the
// request, document generation falls back to a null URL.
type Service struct {
	search       interfaces.SearchService
	completion   interfaces.CompletionService
	documents    interfaces.DocumentService
	logger       arbor.ILogger
	systemPrompt string
	topK         int
}

// NewService creates the answer orchestrator. search and documents may be
// nil when their collaborators failed to initialize; completion is
// required.
func NewService(
	search interfaces.SearchService,
	completion interfaces.CompletionService,
	documents interfaces.DocumentService,
	logger arbor.ILogger,
	systemPrompt string,
	topK int,
) *Service {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	if topK <= 0 {
		topK = 3
	}
	return &Service{
		search:       search,
		completion:   completion,
		documents:    documents,
		logger:       logger,
		systemPrompt: systemPrompt,
		topK:         topK,
	}
}

// LoadSystemPrompt reads the system prompt from path, falling back to the
// default prompt when the path is empty or unreadable.
func LoadSystemPrompt(path string, logger arbor.ILogger) string {
	if path == "" {
		return DefaultSystemPrompt
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("System prompt file not readable, using default prompt")
		return DefaultSystemPrompt
	}

	prompt := string(data)
	if strings.TrimSpace(prompt) == "" {
		logger.Warn().Str("path", path).Msg("System prompt file is empty, using default prompt")
		return DefaultSystemPrompt
	}

	logger.Info().Str("path", path).Msg("System prompt loaded")
	return prompt
}

// Answer runs the pipeline for a validated query and returns the response
// payload. requestID is attached to the response and all log lines. An
// error return means the completion stage failed and no answer exists.
func (s *Service) Answer(ctx context.Context, requestID string, query *models.Query) (*models.AnswerResponse, error) {
	startTime := time.Now()
	question := query.Question()

	// 1. Search for relevant documents. Failure is non-fatal: the
	// pipeline continues with a degraded context and no sources.
	searchContext, sources := s.retrieveContext(ctx, requestID, question)

	// 2. Prepare the message sequence and call the model. Failure here is
	// fatal: there is no answer without it.
	messages := buildMessages(s.systemPrompt, searchContext, question, query.ValidHistory())

	aiResponse, err := s.completion.Complete(ctx, messages)
	if err != nil {
		s.logger.Error().
			Str("request_id", requestID).
			Err(err).
			Msg("Completion stage failed")
		return nil, err
	}

	// 3. Generate and upload the report document. Failure is recovered:
	// the response carries a null document URL.
	var documentURL *string
	if s.documents != nil {
		doc, err := s.documents.Generate(ctx, question, aiResponse, sources, query.Template)
		if err != nil {
			s.logger.Warn().
				Str("request_id", requestID).
				Err(err).
				Msg("Document generation failed, continuing without document URL")
		} else {
			documentURL = &doc.URL
		}
	}

	processingTime := time.Since(startTime)

	s.logger.Info().
		Str("request_id", requestID).
		Int("prompt_length", len(question)).
		Int("source_count", len(sources)).
		Int("response_length", len(aiResponse)).
		Dur("processing_time", processingTime).
		Msg("Answer pipeline completed")

	return &models.AnswerResponse{
		AIResponse:       aiResponse,
		DocumentURL:      documentURL,
		Sources:          sources,
		RequestID:        requestID,
		ProcessingTimeMs: processingTime.Milliseconds(),
	}, nil
}

// retrieveContext queries the index and assembles the context block. A
// nil search service or a failed query yields the degraded placeholder.
func (s *Service) retrieveContext(ctx context.Context, requestID, question string) (string, []string) {
	if s.search == nil {
		s.logger.Warn().
			Str("request_id", requestID).
			Msg("Search service unavailable, using degraded context")
		return degradedContext, []string{}
	}

	results, err := s.search.Search(ctx, question, s.topK)
	if err != nil {
		s.logger.Error().
			Str("request_id", requestID).
			Err(err).
			Msg("Search query failed, using degraded context")
		return degradedContext, []string{}
	}

	return processSearchResults(results)
}

// processSearchResults assembles the delimited context block and the
// distinct source file list in first-seen order. Deterministic given
// identical inputs.
func processSearchResults(results []models.SearchResult) (string, []string) {
	if len(results) == 0 {
		return noResultsContext, []string{}
	}

	var sb strings.Builder
	sb.WriteString(contextHeader)
	for _, result := range results {
		sourceFile := result.SourceFile
		if sourceFile == "" {
			sourceFile = unknownSourceName
		}
		sb.WriteString("\n---\nSource: " + sourceFile + "\nSnippet: " + result.Content + "\n---")
	}

	return sb.String(), models.SourceFiles(results)
}

// buildMessages produces the model message sequence: system prompt plus
// search context first, then any history, then the current question.
func buildMessages(systemPrompt, searchContext, question string, history []interfaces.Message) []interfaces.Message {
	messages := make([]interfaces.Message, 0, len(history)+2)
	messages = append(messages, interfaces.Message{
		Role:    "system",
		Content: systemPrompt + searchContext,
	})
	messages = append(messages, history...)
	messages = append(messages, interfaces.Message{
		Role:    "user",
		Content: question,
	})
	return messages
}
