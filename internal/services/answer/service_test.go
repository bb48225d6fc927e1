package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

type mockSearch struct {
	searchFunc func(ctx context.Context, queryText string, topK int) ([]models.SearchResult, error)
}

func (m *mockSearch) Search(ctx context.Context, queryText string, topK int) ([]models.SearchResult, error) {
	return m.searchFunc(ctx, queryText, topK)
}

func (m *mockSearch) GetDocument(ctx context.Context, id string) (*models.SearchResult, error) {
	return nil, nil
}

type mockCompletion struct {
	completeFunc func(ctx context.Context, messages []interfaces.Message) (string, error)
	lastMessages []interfaces.Message
}

func (m *mockCompletion) Complete(ctx context.Context, messages []interfaces.Message) (string, error) {
	m.lastMessages = messages
	return m.completeFunc(ctx, messages)
}

func (m *mockCompletion) HealthCheck(ctx context.Context) error { return nil }

type mockDocuments struct {
	generateFunc func(ctx context.Context, question, answer string, sources []string, templateName string) (*models.GeneratedDocument, error)
}

func (m *mockDocuments) Generate(ctx context.Context, question, answer string, sources []string, templateName string) (*models.GeneratedDocument, error) {
	return m.generateFunc(ctx, question, answer, sources, templateName)
}

func okSearch(results ...models.SearchResult) *mockSearch {
	return &mockSearch{searchFunc: func(ctx context.Context, q string, k int) ([]models.SearchResult, error) {
		return results, nil
	}}
}

func okCompletion(response string) *mockCompletion {
	return &mockCompletion{completeFunc: func(ctx context.Context, m []interfaces.Message) (string, error) {
		return response, nil
	}}
}

func okDocuments(url string) *mockDocuments {
	return &mockDocuments{generateFunc: func(ctx context.Context, q, a string, s []string, t string) (*models.GeneratedDocument, error) {
		return &models.GeneratedDocument{BlobName: "ddq_responses/x.pdf", URL: url}, nil
	}}
}

func TestAnswerFullPipeline(t *testing.T) {
	search := okSearch(
		models.SearchResult{Content: "The ESG policy states...", SourceFile: "esg_policy.pdf"},
		models.SearchResult{Content: "Risk appetite is...", SourceFile: "risk_framework.docx"},
	)
	completion := okCompletion("Here is the answer.")
	documents := okDocuments("http://localhost:8085/api/documents/ddq_responses/x.pdf")

	service := NewService(search, completion, documents, arbor.NewLogger(), "You are a DDQ assistant.", 3)

	response, err := service.Answer(context.Background(), "20250101120000-abcd1234", &models.Query{Prompt: "What is the ESG policy?"})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if response.AIResponse != "Here is the answer." {
		t.Errorf("Unexpected answer: %q", response.AIResponse)
	}
	if response.DocumentURL == nil || *response.DocumentURL != "http://localhost:8085/api/documents/ddq_responses/x.pdf" {
		t.Errorf("Unexpected document URL: %v", response.DocumentURL)
	}
	if len(response.Sources) != 2 || response.Sources[0] != "esg_policy.pdf" || response.Sources[1] != "risk_framework.docx" {
		t.Errorf("Unexpected sources: %v", response.Sources)
	}
	if response.RequestID != "20250101120000-abcd1234" {
		t.Errorf("Request ID not carried through: %s", response.RequestID)
	}
	if response.ProcessingTimeMs < 0 {
		t.Errorf("Unexpected processing time: %d", response.ProcessingTimeMs)
	}
}

func TestAnswerMessageOrder(t *testing.T) {
	completion := okCompletion("answer")
	service := NewService(okSearch(), completion, okDocuments("url"), arbor.NewLogger(), "SYSTEM.", 3)

	query := &models.Query{
		Prompt: "Current question?",
		History: []interfaces.Message{
			{Role: "user", Content: "Earlier question"},
			{Role: "assistant", Content: "Earlier answer"},
		},
	}

	if _, err := service.Answer(context.Background(), "req-1", query); err != nil {
		t.Fatal(err)
	}

	messages := completion.lastMessages
	if len(messages) != 4 {
		t.Fatalf("Expected 4 messages, got %d", len(messages))
	}
	if messages[0].Role != "system" || !strings.HasPrefix(messages[0].Content, "SYSTEM.") {
		t.Errorf("Expected system message first, got %+v", messages[0])
	}
	if messages[1].Content != "Earlier question" || messages[2].Content != "Earlier answer" {
		t.Errorf("History not inserted between system and current question: %+v", messages[1:3])
	}
	if messages[3].Role != "user" || messages[3].Content != "Current question?" {
		t.Errorf("Expected current question last, got %+v", messages[3])
	}
}

func TestAnswerSearchFailureDegrades(t *testing.T) {
	search := &mockSearch{searchFunc: func(ctx context.Context, q string, k int) ([]models.SearchResult, error) {
		return nil, interfaces.ErrSearchUnavailable
	}}
	completion := okCompletion("answer from degraded context")
	service := NewService(search, completion, okDocuments("url"), arbor.NewLogger(), "SYSTEM.", 3)

	response, err := service.Answer(context.Background(), "req-1", &models.Query{Prompt: "Question?"})
	if err != nil {
		t.Fatalf("Expected degraded success, got %v", err)
	}

	if !strings.Contains(completion.lastMessages[0].Content, "Error retrieving documents from search index.") {
		t.Error("Expected degraded context placeholder in system message")
	}
	if len(response.Sources) != 0 {
		t.Errorf("Expected empty sources on search failure, got %v", response.Sources)
	}
	if response.Sources == nil {
		t.Error("Expected empty slice, not nil, for JSON encoding")
	}
}

func TestAnswerNoResultsSentinel(t *testing.T) {
	completion := okCompletion("answer")
	service := NewService(okSearch(), completion, okDocuments("url"), arbor.NewLogger(), "SYSTEM.", 3)

	if _, err := service.Answer(context.Background(), "req-1", &models.Query{Prompt: "Question?"}); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(completion.lastMessages[0].Content, "No relevant documents found in the search index for this query.") {
		t.Error("Expected no-results sentinel in system message")
	}
}

func TestAnswerCompletionFailureIsFatal(t *testing.T) {
	completion := &mockCompletion{completeFunc: func(ctx context.Context, m []interfaces.Message) (string, error) {
		return "", interfaces.ErrCompletionFailed
	}}
	service := NewService(okSearch(), completion, okDocuments("url"), arbor.NewLogger(), "SYSTEM.", 3)

	_, err := service.Answer(context.Background(), "req-1", &models.Query{Prompt: "Question?"})
	if !errors.Is(err, interfaces.ErrCompletionFailed) {
		t.Errorf("Expected ErrCompletionFailed, got %v", err)
	}
}

func TestAnswerDocumentFailureRecovered(t *testing.T) {
	documents := &mockDocuments{generateFunc: func(ctx context.Context, q, a string, s []string, tn string) (*models.GeneratedDocument, error) {
		return nil, interfaces.ErrDocumentGeneration
	}}
	service := NewService(okSearch(), okCompletion("the answer"), documents, arbor.NewLogger(), "SYSTEM.", 3)

	response, err := service.Answer(context.Background(), "req-1", &models.Query{Prompt: "Question?"})
	if err != nil {
		t.Fatalf("Expected recovered success, got %v", err)
	}
	if response.DocumentURL != nil {
		t.Errorf("Expected nil document URL, got %v", *response.DocumentURL)
	}
	if response.AIResponse != "the answer" {
		t.Errorf("Expected answer preserved, got %q", response.AIResponse)
	}
}

func TestProcessSearchResults(t *testing.T) {
	results := []models.SearchResult{
		{Content: "snippet one", SourceFile: "a.pdf"},
		{Content: "snippet two", SourceFile: "b.pdf"},
		{Content: "snippet three", SourceFile: "a.pdf"}, // duplicate source
		{Content: "orphan snippet"},                     // no source file
	}

	context, sources := processSearchResults(results)

	if !strings.HasPrefix(context, "\n\nRelevant Document Snippets:\n") {
		t.Error("Expected context header")
	}
	if !strings.Contains(context, "\n---\nSource: a.pdf\nSnippet: snippet one\n---") {
		t.Error("Expected delimited snippet block")
	}
	if !strings.Contains(context, "Source: Unknown Source\nSnippet: orphan snippet") {
		t.Error("Expected unknown source placeholder")
	}
	if len(sources) != 2 || sources[0] != "a.pdf" || sources[1] != "b.pdf" {
		t.Errorf("Expected distinct sources in first-seen order, got %v", sources)
	}

	// Deterministic given identical inputs
	context2, sources2 := processSearchResults(results)
	if context != context2 || len(sources) != len(sources2) {
		t.Error("Expected deterministic output")
	}
}

func TestLoadSystemPromptFallback(t *testing.T) {
	logger := arbor.NewLogger()

	if got := LoadSystemPrompt("", logger); got != DefaultSystemPrompt {
		t.Errorf("Expected default prompt for empty path, got %q", got)
	}
	if got := LoadSystemPrompt("/nonexistent/prompt.txt", logger); got != DefaultSystemPrompt {
		t.Errorf("Expected default prompt for missing file, got %q", got)
	}
}
