package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/interfaces"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, "test-index", "test-key", WithLogger(arbor.NewLogger()))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	return NewService(client, arbor.NewLogger(), 3)
}

func TestSearchNormalizesResults(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.Header.Get("api-key") != "test-key" {
			t.Errorf("Expected api-key header, got %q", r.Header.Get("api-key"))
		}

		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Top != 3 {
			t.Errorf("Expected top 3, got %d", req.Top)
		}
		if req.QueryType != "semantic" {
			t.Errorf("Expected semantic query type, got %s", req.QueryType)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value":[
			{"id":"doc-1","title":"ESG Policy","content":"Our ESG policy states...","sourceFile":"esg_policy.pdf","@search.score":2.5},
			{"metadata_spo_item_id":"doc-2","metadata_spo_item_name":"risk_framework.docx","chunk":"Risk is managed by...","@search.score":1.1,
			 "@search.captions":[{"text":"Risk is managed"}]}
		]}`))
	})

	results, err := service.Search(context.Background(), "esg policy", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	first := results[0]
	if first.ID != "doc-1" || first.Title != "ESG Policy" || first.SourceFile != "esg_policy.pdf" {
		t.Errorf("Unexpected first result: %+v", first)
	}
	if first.Score != 2.5 {
		t.Errorf("Expected score 2.5, got %f", first.Score)
	}

	// Second result exercises the fallback field names
	second := results[1]
	if second.ID != "doc-2" {
		t.Errorf("Expected fallback ID doc-2, got %s", second.ID)
	}
	if second.Title != "risk_framework.docx" {
		t.Errorf("Expected fallback title, got %s", second.Title)
	}
	if second.Content != "Risk is managed by..." {
		t.Errorf("Expected chunk fallback content, got %s", second.Content)
	}
	if second.SourceFile != "risk_framework.docx" {
		t.Errorf("Expected fallback source file, got %s", second.SourceFile)
	}
	if len(second.Captions) != 1 || second.Captions[0] != "Risk is managed" {
		t.Errorf("Expected caption text extracted, got %v", second.Captions)
	}
}

func TestSearchMissingFieldsUsePlaceholders(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[{"@search.score":0.5}]}`))
	})

	results, err := service.Search(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Title != "Untitled" {
		t.Errorf("Expected Untitled placeholder, got %s", results[0].Title)
	}
	if results[0].Content != "" || results[0].SourceFile != "" {
		t.Errorf("Expected empty content and source file, got %+v", results[0])
	}
}

func TestSearchErrorWrapsUnavailable(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index is down", http.StatusServiceUnavailable)
	})

	_, err := service.Search(context.Background(), "query", 3)
	if !errors.Is(err, interfaces.ErrSearchUnavailable) {
		t.Errorf("Expected ErrSearchUnavailable, got %v", err)
	}
}

func TestSearchMalformedBodyWrapsUnavailable(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value": not json`))
	})

	_, err := service.Search(context.Background(), "query", 3)
	if !errors.Is(err, interfaces.ErrSearchUnavailable) {
		t.Errorf("Expected ErrSearchUnavailable, got %v", err)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	result, err := service.GetDocument(context.Background(), "missing-id")
	if err != nil {
		t.Fatalf("Expected nil error for missing document, got %v", err)
	}
	if result != nil {
		t.Errorf("Expected nil result for missing document, got %+v", result)
	}
}

func TestGetDocument(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"doc-9","title":"Compliance Manual","content":"..."}`))
	})

	result, err := service.GetDocument(context.Background(), "doc-9")
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if result == nil || result.ID != "doc-9" || result.Title != "Compliance Manual" {
		t.Errorf("Unexpected document: %+v", result)
	}
}
