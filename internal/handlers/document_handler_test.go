package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/interfaces"
)

type memoryBlob struct {
	name        string
	contentType string
	content     []byte
	createdAt   time.Time
}

type memoryBlobStorage struct {
	blobs []memoryBlob
}

func (s *memoryBlobStorage) Upload(ctx context.Context, content []byte, name, contentType string) (string, error) {
	s.blobs = append(s.blobs, memoryBlob{name: name, contentType: contentType, content: content, createdAt: time.Now()})
	return s.URL(name), nil
}

func (s *memoryBlobStorage) Download(ctx context.Context, name string) ([]byte, string, error) {
	for _, b := range s.blobs {
		if b.name == name {
			return b.content, b.contentType, nil
		}
	}
	return nil, "", interfaces.ErrBlobNotFound
}

func (s *memoryBlobStorage) List(ctx context.Context, prefix string) ([]interfaces.BlobInfo, error) {
	var infos []interfaces.BlobInfo
	for _, b := range s.blobs {
		if prefix != "" && !strings.HasPrefix(b.name, prefix) {
			continue
		}
		infos = append(infos, interfaces.BlobInfo{
			Name:        b.name,
			ContentType: b.contentType,
			Size:        int64(len(b.content)),
			URL:         s.URL(b.name),
			CreatedAt:   b.createdAt,
		})
	}
	return infos, nil
}

func (s *memoryBlobStorage) Delete(ctx context.Context, name string) error {
	for i, b := range s.blobs {
		if b.name == name {
			s.blobs = append(s.blobs[:i], s.blobs[i+1:]...)
			return nil
		}
	}
	return interfaces.ErrBlobNotFound
}

func (s *memoryBlobStorage) URL(name string) string {
	return "http://localhost:8085/api/documents/" + name
}

func newDocumentHandlerWithBlobs(t *testing.T) (*DocumentHandler, *memoryBlobStorage) {
	t.Helper()
	blob := &memoryBlobStorage{}
	blob.Upload(context.Background(), []byte("%PDF-fake"), "ddq_responses/report_one.pdf", "application/pdf")
	blob.Upload(context.Background(), []byte("%PDF-fake2"), "ddq_responses/report_two.pdf", "application/pdf")
	blob.Upload(context.Background(), []byte("other"), "misc/notes.txt", "text/plain")
	return NewDocumentHandler(blob, arbor.NewLogger()), blob
}

func TestListHandler(t *testing.T) {
	handler, _ := newDocumentHandlerWithBlobs(t)

	req := httptest.NewRequest(http.MethodGet, "/api/documents?prefix=ddq_responses/", nil)
	rec := httptest.NewRecorder()
	handler.ListHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Count     int                   `json:"count"`
		Documents []interfaces.BlobInfo `json:"documents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2", resp.Count)
	}
	for _, doc := range resp.Documents {
		if !strings.HasPrefix(doc.Name, "ddq_responses/") {
			t.Errorf("unexpected document %q in filtered listing", doc.Name)
		}
	}
}

func TestListHandlerUnavailable(t *testing.T) {
	handler := NewDocumentHandler(nil, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec := httptest.NewRecorder()
	handler.ListHandler(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	want := "Internal Server Error: Blob service unavailable."
	if body := strings.TrimSpace(rec.Body.String()); body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestDownloadHandler(t *testing.T) {
	handler, _ := newDocumentHandlerWithBlobs(t)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/ddq_responses/report_one.pdf", nil)
	rec := httptest.NewRecorder()
	handler.DownloadHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if !bytes.Equal(rec.Body.Bytes(), []byte("%PDF-fake")) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestDownloadHandlerNotFound(t *testing.T) {
	handler, _ := newDocumentHandlerWithBlobs(t)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/ddq_responses/missing.pdf", nil)
	rec := httptest.NewRecorder()
	handler.DownloadHandler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDownloadHandlerRejectsTraversal(t *testing.T) {
	handler, _ := newDocumentHandlerWithBlobs(t)

	for _, path := range []string{"/api/documents/", "/api/documents/../secrets"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.DownloadHandler(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("path %q status = %d, want 400", path, rec.Code)
		}
	}
}
