package badger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/respondeo/internal/interfaces"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	tmpDir := t.TempDir()

	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store}
}

func TestBlobUploadDownload(t *testing.T) {
	db := newTestDB(t)
	logger := arbor.NewLogger()
	storage := NewBlobStorage(db, logger, "http://localhost:8085")

	ctx := context.Background()
	content := []byte("%PDF-1.4 test content")

	url, err := storage.Upload(ctx, content, "ddq_responses/report_20250101120000_ab12.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Failed to upload blob: %v", err)
	}
	expected := "http://localhost:8085/api/documents/ddq_responses/report_20250101120000_ab12.pdf"
	if url != expected {
		t.Errorf("Expected URL %s, got %s", expected, url)
	}

	got, contentType, err := storage.Download(ctx, "ddq_responses/report_20250101120000_ab12.pdf")
	if err != nil {
		t.Fatalf("Failed to download blob: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("Downloaded content does not match uploaded content")
	}
	if contentType != "application/pdf" {
		t.Errorf("Expected content type application/pdf, got %s", contentType)
	}
}

func TestBlobDownloadNotFound(t *testing.T) {
	db := newTestDB(t)
	storage := NewBlobStorage(db, arbor.NewLogger(), "http://localhost:8085")

	_, _, err := storage.Download(context.Background(), "missing.pdf")
	if !errors.Is(err, interfaces.ErrBlobNotFound) {
		t.Errorf("Expected ErrBlobNotFound, got %v", err)
	}
}

func TestBlobListFiltersByPrefix(t *testing.T) {
	db := newTestDB(t)
	storage := NewBlobStorage(db, arbor.NewLogger(), "http://localhost:8085")

	ctx := context.Background()
	names := []string{
		"ddq_responses/a.pdf",
		"ddq_responses/b.pdf",
		"other/c.pdf",
	}
	for _, name := range names {
		if _, err := storage.Upload(ctx, []byte("data"), name, "application/pdf"); err != nil {
			t.Fatalf("Failed to upload %s: %v", name, err)
		}
	}

	infos, err := storage.List(ctx, "ddq_responses/")
	if err != nil {
		t.Fatalf("Failed to list blobs: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("Expected 2 blobs under prefix, got %d", len(infos))
	}
	for _, info := range infos {
		if info.Size != 4 {
			t.Errorf("Expected size 4 for %s, got %d", info.Name, info.Size)
		}
	}

	all, err := storage.List(ctx, "")
	if err != nil {
		t.Fatalf("Failed to list all blobs: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 blobs total, got %d", len(all))
	}
}

func TestBlobDelete(t *testing.T) {
	db := newTestDB(t)
	storage := NewBlobStorage(db, arbor.NewLogger(), "http://localhost:8085")

	ctx := context.Background()
	if _, err := storage.Upload(ctx, []byte("data"), "report.pdf", "application/pdf"); err != nil {
		t.Fatal(err)
	}

	if err := storage.Delete(ctx, "report.pdf"); err != nil {
		t.Fatalf("Failed to delete blob: %v", err)
	}

	if err := storage.Delete(ctx, "report.pdf"); !errors.Is(err, interfaces.ErrBlobNotFound) {
		t.Errorf("Expected ErrBlobNotFound on second delete, got %v", err)
	}
}

func TestKVStorageRoundTrip(t *testing.T) {
	db := newTestDB(t)
	storage := NewKVStorage(db, arbor.NewLogger())

	ctx := context.Background()

	if err := storage.Set(ctx, "Anthropic_API_Key", "sk-test", "provider key"); err != nil {
		t.Fatalf("Failed to set key: %v", err)
	}

	// Keys are case-insensitive
	value, err := storage.Get(ctx, "ANTHROPIC_API_KEY")
	if err != nil {
		t.Fatalf("Failed to get key: %v", err)
	}
	if value != "sk-test" {
		t.Errorf("Expected sk-test, got %s", value)
	}

	_, err = storage.Get(ctx, "missing_key")
	if !errors.Is(err, interfaces.ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}

	all, err := storage.GetAll(ctx)
	if err != nil {
		t.Fatalf("Failed to get all keys: %v", err)
	}
	if all["anthropic_api_key"] != "sk-test" {
		t.Errorf("Expected normalized key in map, got %v", all)
	}
}
