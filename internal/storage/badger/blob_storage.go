package badger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/respondeo/internal/interfaces"
)

// BlobRecord is the stored form of an uploaded report
type BlobRecord struct {
	Name        string `badgerhold:"key"`
	ContentType string
	Content     []byte
	Size        int64
	CreatedAt   time.Time
}

// BlobStorage implements the BlobStorage interface for Badger
type BlobStorage struct {
	db      *BadgerDB
	logger  arbor.ILogger
	baseURL string
}

// NewBlobStorage creates a new BlobStorage instance. baseURL is the public
// base URL used to build download links.
func NewBlobStorage(db *BadgerDB, logger arbor.ILogger, baseURL string) interfaces.BlobStorage {
	return &BlobStorage{
		db:      db,
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Upload stores content under name and returns its download URL
func (s *BlobStorage) Upload(ctx context.Context, content []byte, name string, contentType string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("blob name is required")
	}

	record := BlobRecord{
		Name:        name,
		ContentType: contentType,
		Content:     content,
		Size:        int64(len(content)),
		CreatedAt:   time.Now(),
	}

	if err := s.db.Store().Upsert(name, &record); err != nil {
		return "", fmt.Errorf("%w: upload %s: %v", interfaces.ErrStorageUnavailable, name, err)
	}

	s.logger.Debug().
		Str("name", name).
		Int64("size", record.Size).
		Msg("Blob uploaded")

	return s.URL(name), nil
}

// Download returns the content and content type of a stored blob
func (s *BlobStorage) Download(ctx context.Context, name string) ([]byte, string, error) {
	var record BlobRecord
	err := s.db.Store().Get(name, &record)
	if err == badgerhold.ErrNotFound {
		return nil, "", interfaces.ErrBlobNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: download %s: %v", interfaces.ErrStorageUnavailable, name, err)
	}

	return record.Content, record.ContentType, nil
}

// List returns metadata for stored blobs whose name starts with prefix,
// newest first. Empty prefix lists everything.
func (s *BlobStorage) List(ctx context.Context, prefix string) ([]interfaces.BlobInfo, error) {
	var records []BlobRecord
	err := s.db.Store().Find(&records, badgerhold.Where("Name").Ne("").SortBy("CreatedAt").Reverse())
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", interfaces.ErrStorageUnavailable, err)
	}

	infos := make([]interfaces.BlobInfo, 0, len(records))
	for _, record := range records {
		if prefix != "" && !strings.HasPrefix(record.Name, prefix) {
			continue
		}
		infos = append(infos, interfaces.BlobInfo{
			Name:        record.Name,
			ContentType: record.ContentType,
			Size:        record.Size,
			URL:         s.URL(record.Name),
			CreatedAt:   record.CreatedAt,
		})
	}

	return infos, nil
}

// Delete removes a stored blob
func (s *BlobStorage) Delete(ctx context.Context, name string) error {
	err := s.db.Store().Delete(name, &BlobRecord{})
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrBlobNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", interfaces.ErrStorageUnavailable, name, err)
	}
	return nil
}

// URL returns the public download URL for a blob name
func (s *BlobStorage) URL(name string) string {
	return s.baseURL + "/api/documents/" + name
}
