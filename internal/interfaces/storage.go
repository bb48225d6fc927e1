package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned when a key/value pair does not exist
var ErrKeyNotFound = errors.New("key not found")

// ErrBlobNotFound is returned when a named blob does not exist
var ErrBlobNotFound = errors.New("blob not found")

// KeyValuePair represents a stored key/value entry
type KeyValuePair struct {
	Key         string    `badgerhold:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BlobInfo describes a stored blob without its content
type BlobInfo struct {
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// BlobStorage stores named binary blobs and returns their addressable
// URLs. Uploads overwrite existing blobs of the same name; generated
// names are unique so overwrites only occur on explicit re-upload.
// Transport errors wrap ErrStorageUnavailable.
type BlobStorage interface {
	// Upload stores content under name and returns the blob's URL.
	Upload(ctx context.Context, content []byte, name, contentType string) (string, error)

	// Download returns the content and content type of a named blob.
	Download(ctx context.Context, name string) ([]byte, string, error)

	// List returns blob metadata, optionally filtered by name prefix,
	// ordered by creation time descending.
	List(ctx context.Context, prefix string) ([]BlobInfo, error)

	// Delete removes a named blob.
	Delete(ctx context.Context, name string) error

	// URL returns the addressable URL for a blob name without touching storage.
	URL(name string) string
}

// KeyValueStorage provides simple key/value persistence, used for API key
// and configuration value resolution. Keys are case-insensitive.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value, description string) error
	GetAll(ctx context.Context) (map[string]string, error)
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	BlobStorage() BlobStorage
	KeyValueStorage() KeyValueStorage
	Close() error
}
