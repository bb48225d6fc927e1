package models

// GeneratedDocument represents a rendered report document. URL is empty
// when the upload failed; the response then carries a null document_url.
type GeneratedDocument struct {
	// Content is the rendered binary document
	Content []byte `json:"-"`

	// BlobName is the storage name, derived from the sanitized question
	// plus a timestamp and random suffix for uniqueness
	BlobName string `json:"blob_name"`

	// URL is the addressable location of the uploaded document
	URL string `json:"url,omitempty"`
}
