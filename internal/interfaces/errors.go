package interfaces

import "errors"

// Failure classes for the answer pipeline. The orchestrator decides per
// class whether a stage failure degrades the response or aborts it:
// search and document failures degrade, completion failures abort.
var (
	// ErrSearchUnavailable indicates the document index could not be
	// reached or returned a malformed response. Recovered: the pipeline
	// continues with a placeholder context and an empty source set.
	ErrSearchUnavailable = errors.New("search index unavailable")

	// ErrCompletionFailed indicates the model call failed after all retry
	// attempts. Fatal: no answer can be produced without it.
	ErrCompletionFailed = errors.New("completion failed")

	// ErrDocumentGeneration indicates report rendering or upload failed.
	// Recovered: the response carries a null document URL.
	ErrDocumentGeneration = errors.New("document generation failed")

	// ErrStorageUnavailable indicates a blob transport or auth error.
	// Surfaces to callers of the document layer as ErrDocumentGeneration.
	ErrStorageUnavailable = errors.New("blob storage unavailable")
)
