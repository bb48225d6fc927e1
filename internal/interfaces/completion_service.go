package interfaces

import "context"

// CompletionService produces a model answer for a prepared message
// sequence. Implementations add response caching and bounded retry on
// top of the underlying LLMService; identical conversations are served
// from cache without a remote call.
type CompletionService interface {
	// Complete returns the assistant response for the message sequence.
	// Failures after all retry attempts wrap ErrCompletionFailed.
	Complete(ctx context.Context, messages []Message) (string, error)

	// HealthCheck verifies the underlying provider is reachable.
	HealthCheck(ctx context.Context) error
}
