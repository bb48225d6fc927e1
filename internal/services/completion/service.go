package completion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
)

// Service wraps an LLM provider with response caching, rate limiting, and
// retry. Identical message sequences resolve from the cache without a
// remote call; concurrent identical misses may each call the provider.
type Service struct {
	llm     interfaces.LLMService
	cache   *responseCache
	limiter *rate.Limiter
	policy  common.RetryPolicy
	logger  arbor.ILogger
}

// Compile-time interface check
var _ interfaces.CompletionService = (*Service)(nil)

// Options configures the completion service.
type Options struct {
	CacheCapacity int
	RateLimit     int
	Policy        common.RetryPolicy
}

// NewService creates a completion service over an LLM provider.
func NewService(llm interfaces.LLMService, logger arbor.ILogger, opts Options) *Service {
	rateLimit := opts.RateLimit
	if rateLimit <= 0 {
		rateLimit = 2
	}

	policy := opts.Policy
	if policy.Attempts == 0 {
		policy = common.DefaultRetryPolicy()
	}

	return &Service{
		llm:     llm,
		cache:   newResponseCache(opts.CacheCapacity),
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		policy:  policy,
		logger:  logger,
	}
}

// fingerprintMessage mirrors interfaces.Message with fields in canonical
// (alphabetical) key order so the serialized form is stable.
type fingerprintMessage struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

// Fingerprint returns the sha256 hex digest of the canonical JSON form of
// a message sequence. It is a pure function of role, content, and order.
func Fingerprint(messages []interfaces.Message) string {
	canonical := make([]fingerprintMessage, len(messages))
	for i, msg := range messages {
		canonical[i] = fingerprintMessage{Content: msg.Content, Role: msg.Role}
	}

	// Marshal of a fixed struct slice cannot fail
	data, _ := json.Marshal(canonical)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Complete returns the model's response for the message sequence. Cached
// responses are returned without a remote call. Remote calls are rate
// limited and retried with jittered exponential backoff; when every
// attempt fails the error wraps ErrCompletionFailed.
func (s *Service) Complete(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: messages cannot be empty", interfaces.ErrCompletionFailed)
	}

	fingerprint := Fingerprint(messages)

	if cached, ok := s.cache.Get(fingerprint); ok {
		s.logger.Debug().
			Str("fingerprint", fingerprint[:12]).
			Msg("Completion served from cache")
		return cached, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", interfaces.ErrCompletionFailed, err)
	}

	startTime := time.Now()

	var response string
	err := s.policy.Do(ctx, func() error {
		var chatErr error
		response, chatErr = s.llm.Chat(ctx, messages)
		return chatErr
	}, func(attempt uint, err error) {
		s.logger.Warn().
			Int("attempt", int(attempt)).
			Err(err).
			Msg("Completion attempt failed, retrying")
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("message_count", len(messages)).
			Dur("elapsed", time.Since(startTime)).
			Msg("Completion failed after all attempts")
		return "", fmt.Errorf("%w: %v", interfaces.ErrCompletionFailed, err)
	}

	s.cache.Put(fingerprint, response)

	s.logger.Debug().
		Str("fingerprint", fingerprint[:12]).
		Int("response_length", len(response)).
		Dur("elapsed", time.Since(startTime)).
		Msg("Completion generated")

	return response, nil
}

// HealthCheck verifies the underlying LLM provider is reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.llm.HealthCheck(ctx)
}
