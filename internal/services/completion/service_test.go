package completion

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
)

// mockLLM is a test double for interfaces.LLMService.
type mockLLM struct {
	chatFunc func(ctx context.Context, messages []interfaces.Message) (string, error)
	calls    int
}

func (m *mockLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	m.calls++
	return m.chatFunc(ctx, messages)
}

func (m *mockLLM) HealthCheck(ctx context.Context) error { return nil }
func (m *mockLLM) GetMode() interfaces.LLMMode           { return interfaces.LLMModeCloud }
func (m *mockLLM) Close() error                          { return nil }

func fastPolicy() common.RetryPolicy {
	return common.RetryPolicy{Attempts: 3, MinBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func TestFingerprintStable(t *testing.T) {
	messages := []interfaces.Message{
		{Role: "system", Content: "context"},
		{Role: "user", Content: "question"},
	}

	first := Fingerprint(messages)
	second := Fingerprint(messages)
	if first != second {
		t.Error("Expected identical fingerprints for identical messages")
	}
	if len(first) != 64 {
		t.Errorf("Expected sha256 hex digest, got %d chars", len(first))
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	base := []interfaces.Message{
		{Role: "system", Content: "context"},
		{Role: "user", Content: "question"},
	}

	changedContent := []interfaces.Message{
		{Role: "system", Content: "context"},
		{Role: "user", Content: "different question"},
	}
	if Fingerprint(base) == Fingerprint(changedContent) {
		t.Error("Expected different fingerprint for different content")
	}

	changedRole := []interfaces.Message{
		{Role: "user", Content: "context"},
		{Role: "user", Content: "question"},
	}
	if Fingerprint(base) == Fingerprint(changedRole) {
		t.Error("Expected different fingerprint for different role")
	}

	reordered := []interfaces.Message{
		{Role: "user", Content: "question"},
		{Role: "system", Content: "context"},
	}
	if Fingerprint(base) == Fingerprint(reordered) {
		t.Error("Expected different fingerprint for reordered messages")
	}
}

func TestCompleteCachesResponses(t *testing.T) {
	llm := &mockLLM{chatFunc: func(ctx context.Context, messages []interfaces.Message) (string, error) {
		return "the answer", nil
	}}
	service := NewService(llm, arbor.NewLogger(), Options{CacheCapacity: 10, RateLimit: 100, Policy: fastPolicy()})

	messages := []interfaces.Message{{Role: "user", Content: "question"}}

	for i := 0; i < 3; i++ {
		response, err := service.Complete(context.Background(), messages)
		if err != nil {
			t.Fatalf("Complete failed: %v", err)
		}
		if response != "the answer" {
			t.Errorf("Expected cached answer, got %q", response)
		}
	}

	if llm.calls != 1 {
		t.Errorf("Expected 1 remote call with cache hits, got %d", llm.calls)
	}
}

func TestCompleteRetriesTransientFailures(t *testing.T) {
	attempts := 0
	llm := &mockLLM{chatFunc: func(ctx context.Context, messages []interfaces.Message) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("transient")
		}
		return "recovered", nil
	}}
	service := NewService(llm, arbor.NewLogger(), Options{CacheCapacity: 10, RateLimit: 100, Policy: fastPolicy()})

	response, err := service.Complete(context.Background(), []interfaces.Message{{Role: "user", Content: "q"}})
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if response != "recovered" {
		t.Errorf("Expected recovered response, got %q", response)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestCompleteWrapsFailureAfterAllAttempts(t *testing.T) {
	llm := &mockLLM{chatFunc: func(ctx context.Context, messages []interfaces.Message) (string, error) {
		return "", errors.New("provider down")
	}}
	service := NewService(llm, arbor.NewLogger(), Options{CacheCapacity: 10, RateLimit: 100, Policy: fastPolicy()})

	_, err := service.Complete(context.Background(), []interfaces.Message{{Role: "user", Content: "q"}})
	if !errors.Is(err, interfaces.ErrCompletionFailed) {
		t.Errorf("Expected ErrCompletionFailed, got %v", err)
	}
	if llm.calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", llm.calls)
	}
}

func TestCompleteEmptyMessages(t *testing.T) {
	llm := &mockLLM{chatFunc: func(ctx context.Context, messages []interfaces.Message) (string, error) {
		return "", nil
	}}
	service := NewService(llm, arbor.NewLogger(), Options{CacheCapacity: 10, RateLimit: 100, Policy: fastPolicy()})

	_, err := service.Complete(context.Background(), nil)
	if !errors.Is(err, interfaces.ErrCompletionFailed) {
		t.Errorf("Expected ErrCompletionFailed for empty messages, got %v", err)
	}
	if llm.calls != 0 {
		t.Errorf("Expected no remote calls, got %d", llm.calls)
	}
}

func TestCacheEvictsOldestInserted(t *testing.T) {
	cache := newResponseCache(3)

	for i := 0; i < 3; i++ {
		cache.Put(fmt.Sprintf("fp-%d", i), fmt.Sprintf("response-%d", i))
	}

	// fp-0 is the oldest and gets evicted
	cache.Put("fp-3", "response-3")

	if _, ok := cache.Get("fp-0"); ok {
		t.Error("Expected oldest entry evicted")
	}
	for i := 1; i <= 3; i++ {
		if _, ok := cache.Get(fmt.Sprintf("fp-%d", i)); !ok {
			t.Errorf("Expected fp-%d retained", i)
		}
	}
	if cache.Len() != 3 {
		t.Errorf("Expected cache length 3, got %d", cache.Len())
	}
}

func TestCacheGetDoesNotRefreshAge(t *testing.T) {
	cache := newResponseCache(2)
	cache.Put("fp-a", "a")
	cache.Put("fp-b", "b")

	// Reading fp-a does not protect it from eviction
	cache.Get("fp-a")
	cache.Put("fp-c", "c")

	if _, ok := cache.Get("fp-a"); ok {
		t.Error("Expected insertion-order eviction regardless of reads")
	}
	if _, ok := cache.Get("fp-b"); !ok {
		t.Error("Expected fp-b retained")
	}
}
