package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quiz-battle-service/internal/domain"
)

type countingProvider struct {
	calls atomic.Int64
	fail  bool
}

func (p *countingProvider) Generate(_ context.Context, topic string, difficulty domain.Difficulty, count int) ([]domain.Question, error) {
	p.calls.Add(1)
	if p.fail {
		return nil, errors.New("generation failed")
	}
	questions := make([]domain.Question, count)
	for i := range questions {
		questions[i] = domain.Question{Text: topic, Options: []string{"a", "b"}, CorrectIndex: 0}
	}
	return questions, nil
}

func TestCacheServesRepeatRequests(t *testing.T) {
	provider := &countingProvider{}
	cache := NewQuestionCache(provider, time.Minute)

	for i := 0; i < 3; i++ {
		questions, err := cache.Generate(context.Background(), "science", domain.DifficultyMedium, 5)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(questions) != 5 {
			t.Fatalf("expected 5 questions, got %d", len(questions))
		}
	}
	if got := provider.calls.Load(); got != 1 {
		t.Fatalf("expected one provider call, got %d", got)
	}

	// a different key misses
	if _, err := cache.Generate(context.Background(), "science", domain.DifficultyHard, 5); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := provider.calls.Load(); got != 2 {
		t.Fatalf("expected second provider call for new key, got %d", got)
	}
}

func TestCacheCollapsesConcurrentMisses(t *testing.T) {
	provider := &countingProvider{}
	cache := NewQuestionCache(provider, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Generate(context.Background(), "geography", domain.DifficultyEasy, 3); err != nil {
				t.Errorf("generate: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := provider.calls.Load(); got != 1 {
		t.Fatalf("expected concurrent misses collapsed to one call, got %d", got)
	}
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	provider := &countingProvider{fail: true}
	cache := NewQuestionCache(provider, time.Minute)

	if _, err := cache.Generate(context.Background(), "science", domain.DifficultyEasy, 3); err == nil {
		t.Fatalf("expected error")
	}
	provider.fail = false
	if _, err := cache.Generate(context.Background(), "science", domain.DifficultyEasy, 3); err != nil {
		t.Fatalf("expected recovery after provider heals, got %v", err)
	}
	if got := provider.calls.Load(); got != 2 {
		t.Fatalf("expected failure not cached, got %d calls", got)
	}
}

func TestCacheExpires(t *testing.T) {
	provider := &countingProvider{}
	cache := NewQuestionCache(provider, time.Minute)

	now := time.Now()
	cache.clock = func() time.Time { return now }

	if _, err := cache.Generate(context.Background(), "science", domain.DifficultyEasy, 3); err != nil {
		t.Fatalf("generate: %v", err)
	}
	now = now.Add(2 * time.Minute) // past ttl plus any jitter
	if _, err := cache.Generate(context.Background(), "science", domain.DifficultyEasy, 3); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := provider.calls.Load(); got != 2 {
		t.Fatalf("expected refetch after expiry, got %d calls", got)
	}
}
