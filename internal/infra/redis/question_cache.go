package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-battle-service/internal/app"
	"quiz-battle-service/internal/domain"
)

// QuestionCache caches generated question sets in Redis and falls back to
// the wrapped provider on a miss. Sets are stored as JSON under:
// questions:{topic}:{difficulty}:{count}
type QuestionCache struct {
	client   *redis.Client
	provider app.QuestionProvider
	ttl      time.Duration
	sf       singleflight.Group
	rnd      *rand.Rand
}

func NewQuestionCache(client *redis.Client, provider app.QuestionProvider, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client:   client,
		provider: provider,
		ttl:      ttl,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) Generate(ctx context.Context, topic string, difficulty domain.Difficulty, count int) ([]domain.Question, error) {
	key := c.key(topic, difficulty, count)

	if questions, ok := c.lookup(ctx, key, count); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := c.lookup(ctx, key, count); ok {
			return questions, nil
		}

		questions, err := c.provider.Generate(ctx, topic, difficulty, count)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(questions); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) lookup(ctx context.Context, key string, count int) ([]domain.Question, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil || len(questions) != count {
		return nil, false
	}
	return questions, true
}

func (c *QuestionCache) key(topic string, difficulty domain.Difficulty, count int) string {
	return fmt.Sprintf("questions:%s:%s:%d", topic, difficulty, count)
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
