package memory

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"quiz-battle-service/internal/domain"
)

// QuestionBank is a curated in-memory bank keyed by topic and difficulty.
// It backs tests and demos and serves as the last-resort fallback when AI
// generation fails.
type QuestionBank struct {
	banks map[string]map[domain.Difficulty][]domain.Question
	rnd   *rand.Rand
}

func NewQuestionBank(banks map[string]map[domain.Difficulty][]domain.Question) *QuestionBank {
	return &QuestionBank{
		banks: banks,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Generate returns exactly count questions for the topic, preferring the
// requested difficulty band and padding from the topic's other bands.
func (b *QuestionBank) Generate(_ context.Context, topic string, difficulty domain.Difficulty, count int) ([]domain.Question, error) {
	byDifficulty, ok := b.banks[strings.ToLower(topic)]
	if !ok {
		byDifficulty, ok = b.banks["general knowledge"]
	}
	if !ok {
		return nil, fmt.Errorf("no curated bank for topic %q", topic)
	}

	pool := append([]domain.Question(nil), byDifficulty[difficulty]...)
	for band, questions := range byDifficulty {
		if band != difficulty {
			pool = append(pool, questions...)
		}
	}
	if len(pool) < count {
		return nil, fmt.Errorf("curated bank for %q holds %d questions, need %d", topic, len(pool), count)
	}

	// Shuffle only the padding region so the requested band keeps priority.
	primary := len(byDifficulty[difficulty])
	if primary > count {
		b.rnd.Shuffle(primary, func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}
	return pool[:count], nil
}
