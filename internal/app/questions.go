package app

import (
	"context"
	"log"

	"quiz-battle-service/internal/domain"
)

// QuestionProvider supplies a fixed ordered question set for a battle.
// It is consumed once at battle creation and never re-queried mid-battle.
// Implementations must return exactly count questions or an error.
type QuestionProvider interface {
	Generate(ctx context.Context, topic string, difficulty domain.Difficulty, count int) ([]domain.Question, error)
}

// FallbackProvider tries a primary provider (typically AI-generated
// content) and falls back to a curated bank when it fails. Generation
// failure is recovered here, never surfaced to the player.
type FallbackProvider struct {
	Primary  QuestionProvider
	Fallback QuestionProvider
}

func (p FallbackProvider) Generate(ctx context.Context, topic string, difficulty domain.Difficulty, count int) ([]domain.Question, error) {
	questions, err := p.Primary.Generate(ctx, topic, difficulty, count)
	if err == nil && len(questions) == count {
		return questions, nil
	}
	if err != nil {
		log.Printf("question generation failed for topic %q, using fallback bank: %v", topic, err)
	}
	return p.Fallback.Generate(ctx, topic, difficulty, count)
}
