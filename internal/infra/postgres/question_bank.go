package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-battle-service/internal/domain"
)

// QuestionBank loads curated question sets from Postgres JSONB. Rows hold a
// full question list per (topic, difficulty); the bank slices out count
// questions per request.
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

func (b *QuestionBank) Generate(ctx context.Context, topic string, difficulty domain.Difficulty, count int) ([]domain.Question, error) {
	var raw []byte
	err := b.pool.QueryRow(ctx,
		`SELECT questions FROM question_banks WHERE topic=$1 AND difficulty=$2`,
		topic, string(difficulty),
	).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}

	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal question bank: %w", err)
	}
	if len(questions) < count {
		return nil, fmt.Errorf("bank for %s/%s holds %d questions, need %d", topic, difficulty, len(questions), count)
	}
	return questions[:count], nil
}
