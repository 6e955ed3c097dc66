package memory

import (
	"context"
	"fmt"
	"testing"

	"quiz-battle-service/internal/domain"
)

func bankQuestions(prefix string, n int) []domain.Question {
	questions := make([]domain.Question, n)
	for i := range questions {
		questions[i] = domain.Question{
			Text:         fmt.Sprintf("%s-%d", prefix, i),
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: 0,
		}
	}
	return questions
}

func testBanks() map[string]map[domain.Difficulty][]domain.Question {
	return map[string]map[domain.Difficulty][]domain.Question{
		"history": {
			domain.DifficultyEasy:   bankQuestions("h-easy", 3),
			domain.DifficultyMedium: bankQuestions("h-med", 2),
		},
		"general knowledge": {
			domain.DifficultyEasy: bankQuestions("gk-easy", 5),
		},
	}
}

func TestBankPrefersRequestedBand(t *testing.T) {
	bank := NewQuestionBank(testBanks())
	questions, err := bank.Generate(context.Background(), "history", domain.DifficultyEasy, 3)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	for _, q := range questions {
		if q.Text[:6] != "h-easy" {
			t.Fatalf("expected easy-band question, got %q", q.Text)
		}
	}
}

func TestBankPadsFromOtherBands(t *testing.T) {
	bank := NewQuestionBank(testBanks())
	questions, err := bank.Generate(context.Background(), "history", domain.DifficultyEasy, 5)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(questions) != 5 {
		t.Fatalf("expected padded set of 5, got %d", len(questions))
	}
}

func TestBankFallsBackToGeneralKnowledge(t *testing.T) {
	bank := NewQuestionBank(testBanks())
	questions, err := bank.Generate(context.Background(), "astrophysics", domain.DifficultyEasy, 4)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, q := range questions {
		if q.Text[:7] != "gk-easy" {
			t.Fatalf("expected general knowledge fallback, got %q", q.Text)
		}
	}
}

func TestBankInsufficientQuestions(t *testing.T) {
	bank := NewQuestionBank(testBanks())
	if _, err := bank.Generate(context.Background(), "history", domain.DifficultyEasy, 10); err == nil {
		t.Fatalf("expected error for oversized request")
	}
}
