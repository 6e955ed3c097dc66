package app

import (
	"testing"
	"time"

	"quiz-battle-service/internal/domain"
)

func scoringQuestion() domain.Question {
	return domain.Question{
		Text:         "capital of France",
		Options:      []string{"Lyon", "Paris", "Nice", "Lille"},
		CorrectIndex: 1,
	}
}

func allBonuses() domain.BattleSettings {
	return domain.BattleSettings{TimeLimit: 15 * time.Second, SpeedBonus: true, StreakBonus: true}
}

func TestScoreInstantAnswerGetsFullSpeedBonus(t *testing.T) {
	correct, points := Score(scoringQuestion(), 1, 0, 15*time.Second, 0, allBonuses())
	if !correct || points != basePoints+maxSpeedBonus {
		t.Fatalf("expected %d points, got correct=%v points=%d", basePoints+maxSpeedBonus, correct, points)
	}
}

func TestScoreAtLimitGetsNoSpeedBonus(t *testing.T) {
	correct, points := Score(scoringQuestion(), 1, 15*time.Second, 15*time.Second, 0, allBonuses())
	if !correct || points != basePoints {
		t.Fatalf("expected base points only, got correct=%v points=%d", correct, points)
	}
}

func TestScoreSpeedBonusDecaysLinearly(t *testing.T) {
	cases := []struct {
		taken time.Duration
		want  int
	}{
		{3 * time.Second, 40},
		{7500 * time.Millisecond, 25},
		{12 * time.Second, 10},
	}
	for _, tc := range cases {
		_, points := Score(scoringQuestion(), 1, tc.taken, 15*time.Second, 0, allBonuses())
		if points != basePoints+tc.want {
			t.Fatalf("at %v expected bonus %d, got total %d", tc.taken, tc.want, points)
		}
	}
}

func TestScoreStreakBonus(t *testing.T) {
	for streak := 0; streak < 5; streak++ {
		_, points := Score(scoringQuestion(), 1, 15*time.Second, 15*time.Second, streak, allBonuses())
		want := basePoints + streak*streakBonusStep
		if points != want {
			t.Fatalf("streak %d: expected %d, got %d", streak, want, points)
		}
	}
}

func TestScoreIncorrectAndTimeoutScoreZero(t *testing.T) {
	if correct, points := Score(scoringQuestion(), 0, 0, 15*time.Second, 3, allBonuses()); correct || points != 0 {
		t.Fatalf("incorrect answer scored correct=%v points=%d", correct, points)
	}
	if correct, points := Score(scoringQuestion(), TimeoutAnswer, 15*time.Second, 15*time.Second, 3, allBonuses()); correct || points != 0 {
		t.Fatalf("timeout answer scored correct=%v points=%d", correct, points)
	}
}

func TestScoreBonusSwitchesOff(t *testing.T) {
	settings := domain.BattleSettings{TimeLimit: 15 * time.Second}
	_, points := Score(scoringQuestion(), 1, 0, 15*time.Second, 4, settings)
	if points != basePoints {
		t.Fatalf("expected base points with bonuses disabled, got %d", points)
	}
}

func TestClampTimeTaken(t *testing.T) {
	limit := 10 * time.Second
	if got := clampTimeTaken(-time.Second, limit); got != 0 {
		t.Fatalf("negative elapsed should clamp to zero, got %v", got)
	}
	if got := clampTimeTaken(11*time.Second, limit); got != limit {
		t.Fatalf("over-limit elapsed should clamp to limit, got %v", got)
	}
	if got := clampTimeTaken(4*time.Second, limit); got != 4*time.Second {
		t.Fatalf("in-range elapsed should pass through, got %v", got)
	}
}
