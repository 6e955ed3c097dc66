package app

import (
	"context"
	"log"

	"quiz-battle-service/internal/domain"
)

const (
	participationXP   = 25
	winXP             = 100
	drawXP            = 60
	accuracyBonusXP   = 25
	perfectBonusXP    = 50
	accuracyThreshold = 0.75
)

// RewardSink receives per-player reward inputs once a battle completes.
// The engine does not need the applied result back.
type RewardSink interface {
	Award(ctx context.Context, playerID string, input domain.RewardInput, xp int)
}

// RewardInputs derives the per-player record the XP collaborator consumes.
func RewardInputs(result domain.BattleResult) map[string]domain.RewardInput {
	inputs := make(map[string]domain.RewardInput, len(result.Standings))
	for _, p := range result.Standings {
		inputs[p.PlayerID] = domain.RewardInput{
			Participated: true,
			Won:          !result.IsDraw && p.PlayerID == result.WinnerID,
			IsDraw:       result.IsDraw && p.Rank <= 2,
			Accuracy:     p.Accuracy,
			PerfectScore: p.Total > 0 && p.Correct == p.Total,
		}
	}
	return inputs
}

// BaseXP is the default XP table applied to a reward input. External
// collaborators may apply their own multipliers on top.
func BaseXP(input domain.RewardInput) int {
	xp := 0
	if input.Participated {
		xp += participationXP
	}
	switch {
	case input.Won:
		xp += winXP
	case input.IsDraw:
		xp += drawXP
	}
	if input.Accuracy >= accuracyThreshold {
		xp += accuracyBonusXP
	}
	if input.PerfectScore {
		xp += perfectBonusXP
	}
	return xp
}

// LogRewardSink records awards in the server log. It stands in for the
// external XP/leveling subsystem.
type LogRewardSink struct{}

func (LogRewardSink) Award(_ context.Context, playerID string, input domain.RewardInput, xp int) {
	log.Printf("awarding %d xp to %s (won=%v draw=%v accuracy=%.2f)", xp, playerID, input.Won, input.IsDraw, input.Accuracy)
}
