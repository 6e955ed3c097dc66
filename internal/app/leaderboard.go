package app

import (
	"sort"
	"time"

	"quiz-battle-service/internal/domain"
)

// computeStandings derives final standings for a finished battle. Accuracy
// and average answer time are computed here, once, rather than tracked live.
// Average time covers correct answers only; a player with no correct answers
// is assigned the full time limit so they sort last without dividing by zero.
func computeStandings(battleID string, btype domain.BattleType, players []*domain.BattlePlayer, totalQuestions int, timeLimit time.Duration, completedAt time.Time) domain.BattleResult {
	standings := make([]domain.PlayerResult, 0, len(players))
	for _, p := range players {
		correct := 0
		var correctTime time.Duration
		for _, a := range p.Answers {
			if a.Correct {
				correct++
				correctTime += a.TimeTaken
			}
		}
		accuracy := 0.0
		if totalQuestions > 0 {
			accuracy = float64(correct) / float64(totalQuestions)
		}
		avg := timeLimit
		if correct > 0 {
			avg = correctTime / time.Duration(correct)
		}
		standings = append(standings, domain.PlayerResult{
			PlayerID:    p.ID,
			DisplayName: p.DisplayName,
			Score:       p.Score,
			Correct:     correct,
			Total:       totalQuestions,
			Accuracy:    accuracy,
			AvgTime:     avg,
		})
	}

	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Score != standings[j].Score {
			return standings[i].Score > standings[j].Score
		}
		if standings[i].Accuracy != standings[j].Accuracy {
			return standings[i].Accuracy > standings[j].Accuracy
		}
		if standings[i].AvgTime != standings[j].AvgTime {
			return standings[i].AvgTime < standings[j].AvgTime
		}
		return standings[i].DisplayName < standings[j].DisplayName
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}

	result := domain.BattleResult{
		BattleID:    battleID,
		Type:        btype,
		Standings:   standings,
		CompletedAt: completedAt,
	}

	// A draw requires exact equality of both score and accuracy between the
	// top two; near-ties decided by time alone still produce a winner.
	if len(standings) >= 2 &&
		standings[0].Score == standings[1].Score &&
		standings[0].Accuracy == standings[1].Accuracy {
		result.IsDraw = true
	} else if len(standings) > 0 {
		result.WinnerID = standings[0].PlayerID
	}

	podium := len(standings)
	if podium > 3 {
		podium = 3
	}
	for i := 0; i < podium; i++ {
		result.Podium = append(result.Podium, standings[i].PlayerID)
	}
	return result
}
