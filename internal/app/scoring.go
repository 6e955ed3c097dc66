package app

import (
	"time"

	"quiz-battle-service/internal/domain"
)

const (
	basePoints      = 100
	maxSpeedBonus   = 50
	streakBonusStep = 10
)

// TimeoutAnswer is the selected-index sentinel for a question that timed out.
const TimeoutAnswer = -1

// Score converts a submitted answer into points. It is a pure function:
// the streak passed in is the value before this answer is accounted for.
// Incorrect or timed-out answers score zero.
func Score(question domain.Question, selectedIndex int, timeTaken, timeLimit time.Duration, streak int, settings domain.BattleSettings) (correct bool, points int) {
	if selectedIndex == TimeoutAnswer || selectedIndex != question.CorrectIndex {
		return false, 0
	}

	points = basePoints
	if settings.SpeedBonus {
		points += speedBonus(timeTaken, timeLimit)
	}
	if settings.StreakBonus {
		points += streak * streakBonusStep
	}
	return true, points
}

// speedBonus decays linearly from maxSpeedBonus at instant answers to zero
// at the time limit.
func speedBonus(timeTaken, timeLimit time.Duration) int {
	if timeLimit <= 0 {
		return 0
	}
	if timeTaken < 0 {
		timeTaken = 0
	}
	if timeTaken > timeLimit {
		timeTaken = timeLimit
	}
	remaining := timeLimit - timeTaken
	return int(int64(maxSpeedBonus) * int64(remaining) / int64(timeLimit))
}

// clampTimeTaken bounds an elapsed answer time into [0, limit].
func clampTimeTaken(elapsed, limit time.Duration) time.Duration {
	if elapsed < 0 {
		return 0
	}
	if elapsed > limit {
		return limit
	}
	return elapsed
}
