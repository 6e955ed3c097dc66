package app

import (
	"sort"
	"sync"
	"time"

	"quiz-battle-service/internal/domain"
)

// skill bands for deriving arena question difficulty from a group's
// average skill level.
const (
	easySkillBelow = 10
	hardSkillFrom  = 25
)

// MatchmakingQueue collects players waiting for an arena match and groups
// them by skill similarity. Sorting by skill before slicing approximates
// fair matches without optimal partitioning.
type MatchmakingQueue struct {
	min int
	max int
	now func() time.Time

	mu       sync.Mutex
	entries  []domain.MatchmakingEntry
	byPlayer map[string]struct{}
}

func NewMatchmakingQueue(minSize, maxSize int) *MatchmakingQueue {
	return &MatchmakingQueue{
		min:      minSize,
		max:      maxSize,
		now:      time.Now,
		byPlayer: make(map[string]struct{}),
	}
}

// Enqueue adds a player to the queue and returns their position.
func (q *MatchmakingQueue) Enqueue(playerID, displayName string, skillLevel int) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.byPlayer[playerID]; ok {
		return 0, domain.ErrAlreadyQueued
	}
	q.entries = append(q.entries, domain.MatchmakingEntry{
		PlayerID:    playerID,
		DisplayName: displayName,
		SkillLevel:  skillLevel,
		JoinedAt:    q.now(),
	})
	q.byPlayer[playerID] = struct{}{}
	return len(q.entries), nil
}

// Dequeue removes a player if queued; a no-op otherwise.
func (q *MatchmakingQueue) Dequeue(playerID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.byPlayer[playerID]; !ok {
		return false
	}
	delete(q.byPlayer, playerID)
	for i, e := range q.entries {
		if e.PlayerID == playerID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
	return true
}

// Len reports how many players are currently queued.
func (q *MatchmakingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Match sorts the queue by skill and greedily slices it into groups between
// the minimum and maximum size, draining front-to-back. A remainder below
// the minimum stays queued.
func (q *MatchmakingQueue) Match() [][]domain.MatchmakingEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) < q.min {
		return nil
	}

	sorted := append([]domain.MatchmakingEntry(nil), q.entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SkillLevel < sorted[j].SkillLevel
	})

	var groups [][]domain.MatchmakingEntry
	for len(sorted) >= q.min {
		size := q.max
		if len(sorted) < size {
			size = len(sorted)
		}
		group := sorted[:size]
		sorted = sorted[size:]
		groups = append(groups, group)
		for _, e := range group {
			delete(q.byPlayer, e.PlayerID)
		}
	}

	// Keep the unmatched remainder in original join order.
	var remaining []domain.MatchmakingEntry
	for _, e := range q.entries {
		if _, ok := q.byPlayer[e.PlayerID]; ok {
			remaining = append(remaining, e)
		}
	}
	q.entries = remaining
	return groups
}

// DifficultyForGroup derives the arena question band from the group's
// average skill level using fixed thresholds.
func DifficultyForGroup(group []domain.MatchmakingEntry) domain.Difficulty {
	if len(group) == 0 {
		return domain.DifficultyEasy
	}
	total := 0
	for _, e := range group {
		total += e.SkillLevel
	}
	avg := total / len(group)
	switch {
	case avg < easySkillBelow:
		return domain.DifficultyEasy
	case avg < hardSkillFrom:
		return domain.DifficultyMedium
	default:
		return domain.DifficultyHard
	}
}
