package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-battle-service/internal/domain"
)

const (
	minQuestionCount = 3
	maxQuestionCount = 10
)

// ChallengeNegotiator manages pending one-on-one invitations prior to
// battle creation. At most one pending challenge may target a given
// opponent at a time.
type ChallengeNegotiator struct {
	ttl time.Duration
	now func() time.Time

	mu         sync.Mutex
	byID       map[string]*domain.Challenge
	byOpponent map[string]string
}

func NewChallengeNegotiator(ttl time.Duration) *ChallengeNegotiator {
	return newChallengeNegotiatorWithClock(ttl, time.Now)
}

// newChallengeNegotiatorWithClock allows deterministic expiry in tests.
func newChallengeNegotiatorWithClock(ttl time.Duration, now func() time.Time) *ChallengeNegotiator {
	return &ChallengeNegotiator{
		ttl:        ttl,
		now:        now,
		byID:       make(map[string]*domain.Challenge),
		byOpponent: make(map[string]string),
	}
}

// Propose creates a pending challenge. The question count is clamped into
// the allowed range; the caller is responsible for the busy-player check.
func (n *ChallengeNegotiator) Propose(challenger domain.Participant, opponentID string, settings domain.BattleSettings) (domain.Challenge, error) {
	if challenger.ID == opponentID {
		return domain.Challenge{}, domain.ErrInvalidTarget
	}

	if settings.QuestionCount < minQuestionCount {
		settings.QuestionCount = minQuestionCount
	}
	if settings.QuestionCount > maxQuestionCount {
		settings.QuestionCount = maxQuestionCount
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if id, ok := n.byOpponent[opponentID]; ok {
		// A stale pending entry past expiry does not block a new challenge.
		if c, exists := n.byID[id]; exists && c.ExpiresAt.After(n.now()) {
			return domain.Challenge{}, domain.ErrInvalidTarget
		}
		n.removeLocked(id)
	}

	now := n.now()
	challenge := &domain.Challenge{
		ID:             uuid.NewString(),
		ChallengerID:   challenger.ID,
		ChallengerName: challenger.DisplayName,
		OpponentID:     opponentID,
		Settings:       settings,
		Status:         domain.ChallengePending,
		CreatedAt:      now,
		ExpiresAt:      now.Add(n.ttl),
	}
	n.byID[challenge.ID] = challenge
	n.byOpponent[opponentID] = challenge.ID
	return *challenge, nil
}

// Accept resolves a pending challenge in the opponent's favor and removes
// it. The returned challenge carries the settings for battle creation.
func (n *ChallengeNegotiator) Accept(challengeID, accepterID string) (domain.Challenge, error) {
	return n.resolve(challengeID, accepterID, domain.ChallengeAccepted)
}

// Decline resolves a pending challenge as rejected and removes it.
func (n *ChallengeNegotiator) Decline(challengeID, declinerID string) (domain.Challenge, error) {
	return n.resolve(challengeID, declinerID, domain.ChallengeDeclined)
}

func (n *ChallengeNegotiator) resolve(challengeID, actorID string, outcome domain.ChallengeStatus) (domain.Challenge, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	challenge, ok := n.byID[challengeID]
	if !ok {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	if challenge.OpponentID != actorID {
		return domain.Challenge{}, domain.ErrUnauthorized
	}
	if !challenge.ExpiresAt.After(n.now()) {
		n.removeLocked(challengeID)
		return domain.Challenge{}, domain.ErrExpired
	}

	challenge.Status = outcome
	n.removeLocked(challengeID)
	return *challenge, nil
}

// Sweep removes challenges past their expiry and returns them marked
// expired. Safe to run on a fixed interval; a repeat run is a no-op.
func (n *ChallengeNegotiator) Sweep() []domain.Challenge {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	var expired []domain.Challenge
	for id, c := range n.byID {
		if c.ExpiresAt.After(now) {
			continue
		}
		c.Status = domain.ChallengeExpired
		expired = append(expired, *c)
		n.removeLocked(id)
	}
	return expired
}

// Pending looks up an unresolved challenge by ID.
func (n *ChallengeNegotiator) Pending(challengeID string) (domain.Challenge, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	c, ok := n.byID[challengeID]
	if !ok {
		return domain.Challenge{}, false
	}
	return *c, true
}

func (n *ChallengeNegotiator) removeLocked(challengeID string) {
	if c, ok := n.byID[challengeID]; ok {
		if n.byOpponent[c.OpponentID] == challengeID {
			delete(n.byOpponent, c.OpponentID)
		}
		delete(n.byID, challengeID)
	}
}
