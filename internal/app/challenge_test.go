package app

import (
	"testing"
	"time"

	"quiz-battle-service/internal/domain"
)

func newTestNegotiator(clock *fakeClock) *ChallengeNegotiator {
	return newChallengeNegotiatorWithClock(5*time.Minute, clock.Now)
}

func duelSettings(count int) domain.BattleSettings {
	return domain.BattleSettings{
		Topic:         "history",
		Difficulty:    domain.DifficultyEasy,
		QuestionCount: count,
		TimeLimit:     15 * time.Second,
		SpeedBonus:    true,
		StreakBonus:   true,
	}
}

func TestProposeAndAcceptChallenge(t *testing.T) {
	clock := newFakeClock()
	n := newTestNegotiator(clock)

	challenge, err := n.Propose(domain.Participant{ID: "alice", DisplayName: "Alice"}, "bob", duelSettings(5))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if challenge.Status != domain.ChallengePending || challenge.ChallengerName != "Alice" {
		t.Fatalf("unexpected challenge %+v", challenge)
	}

	accepted, err := n.Accept(challenge.ID, "bob")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != domain.ChallengeAccepted || accepted.Settings.QuestionCount != 5 {
		t.Fatalf("unexpected accepted challenge %+v", accepted)
	}
	if _, ok := n.Pending(challenge.ID); ok {
		t.Fatalf("accepted challenge still pending")
	}
}

func TestChallengeQuestionCountClamped(t *testing.T) {
	clock := newFakeClock()
	n := newTestNegotiator(clock)

	low, err := n.Propose(domain.Participant{ID: "alice"}, "bob", duelSettings(1))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if low.Settings.QuestionCount != minQuestionCount {
		t.Fatalf("expected clamp to %d, got %d", minQuestionCount, low.Settings.QuestionCount)
	}

	high, err := n.Propose(domain.Participant{ID: "alice"}, "carol", duelSettings(50))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if high.Settings.QuestionCount != maxQuestionCount {
		t.Fatalf("expected clamp to %d, got %d", maxQuestionCount, high.Settings.QuestionCount)
	}
}

func TestSelfChallengeRejected(t *testing.T) {
	clock := newFakeClock()
	n := newTestNegotiator(clock)
	if _, err := n.Propose(domain.Participant{ID: "alice"}, "alice", duelSettings(5)); err != domain.ErrInvalidTarget {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
}

func TestOnePendingChallengePerOpponent(t *testing.T) {
	clock := newFakeClock()
	n := newTestNegotiator(clock)

	if _, err := n.Propose(domain.Participant{ID: "alice"}, "bob", duelSettings(5)); err != nil {
		t.Fatalf("first propose: %v", err)
	}
	if _, err := n.Propose(domain.Participant{ID: "carol"}, "bob", duelSettings(5)); err != domain.ErrInvalidTarget {
		t.Fatalf("expected second challenge to same opponent rejected, got %v", err)
	}

	// once the first expires, a new one is allowed
	clock.Advance(6 * time.Minute)
	if _, err := n.Propose(domain.Participant{ID: "carol"}, "bob", duelSettings(5)); err != nil {
		t.Fatalf("propose after expiry: %v", err)
	}
}

func TestChallengeResolutionAuthorization(t *testing.T) {
	clock := newFakeClock()
	n := newTestNegotiator(clock)

	challenge, _ := n.Propose(domain.Participant{ID: "alice"}, "bob", duelSettings(5))
	if _, err := n.Accept(challenge.ID, "alice"); err != domain.ErrUnauthorized {
		t.Fatalf("challenger accepting own challenge: expected ErrUnauthorized, got %v", err)
	}
	if _, err := n.Decline(challenge.ID, "mallory"); err != domain.ErrUnauthorized {
		t.Fatalf("third party declining: expected ErrUnauthorized, got %v", err)
	}
	if _, err := n.Accept("no-such-id", "bob"); err != domain.ErrChallengeNotFound {
		t.Fatalf("expected ErrChallengeNotFound, got %v", err)
	}
}

func TestExpiredChallengeCannotBeAccepted(t *testing.T) {
	clock := newFakeClock()
	n := newTestNegotiator(clock)

	challenge, _ := n.Propose(domain.Participant{ID: "alice"}, "bob", duelSettings(5))
	clock.Advance(5*time.Minute + time.Second)

	if _, err := n.Accept(challenge.ID, "bob"); err != domain.ErrExpired {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if _, ok := n.Pending(challenge.ID); ok {
		t.Fatalf("expired challenge not removed")
	}
}

func TestSweepExpiresChallenges(t *testing.T) {
	clock := newFakeClock()
	n := newTestNegotiator(clock)

	stale, _ := n.Propose(domain.Participant{ID: "alice"}, "bob", duelSettings(5))
	clock.Advance(3 * time.Minute)
	fresh, _ := n.Propose(domain.Participant{ID: "carol"}, "dave", duelSettings(5))
	clock.Advance(3 * time.Minute)

	expired := n.Sweep()
	if len(expired) != 1 || expired[0].ID != stale.ID || expired[0].Status != domain.ChallengeExpired {
		t.Fatalf("unexpected sweep result %+v", expired)
	}
	if _, ok := n.Pending(fresh.ID); !ok {
		t.Fatalf("fresh challenge swept prematurely")
	}
	if again := n.Sweep(); len(again) != 0 {
		t.Fatalf("repeat sweep not a no-op: %+v", again)
	}
}

func TestDeclineResolvesChallenge(t *testing.T) {
	clock := newFakeClock()
	n := newTestNegotiator(clock)

	challenge, _ := n.Propose(domain.Participant{ID: "alice"}, "bob", duelSettings(5))
	declined, err := n.Decline(challenge.ID, "bob")
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if declined.Status != domain.ChallengeDeclined {
		t.Fatalf("expected declined status, got %s", declined.Status)
	}
	// opponent is free again
	if _, err := n.Propose(domain.Participant{ID: "carol"}, "bob", duelSettings(5)); err != nil {
		t.Fatalf("propose after decline: %v", err)
	}
}
