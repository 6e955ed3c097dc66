package app_test

import (
	"context"
	"testing"
	"time"

	"quiz-battle-service/internal/domain"
)

func TestDiagForceEnd(t *testing.T) {
	cfg := fastConfig()
	cfg.DefaultTimeLimit = 5 * time.Second
	service, _, archiver, _ := newTestService(cfg)

	challenge, _ := service.ProposeChallenge(participant("alice"), "bob", domain.BattleSettings{QuestionCount: 3})
	battle, err := service.AcceptChallenge(context.Background(), challenge.ID, participant("bob"))
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := service.ForceEndBattle(battle.ID(), domain.StatusCancelled, "moderation"); err != nil {
		t.Fatalf("force end: %v", err)
	}
	time.Sleep(500 * time.Millisecond)
	t.Logf("statuses for %s: %v", battle.ID(), archiver.statuses(battle.ID()))
	archiver.mu.Lock()
	for _, s := range archiver.snaps {
		t.Logf("snap battle=%s status=%s", s.BattleID, s.Status)
	}
	archiver.mu.Unlock()
}
