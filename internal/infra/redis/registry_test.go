package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"quiz-battle-service/internal/app"
	"quiz-battle-service/internal/domain"
)

func testClient(t *testing.T) *goredis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func registryBattle(id string, players ...string) *app.Battle {
	participants := make([]domain.Participant, 0, len(players))
	for _, p := range players {
		participants = append(participants, domain.Participant{ID: p, DisplayName: p})
	}
	return app.NewBattle(app.BattleConfig{
		ID:   id,
		Type: domain.BattleDuel,
		Settings: domain.BattleSettings{
			QuestionCount: 1,
			TimeLimit:     15 * time.Second,
		},
		Questions:    []domain.Question{{Text: "q", Options: []string{"a", "b"}, CorrectIndex: 0}},
		Participants: participants,
	})
}

func TestRegistryWritesLivenessKeys(t *testing.T) {
	client := testClient(t)
	r := NewBattleRegistry(client, time.Minute)

	b := registryBattle("b1", "alice", "bob")
	if err := r.Register(b); err != nil {
		t.Fatalf("register: %v", err)
	}

	ctx := context.Background()
	if v, err := client.Get(ctx, "battle:session:b1").Result(); err != nil || v != "1" {
		t.Fatalf("session key: %q %v", v, err)
	}
	if v, err := client.Get(ctx, "battle:player:alice").Result(); err != nil || v != "b1" {
		t.Fatalf("player key: %q %v", v, err)
	}

	if got, ok := r.ForPlayer("bob"); !ok || got != b {
		t.Fatalf("local lookup failed")
	}
}

func TestRegistryReleaseClearsKeys(t *testing.T) {
	client := testClient(t)
	r := NewBattleRegistry(client, time.Minute)
	_ = r.Register(registryBattle("b1", "alice", "bob"))

	r.Release("b1")

	ctx := context.Background()
	if err := client.Get(ctx, "battle:session:b1").Err(); err != goredis.Nil {
		t.Fatalf("expected session key deleted, got %v", err)
	}
	if err := client.Get(ctx, "battle:player:alice").Err(); err != goredis.Nil {
		t.Fatalf("expected player key deleted, got %v", err)
	}
	if _, ok := r.Get("b1"); ok {
		t.Fatalf("battle still present after release")
	}
}

func TestRegistryRejectsDoubleBooking(t *testing.T) {
	client := testClient(t)
	r := NewBattleRegistry(client, time.Minute)
	_ = r.Register(registryBattle("b1", "alice", "bob"))

	if err := r.Register(registryBattle("b2", "bob", "carol")); err != domain.ErrAlreadyInBattle {
		t.Fatalf("expected ErrAlreadyInBattle, got %v", err)
	}
	if err := client.Get(context.Background(), "battle:session:b2").Err(); err != goredis.Nil {
		t.Fatalf("rejected battle must not leave keys, got %v", err)
	}
}
