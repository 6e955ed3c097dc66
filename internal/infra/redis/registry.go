package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-battle-service/internal/app"
	"quiz-battle-service/internal/domain"
)

// BattleRegistry is a Redis-aware implementation of app.BattleRegistry.
// Notes:
//   - It keeps a local in-memory map of live battles because the state
//     machine and its timers only exist in this process.
//   - Redis marks battle and player liveness so an operator (or a future
//     multi-node router) can see who is bound where.
//   - For true distribution you'd pair this with a pub/sub projector that
//     fans out battle events.
type BattleRegistry struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	battles  map[string]*app.Battle
	byPlayer map[string]string
}

func NewBattleRegistry(client *redis.Client, ttl time.Duration) *BattleRegistry {
	return &BattleRegistry{
		client:   client,
		ttl:      ttl,
		battles:  make(map[string]*app.Battle),
		byPlayer: make(map[string]string),
	}
}

func (r *BattleRegistry) Register(b *app.Battle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, playerID := range b.PlayerIDs() {
		if _, busy := r.byPlayer[playerID]; busy {
			return domain.ErrAlreadyInBattle
		}
	}
	r.battles[b.ID()] = b
	ctx := context.Background()
	// best-effort liveness markers
	_ = r.client.Set(ctx, r.battleKey(b.ID()), "1", r.ttl).Err()
	for _, playerID := range b.PlayerIDs() {
		r.byPlayer[playerID] = b.ID()
		_ = r.client.Set(ctx, r.playerKey(playerID), b.ID(), r.ttl).Err()
	}
	return nil
}

func (r *BattleRegistry) Get(battleID string) (*app.Battle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.battles[battleID]
	return b, ok
}

func (r *BattleRegistry) ForPlayer(playerID string) (*app.Battle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	battleID, ok := r.byPlayer[playerID]
	if !ok {
		return nil, false
	}
	b, ok := r.battles[battleID]
	return b, ok
}

func (r *BattleRegistry) Release(battleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.battles[battleID]
	if !ok {
		return
	}
	ctx := context.Background()
	for _, playerID := range b.PlayerIDs() {
		if r.byPlayer[playerID] == battleID {
			delete(r.byPlayer, playerID)
			_ = r.client.Del(ctx, r.playerKey(playerID)).Err()
		}
	}
	delete(r.battles, battleID)
	_ = r.client.Del(ctx, r.battleKey(battleID)).Err()
}

func (r *BattleRegistry) All() []*app.Battle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	battles := make([]*app.Battle, 0, len(r.battles))
	for _, b := range r.battles {
		battles = append(battles, b)
	}
	return battles
}

func (r *BattleRegistry) battleKey(battleID string) string {
	return "battle:session:" + battleID
}

func (r *BattleRegistry) playerKey(playerID string) string {
	return "battle:player:" + playerID
}
