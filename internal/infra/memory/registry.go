package memory

import (
	"sync"

	"quiz-battle-service/internal/app"
	"quiz-battle-service/internal/domain"
)

// BattleRegistry is an in-memory implementation of app.BattleRegistry.
// Registration is all-or-nothing: the busy check and the insert for every
// player happen under one lock, so concurrent accept and matchmaking
// attempts cannot double-book a player.
type BattleRegistry struct {
	mu       sync.RWMutex
	battles  map[string]*app.Battle
	byPlayer map[string]string
}

func NewBattleRegistry() *BattleRegistry {
	return &BattleRegistry{
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
	for _, playerID := range b.PlayerIDs() {
		r.byPlayer[playerID] = b.ID()
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
	for _, playerID := range b.PlayerIDs() {
		if r.byPlayer[playerID] == battleID {
			delete(r.byPlayer, playerID)
		}
	}
	delete(r.battles, battleID)
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
