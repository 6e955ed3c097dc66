package app

import (
	"sync"

	"quiz-battle-service/internal/domain"
)

// eventHub fans engine events out to per-player subscriber channels. The UI
// layer subscribes with a player ID and renders whatever arrives; the engine
// never waits on a slow consumer.
type eventHub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.Event]struct{}
}

func newEventHub() *eventHub {
	return &eventHub{subscribers: make(map[string]map[chan domain.Event]struct{})}
}

// Subscribe returns a channel of events addressed to playerID. The caller
// must invoke the returned cancel function to avoid leaks.
func (h *eventHub) Subscribe(playerID string) (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	h.mu.Lock()
	if h.subscribers[playerID] == nil {
		h.subscribers[playerID] = make(map[chan domain.Event]struct{})
	}
	h.subscribers[playerID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subscribers[playerID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subscribers, playerID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of each listed player.
// Slow subscribers lose their oldest pending event rather than blocking.
func (h *eventHub) Publish(ev domain.Event, playerIDs ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range playerIDs {
		for ch := range h.subscribers[id] {
			select {
			case ch <- ev:
			default:
				select {
				case <-ch:
				default:
				}
				ch <- ev
			}
		}
	}
}
