// Package hub is an in-memory broadcast broker scoped by session token. It
// maps each token to the set of live viewer channels and fans notifications
// out to exactly that set. Delivery is best-effort: there is no buffering for
// future joiners and no retry — late viewers reconcile through the session
// query layer instead.
package hub

import (
	"sync"

	"photodrop-backend/internal/models"
)

// subscriber channels are buffered so a slow viewer drops notifications
// rather than stalling the broadcaster.
const subscriberBuffer = 16

// Hub owns the room membership relation. No other component mutates it.
type Hub struct {
	mu    sync.RWMutex
	rooms map[models.SessionToken]map[chan models.NewImageEvent]struct{}
}

// New creates a ready-to-use Hub.
func New() *Hub {
	return &Hub{rooms: make(map[models.SessionToken]map[chan models.NewImageEvent]struct{})}
}

// Subscribe registers a listener in the token's room and returns its event
// channel plus a cancel that removes it. The transport layer defers cancel on
// disconnect; calling it more than once is safe.
func (h *Hub) Subscribe(token models.SessionToken) (<-chan models.NewImageEvent, func()) {
	ch := make(chan models.NewImageEvent, subscriberBuffer)

	h.mu.Lock()
	members := h.rooms[token]
	if members == nil {
		members = make(map[chan models.NewImageEvent]struct{})
		h.rooms[token] = members
	}
	members[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if members, ok := h.rooms[token]; ok {
				delete(members, ch)
				if len(members) == 0 {
					delete(h.rooms, token)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Broadcast delivers the event to every current member of the token's room.
// The lock is held only for non-blocking channel handoffs; the actual socket
// write happens in each subscriber's own pump goroutine, so a slow or dead
// connection can never stall the broker or delivery to other members. An
// empty room is a no-op; the event is not kept for future joiners.
func (h *Hub) Broadcast(token models.SessionToken, e models.NewImageEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.rooms[token] {
		select {
		case ch <- e:
		default: // viewer too slow, drop rather than block
		}
	}
}

// RoomSize reports the current member count for a token's room.
func (h *Hub) RoomSize(token models.SessionToken) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[token])
}
