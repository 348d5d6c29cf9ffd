package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Hub is the in-process connection manager: it maps a user id to the set
// of live subscriber channels for that user. Registration is owned by the
// transport handler that holds the connection (subscribe on attach,
// cancel on disconnect); the hub itself is injected, never global.
type Hub struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[chan Message]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[chan Message]struct{})}
}

// Subscribe registers a new connection for the user and returns its
// channel along with a cancel function that must be called when the
// connection goes away.
func (h *Hub) Subscribe(userID uuid.UUID) (<-chan Message, func()) {
	ch := make(chan Message, 16)

	h.mu.Lock()
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[chan Message]struct{})
		h.subs[userID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[userID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, userID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Subscribers reports how many connections the user currently has.
func (h *Hub) Subscribers(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Deliver fans the message out to every live connection of the addressed
// user. Sends never block: a consumer that stopped draining its channel
// loses the event.
func (h *Hub) Deliver(_ context.Context, msg Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[msg.UserID] {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}
