package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Freeeeeet/slotswap/internal/notify"
)

// RecordingDispatcher captures every notification synchronously so tests
// can assert on fan-out without timing games.
type RecordingDispatcher struct {
	mu     sync.Mutex
	events []RecordedEvent
}

type RecordedEvent struct {
	UserID  uuid.UUID
	Event   notify.Event
	Payload any
}

var _ notify.Dispatcher = (*RecordingDispatcher)(nil)

func (d *RecordingDispatcher) Notify(_ context.Context, userID uuid.UUID, event notify.Event, payload any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, RecordedEvent{UserID: userID, Event: event, Payload: payload})
}

// Sent returns a copy of everything notified so far.
func (d *RecordingDispatcher) Sent() []RecordedEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]RecordedEvent(nil), d.events...)
}

// SentTo returns the events addressed to one user.
func (d *RecordingDispatcher) SentTo(userID uuid.UUID) []RecordedEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []RecordedEvent
	for _, e := range d.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}
