// Package notify delivers swap lifecycle events to affected users.
// Delivery is best-effort: the swap engine fires events after its
// transaction has committed and never learns about delivery failures.
package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Event string

const (
	EventSwapIncoming Event = "swap:incoming"
	EventSwapUpdate   Event = "swap:update"
)

// SwapIncomingPayload accompanies EventSwapIncoming, sent to the responder.
type SwapIncomingPayload struct {
	RequestID uuid.UUID `json:"requestId"`
}

// SwapUpdatePayload accompanies EventSwapUpdate, sent to both parties
// once a request has been decided.
type SwapUpdatePayload struct {
	RequestID uuid.UUID `json:"requestId"`
	Status    string    `json:"status"`
}

// Message is a single event addressed to a single user.
type Message struct {
	UserID  uuid.UUID `json:"-"`
	Event   Event     `json:"event"`
	Payload any       `json:"payload"`
}

// Dispatcher is the capability the swap engine depends on.
type Dispatcher interface {
	Notify(ctx context.Context, userID uuid.UUID, event Event, payload any)
}

// Sink is a single delivery channel (live connections, redis, telegram).
type Sink interface {
	Deliver(ctx context.Context, msg Message) error
}

// AsyncDispatcher queues events and fans each one out to all configured
// sinks from a background worker, so a slow sink never holds up the
// request handler that triggered the event.
type AsyncDispatcher struct {
	sinks  []Sink
	queue  chan Message
	done   chan struct{}
	logger *zap.Logger

	closeOnce sync.Once
}

func NewAsyncDispatcher(logger *zap.Logger, queueSize int, sinks ...Sink) *AsyncDispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &AsyncDispatcher{
		sinks:  sinks,
		queue:  make(chan Message, queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go d.run()
	return d
}

// Notify enqueues the event without blocking. When the queue is full the
// event is dropped and logged; consumers tolerate missed notifications.
func (d *AsyncDispatcher) Notify(_ context.Context, userID uuid.UUID, event Event, payload any) {
	msg := Message{UserID: userID, Event: event, Payload: payload}
	select {
	case d.queue <- msg:
	default:
		d.logger.Warn("Notification queue full, dropping event",
			zap.String("user_id", userID.String()),
			zap.String("event", string(event)),
		)
	}
}

// Close stops accepting events and drains what is already queued.
func (d *AsyncDispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
		<-d.done
	})
}

func (d *AsyncDispatcher) run() {
	defer close(d.done)
	for msg := range d.queue {
		for _, sink := range d.sinks {
			if err := sink.Deliver(context.Background(), msg); err != nil {
				d.logger.Warn("Notification delivery failed",
					zap.String("user_id", msg.UserID.String()),
					zap.String("event", string(msg.Event)),
					zap.Error(err),
				)
			}
		}
	}
}
