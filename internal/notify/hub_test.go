package notify

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestHub_DeliversToAllUserConnections(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	other := uuid.New()

	ch1, cancel1 := hub.Subscribe(userID)
	defer cancel1()
	ch2, cancel2 := hub.Subscribe(userID)
	defer cancel2()
	chOther, cancelOther := hub.Subscribe(other)
	defer cancelOther()

	msg := Message{UserID: userID, Event: EventSwapIncoming}
	if err := hub.Deliver(context.Background(), msg); err != nil {
		t.Fatalf("Deliver() failed: %v", err)
	}

	for i, ch := range []<-chan Message{ch1, ch2} {
		select {
		case got := <-ch:
			if got.Event != EventSwapIncoming {
				t.Errorf("connection %d got event %q", i, got.Event)
			}
		default:
			t.Errorf("connection %d got nothing", i)
		}
	}

	select {
	case <-chOther:
		t.Error("unrelated user received the message")
	default:
	}
}

func TestHub_CancelRemovesConnection(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, cancel := hub.Subscribe(userID)
	if got := hub.Subscribers(userID); got != 1 {
		t.Fatalf("Subscribers() = %d, want 1", got)
	}

	cancel()
	if got := hub.Subscribers(userID); got != 0 {
		t.Fatalf("Subscribers() after cancel = %d, want 0", got)
	}

	// Delivery after cancel goes nowhere and does not panic
	if err := hub.Deliver(context.Background(), Message{UserID: userID}); err != nil {
		t.Fatalf("Deliver() failed: %v", err)
	}
	select {
	case <-ch:
		t.Error("cancelled connection received a message")
	default:
	}
}

func TestHub_SlowConsumerDoesNotBlock(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	_, cancel := hub.Subscribe(userID)
	defer cancel()

	// Overfill the connection buffer; Deliver must never block
	for i := 0; i < 100; i++ {
		if err := hub.Deliver(context.Background(), Message{UserID: userID, Event: EventSwapUpdate}); err != nil {
			t.Fatalf("Deliver() failed: %v", err)
		}
	}
}
