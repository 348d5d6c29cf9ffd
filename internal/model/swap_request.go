package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SwapStatus string

const (
	SwapStatusPending  SwapStatus = "PENDING"
	SwapStatusAccepted SwapStatus = "ACCEPTED"
	SwapStatusRejected SwapStatus = "REJECTED"
)

// ParseSwapStatus validates a status value arriving from the outside world.
func ParseSwapStatus(s string) (SwapStatus, error) {
	switch SwapStatus(s) {
	case SwapStatusPending, SwapStatusAccepted, SwapStatusRejected:
		return SwapStatus(s), nil
	}
	return "", fmt.Errorf("unknown swap status %q", s)
}

// IsTerminal reports whether the request has been decided. A terminal
// request is never mutated again.
func (s SwapStatus) IsTerminal() bool {
	return s == SwapStatusAccepted || s == SwapStatusRejected
}

// SwapRequest is a proposal from the requester to trade ownership of
// MySlot for the responder's TheirSlot. The record is kept forever as the
// history of the negotiation.
type SwapRequest struct {
	ID          uuid.UUID  `json:"id"`
	RequesterID uuid.UUID  `json:"requester_id"`
	ResponderID uuid.UUID  `json:"responder_id"`
	MySlotID    uuid.UUID  `json:"my_slot_id"`
	TheirSlotID uuid.UUID  `json:"their_slot_id"`
	Status      SwapStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`

	// Attached for display, not stored on the request row
	MySlot    *Slot `json:"my_slot,omitempty"`
	TheirSlot *Slot `json:"their_slot,omitempty"`
	Requester *User `json:"requester,omitempty"`
	Responder *User `json:"responder,omitempty"`
}

// SwapInbox groups a user's requests by the side they are on.
type SwapInbox struct {
	Incoming []*SwapRequest `json:"incoming"`
	Outgoing []*SwapRequest `json:"outgoing"`
}
