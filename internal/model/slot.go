package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusBusy        SlotStatus = "BUSY"
	SlotStatusSwappable   SlotStatus = "SWAPPABLE"
	SlotStatusSwapPending SlotStatus = "SWAP_PENDING"
)

// ParseSlotStatus validates a status value arriving from the outside world.
func ParseSlotStatus(s string) (SlotStatus, error) {
	switch SlotStatus(s) {
	case SlotStatusBusy, SlotStatusSwappable, SlotStatusSwapPending:
		return SlotStatus(s), nil
	}
	return "", fmt.Errorf("unknown slot status %q", s)
}

// OwnerCanSet reports whether a slot owner may move a slot between statuses.
// Owners only toggle BUSY<->SWAPPABLE; SWAP_PENDING is entered and left
// exclusively by the swap engine.
func OwnerCanSet(from, to SlotStatus) bool {
	if from == SlotStatusSwapPending || to == SlotStatusSwapPending {
		return false
	}
	return from == to ||
		(from == SlotStatusBusy && to == SlotStatusSwappable) ||
		(from == SlotStatusSwappable && to == SlotStatusBusy)
}

type Slot struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	Title     string     `json:"title"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	Status    SlotStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`

	// Attached for display, not stored on the slot row
	Owner *User `json:"owner,omitempty"`
}
