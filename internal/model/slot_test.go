package model

import "testing"

func TestParseSlotStatus(t *testing.T) {
	for _, valid := range []string{"BUSY", "SWAPPABLE", "SWAP_PENDING"} {
		status, err := ParseSlotStatus(valid)
		if err != nil {
			t.Errorf("ParseSlotStatus(%q) failed: %v", valid, err)
		}
		if string(status) != valid {
			t.Errorf("ParseSlotStatus(%q) = %q", valid, status)
		}
	}

	for _, invalid := range []string{"", "busy", "FREE", "PENDING", "SWAP-PENDING"} {
		if _, err := ParseSlotStatus(invalid); err == nil {
			t.Errorf("ParseSlotStatus(%q) should fail", invalid)
		}
	}
}

func TestOwnerCanSet(t *testing.T) {
	tests := []struct {
		from, to SlotStatus
		want     bool
	}{
		{SlotStatusBusy, SlotStatusSwappable, true},
		{SlotStatusSwappable, SlotStatusBusy, true},
		{SlotStatusBusy, SlotStatusBusy, true},
		{SlotStatusSwappable, SlotStatusSwappable, true},
		{SlotStatusBusy, SlotStatusSwapPending, false},
		{SlotStatusSwappable, SlotStatusSwapPending, false},
		{SlotStatusSwapPending, SlotStatusBusy, false},
		{SlotStatusSwapPending, SlotStatusSwappable, false},
		{SlotStatusSwapPending, SlotStatusSwapPending, false},
	}

	for _, tt := range tests {
		if got := OwnerCanSet(tt.from, tt.to); got != tt.want {
			t.Errorf("OwnerCanSet(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
