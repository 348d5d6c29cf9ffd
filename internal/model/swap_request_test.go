package model

import "testing"

func TestParseSwapStatus(t *testing.T) {
	for _, valid := range []string{"PENDING", "ACCEPTED", "REJECTED"} {
		if _, err := ParseSwapStatus(valid); err != nil {
			t.Errorf("ParseSwapStatus(%q) failed: %v", valid, err)
		}
	}

	for _, invalid := range []string{"", "pending", "CANCELED", "DONE"} {
		if _, err := ParseSwapStatus(invalid); err == nil {
			t.Errorf("ParseSwapStatus(%q) should fail", invalid)
		}
	}
}

func TestSwapStatusIsTerminal(t *testing.T) {
	if SwapStatusPending.IsTerminal() {
		t.Error("PENDING must not be terminal")
	}
	if !SwapStatusAccepted.IsTerminal() {
		t.Error("ACCEPTED must be terminal")
	}
	if !SwapStatusRejected.IsTerminal() {
		t.Error("REJECTED must be terminal")
	}
}
