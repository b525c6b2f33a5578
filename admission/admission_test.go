package admission

import (
	"errors"
	"testing"
)

func TestRejectionErrorIncludesReasonAndMessage(t *testing.T) {
	err := New(ReasonOutsideWindow, "submission iteration past admission end")
	if err.Error() != "outside_window: submission iteration past admission end" {
		t.Fatalf("unexpected error string: %q", err.Error())
	}
}

func TestRejectionErrorOmitsMessageWhenEmpty(t *testing.T) {
	err := New(ReasonPoolFull, "")
	if err.Error() != "pool_full" {
		t.Fatalf("unexpected error string: %q", err.Error())
	}
}

func TestRejectionIsMatchableByReason(t *testing.T) {
	err := New(ReasonDecryptsTooEarly, "hardness too small")
	var rej *Rejection
	if !errors.As(err, &rej) {
		t.Fatalf("errors.As failed to match *Rejection")
	}
	if rej.Reason != ReasonDecryptsTooEarly {
		t.Fatalf("Reason = %q, want %q", rej.Reason, ReasonDecryptsTooEarly)
	}
}
