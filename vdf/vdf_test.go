package vdf

import (
	"testing"

	"github.com/enigmarikki/kala-sub000/classgroup"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := Genesis(classgroup.GenesisDiscriminant1024, 9)
	if err != nil {
		t.Fatalf("Genesis: %v", err)
	}
	return e
}

func TestGenesisStartsAtIterationZero(t *testing.T) {
	e := newTestEngine(t)
	if e.Iteration() != 0 {
		t.Fatalf("Iteration() = %d, want 0", e.Iteration())
	}
	if e.AtTickBoundary() {
		t.Fatalf("genesis must not report a tick boundary")
	}
}

func TestStepAdvancesIterationAndHashChain(t *testing.T) {
	e := newTestEngine(t)
	h0 := e.HashChain()
	if err := e.Step(nil); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if e.Iteration() != 1 {
		t.Fatalf("Iteration() = %d, want 1", e.Iteration())
	}
	if e.HashChain() == h0 {
		t.Fatalf("hash chain did not advance")
	}
}

func TestStepWithPayloadDiffersFromWithoutPayload(t *testing.T) {
	e1 := newTestEngine(t)
	e2 := newTestEngine(t)
	if err := e1.Step(nil); err != nil {
		t.Fatalf("Step e1: %v", err)
	}
	if err := e2.Step([]byte("ordering-commitment")); err != nil {
		t.Fatalf("Step e2: %v", err)
	}
	if e1.HashChain() == e2.HashChain() {
		t.Fatalf("payload must be folded into the hash chain")
	}
}

func TestAtTickBoundaryFiresEveryKIterations(t *testing.T) {
	e := newTestEngine(t)
	for i := 0; i < 9; i++ {
		if err := e.Step(nil); err != nil {
			t.Fatalf("Step: %v", err)
		}
		want := i == 8
		if e.AtTickBoundary() != want {
			t.Fatalf("iteration %d: AtTickBoundary() = %v, want %v", i+1, e.AtTickBoundary(), want)
		}
	}
}

// TestCheckpointRestartMatchesUninterruptedRun grounds S6: a node that
// checkpoints mid-run and resumes from the checkpoint must reach the same
// (iteration, form, hash chain) as one that ran straight through.
func TestCheckpointRestartMatchesUninterruptedRun(t *testing.T) {
	reference := newTestEngine(t)
	for i := 0; i < 20; i++ {
		if err := reference.Step(nil); err != nil {
			t.Fatalf("reference Step: %v", err)
		}
	}

	resumed := newTestEngine(t)
	for i := 0; i < 12; i++ {
		if err := resumed.Step(nil); err != nil {
			t.Fatalf("resumed Step (pre-checkpoint): %v", err)
		}
	}
	cp := resumed.Checkpoint()
	restarted, err := FromCheckpoint(cp)
	if err != nil {
		t.Fatalf("FromCheckpoint: %v", err)
	}
	for i := 0; i < 8; i++ {
		if err := restarted.Step(nil); err != nil {
			t.Fatalf("restarted Step (post-checkpoint): %v", err)
		}
	}

	if restarted.Iteration() != reference.Iteration() {
		t.Fatalf("iteration mismatch: restarted=%d reference=%d", restarted.Iteration(), reference.Iteration())
	}
	if restarted.HashChain() != reference.HashChain() {
		t.Fatalf("hash chain mismatch after checkpoint/restart")
	}
	if restarted.Form().A.Cmp(reference.Form().A) != 0 ||
		restarted.Form().B.Cmp(reference.Form().B) != 0 ||
		restarted.Form().C.Cmp(reference.Form().C) != 0 {
		t.Fatalf("form mismatch after checkpoint/restart")
	}
}

func TestFromCheckpointRejectsInvalidForm(t *testing.T) {
	e := newTestEngine(t)
	cp := e.Checkpoint()
	cp.FormA.SetInt64(2) // corrupt: no longer satisfies b^2-4ac=D for this form
	if _, err := FromCheckpoint(cp); err != ErrInvalidCheckpoint {
		t.Fatalf("expected ErrInvalidCheckpoint, got %v", err)
	}
}
