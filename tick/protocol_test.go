package tick

import "testing"

func TestPhaseBoundariesDivideTickIntoThirds(t *testing.T) {
	k := uint64(9)
	if got := CollectionPhaseEnd(k); got != 3 {
		t.Fatalf("CollectionPhaseEnd(9) = %d, want 3", got)
	}
	if got := ConsensusPhaseEnd(k); got != 6 {
		t.Fatalf("ConsensusPhaseEnd(9) = %d, want 6", got)
	}
}
