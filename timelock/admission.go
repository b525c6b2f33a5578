package timelock

import "github.com/enigmarikki/kala-sub000/admission"

// AdmissionParams describes the tick geometry needed to evaluate a
// timelock transaction's admission window (spec.md §4.4).
type AdmissionParams struct {
	Iteration   uint64 // i, the current VDF iteration
	TargetTick  uint64 // T, the tick the transaction targets
	CurrentTick uint64 // the tick presently being processed
	TickSize    uint64 // k
	Hardness    uint64 // t, the puzzle's squaring count
}

// Admit evaluates the three admission inequalities of §4.4 and reports
// whether the transaction may be admitted, returning a typed admission
// error when it may not.
func Admit(p AdmissionParams) (bool, error) {
	if p.TargetTick < p.CurrentTick {
		return false, admission.New(admission.ReasonPastTick, "target tick precedes current tick")
	}

	var windowLow uint64
	if p.TargetTick > 0 {
		windowLow = (p.TargetTick-1)*p.TickSize + (9*p.TickSize)/10
	}
	windowHigh := p.TargetTick*p.TickSize + (3*p.TickSize)/10
	if p.Iteration < windowLow || p.Iteration > windowHigh {
		return false, admission.New(admission.ReasonOutsideWindow, "iteration outside acceptance window")
	}

	if !(p.Iteration+p.Hardness < (p.TargetTick+1)*p.TickSize) {
		return false, admission.New(admission.ReasonDecryptsTooLate, "decryption would not complete within the target tick")
	}

	if !(p.Iteration+p.Hardness >= p.TargetTick*p.TickSize+p.TickSize/3) {
		return false, admission.New(admission.ReasonDecryptsTooEarly, "decryption would complete before the consensus phase ends")
	}

	return true, nil
}
