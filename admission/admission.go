// Package admission defines the typed rejection reasons returned to
// callers when a timelock transaction or pool submission is refused
// admission (spec.md §7, error kind "Admission").
package admission

import "fmt"

// Reason is a stable, machine-matchable rejection reason.
type Reason string

const (
	ReasonPastTick          Reason = "past_tick"
	ReasonOutsideWindow     Reason = "outside_window"
	ReasonDecryptsTooEarly  Reason = "decrypts_too_early"
	ReasonDecryptsTooLate   Reason = "decrypts_too_late"
	ReasonMalformedEnvelope Reason = "malformed"
	ReasonPoolFull          Reason = "pool_full"
)

// Rejection is the error type returned for every admission refusal.
type Rejection struct {
	Reason Reason
	Msg    string
}

func (r *Rejection) Error() string {
	if r == nil {
		return "<nil>"
	}
	if r.Msg == "" {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Msg)
}

// New constructs a Rejection.
func New(reason Reason, msg string) error {
	return &Rejection{Reason: reason, Msg: msg}
}
