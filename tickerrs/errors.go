// Package tickerrs defines the typed error taxonomy for the tick
// processor (spec.md §7): Fatal, Tick-degrading, and Transaction-local
// kinds, each with a stable error code.
package tickerrs

import "fmt"

// Kind classifies how an error propagates.
type Kind string

const (
	KindFatal            Kind = "fatal"
	KindTickDegrading    Kind = "tick_degrading"
	KindTransactionLocal Kind = "transaction_local"
)

// Code is a stable, machine-matchable error code within a Kind.
type Code string

const (
	// Fatal: abort the process, no automatic recovery.
	CodeDiscriminantInvalid     Code = "FATAL_DISCRIMINANT_INVALID"
	CodeStoreWriteFailure       Code = "FATAL_STORE_WRITE_FAILURE"
	CodeCertificateHashMismatch Code = "FATAL_CERTIFICATE_HASH_MISMATCH"

	// Tick-degrading: the tick becomes Checkpoint, the next tick continues.
	CodeVDFStepFailure        Code = "TICK_ERR_VDF_STEP_FAILURE"
	CodeDecryptionDeadlineMiss Code = "TICK_ERR_DECRYPTION_DEADLINE_MISS"
	CodeAggregationOverflow   Code = "TICK_ERR_AGGREGATION_OVERFLOW"

	// Transaction-local: the transaction is dropped, the tick proceeds.
	CodeDecryptionAuthFailure   Code = "TX_ERR_DECRYPTION_AUTH_FAILURE"
	CodeValidationFailure       Code = "TX_ERR_VALIDATION_FAILURE"
	CodeApplyPreconditionFailed Code = "TX_ERR_APPLY_PRECONDITION_FAILED"
)

// kindOf maps each code to its propagation kind; used by Error.Kind and by
// callers that want to branch on severity without also matching Code.
var kindOf = map[Code]Kind{
	CodeDiscriminantInvalid:     KindFatal,
	CodeStoreWriteFailure:       KindFatal,
	CodeCertificateHashMismatch: KindFatal,

	CodeVDFStepFailure:         KindTickDegrading,
	CodeDecryptionDeadlineMiss: KindTickDegrading,
	CodeAggregationOverflow:    KindTickDegrading,

	CodeDecryptionAuthFailure:   KindTransactionLocal,
	CodeValidationFailure:       KindTransactionLocal,
	CodeApplyPreconditionFailed: KindTransactionLocal,
}

// Error is the typed error carried through the tick processor.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Kind reports the propagation severity of e's code.
func (e *Error) Kind() Kind {
	if e == nil {
		return ""
	}
	return kindOf[e.Code]
}

// New constructs an Error for code with the given detail message.
func New(code Code, msg string) error {
	return &Error{Code: code, Msg: msg}
}

// IsFatal reports whether err is a tickerrs.Error of kind Fatal.
func IsFatal(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind() == KindFatal
}

// IsTickDegrading reports whether err is a tickerrs.Error of kind
// Tick-degrading.
func IsTickDegrading(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind() == KindTickDegrading
}

// IsTransactionLocal reports whether err is a tickerrs.Error of kind
// Transaction-local.
func IsTransactionLocal(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind() == KindTransactionLocal
}
