package tick

import (
	"github.com/enigmarikki/kala-sub000/state"
	"github.com/enigmarikki/kala-sub000/tickerrs"
)

// validate checks the per-transaction rules of spec.md §4.5 against the
// chain state as it stood before this transaction's turn in commit order.
// A failure here drops the transaction silently: the caller logs and
// continues, the nonce is not advanced.
func validate(s *state.ChainState, tx *Transaction) error {
	if err := tx.structurallyValid(); err != nil {
		return err
	}
	acc := s.Account(tx.Sender)
	if tx.Nonce <= acc.Nonce {
		return tickerrs.New(tickerrs.CodeValidationFailure, "nonce not strictly greater than account nonce")
	}
	switch tx.Kind {
	case KindSend:
		if acc.Balance < tx.Amount {
			return tickerrs.New(tickerrs.CodeApplyPreconditionFailed, "insufficient balance for send")
		}
	case KindStake:
		if acc.Balance < tx.Amount {
			return tickerrs.New(tickerrs.CodeApplyPreconditionFailed, "insufficient balance for stake")
		}
	case KindMint, KindSolve:
		// no balance precondition
	}
	return nil
}

// apply performs one transaction's state mutation atomically, assuming
// validate already passed. It always advances the sender's nonce to
// tx.Nonce on success.
func apply(s *state.ChainState, tx *Transaction) error {
	switch tx.Kind {
	case KindSend:
		if err := s.Transfer(tx.Sender, tx.Receiver, tx.Amount); err != nil {
			return tickerrs.New(tickerrs.CodeApplyPreconditionFailed, err.Error())
		}
	case KindMint:
		if err := s.Mint(tx.Sender, tx.Amount); err != nil {
			return tickerrs.New(tickerrs.CodeApplyPreconditionFailed, err.Error())
		}
	case KindStake:
		if err := s.Stake(tx.Sender, tx.Validator, tx.Amount); err != nil {
			return tickerrs.New(tickerrs.CodeApplyPreconditionFailed, err.Error())
		}
	case KindSolve:
		if err := s.RecordPuzzleSolution(tx.Sender, tx.PuzzleID, tx.SolutionProof); err != nil {
			// Idempotent per spec: a duplicate solve is dropped, not fatal.
			return tickerrs.New(tickerrs.CodeApplyPreconditionFailed, err.Error())
		}
	}
	s.SetNonce(tx.Sender, tx.Nonce)
	return nil
}

// ValidateAndApply runs validate then apply for tx against s and reports
// whether it was applied; false means the transaction was silently dropped
// and s is left unchanged.
func ValidateAndApply(s *state.ChainState, tx *Transaction) bool {
	if err := validate(s, tx); err != nil {
		return false
	}
	if err := apply(s, tx); err != nil {
		return false
	}
	return true
}
