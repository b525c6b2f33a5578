package tick

import (
	"encoding/binary"

	"github.com/enigmarikki/kala-sub000/tickerrs"
)

// Kind tags a decrypted transaction's operation.
type Kind uint8

const (
	KindSend Kind = iota
	KindMint
	KindStake
	KindSolve
)

// Transaction is the decrypted payload recovered from a sealed timelock
// envelope. Signature is opaque to consensus: it is checked for presence
// and well-formedness only (spec.md §4.5's "signatures are opaque").
type Transaction struct {
	Kind      Kind
	Sender    [32]byte
	Nonce     uint64
	Signature []byte

	// Send
	Receiver [32]byte
	Amount   uint64

	// Stake
	Validator [32]byte

	// Solve
	PuzzleID      [32]byte
	SolutionProof []byte
}

// minSignatureLen is the shortest signature consensus will accept as
// "present"; actual cryptographic verification is the sender's concern,
// not the tick processor's (signatures are opaque here).
const minSignatureLen = 1

// CanonicalFields serializes kind_tag ‖ canonical fields for hashing into
// the transaction Merkle tree and for the tick's deterministic apply log.
func (tx *Transaction) CanonicalFields() []byte {
	out := make([]byte, 0, 128)
	out = append(out, byte(tx.Kind))
	out = append(out, tx.Sender[:]...)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], tx.Nonce)
	out = append(out, buf[:]...)
	switch tx.Kind {
	case KindSend:
		out = append(out, tx.Receiver[:]...)
		binary.LittleEndian.PutUint64(buf[:], tx.Amount)
		out = append(out, buf[:]...)
	case KindMint:
		binary.LittleEndian.PutUint64(buf[:], tx.Amount)
		out = append(out, buf[:]...)
	case KindStake:
		out = append(out, tx.Validator[:]...)
		binary.LittleEndian.PutUint64(buf[:], tx.Amount)
		out = append(out, buf[:]...)
	case KindSolve:
		out = append(out, tx.PuzzleID[:]...)
		out = append(out, tx.SolutionProof...)
	}
	return out
}

// structurallyValid reports only well-formedness (signature present); the
// caller is responsible for the nonce/balance preconditions that need
// chain-state.
func (tx *Transaction) structurallyValid() error {
	if len(tx.Signature) < minSignatureLen {
		return tickerrs.New(tickerrs.CodeValidationFailure, "missing or malformed signature")
	}
	return nil
}
