package tick

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/enigmarikki/kala-sub000/timelock"
)

// PendingTx is an admitted timelock transaction sitting in the witness
// pool, awaiting ordering, decryption, and finalization.
type PendingTx struct {
	Envelope            timelock.Envelope
	Puzzle              timelock.Puzzle
	SubmissionIteration uint64
	TargetTick          uint64

	// Decrypted, set once the decryption phase recovers the key.
	Plaintext []byte
	Decrypted bool
}

// ciphertextHash hashes the sealed ciphertext, used both as an ordering
// tie-break and inside the ordering commitment.
func (p *PendingTx) ciphertextHash() [32]byte {
	return sha256.Sum256(p.Envelope.Ciphertext)
}

// canonicalFields serializes the fields folded into the VDF payload at
// witness time, and into the ordering commitment at the consensus
// boundary: submission_iteration_le ‖ target_tick_le ‖ nonce ‖ tag ‖
// H(ciphertext). The GCM tag is the trailing 16 bytes of Ciphertext.
func (p *PendingTx) canonicalFields() []byte {
	out := make([]byte, 0, 8+8+12+16+32)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], p.SubmissionIteration)
	out = append(out, buf[:]...)
	binary.LittleEndian.PutUint64(buf[:], p.TargetTick)
	out = append(out, buf[:]...)
	out = append(out, p.Envelope.Nonce[:]...)
	if n := len(p.Envelope.Ciphertext); n >= 16 {
		out = append(out, p.Envelope.Ciphertext[n-16:]...)
	}
	h := p.ciphertextHash()
	out = append(out, h[:]...)
	return out
}
