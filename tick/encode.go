package tick

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/enigmarikki/kala-sub000/state"
	"github.com/enigmarikki/kala-sub000/tickerrs"
)

// EncodeTransaction serializes tx for sealing into a timelock envelope.
// The wire layout is kind ‖ sender ‖ nonce_le ‖ sig_len_le(u32) ‖ sig ‖
// kind-specific fields, mirroring CanonicalFields but self-delimiting so
// it round-trips through DecodeTransaction. MarshalBinary/UnmarshalBinary
// wrap these same functions for callers that want the standard interface.
func EncodeTransaction(tx *Transaction) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(tx.Kind))
	buf.Write(tx.Sender[:])
	var n8 [8]byte
	var n4 [4]byte
	binary.LittleEndian.PutUint64(n8[:], tx.Nonce)
	buf.Write(n8[:])
	binary.LittleEndian.PutUint32(n4[:], uint32(len(tx.Signature)))
	buf.Write(n4[:])
	buf.Write(tx.Signature)

	switch tx.Kind {
	case KindSend:
		buf.Write(tx.Receiver[:])
		binary.LittleEndian.PutUint64(n8[:], tx.Amount)
		buf.Write(n8[:])
	case KindMint:
		binary.LittleEndian.PutUint64(n8[:], tx.Amount)
		buf.Write(n8[:])
	case KindStake:
		buf.Write(tx.Validator[:])
		binary.LittleEndian.PutUint64(n8[:], tx.Amount)
		buf.Write(n8[:])
	case KindSolve:
		buf.Write(tx.PuzzleID[:])
		binary.LittleEndian.PutUint32(n4[:], uint32(len(tx.SolutionProof)))
		buf.Write(n4[:])
		buf.Write(tx.SolutionProof)
	}
	return buf.Bytes()
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	return EncodeTransaction(tx), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (tx *Transaction) UnmarshalBinary(data []byte) error {
	decoded, err := DecodeTransaction(data)
	if err != nil {
		return err
	}
	*tx = *decoded
	return nil
}

// DecodeTransaction parses the layout EncodeTransaction produces. A
// malformed payload is a transaction-local error: the caller drops the
// transaction rather than aborting the tick.
func DecodeTransaction(data []byte) (*Transaction, error) {
	r := bytes.NewReader(data)
	readByte := func() (byte, error) {
		b, err := r.ReadByte()
		return b, err
	}
	read32 := func() ([32]byte, error) {
		var out [32]byte
		_, err := r.Read(out[:])
		return out, err
	}
	readU64 := func() (uint64, error) {
		var b [8]byte
		if _, err := r.Read(b[:]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(b[:]), nil
	}
	readU32 := func() (uint32, error) {
		var b [4]byte
		if _, err := r.Read(b[:]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint32(b[:]), nil
	}
	readBytes := func(n uint32) ([]byte, error) {
		out := make([]byte, n)
		if n == 0 {
			return out, nil
		}
		if _, err := r.Read(out); err != nil {
			return nil, err
		}
		return out, nil
	}

	malformed := func(err error) (*Transaction, error) {
		return nil, tickerrs.New(tickerrs.CodeValidationFailure, fmt.Sprintf("malformed transaction payload: %v", err))
	}

	kindByte, err := readByte()
	if err != nil {
		return malformed(err)
	}
	tx := &Transaction{Kind: Kind(kindByte)}

	if tx.Sender, err = read32(); err != nil {
		return malformed(err)
	}
	if tx.Nonce, err = readU64(); err != nil {
		return malformed(err)
	}
	sigLen, err := readU32()
	if err != nil {
		return malformed(err)
	}
	if tx.Signature, err = readBytes(sigLen); err != nil {
		return malformed(err)
	}

	switch tx.Kind {
	case KindSend:
		if tx.Receiver, err = read32(); err != nil {
			return malformed(err)
		}
		if tx.Amount, err = readU64(); err != nil {
			return malformed(err)
		}
	case KindMint:
		if tx.Amount, err = readU64(); err != nil {
			return malformed(err)
		}
	case KindStake:
		if tx.Validator, err = read32(); err != nil {
			return malformed(err)
		}
		if tx.Amount, err = readU64(); err != nil {
			return malformed(err)
		}
	case KindSolve:
		if tx.PuzzleID, err = read32(); err != nil {
			return malformed(err)
		}
		proofLen, err := readU32()
		if err != nil {
			return malformed(err)
		}
		if tx.SolutionProof, err = readBytes(proofLen); err != nil {
			return malformed(err)
		}
	default:
		return malformed(fmt.Errorf("unknown kind tag %d", kindByte))
	}
	return tx, nil
}

// encodeCertificate serializes a tick certificate for storage via its
// MarshalBinary method.
func encodeCertificate(c *state.TickCertificate) []byte {
	b, _ := c.MarshalBinary() // TickCertificate.MarshalBinary never errors
	return b
}
