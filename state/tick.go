package state

import (
	"crypto/sha256"
	"encoding/binary"
)

// TickType classifies how a tick concluded.
type TickType uint8

const (
	TickFull TickType = iota
	TickEmpty
	TickCheckpoint
)

func (t TickType) String() string {
	switch t {
	case TickFull:
		return "full"
	case TickEmpty:
		return "empty"
	case TickCheckpoint:
		return "checkpoint"
	default:
		return "unknown"
	}
}

// TickCertificate is the finalized record of one tick.
type TickCertificate struct {
	TickNumber            uint64
	TickType              TickType
	VDFIteration          uint64
	VDFFormA, VDFFormB, VDFFormC []byte
	HashChainValue        [32]byte
	TickHash              [32]byte
	TransactionCount      uint32
	TransactionMerkleRoot [32]byte
	Timestamp             uint64
	PreviousTickHash      [32]byte
}

// ComputeHash hashes TickNumber, VDFIteration, VDFFormA/B/C,
// HashChainValue, TransactionMerkleRoot and PreviousTickHash in that order.
// TickType, TransactionCount and Timestamp are not hashed, and the form
// fields are written without length prefixes.
func (c *TickCertificate) ComputeHash() [32]byte {
	h := sha256.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], c.TickNumber)
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], c.VDFIteration)
	h.Write(buf[:])
	h.Write(c.VDFFormA)
	h.Write(c.VDFFormB)
	h.Write(c.VDFFormC)
	h.Write(c.HashChainValue[:])
	h.Write(c.TransactionMerkleRoot[:])
	h.Write(c.PreviousTickHash[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
