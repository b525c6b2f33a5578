package state

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// MarshalBinary serializes the certificate in the fixed field order
// ComputeHash commits to, plus the bookkeeping fields needed to
// reconstruct the engine and reject tampering on read-back. Variable-width
// fields (the VDF form coefficients) use a uint32 byte-length header
// ahead of the field, matching the length-prefixed convention chosen for
// every other wire boundary in this repository.
func (c *TickCertificate) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	var n8 [8]byte
	var n4 [4]byte

	binary.LittleEndian.PutUint64(n8[:], c.TickNumber)
	buf.Write(n8[:])
	buf.WriteByte(byte(c.TickType))
	binary.LittleEndian.PutUint64(n8[:], c.VDFIteration)
	buf.Write(n8[:])

	writeLenPrefixed := func(b []byte) {
		binary.LittleEndian.PutUint32(n4[:], uint32(len(b)))
		buf.Write(n4[:])
		buf.Write(b)
	}
	writeLenPrefixed(c.VDFFormA)
	writeLenPrefixed(c.VDFFormB)
	writeLenPrefixed(c.VDFFormC)

	buf.Write(c.HashChainValue[:])
	buf.Write(c.TickHash[:])
	binary.LittleEndian.PutUint32(n4[:], c.TransactionCount)
	buf.Write(n4[:])
	buf.Write(c.TransactionMerkleRoot[:])
	binary.LittleEndian.PutUint64(n8[:], c.Timestamp)
	buf.Write(n8[:])
	buf.Write(c.PreviousTickHash[:])
	return buf.Bytes(), nil
}

// UnmarshalBinary parses the layout MarshalBinary produces, overwriting c.
func (c *TickCertificate) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)

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
	read32 := func() ([32]byte, error) {
		var out [32]byte
		_, err := r.Read(out[:])
		return out, err
	}
	readLenPrefixed := func() ([]byte, error) {
		n, err := readU32()
		if err != nil {
			return nil, err
		}
		out := make([]byte, n)
		if n == 0 {
			return out, nil
		}
		if _, err := r.Read(out); err != nil {
			return nil, err
		}
		return out, nil
	}

	malformed := func(err error) error {
		return fmt.Errorf("state: malformed tick certificate: %w", err)
	}

	var err error
	if c.TickNumber, err = readU64(); err != nil {
		return malformed(err)
	}
	kindByte, err := r.ReadByte()
	if err != nil {
		return malformed(err)
	}
	c.TickType = TickType(kindByte)
	if c.VDFIteration, err = readU64(); err != nil {
		return malformed(err)
	}
	if c.VDFFormA, err = readLenPrefixed(); err != nil {
		return malformed(err)
	}
	if c.VDFFormB, err = readLenPrefixed(); err != nil {
		return malformed(err)
	}
	if c.VDFFormC, err = readLenPrefixed(); err != nil {
		return malformed(err)
	}
	if c.HashChainValue, err = read32(); err != nil {
		return malformed(err)
	}
	if c.TickHash, err = read32(); err != nil {
		return malformed(err)
	}
	if c.TransactionCount, err = readU32(); err != nil {
		return malformed(err)
	}
	if c.TransactionMerkleRoot, err = read32(); err != nil {
		return malformed(err)
	}
	if c.Timestamp, err = readU64(); err != nil {
		return malformed(err)
	}
	if c.PreviousTickHash, err = read32(); err != nil {
		return malformed(err)
	}
	return nil
}
