package state

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

// MarshalBinary serializes the full chain state — VDF position bookkeeping,
// every touched account, and every recorded puzzle solution — so that
// InitGenesis can resume a data directory from its last persisted
// chain_state instead of only the VDF's own (iteration, form, hash chain)
// checkpoint. Accounts and puzzles are written in ascending key order for a
// deterministic encoding.
func (s *ChainState) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	var n8 [8]byte
	var n4 [4]byte

	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(n8[:], v)
		buf.Write(n8[:])
	}
	writeU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(n4[:], v)
		buf.Write(n4[:])
	}

	writeU64(s.CurrentTick)
	writeU64(s.CurrentIteration)
	buf.Write(s.LastTickHash[:])
	writeU64(s.TotalTransactions)
	writeU64(s.TickSize)
	writeU64(s.MaxMintPerTick)
	writeU64(s.mintedThisTick)
	writeU64(s.mintTrackedTick)

	addrs := make([][32]byte, 0, len(s.accounts))
	for addr := range s.accounts {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return bytes.Compare(addrs[i][:], addrs[j][:]) < 0 })

	writeU32(uint32(len(addrs)))
	for _, addr := range addrs {
		a := s.accounts[addr]
		buf.Write(addr[:])
		writeU64(a.Balance)
		writeU64(a.Nonce)
		writeU64(a.StakedAmount)
		if a.Delegation != nil {
			buf.WriteByte(1)
			buf.Write(a.Delegation[:])
		} else {
			buf.WriteByte(0)
		}
	}

	ids := make([][32]byte, 0, len(s.puzzles))
	for id := range s.puzzles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })

	writeU32(uint32(len(ids)))
	for _, id := range ids {
		p := s.puzzles[id]
		buf.Write(id[:])
		buf.Write(p.Solver[:])
		writeU64(p.SolvedAtTick)
		writeU64(p.SolvedAtIteration)
		writeU32(uint32(len(p.SolutionProof)))
		buf.Write(p.SolutionProof)
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary parses the layout MarshalBinary produces, overwriting s.
func (s *ChainState) UnmarshalBinary(data []byte) error {
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
	malformed := func(err error) error {
		return fmt.Errorf("state: malformed chain state: %w", err)
	}

	var err error
	if s.CurrentTick, err = readU64(); err != nil {
		return malformed(err)
	}
	if s.CurrentIteration, err = readU64(); err != nil {
		return malformed(err)
	}
	if s.LastTickHash, err = read32(); err != nil {
		return malformed(err)
	}
	if s.TotalTransactions, err = readU64(); err != nil {
		return malformed(err)
	}
	if s.TickSize, err = readU64(); err != nil {
		return malformed(err)
	}
	if s.MaxMintPerTick, err = readU64(); err != nil {
		return malformed(err)
	}
	if s.mintedThisTick, err = readU64(); err != nil {
		return malformed(err)
	}
	if s.mintTrackedTick, err = readU64(); err != nil {
		return malformed(err)
	}

	accountCount, err := readU32()
	if err != nil {
		return malformed(err)
	}
	s.accounts = make(map[[32]byte]*Account, accountCount)
	for i := uint32(0); i < accountCount; i++ {
		addr, err := read32()
		if err != nil {
			return malformed(err)
		}
		a := &Account{}
		if a.Balance, err = readU64(); err != nil {
			return malformed(err)
		}
		if a.Nonce, err = readU64(); err != nil {
			return malformed(err)
		}
		if a.StakedAmount, err = readU64(); err != nil {
			return malformed(err)
		}
		hasDelegation, err := r.ReadByte()
		if err != nil {
			return malformed(err)
		}
		if hasDelegation != 0 {
			d, err := read32()
			if err != nil {
				return malformed(err)
			}
			a.Delegation = &d
		}
		s.accounts[addr] = a
	}

	puzzleCount, err := readU32()
	if err != nil {
		return malformed(err)
	}
	s.puzzles = make(map[[32]byte]PuzzleSolution, puzzleCount)
	for i := uint32(0); i < puzzleCount; i++ {
		id, err := read32()
		if err != nil {
			return malformed(err)
		}
		var p PuzzleSolution
		if p.Solver, err = read32(); err != nil {
			return malformed(err)
		}
		if p.SolvedAtTick, err = readU64(); err != nil {
			return malformed(err)
		}
		if p.SolvedAtIteration, err = readU64(); err != nil {
			return malformed(err)
		}
		proofLen, err := readU32()
		if err != nil {
			return malformed(err)
		}
		proof := make([]byte, proofLen)
		if proofLen > 0 {
			if _, err := r.Read(proof); err != nil {
				return malformed(err)
			}
		}
		p.SolutionProof = proof
		s.puzzles[id] = p
	}

	return nil
}
