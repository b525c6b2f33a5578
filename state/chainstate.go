package state

import (
	"errors"
	"math"

	"github.com/enigmarikki/kala-sub000/vdf"
)

var (
	ErrInsufficientBalance = errors.New("state: insufficient balance")
	ErrMintCapExceeded     = errors.New("state: mint amount exceeds the per-tick policy cap")
	ErrDuplicatePuzzle     = errors.New("state: puzzle solution already recorded")
)

// DefaultMaxMintPerTick bounds total minting in a single tick so that
// repeated Mint transactions cannot overflow account balances.
const DefaultMaxMintPerTick = uint64(1_000_000_000)

// PuzzleSolution records who solved a timelock puzzle and when.
type PuzzleSolution struct {
	Solver             [32]byte
	SolutionProof      []byte
	SolvedAtTick       uint64
	SolvedAtIteration  uint64
}

// ChainState is the full in-memory account-based ledger plus VDF-position
// bookkeeping. It is not safe for concurrent mutation; the tick processor
// serializes all writes through its finalization phase.
type ChainState struct {
	CurrentTick        uint64
	CurrentIteration   uint64
	LastTickHash       [32]byte
	TotalTransactions  uint64
	TickSize           uint64
	MaxMintPerTick     uint64

	accounts map[[32]byte]*Account
	puzzles  map[[32]byte]PuzzleSolution

	mintedThisTick uint64
	mintTrackedTick uint64
}

// New returns a fresh chain state with tick size k and the default mint
// cap.
func New(tickSize uint64) *ChainState {
	return &ChainState{
		TickSize:       tickSize,
		MaxMintPerTick: DefaultMaxMintPerTick,
		accounts:       make(map[[32]byte]*Account),
		puzzles:        make(map[[32]byte]PuzzleSolution),
	}
}

// FromVDFCheckpoint derives the tick/iteration position from a VDF
// checkpoint, for restart after a crash.
func FromVDFCheckpoint(cp vdf.Checkpoint) *ChainState {
	s := New(cp.TickSize)
	s.CurrentIteration = cp.Iteration
	s.CurrentTick = cp.Iteration / cp.TickSize
	s.LastTickHash = cp.HashChain
	return s
}

func (s *ChainState) account(addr [32]byte) *Account {
	a, ok := s.accounts[addr]
	if !ok {
		na := NewAccount()
		a = &na
		s.accounts[addr] = a
	}
	return a
}

// Account returns a copy of the account at addr, or the zero account if
// absent.
func (s *ChainState) Account(addr [32]byte) Account {
	if a, ok := s.accounts[addr]; ok {
		return *a
	}
	return NewAccount()
}

// AccountCount reports how many distinct addresses have ever been touched.
func (s *ChainState) AccountCount() int { return len(s.accounts) }

// Transfer debits from and credits to by amount, failing if from's balance
// is insufficient. Nonce bookkeeping is the caller's responsibility (the
// tick processor sets it after a successful apply).
func (s *ChainState) Transfer(from, to [32]byte, amount uint64) error {
	sender := s.account(from)
	if sender.Balance < amount {
		return ErrInsufficientBalance
	}
	sender.Balance -= amount
	receiver := s.account(to)
	receiver.Balance += amount
	return nil
}

// Mint credits addr with amount (saturating), enforcing the per-tick mint
// cap. The cap resets whenever CurrentTick advances past the tick it was
// tracking.
func (s *ChainState) Mint(addr [32]byte, amount uint64) error {
	if s.mintTrackedTick != s.CurrentTick {
		s.mintTrackedTick = s.CurrentTick
		s.mintedThisTick = 0
	}
	if s.mintedThisTick+amount < s.mintedThisTick || s.mintedThisTick+amount > s.MaxMintPerTick {
		return ErrMintCapExceeded
	}
	s.mintedThisTick += amount

	a := s.account(addr)
	a.Balance = saturatingAdd(a.Balance, amount)
	return nil
}

// Stake debits staker's balance by amount, adds it to staked_amount, and
// records the delegation target.
func (s *ChainState) Stake(staker, validator [32]byte, amount uint64) error {
	a := s.account(staker)
	if a.Balance < amount {
		return ErrInsufficientBalance
	}
	a.Balance -= amount
	a.StakedAmount += amount
	v := validator
	a.Delegation = &v
	return nil
}

// RecordPuzzleSolution records a timelock puzzle's solver, rejecting a
// second recording for the same puzzleID (idempotent per spec).
func (s *ChainState) RecordPuzzleSolution(solver, puzzleID [32]byte, proof []byte) error {
	if _, exists := s.puzzles[puzzleID]; exists {
		return ErrDuplicatePuzzle
	}
	s.puzzles[puzzleID] = PuzzleSolution{
		Solver:            solver,
		SolutionProof:     append([]byte(nil), proof...),
		SolvedAtTick:      s.CurrentTick,
		SolvedAtIteration: s.CurrentIteration,
	}
	return nil
}

// PuzzleSolution returns the recorded solution for puzzleID, if any.
func (s *ChainState) PuzzleSolution(puzzleID [32]byte) (PuzzleSolution, bool) {
	p, ok := s.puzzles[puzzleID]
	return p, ok
}

// SetNonce sets addr's nonce directly; called by the tick processor after
// a transaction applies successfully.
func (s *ChainState) SetNonce(addr [32]byte, nonce uint64) {
	s.account(addr).Nonce = nonce
}

// IterationToTick returns the tick number containing iteration i.
func (s *ChainState) IterationToTick(i uint64) uint64 { return i / s.TickSize }

// TickToIteration returns the first iteration of tick.
func (s *ChainState) TickToIteration(tick uint64) uint64 { return tick * s.TickSize }

// IsTickBoundary reports whether iteration i closes a tick.
func (s *ChainState) IsTickBoundary(i uint64) bool { return i > 0 && i%s.TickSize == 0 }

// Snapshot returns a deep-copied ChainState safe for a reader to inspect
// concurrently with further mutation of s by the tick processor.
func (s *ChainState) Snapshot() *ChainState {
	cp := *s
	cp.accounts = make(map[[32]byte]*Account, len(s.accounts))
	for addr, a := range s.accounts {
		na := *a
		if a.Delegation != nil {
			d := *a.Delegation
			na.Delegation = &d
		}
		cp.accounts[addr] = &na
	}
	cp.puzzles = make(map[[32]byte]PuzzleSolution, len(s.puzzles))
	for id, p := range s.puzzles {
		np := p
		np.SolutionProof = append([]byte(nil), p.SolutionProof...)
		cp.puzzles[id] = np
	}
	return &cp
}

func saturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a { // overflow
		return math.MaxUint64
	}
	return sum
}
