// Package vdf implements the eternal VDF engine (C2): a continuously
// advancing class-group squaring chain with an interleaved hash chain and
// periodic tick checkpoints.
package vdf

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/enigmarikki/kala-sub000/classgroup"
)

var (
	ErrInvalidCheckpoint = errors.New("vdf: checkpoint form invalid against discriminant")
)

// Engine owns the sequential (i, f_i, h_i) triple. It is not safe for
// concurrent use by more than one writer; see the tick package for the
// single-writer discipline this is designed around.
type Engine struct {
	group      classgroup.Group
	discLimbs  *big.Int // kept for Checkpoint/restart round-trips
	iteration  uint64
	form       classgroup.Form
	hashChain  [32]byte
	tickSize   uint64
}

// Genesis constructs a fresh engine at iteration 0: f_0 = identity(D),
// h_0 = SHA256("genesis").
func Genesis(d *big.Int, tickSize uint64) (*Engine, error) {
	id, err := classgroup.Identity(d)
	if err != nil {
		return nil, err
	}
	return &Engine{
		group:     classgroup.New(d),
		discLimbs: new(big.Int).Set(d),
		iteration: 0,
		form:      id,
		hashChain: sha256.Sum256([]byte("genesis")),
		tickSize:  tickSize,
	}, nil
}

// Iteration returns the current iteration counter i.
func (e *Engine) Iteration() uint64 { return e.iteration }

// Form returns the current class-group form f_i. Callers must not mutate
// the returned big.Ints.
func (e *Engine) Form() classgroup.Form { return e.form }

// HashChain returns the current hash-chain value h_i.
func (e *Engine) HashChain() [32]byte { return e.hashChain }

// TickSize returns k.
func (e *Engine) TickSize() uint64 { return e.tickSize }

// Discriminant returns D.
func (e *Engine) Discriminant() *big.Int { return e.discLimbs }

// Step performs one atomic squaring step:
//
//	f <- reduce(square(f)); i <- i+1; h <- H(i_le ‖ a(f) ‖ b(f) ‖ c(f) ‖ h [‖ payload])
//
// payload, if non-nil, is hashed in exactly once on this iteration and must
// be remembered by the caller alongside i for later Merkle-tree
// construction (the tick processor does this).
func (e *Engine) Step(payload []byte) error {
	squared, err := e.group.Square(e.form)
	if err != nil {
		return err
	}
	reduced, err := squared.Reduce()
	if err != nil {
		return err
	}

	e.form = reduced
	e.iteration++

	h := sha256.New()
	var iBuf [8]byte
	binary.LittleEndian.PutUint64(iBuf[:], e.iteration)
	h.Write(iBuf[:])
	h.Write(e.form.A.Bytes())
	h.Write(classgroup.SignedBytes(e.form.B))
	h.Write(e.form.C.Bytes())
	h.Write(e.hashChain[:])
	if payload != nil {
		h.Write(payload)
	}
	copy(e.hashChain[:], h.Sum(nil))
	return nil
}

// AtTickBoundary reports whether the current iteration closes a tick
// (i mod k == 0 and i > 0).
func (e *Engine) AtTickBoundary() bool {
	return e.iteration > 0 && e.iteration%e.tickSize == 0
}

// Checkpoint is the serializable restart record for an Engine.
type Checkpoint struct {
	Iteration  uint64
	FormA      *big.Int
	FormB      *big.Int
	FormC      *big.Int
	HashChain  [32]byte
	Discriminant *big.Int
	TickSize   uint64
}

// Checkpoint snapshots the engine's current state.
func (e *Engine) Checkpoint() Checkpoint {
	return Checkpoint{
		Iteration:    e.iteration,
		FormA:        new(big.Int).Set(e.form.A),
		FormB:        new(big.Int).Set(e.form.B),
		FormC:        new(big.Int).Set(e.form.C),
		HashChain:    e.hashChain,
		Discriminant: new(big.Int).Set(e.discLimbs),
		TickSize:     e.tickSize,
	}
}

// FromCheckpoint reconstructs an Engine from a checkpoint, validating the
// form against the discriminant before allowing further stepping.
func FromCheckpoint(cp Checkpoint) (*Engine, error) {
	f := classgroup.Form{A: cp.FormA, B: cp.FormB, C: cp.FormC}
	if !f.IsValid(cp.Discriminant) {
		return nil, ErrInvalidCheckpoint
	}
	return &Engine{
		group:     classgroup.New(cp.Discriminant),
		discLimbs: new(big.Int).Set(cp.Discriminant),
		iteration: cp.Iteration,
		form:      f,
		hashChain: cp.HashChain,
		tickSize:  cp.TickSize,
	}, nil
}
