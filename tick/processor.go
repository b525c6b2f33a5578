// Package tick implements the four-phase tick state machine (C5): witness
// admission, consensus ordering, concurrent decryption, and finalization.
package tick

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/enigmarikki/kala-sub000/classgroup"
	"github.com/enigmarikki/kala-sub000/merkle"
	"github.com/enigmarikki/kala-sub000/state"
	"github.com/enigmarikki/kala-sub000/store"
	"github.com/enigmarikki/kala-sub000/tickerrs"
	"github.com/enigmarikki/kala-sub000/timelock"
	"github.com/enigmarikki/kala-sub000/vdf"
)

// Processor drives one VDF engine, one chain state, and one pending pool
// through the four-phase tick state machine. There is never more than one
// tick in flight.
type Processor struct {
	Engine *vdf.Engine
	State  *state.ChainState
	DB     *store.DB
	Solver timelock.BatchSolver

	witnessPool []*PendingTx
	snapshot    []*PendingTx

	previousTickHash [32]byte
}

// NewProcessor constructs a Processor over an already-initialized engine,
// chain state, store, and batch solver.
func NewProcessor(engine *vdf.Engine, st *state.ChainState, db *store.DB, solver timelock.BatchSolver) *Processor {
	return &Processor{Engine: engine, State: st, DB: db, Solver: solver}
}

func sortSnapshot(snapshot []*PendingTx) {
	sort.SliceStable(snapshot, func(i, j int) bool {
		if snapshot[i].SubmissionIteration != snapshot[j].SubmissionIteration {
			return snapshot[i].SubmissionIteration < snapshot[j].SubmissionIteration
		}
		hi, hj := snapshot[i].ciphertextHash(), snapshot[j].ciphertextHash()
		return bytes.Compare(hi[:], hj[:]) < 0
	})
}

// orderingCommitment computes O = H("ordering" ‖ for each tx in order:
// canonicalFields), the payload fed to the VDF at the consensus boundary
// iteration.
func orderingCommitment(snapshot []*PendingTx) [32]byte {
	h := sha256.New()
	h.Write([]byte("ordering"))
	for _, tx := range snapshot {
		h.Write(tx.canonicalFields())
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// RunTick advances the engine exactly k iterations, where k =
// Engine.TickSize(), implementing the witness/consensus/decryption/
// finalization phases, and returns the resulting certificate. pull is
// called once per iteration offset within the tick (0..k-1) and returns
// any timelock transactions newly admitted at that iteration.
func (p *Processor) RunTick(pull func(offset uint64) []*PendingTx) (*state.TickCertificate, error) {
	k := p.Engine.TickSize()
	tickNumber := p.Engine.Iteration() / k
	consensusIter := CollectionPhaseEnd(k)
	decryptEnd := ConsensusPhaseEnd(k)

	var decryptWG sync.WaitGroup
	decryptDone := make(chan struct{})
	var decryptErr error

	degraded := false

	for offset := uint64(0); offset < k; offset++ {
		newTxs := pull(offset)
		var payload []byte

		switch {
		case offset < consensusIter:
			for _, tx := range newTxs {
				p.witnessPool = append(p.witnessPool, tx)
				payload = append(payload, tx.canonicalFields()...)
			}

		case offset == consensusIter:
			p.snapshot = append([]*PendingTx(nil), p.witnessPool...)
			p.witnessPool = nil
			sortSnapshot(p.snapshot)
			o := orderingCommitment(p.snapshot)
			payload = o[:]

			snapshot := p.snapshot
			solver := p.Solver
			decryptWG.Add(1)
			go func() {
				defer decryptWG.Done()
				defer close(decryptDone)
				if len(snapshot) == 0 {
					return
				}
				puzzles := make([]timelock.Puzzle, len(snapshot))
				for i, tx := range snapshot {
					puzzles[i] = tx.Puzzle
				}
				keys, err := solver.SolveBatch(puzzles)
				if err != nil {
					decryptErr = err
					return
				}
				for i, tx := range snapshot {
					pt, uerr := timelock.Unseal(keys[i], tx.Envelope)
					if uerr != nil {
						continue // transaction-local: dropped at finalization
					}
					tx.Plaintext = pt
					tx.Decrypted = true
				}
			}()

		case offset == decryptEnd:
			select {
			case <-decryptDone:
			default:
				degraded = true
			}
		}

		if err := p.Engine.Step(nonEmpty(payload)); err != nil {
			degraded = true
		}
	}

	decryptWG.Wait()
	if decryptErr != nil {
		degraded = true
	}

	cert := p.finalize(tickNumber, degraded)

	p.State.CurrentIteration = p.Engine.Iteration()
	p.State.CurrentTick = tickNumber + 1
	p.State.LastTickHash = cert.TickHash
	p.State.TotalTransactions += uint64(cert.TransactionCount)
	p.previousTickHash = cert.TickHash

	if p.DB != nil {
		// The certificate is the durability anchor: it must land before
		// chain_state is overwritten, so a crash between the two writes
		// always leaves a consistent (certificate, prior chain_state) pair
		// recovery can replay forward from. The manifest is updated last,
		// after chain_state, so it never points at a tick whose chain_state
		// wasn't itself fully committed; a crash between chain_state and
		// the manifest update just leaves the manifest pointing one tick
		// behind, and that tick is re-run deterministically on restart.
		if err := p.DB.PutTick(tickNumber, encodeCertificate(cert)); err != nil {
			return cert, tickerrs.New(tickerrs.CodeStoreWriteFailure, err.Error())
		}
		if err := p.DB.PutTickIndex(tickNumber); err != nil {
			return cert, tickerrs.New(tickerrs.CodeStoreWriteFailure, err.Error())
		}
		stateData, err := p.State.MarshalBinary()
		if err != nil {
			return cert, tickerrs.New(tickerrs.CodeStoreWriteFailure, err.Error())
		}
		if err := p.DB.PutChainState(stateData); err != nil {
			return cert, tickerrs.New(tickerrs.CodeStoreWriteFailure, err.Error())
		}
		if prev := p.DB.Manifest(); prev != nil {
			next := *prev
			next.LastFinalizedTick = tickNumber
			next.LastFinalizedTickHash = hex.EncodeToString(cert.TickHash[:])
			next.LastVDFIteration = cert.VDFIteration
			if err := p.DB.SetManifest(&next); err != nil {
				return cert, tickerrs.New(tickerrs.CodeStoreWriteFailure, err.Error())
			}
		}
	}

	return cert, nil
}

func nonEmpty(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

func (p *Processor) finalize(tickNumber uint64, degraded bool) *state.TickCertificate {
	form := p.Engine.Form()
	cert := &state.TickCertificate{
		TickNumber:       tickNumber,
		VDFIteration:     p.Engine.Iteration(),
		VDFFormA:         form.A.Bytes(),
		VDFFormB:         classgroup.SignedBytes(form.B),
		VDFFormC:         form.C.Bytes(),
		HashChainValue:   p.Engine.HashChain(),
		Timestamp:        uint64(time.Now().Unix()),
		PreviousTickHash: p.previousTickHash,
	}

	if degraded {
		cert.TickType = state.TickCheckpoint
		cert.TransactionCount = 0
		cert.TransactionMerkleRoot = [32]byte{}
		cert.TickHash = cert.ComputeHash()
		return cert
	}

	var leaves [][32]byte
	applied := uint32(0)
	for _, ptx := range p.snapshot {
		if !ptx.Decrypted {
			continue
		}
		tx, err := DecodeTransaction(ptx.Plaintext)
		if err != nil {
			continue
		}
		if !ValidateAndApply(p.State, tx) {
			continue
		}
		applied++
		fields := tx.CanonicalFields()
		h := sha256.New()
		h.Write([]byte{byte(tx.Kind)})
		h.Write(fields)
		var leaf [32]byte
		copy(leaf[:], h.Sum(nil))
		leaves = append(leaves, leaf)
	}
	p.snapshot = nil

	cert.TransactionCount = applied
	cert.TransactionMerkleRoot = merkle.Root(leaves)
	if applied > 0 {
		cert.TickType = state.TickFull
	} else {
		cert.TickType = state.TickEmpty
	}
	cert.TickHash = cert.ComputeHash()
	return cert
}
