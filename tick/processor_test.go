package tick

import (
	"math/big"
	"testing"
	"time"

	"github.com/enigmarikki/kala-sub000/state"
	"github.com/enigmarikki/kala-sub000/timelock"
	"github.com/enigmarikki/kala-sub000/vdf"
)

var testDiscriminant = func() *big.Int {
	d, _ := new(big.Int).SetString("-18446744073709551615", 10)
	return d
}()

const testTickSize = uint64(9) // k/3 = 3, 2k/3 = 6

func newTestEngine(t *testing.T) *vdf.Engine {
	t.Helper()
	e, err := vdf.Genesis(testDiscriminant, testTickSize)
	if err != nil {
		t.Fatalf("vdf.Genesis: %v", err)
	}
	return e
}

func sealedSend(t *testing.T, submissionIteration, targetTick uint64, sender, receiver [32]byte, amount, nonce uint64) *PendingTx {
	t.Helper()
	tx := &Transaction{Kind: KindSend, Sender: sender, Receiver: receiver, Amount: amount, Nonce: nonce, Signature: []byte{0x01}}

	var key [32]byte
	key[0] = 0x42
	puzzle, err := timelock.CreatePuzzle(key, 2, 1024)
	if err != nil {
		t.Fatalf("CreatePuzzle: %v", err)
	}
	env, err := timelock.Seal(key, EncodeTransaction(tx))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	return &PendingTx{Envelope: env, Puzzle: puzzle, SubmissionIteration: submissionIteration, TargetTick: targetTick}
}

func TestRunTickEmptyYieldsEmptyCertificate(t *testing.T) {
	engine := newTestEngine(t)
	st := state.New(testTickSize)
	p := NewProcessor(engine, st, nil, timelock.NewCPUBatchSolver(2))

	cert, err := p.RunTick(func(offset uint64) []*PendingTx { return nil })
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if cert.TickType != state.TickEmpty {
		t.Fatalf("TickType = %s, want empty", cert.TickType)
	}
	if cert.TransactionCount != 0 {
		t.Fatalf("TransactionCount = %d, want 0", cert.TransactionCount)
	}
	if cert.VDFIteration != testTickSize {
		t.Fatalf("VDFIteration = %d, want %d", cert.VDFIteration, testTickSize)
	}
}

func TestRunTickAppliesSingleSend(t *testing.T) {
	engine := newTestEngine(t)
	st := state.New(testTickSize)

	var sender, receiver [32]byte
	sender[0], receiver[0] = 1, 2
	if err := st.Mint(sender, 1000); err != nil {
		t.Fatalf("seed mint: %v", err)
	}

	ptx := sealedSend(t, 0, 0, sender, receiver, 100, 1)
	p := NewProcessor(engine, st, nil, timelock.NewCPUBatchSolver(2))

	cert, err := p.RunTick(func(offset uint64) []*PendingTx {
		if offset == 0 {
			return []*PendingTx{ptx}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if cert.TickType != state.TickFull {
		t.Fatalf("TickType = %s, want full", cert.TickType)
	}
	if cert.TransactionCount != 1 {
		t.Fatalf("TransactionCount = %d, want 1", cert.TransactionCount)
	}
	if got := st.Account(receiver).Balance; got != 100 {
		t.Fatalf("receiver balance = %d, want 100", got)
	}
	if got := st.Account(sender).Balance; got != 900 {
		t.Fatalf("sender balance = %d, want 900", got)
	}
	if got := st.Account(sender).Nonce; got != 1 {
		t.Fatalf("sender nonce = %d, want 1", got)
	}
}

// slowSolver never finishes inside a tick's decryption window, forcing a
// missed rendezvous.
type slowSolver struct{}

func (slowSolver) SolveBatch(puzzles []timelock.Puzzle) ([][32]byte, error) {
	time.Sleep(500 * time.Millisecond)
	return make([][32]byte, len(puzzles)), nil
}

func TestRunTickDegradesToCheckpointOnMissedRendezvous(t *testing.T) {
	engine := newTestEngine(t)
	st := state.New(testTickSize)

	var sender, receiver [32]byte
	sender[0], receiver[0] = 1, 2
	ptx := sealedSend(t, 0, 0, sender, receiver, 1, 1)

	p := NewProcessor(engine, st, nil, slowSolver{})
	cert, err := p.RunTick(func(offset uint64) []*PendingTx {
		if offset == 0 {
			return []*PendingTx{ptx}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if cert.TickType != state.TickCheckpoint {
		t.Fatalf("TickType = %s, want checkpoint", cert.TickType)
	}
	if cert.TransactionCount != 0 {
		t.Fatalf("TransactionCount = %d, want 0 on checkpoint", cert.TransactionCount)
	}
}

func TestRunTickCertificateChainsPreviousHash(t *testing.T) {
	engine := newTestEngine(t)
	st := state.New(testTickSize)
	p := NewProcessor(engine, st, nil, timelock.NewCPUBatchSolver(2))

	first, err := p.RunTick(func(offset uint64) []*PendingTx { return nil })
	if err != nil {
		t.Fatalf("first RunTick: %v", err)
	}
	second, err := p.RunTick(func(offset uint64) []*PendingTx { return nil })
	if err != nil {
		t.Fatalf("second RunTick: %v", err)
	}
	if second.PreviousTickHash != first.TickHash {
		t.Fatalf("second.PreviousTickHash = %x, want %x", second.PreviousTickHash, first.TickHash)
	}
	if second.TickHash == first.TickHash {
		t.Fatalf("consecutive ticks produced identical hashes")
	}
}
