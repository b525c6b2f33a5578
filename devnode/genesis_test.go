package devnode

import (
	"testing"

	"github.com/enigmarikki/kala-sub000/tick"
	"github.com/enigmarikki/kala-sub000/timelock"
)

func TestInitGenesisBootstrapsFreshChain(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.DiscriminantBits = 1024
	cfg.TickSize = 9

	g, db, err := InitGenesis(cfg)
	if err != nil {
		t.Fatalf("InitGenesis: %v", err)
	}
	defer db.Close()

	if g.Engine.Iteration() != 0 {
		t.Fatalf("Iteration() = %d, want 0", g.Engine.Iteration())
	}
	if g.ChainState.CurrentTick != 0 {
		t.Fatalf("CurrentTick = %d, want 0", g.ChainState.CurrentTick)
	}
	if g.Resumed {
		t.Fatalf("expected Resumed = false on a fresh data directory")
	}
	if db.Manifest() == nil {
		t.Fatalf("expected manifest to be set after InitGenesis")
	}
}

// TestInitGenesisResumesGenesisOnlyManifest covers reopening a data
// directory where a manifest was written but no tick has finalized yet:
// InitGenesis must reconstruct the same genesis engine and chain state
// from the persisted discriminant rather than erroring.
func TestInitGenesisResumesGenesisOnlyManifest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.DiscriminantBits = 1024
	cfg.TickSize = 9

	first, db, err := InitGenesis(cfg)
	if err != nil {
		t.Fatalf("InitGenesis: %v", err)
	}
	firstIteration := first.Engine.Iteration()
	firstForm := first.Engine.Form()
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, db2, err := InitGenesis(cfg)
	if err != nil {
		t.Fatalf("InitGenesis (resume): %v", err)
	}
	defer db2.Close()

	if !second.Resumed {
		t.Fatalf("expected Resumed = true when reopening an initialized data directory")
	}
	if second.Engine.Iteration() != firstIteration {
		t.Fatalf("resumed iteration = %d, want %d", second.Engine.Iteration(), firstIteration)
	}
	got := second.Engine.Form()
	if got.A.Cmp(firstForm.A) != 0 || got.B.Cmp(firstForm.B) != 0 || got.C.Cmp(firstForm.C) != 0 {
		t.Fatalf("resumed form = %+v, want %+v", got, firstForm)
	}
	if second.ChainState.CurrentTick != first.ChainState.CurrentTick {
		t.Fatalf("resumed CurrentTick = %d, want %d", second.ChainState.CurrentTick, first.ChainState.CurrentTick)
	}
}

// TestInitGenesisResumesAfterFinalizedTick is the direct regression for
// checkpoint restart (S6): after a tick actually finalizes and persists
// its certificate and chain_state, reopening the data directory must
// resume exactly where the prior run left off, rather than replaying from
// genesis or from a stale manifest pointer.
func TestInitGenesisResumesAfterFinalizedTick(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.DiscriminantBits = 1024
	cfg.TickSize = 9

	g, db, err := InitGenesis(cfg)
	if err != nil {
		t.Fatalf("InitGenesis: %v", err)
	}

	var sender, receiver [32]byte
	sender[0], receiver[0] = 1, 2
	if err := g.ChainState.Mint(sender, 1000); err != nil {
		t.Fatalf("seed mint: %v", err)
	}

	p := tick.NewProcessor(g.Engine, g.ChainState, db, timelock.NewCPUBatchSolver(2))
	cert, err := p.RunTick(func(offset uint64) []*tick.PendingTx { return nil })
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	wantIteration := g.Engine.Iteration()
	wantForm := g.Engine.Form()
	wantTick := g.ChainState.CurrentTick
	wantBalance := g.ChainState.Account(sender).Balance
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	resumed, db2, err := InitGenesis(cfg)
	if err != nil {
		t.Fatalf("InitGenesis (resume): %v", err)
	}
	defer db2.Close()

	if !resumed.Resumed {
		t.Fatalf("expected Resumed = true")
	}
	if resumed.Engine.Iteration() != wantIteration {
		t.Fatalf("resumed iteration = %d, want %d", resumed.Engine.Iteration(), wantIteration)
	}
	got := resumed.Engine.Form()
	if got.A.Cmp(wantForm.A) != 0 || got.B.Cmp(wantForm.B) != 0 || got.C.Cmp(wantForm.C) != 0 {
		t.Fatalf("resumed form = %+v, want %+v", got, wantForm)
	}
	if resumed.ChainState.CurrentTick != wantTick {
		t.Fatalf("resumed CurrentTick = %d, want %d", resumed.ChainState.CurrentTick, wantTick)
	}
	if got := resumed.ChainState.Account(sender).Balance; got != wantBalance {
		t.Fatalf("resumed sender balance = %d, want %d", got, wantBalance)
	}
	if manifestTick := db2.Manifest().LastFinalizedTick; manifestTick != cert.TickNumber {
		t.Fatalf("manifest LastFinalizedTick = %d, want %d", manifestTick, cert.TickNumber)
	}
}
