package devnode

import (
	"fmt"
	"math/big"

	"github.com/enigmarikki/kala-sub000/classgroup"
	"github.com/enigmarikki/kala-sub000/state"
	"github.com/enigmarikki/kala-sub000/store"
	"github.com/enigmarikki/kala-sub000/vdf"
)

// Genesis bundles everything InitGenesis constructs: the VDF engine and
// chain state to run with, whether freshly seeded or resumed from a prior
// run's last persisted chain_state.
type Genesis struct {
	Engine     *vdf.Engine
	ChainState *state.ChainState
	Resumed    bool
}

// discriminantForBits returns the canonical 1024-bit genesis discriminant
// when cfg asks for exactly that size (the common devnet case), and draws
// a fresh one otherwise.
func discriminantForBits(bits int) (*big.Int, error) {
	if bits == 1024 {
		return classgroup.GenesisDiscriminant1024, nil
	}
	return classgroup.GenerateDiscriminant(uint(bits))
}

// InitGenesis opens (creating if absent) the store for cfg's chain. If no
// manifest exists yet, it bootstraps a fresh genesis record: iteration 0,
// the identity form, h_0 = H("genesis"), and an empty chain state. If a
// manifest already exists, it resumes from the last persisted chain_state
// instead of refusing to reopen the data directory: every finalized tick's
// certificate and chain_state are written durably (certificate first, so a
// crash between the two writes always leaves a consistent pair), and
// recovery replays forward from that last consistent chain_state.
func InitGenesis(cfg Config) (*Genesis, *store.DB, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, nil, fmt.Errorf("devnode: invalid config: %w", err)
	}

	db, err := store.Open(cfg.DataDir, cfg.ChainIDHex)
	if err != nil {
		return nil, nil, fmt.Errorf("devnode: open store: %w", err)
	}

	if m := db.Manifest(); m != nil {
		g, err := resumeGenesis(db, m, cfg)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return g, db, nil
	}

	d, err := discriminantForBits(cfg.DiscriminantBits)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("devnode: generate discriminant: %w", err)
	}

	engine, err := vdf.Genesis(d, cfg.TickSize)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("devnode: construct vdf genesis: %w", err)
	}

	chainState := state.New(cfg.TickSize)

	manifest := &store.Manifest{
		SchemaVersion:         store.SchemaVersionV1,
		ChainIDHex:            cfg.ChainIDHex,
		DiscriminantDecimal:   d.Text(10),
		LastFinalizedTick:     0,
		LastFinalizedTickHash: "",
		LastVDFIteration:      0,
	}
	if err := db.SetManifest(manifest); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("devnode: write genesis manifest: %w", err)
	}

	return &Genesis{Engine: engine, ChainState: chainState}, db, nil
}

// resumeGenesis reconstructs the VDF engine and chain state from an
// already-initialized data directory's manifest and last persisted
// chain_state/tick certificate. A manifest with LastFinalizedTick == 0 and
// no stored tick (the genesis-only case, no tick has finalized yet) falls
// back to a fresh genesis engine and chain state over the persisted
// discriminant, rather than requiring a tick certificate that was never
// written.
func resumeGenesis(db *store.DB, m *store.Manifest, cfg Config) (*Genesis, error) {
	d, ok := new(big.Int).SetString(m.DiscriminantDecimal, 10)
	if !ok {
		return nil, fmt.Errorf("devnode: manifest discriminant %q is not a valid base-10 integer", m.DiscriminantDecimal)
	}

	certData, haveCert, err := db.GetTick(m.LastFinalizedTick)
	if err != nil {
		return nil, fmt.Errorf("devnode: read last finalized tick: %w", err)
	}

	var engine *vdf.Engine
	if !haveCert {
		engine, err = vdf.Genesis(d, cfg.TickSize)
		if err != nil {
			return nil, fmt.Errorf("devnode: reconstruct vdf genesis: %w", err)
		}
	} else {
		var cert state.TickCertificate
		if err := cert.UnmarshalBinary(certData); err != nil {
			return nil, fmt.Errorf("devnode: decode last finalized tick certificate: %w", err)
		}
		formA := new(big.Int).SetBytes(cert.VDFFormA)
		formB, err := classgroup.ParseSignedBytes(cert.VDFFormB)
		if err != nil {
			return nil, fmt.Errorf("devnode: decode tick certificate VDF form: %w", err)
		}
		formC := new(big.Int).SetBytes(cert.VDFFormC)
		engine, err = vdf.FromCheckpoint(vdf.Checkpoint{
			Iteration:    cert.VDFIteration,
			FormA:        formA,
			FormB:        formB,
			FormC:        formC,
			HashChain:    cert.HashChainValue,
			Discriminant: d,
			TickSize:     cfg.TickSize,
		})
		if err != nil {
			return nil, fmt.Errorf("devnode: reconstruct vdf engine from checkpoint: %w", err)
		}
	}

	chainStateData, haveState, err := db.GetChainState()
	if err != nil {
		return nil, fmt.Errorf("devnode: read chain state: %w", err)
	}

	var chainState *state.ChainState
	if haveState {
		chainState = &state.ChainState{}
		if err := chainState.UnmarshalBinary(chainStateData); err != nil {
			return nil, fmt.Errorf("devnode: decode chain state: %w", err)
		}
	} else {
		chainState = state.FromVDFCheckpoint(engine.Checkpoint())
	}

	return &Genesis{Engine: engine, ChainState: chainState, Resumed: true}, nil
}
