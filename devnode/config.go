// Package devnode wires C1-C9 together into a runnable single-node chain:
// validated configuration, genesis bootstrap, and (in cmd/kala-devnode) the
// driver loop. No RPC/P2P layer; see SPEC_FULL.md §4.6 C11.
package devnode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config is the validated set of parameters a devnode instance runs with.
type Config struct {
	Network            string `json:"network"`
	DataDir            string `json:"data_dir"`
	ChainIDHex         string `json:"chain_id_hex"`
	TickSize           uint64 `json:"tick_size"`
	DiscriminantBits   int    `json:"discriminant_bits"`
	CVDFArity          int    `json:"cvdf_arity"`
	CVDFLeafDifficulty uint64 `json:"cvdf_leaf_difficulty"`
	WorkerPoolSize     int    `json:"worker_pool_size"`
}

// DefaultDataDir returns $HOME/.kala, falling back to a relative path if
// the home directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".kala"
	}
	return filepath.Join(home, ".kala")
}

// DefaultConfig returns sane devnet defaults: a tick size divisible by 3
// (required so the witness/consensus/decryption/finalization phase
// boundaries land on exact iterations) and a 2048-bit discriminant.
func DefaultConfig() Config {
	return Config{
		Network:            "devnet",
		DataDir:            DefaultDataDir(),
		ChainIDHex:         "0000000000000000000000000000000000000000000000000000000000000001",
		TickSize:           900,
		DiscriminantBits:   2048,
		CVDFArity:          2,
		CVDFLeafDifficulty: 100,
		WorkerPoolSize:     4,
	}
}

// ValidateConfig checks cfg for the constraints RunTick and InitGenesis
// depend on.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Network) == "" {
		return errors.New("network is required")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	if strings.TrimSpace(cfg.ChainIDHex) == "" {
		return errors.New("chain_id_hex is required")
	}
	if len(cfg.ChainIDHex) != 64 {
		return fmt.Errorf("chain_id_hex must be 32 bytes hex-encoded, got %d chars", len(cfg.ChainIDHex))
	}
	if cfg.TickSize == 0 || cfg.TickSize%3 != 0 {
		return errors.New("tick_size must be a positive multiple of 3")
	}
	if cfg.DiscriminantBits < 512 {
		return errors.New("discriminant_bits must be >= 512")
	}
	if cfg.CVDFArity < 2 {
		return errors.New("cvdf_arity must be >= 2")
	}
	if cfg.CVDFLeafDifficulty == 0 {
		return errors.New("cvdf_leaf_difficulty must be > 0")
	}
	if cfg.WorkerPoolSize <= 0 {
		return errors.New("worker_pool_size must be > 0")
	}
	return nil
}
