package devnode

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Fatalf("DefaultConfig() failed validation: %v", err)
	}
}

func TestValidateConfigRejectsNonMultipleOfThreeTickSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickSize = 10
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected error for tick_size not divisible by 3")
	}
}

func TestValidateConfigRejectsShortChainID(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChainIDHex = "deadbeef"
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected error for short chain_id_hex")
	}
}

func TestValidateConfigRejectsZeroWorkerPool(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WorkerPoolSize = 0
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected error for zero worker_pool_size")
	}
}
