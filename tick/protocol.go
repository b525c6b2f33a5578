package tick

// ByzantineThresholdDenominator is reserved for a future multi-node
// variant of this chain core; it is unused by any single-node logic here
// (spec.md §9) and is surfaced only for forward compatibility.
const ByzantineThresholdDenominator = 3

// CollectionPhaseEnd returns k/3, the iteration offset within a tick where
// the witness phase ends and the single consensus-ordering iteration
// falls.
func CollectionPhaseEnd(k uint64) uint64 { return k / 3 }

// ConsensusPhaseEnd returns 2k/3, the iteration offset within a tick
// where the decryption phase ends and finalization begins.
func ConsensusPhaseEnd(k uint64) uint64 { return (2 * k) / 3 }
