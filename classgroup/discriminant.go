package classgroup

import (
	"crypto/rand"
	"math/big"
)

// GenesisDiscriminant1024 is a canonical 1024-bit negative discriminant
// satisfying -D ≡ 3 (mod 4), used as the fixed genesis discriminant for
// devnode and as a fixture for tests that need production-sized forms.
var GenesisDiscriminant1024, _ = new(big.Int).SetString(
	"-141140317794792668862943332656856519378482291428727287413318722089216448567155737094768903643716404517549715385664163360316296284155310058980984373770517398492951860161717960368874227473669336541818575166839209228684755811071416376384551902149780184532086881683576071479646499601330824259260645952517205526679",
	10,
)

// GenerateDiscriminant draws a random negative bits-bit discriminant D with
// -D ≡ 3 (mod 4), suitable for fast tests. Uses crypto/rand exclusively.
// D = -candidate where candidate ≡ 3 (mod 4) and has exactly `bits` bits.
func GenerateDiscriminant(bits uint) (*big.Int, error) {
	if bits < 16 {
		bits = 16
	}
	candidate, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), bits))
	if err != nil {
		return nil, err
	}
	candidate.SetBit(candidate, int(bits-1), 1) // force the top bit, fixing the bit length
	candidate.SetBit(candidate, 0, 1)            // force odd
	rem := new(big.Int).Mod(candidate, big.NewInt(4)).Int64()
	if rem != 3 {
		candidate.Add(candidate, big.NewInt((7-rem)%4))
	}
	return new(big.Int).Neg(candidate), nil
}
