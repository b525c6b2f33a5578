// Package timelock implements RSW time-lock puzzles (C4): trapdoor
// creation, forced-delay solving, batch solving, AES-256-GCM sealing of the
// protected transaction, and the tick-admission window contract.
package timelock

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"math/big"
)

var (
	ErrKeyTooLarge        = errors.New("timelock: key must fit in the modulus")
	ErrModulusTooSmall    = errors.New("timelock: modulus bit size too small")
	ErrAuthenticationFail = errors.New("timelock: decryption authentication failure")
)

// puzzleBase is the fixed base used by every puzzle; spec.md §4.4 step 5
// always returns base 2, unlike password-derived-base schemes.
var puzzleBase = big.NewInt(2)

// Puzzle is the public record a timelock transaction carries: the modulus,
// the fixed base (implicit, always 2), the masked key, and the hardness.
type Puzzle struct {
	N *big.Int
	C *big.Int
	T uint64
}

// CreatePuzzle performs the fast trapdoor path of spec.md §4.4: given a
// 256-bit key and hardness t, generate a fresh RSA-style modulus N = p*q,
// compute lambda(N), reduce the exponent, and mask the key. p, q, and
// lambda(N) are never retained past this call.
func CreatePuzzle(key [32]byte, t uint64, modulusBits int) (Puzzle, error) {
	if modulusBits < 1024 {
		return Puzzle{}, ErrModulusTooSmall
	}
	priv, err := rsa.GenerateKey(rand.Reader, modulusBits)
	if err != nil {
		return Puzzle{}, err
	}
	if len(priv.Primes) < 2 {
		return Puzzle{}, errors.New("timelock: generated key missing prime factors")
	}
	n := new(big.Int).Set(priv.N)

	keyInt := new(big.Int).SetBytes(key[:])
	if keyInt.Cmp(n) >= 0 {
		return Puzzle{}, ErrKeyTooLarge
	}

	pMinus1 := new(big.Int).Sub(priv.Primes[0], big.NewInt(1))
	qMinus1 := new(big.Int).Sub(priv.Primes[1], big.NewInt(1))
	lambda := lcm(pMinus1, qMinus1)

	e := powTwoMod(lambda, t)
	a := new(big.Int).Exp(puzzleBase, e, n)

	c := new(big.Int).Add(keyInt, a)
	c.Mod(c, n)

	return Puzzle{N: n, C: c, T: t}, nil
}

// SolvePuzzle performs the slow, trapdoor-free path: A = 2^(2^t) mod N via t
// sequential modular squarings, then key = (C - A) mod N.
func SolvePuzzle(p Puzzle) [32]byte {
	a := new(big.Int).Set(puzzleBase)
	a.Mod(a, p.N)
	for i := uint64(0); i < p.T; i++ {
		a.Mul(a, a)
		a.Mod(a, p.N)
	}

	key := new(big.Int).Sub(p.C, a)
	key.Mod(key, p.N)

	var out [32]byte
	key.FillBytes(out[:])
	return out
}

func lcm(a, b *big.Int) *big.Int {
	g := new(big.Int).GCD(nil, nil, a, b)
	l := new(big.Int).Div(a, g)
	return l.Mul(l, b)
}

// powTwoMod computes 2^t mod m via binary exponentiation in O(log t)
// multiplications.
func powTwoMod(m *big.Int, t uint64) *big.Int {
	res := big.NewInt(1)
	base := big.NewInt(2)
	for e := t; e > 0; e >>= 1 {
		if e&1 == 1 {
			res.Mul(res, base)
			res.Mod(res, m)
		}
		base.Mul(base, base)
		base.Mod(base, m)
	}
	return res
}
