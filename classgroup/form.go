// Package classgroup implements arithmetic over the class group of binary
// quadratic forms of a fixed negative discriminant: reduction, NUDUPL
// squaring, NUCOMP composition, and binary exponentiation.
package classgroup

import (
	"errors"
	"math/big"
)

// Form is a binary quadratic form ax^2 + bxy + cy^2.
type Form struct {
	A, B, C *big.Int
}

var (
	ErrInvalidDiscriminant  = errors.New("classgroup: discriminant must be negative with -D ≡ 3 (mod 4)")
	ErrInvalidForm          = errors.New("classgroup: form does not satisfy b^2-4ac = D")
	ErrReductionOverrun     = errors.New("classgroup: reduction exceeded iteration bound")
	ErrExponentTooLarge     = errors.New("classgroup: exponent too large for repeated squaring")
	ErrMalformedSignedBytes = errors.New("classgroup: malformed signed-bytes encoding")
)

const maxReductionIterations = 1000

// maxCoeffBits bounds the bit length any reduced coefficient may reach
// before reduction is considered to have diverged on a corrupted form.
// Set well above what a valid reduced form of a production-sized (<=4096
// bit) discriminant could ever need.
const maxCoeffBits = 8192

// NewForm wraps three big.Int coefficients without cloning.
func NewForm(a, b, c *big.Int) Form {
	return Form{A: a, B: b, C: c}
}

// Identity returns the identity element (1, 1, (1-D)/4) of the class group
// with discriminant d.
func Identity(d *big.Int) (Form, error) {
	if d.Sign() >= 0 {
		return Form{}, ErrInvalidDiscriminant
	}
	c := new(big.Int).Sub(big.NewInt(1), d)
	c.Div(c, big.NewInt(4))
	return Form{A: big.NewInt(1), B: big.NewInt(1), C: c}, nil
}

// Discriminant computes b^2 - 4ac.
func (f Form) Discriminant() *big.Int {
	b2 := new(big.Int).Mul(f.B, f.B)
	four := new(big.Int).Mul(big.NewInt(4), f.A)
	four.Mul(four, f.C)
	return b2.Sub(b2, four)
}

// IsValid reports whether f's discriminant equals d.
func (f Form) IsValid(d *big.Int) bool {
	return f.Discriminant().Cmp(d) == 0
}

// SignedBytes encodes v as a one-byte sign (0x00 negative, 0x01
// non-negative) followed by v's big-endian magnitude. A reduced form's a
// and c coefficients are always non-negative, but b ranges over -a < b <=
// a and is routinely negative; big.Int.Bytes() alone discards that sign,
// so b and -b would otherwise hash/serialize identically. Every hash input
// or wire encoding that includes a form's b coefficient must go through
// this, not Bytes() directly.
func SignedBytes(v *big.Int) []byte {
	sign := byte(1)
	if v.Sign() < 0 {
		sign = 0
	}
	mag := new(big.Int).Abs(v)
	out := make([]byte, 0, 1+len(mag.Bytes()))
	out = append(out, sign)
	return append(out, mag.Bytes()...)
}

// ParseSignedBytes decodes the layout SignedBytes produces.
func ParseSignedBytes(b []byte) (*big.Int, error) {
	if len(b) == 0 {
		return nil, ErrMalformedSignedBytes
	}
	v := new(big.Int).SetBytes(b[1:])
	if b[0] == 0 {
		v.Neg(v)
	}
	return v, nil
}

// IsReduced reports whether |b| <= a <= c, with b >= 0 required when
// a == |b| or a == c.
func (f Form) IsReduced() bool {
	absB := new(big.Int).Abs(f.B)
	if f.A.Sign() <= 0 || absB.Cmp(f.A) > 0 || f.A.Cmp(f.C) > 0 {
		return false
	}
	if f.A.Cmp(absB) == 0 || f.A.Cmp(f.C) == 0 {
		return f.B.Sign() >= 0
	}
	return true
}

// clone returns a deep copy of f.
func (f Form) clone() Form {
	return Form{
		A: new(big.Int).Set(f.A),
		B: new(big.Int).Set(f.B),
		C: new(big.Int).Set(f.C),
	}
}

// Reduce returns the canonical reduced representative of f, preserving its
// discriminant. It never mutates f.
func (f Form) Reduce() (Form, error) {
	a := new(big.Int).Set(f.A)
	b := new(big.Int).Set(f.B)
	c := new(big.Int).Set(f.C)

	if a.Sign() <= 0 {
		a.Neg(a)
		b.Neg(b)
		c.Neg(c)
	}

	disc := f.Discriminant()

	for iter := 0; ; iter++ {
		if iter > maxReductionIterations {
			return Form{}, ErrReductionOverrun
		}
		if c.BitLen() > maxCoeffBits {
			return Form{}, ErrReductionOverrun
		}

		twoA := new(big.Int).Lsh(a, 1)
		q := new(big.Int).Set(b)
		if b.Sign() >= 0 {
			q.Add(q, a)
		} else {
			q.Sub(q, a)
		}
		q.Quo(q, twoA)

		newB := new(big.Int).Mul(q, twoA)
		newB.Sub(b, newB)

		qq := new(big.Int).Mul(q, q)
		qq.Mul(qq, a)
		newC := new(big.Int).Mul(q, b)
		newC.Sub(c, newC)
		newC.Add(newC, qq)

		b = newB
		c = newC

		if a.Cmp(c) > 0 {
			a, c = c, a
			b.Neg(b)
		}

		if a.Sign() <= 0 {
			a.Neg(a)
			b.Neg(b)
			c.Neg(c)
		}

		absB := new(big.Int).Abs(b)
		if absB.Cmp(a) <= 0 && a.Cmp(c) <= 0 && a.Sign() > 0 {
			atBoundary := a.Cmp(absB) == 0 || a.Cmp(c) == 0
			if atBoundary && b.Sign() < 0 {
				b.Neg(b)
				fourA := new(big.Int).Mul(a, big.NewInt(4))
				c.Mul(b, b)
				c.Sub(c, disc)
				c.Div(c, fourA)
				absB = new(big.Int).Abs(b)
				atBoundary = a.Cmp(absB) == 0 || a.Cmp(c) == 0
			}
			if !atBoundary || b.Sign() >= 0 {
				break
			}
		}
	}

	return Form{A: a, B: b, C: c}, nil
}
