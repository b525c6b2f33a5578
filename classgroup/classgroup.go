package classgroup

import (
	"crypto/rand"
	"math/big"
)

// randBits draws a uniform random non-negative integer with up to bits
// bits, using crypto/rand exclusively (no dev/weak-RNG path).
func randBits(bits uint) (*big.Int, error) {
	if bits == 0 {
		bits = 1
	}
	return rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), bits))
}

// Group binds class-group operations to a fixed discriminant.
type Group struct {
	D *big.Int
}

// New returns a Group over discriminant d. d is not copied.
func New(d *big.Int) Group {
	return Group{D: d}
}

func (g Group) identity() Form {
	f, _ := Identity(g.D)
	return f
}

// IdentityForm returns the identity form for the group's discriminant.
func (g Group) IdentityForm() Form {
	return g.identity()
}

func (g Group) abs() *big.Int {
	return new(big.Int).Abs(g.D)
}

// partialGCDBound is L = floor(sqrt(|D|)) / 2, the bit-budget at which
// xgcdPartial stops reducing.
func (g Group) partialGCDBound() *big.Int {
	l := new(big.Int).Sqrt(g.abs())
	return l.Rsh(l, 1)
}

// extendedGCD returns (g, u, v) such that g = gcd(a,b) = a*u + b*v, with
// g >= 0.
func extendedGCD(a, b *big.Int) (gcd, u, v *big.Int) {
	oldR, r := new(big.Int).Set(a), new(big.Int).Set(b)
	oldS, s := big.NewInt(1), big.NewInt(0)
	oldT, t := big.NewInt(0), big.NewInt(1)

	q := new(big.Int)
	tmp := new(big.Int)
	for r.Sign() != 0 {
		q.Quo(oldR, r)

		tmp.Mul(q, r)
		newR := new(big.Int).Sub(oldR, tmp)
		tmp.Mul(q, s)
		newS := new(big.Int).Sub(oldS, tmp)
		tmp.Mul(q, t)
		newT := new(big.Int).Sub(oldT, tmp)

		oldR, r = r, newR
		oldS, s = s, newS
		oldT, t = t, newT
	}
	if oldR.Sign() < 0 {
		oldR.Neg(oldR)
		oldS.Neg(oldS)
		oldT.Neg(oldT)
	}
	return oldR, oldS, oldT
}

// xgcdPartial computes a partial extended GCD of r2,r1 stopping once the
// remainder drops to or below l, using a Lehmer-style 64-bit fast path with
// a full-precision fallback. Returns (co2, co1, r2, r1).
func xgcdPartial(r2In, r1In, l *big.Int) (co2, co1, r2, r1 *big.Int) {
	r2 = new(big.Int).Set(r2In)
	r1 = new(big.Int).Set(r1In)
	co2 = big.NewInt(0)
	co1 = big.NewInt(-1)

	for r1.Sign() != 0 && r1.CmpAbs(l) > 0 {
		bits2 := int64(r2.BitLen())
		bits1 := int64(r1.BitLen())
		bits := bits2
		if bits1 > bits {
			bits = bits1
		}
		bits -= 63
		if bits < 0 {
			bits = 0
		}
		shift := uint(bits)

		rr2 := new(big.Int).Rsh(r2, shift).Int64()
		rr1 := new(big.Int).Rsh(r1, shift).Int64()
		bb := new(big.Int).Rsh(l, shift).Int64()

		var aa2, aa1, bb2, bb1 int64 = 0, 1, 1, 0
		i := 0
		for rr1 != 0 && rr1 > bb {
			qq := rr2 / rr1
			t1 := rr2 - qq*rr1
			t2 := aa2 - qq*aa1
			t3 := bb2 - qq*bb1

			if i&1 != 0 {
				if t1 < -t3 || rr1-t1 < t2-aa1 {
					break
				}
			} else {
				if t1 < -t2 || rr1-t1 < t3-bb1 {
					break
				}
			}

			rr2, rr1 = rr1, t1
			aa2, aa1 = aa1, t2
			bb2, bb1 = bb1, t3
			i++
		}

		if i == 0 {
			q := new(big.Int).Quo(r2, r1)
			newR1 := new(big.Int).Mod(r2, r1)
			r2 = r1
			r1 = newR1
			newCo2 := new(big.Int).Mul(q, co1)
			newCo2.Sub(co2, newCo2)
			co2 = co1
			co1 = newCo2
		} else {
			baa2 := big.NewInt(aa2)
			bbb2 := big.NewInt(bb2)
			baa1 := big.NewInt(aa1)
			bbb1 := big.NewInt(bb1)

			newR2 := new(big.Int).Mul(r2, bbb2)
			t := new(big.Int).Mul(r1, baa2)
			newR2.Add(newR2, t)

			newR1 := new(big.Int).Mul(r1, baa1)
			t = new(big.Int).Mul(r2, bbb1)
			newR1.Add(newR1, t)

			newCo2 := new(big.Int).Mul(co2, bbb2)
			t = new(big.Int).Mul(co1, baa2)
			newCo2.Add(newCo2, t)

			newCo1 := new(big.Int).Mul(co1, baa1)
			t = new(big.Int).Mul(co2, bbb1)
			newCo1.Add(newCo1, t)

			r2, r1 = newR2, newR1
			co2, co1 = newCo2, newCo1

			if r1.Sign() < 0 {
				co1.Neg(co1)
				r1.Neg(r1)
			}
			if r2.Sign() < 0 {
				co2.Neg(co2)
				r2.Neg(r2)
			}
		}
	}

	if r2.Sign() < 0 {
		co2.Neg(co2)
		co1.Neg(co1)
		r2.Neg(r2)
	}

	return co2, co1, r2, r1
}

// Square computes the NUDUPL doubling of f.
func (g Group) Square(f Form) (Form, error) {
	if !f.IsValid(g.D) {
		return Form{}, ErrInvalidForm
	}
	id := g.identity()
	if f.A.Cmp(id.A) == 0 && f.B.Cmp(id.B) == 0 && f.C.Cmp(id.C) == 0 {
		return id, nil
	}

	a1 := f.A
	b := f.B
	c1 := f.C

	var s, v2 *big.Int
	if b.Sign() < 0 {
		negB := new(big.Int).Neg(b)
		sg, v, _ := extendedGCD(negB, a1)
		s, v2 = sg, new(big.Int).Neg(v)
	} else {
		sg, v, _ := extendedGCD(b, a1)
		s, v2 = sg, v
	}

	k := new(big.Int).Mul(v2, c1)
	k.Neg(k)

	a1New := new(big.Int).Set(a1)
	c1New := new(big.Int).Set(c1)
	if s.Cmp(bigOne) != 0 {
		a1New.Quo(a1, s)
		c1New.Mul(c1, s)
		k.Mod(k, a1New)
	} else {
		k.Mod(k, a1)
	}
	if k.Sign() < 0 {
		k.Add(k, a1New)
	}

	l := g.partialGCDBound()
	discAbs := g.abs()

	var ca, cb, cc *big.Int
	if a1New.Cmp(l) < 0 {
		t := new(big.Int).Mul(a1New, k)
		ca = new(big.Int).Mul(a1New, a1New)
		cb = new(big.Int).Lsh(t, 1)
		cb.Add(cb, b)
		cc = new(big.Int).Add(b, t)
		cc.Mul(cc, k)
		cc.Add(cc, c1New)
		cc.Quo(cc, a1New)
	} else {
		co2, co1, _, r1 := xgcdPartial(a1New, k, l)
		m2 := new(big.Int).Mul(b, r1)
		t := new(big.Int).Mul(c1New, co1)
		m2.Sub(m2, t)
		m2.Quo(m2, a1New)

		caVal := new(big.Int).Mul(r1, r1)
		t = new(big.Int).Mul(co1, m2)
		caVal.Sub(caVal, t)
		if co1.Sign() >= 0 {
			caVal.Neg(caVal)
		}

		cbTemp := new(big.Int).Mul(a1New, r1)
		t = new(big.Int).Mul(caVal, co2)
		cbTemp.Sub(cbTemp, t)
		cbTemp.Lsh(cbTemp, 1)
		cbTemp.Quo(cbTemp, co1)
		cbTemp.Sub(cbTemp, b)

		twoCa := new(big.Int).Abs(caVal)
		twoCa.Lsh(twoCa, 1)
		cbVal := new(big.Int).Mod(cbTemp, twoCa)

		ccVal := new(big.Int).Mul(cbVal, cbVal)
		ccVal.Sub(ccVal, g.D)
		ccVal.Quo(ccVal, caVal)
		ccVal.Quo(ccVal, big.NewInt(4))

		if caVal.Sign() < 0 {
			ca = new(big.Int).Neg(caVal)
			cb = cbVal
			cc = new(big.Int).Neg(ccVal)
		} else {
			ca, cb, cc = caVal, cbVal, ccVal
		}
	}

	twoCa := new(big.Int).Lsh(ca, 1)
	bNew := new(big.Int).Mod(cb, twoCa)
	if bNew.Cmp(ca) > 0 {
		bNew.Sub(bNew, twoCa)
	}
	cNew := new(big.Int).Mul(bNew, bNew)
	cNew.Sub(cNew, g.D)
	cNew.Quo(cNew, ca)
	cNew.Quo(cNew, big.NewInt(4))

	result := Form{A: ca, B: bNew, C: cNew}
	aSq := new(big.Int).Mul(result.A, result.A)
	aSq.Abs(aSq)
	threshold := new(big.Int).Quo(discAbs, big.NewInt(9))
	if aSq.Cmp(threshold) > 0 {
		return result.Reduce()
	}
	return result, nil
}

var bigOne = big.NewInt(1)

// Compose computes the NUCOMP composition of f1 and f2.
func (g Group) Compose(f1, f2 Form) (Form, error) {
	if !f1.IsValid(g.D) || !f2.IsValid(g.D) {
		return Form{}, ErrInvalidForm
	}
	id := g.identity()
	if f1.A.Cmp(id.A) == 0 && f1.B.Cmp(id.B) == 0 && f1.C.Cmp(id.C) == 0 {
		return f2.clone(), nil
	}
	if f2.A.Cmp(id.A) == 0 && f2.B.Cmp(id.B) == 0 && f2.C.Cmp(id.C) == 0 {
		return f1.clone(), nil
	}
	if f1.A.Cmp(f2.A) == 0 && f1.B.Cmp(f2.B) == 0 && f1.C.Cmp(f2.C) == 0 {
		return g.Square(f1)
	}

	f, h := f1, f2
	if f1.A.Cmp(f2.A) > 0 {
		f, h = f2, f1
	}

	a1, a2 := f.A, h.A
	b1, b2 := f.B, h.B
	c2 := h.C

	ss := new(big.Int).Add(b1, b2)
	ss.Quo(ss, big.NewInt(2))
	m := new(big.Int).Sub(b1, b2)
	m.Quo(m, big.NewInt(2))

	t := new(big.Int).Mod(a2, a1)

	var sp, v1 *big.Int
	if t.Sign() == 0 {
		sp, v1 = new(big.Int).Set(a1), big.NewInt(0)
	} else {
		gv, v, _ := extendedGCD(t, a1)
		sp, v1 = gv, v
	}

	k := new(big.Int).Mul(m, v1)
	k.Mod(k, a1)

	a1w, a2w, c2w := a1, a2, c2
	if sp.Cmp(bigOne) != 0 {
		s, v2, u2 := extendedGCD(ss, sp)
		t2 := new(big.Int).Mul(k, u2)
		t3 := new(big.Int).Mul(v2, c2)
		k = t2.Sub(t2, t3)
		if s.Cmp(bigOne) != 0 {
			a1w = new(big.Int).Quo(a1, s)
			a2w = new(big.Int).Quo(a2, s)
			c2w = new(big.Int).Mul(c2, s)
			k.Mod(k, a1w)
		} else {
			k.Mod(k, a1)
		}
	}

	l := g.partialGCDBound()
	discAbs := g.abs()

	var ca, cb, cc *big.Int
	if a1w.Cmp(l) < 0 {
		tt := new(big.Int).Mul(a2w, k)
		ca = new(big.Int).Mul(a2w, a1w)
		cb = new(big.Int).Lsh(tt, 1)
		cb.Add(cb, b2)
		cc = new(big.Int).Add(b2, tt)
		cc.Mul(cc, k)
		cc.Add(cc, c2w)
		cc.Quo(cc, a1w)
	} else {
		co2, co1, _, r1 := xgcdPartial(a1w, k, l)
		m1 := new(big.Int).Mul(m, co1)
		tt := new(big.Int).Mul(a2w, r1)
		m1.Add(m1, tt)
		m1.Quo(m1, a1w)

		m2 := new(big.Int).Mul(ss, r1)
		tt = new(big.Int).Mul(c2w, co1)
		m2.Sub(m2, tt)
		m2.Quo(m2, a1w)

		var caVal *big.Int
		if co1.Sign() < 0 {
			caVal = new(big.Int).Mul(r1, m1)
			tt = new(big.Int).Mul(co1, m2)
			caVal.Sub(caVal, tt)
		} else {
			caVal = new(big.Int).Mul(co1, m2)
			tt = new(big.Int).Mul(r1, m1)
			caVal.Sub(caVal, tt)
		}

		tt = new(big.Int).Mul(a2w, k)
		cbTemp := new(big.Int).Mul(caVal, co2)
		cbTemp.Sub(tt, cbTemp)
		cbTemp.Lsh(cbTemp, 1)
		cbTemp.Quo(cbTemp, co1)
		cbTemp.Sub(cbTemp, b2)

		twoCa := new(big.Int).Lsh(caVal, 1)
		cbVal := new(big.Int).Mod(cbTemp, twoCa)

		ccVal := new(big.Int).Mul(cbVal, cbVal)
		ccVal.Sub(ccVal, g.D)
		ccVal.Quo(ccVal, caVal)
		ccVal.Quo(ccVal, big.NewInt(4))

		if caVal.Sign() < 0 {
			ca = new(big.Int).Neg(caVal)
			cb = cbVal
			cc = new(big.Int).Neg(ccVal)
		} else {
			ca, cb, cc = caVal, cbVal, ccVal
		}
	}

	twoCa := new(big.Int).Lsh(ca, 1)
	b3 := new(big.Int).Mod(cb, twoCa)
	if b3.Cmp(ca) > 0 {
		b3.Sub(b3, twoCa)
	}
	c3 := new(big.Int).Mul(b3, b3)
	c3.Sub(c3, g.D)
	c3.Quo(c3, ca)
	c3.Quo(c3, big.NewInt(4))

	result := Form{A: ca, B: b3, C: c3}
	aSq := new(big.Int).Mul(result.A, result.A)
	aSq.Abs(aSq)
	threshold := new(big.Int).Quo(discAbs, big.NewInt(9))
	if aSq.Cmp(threshold) > 0 {
		return result.Reduce()
	}
	return result, nil
}

// defaultMaxRepeatedSquare caps RepeatedSquare's t argument. It must comfortably
// exceed one CVDF leaf's difficulty (B = 2^20 squarings); the reference
// implementation this was ported from capped at 100,000, too low for that.
const defaultMaxRepeatedSquare = 1 << 24

// RepeatedSquare computes form^(2^t) via t sequential NUDUPL squarings,
// validating the form every 1024 iterations to detect corruption early.
func (g Group) RepeatedSquare(f Form, t uint64) (Form, error) {
	if t > defaultMaxRepeatedSquare {
		return Form{}, ErrExponentTooLarge
	}
	result := f
	for i := uint64(0); i < t; i++ {
		if i%1024 == 0 && !result.IsValid(g.D) {
			return Form{}, ErrInvalidForm
		}
		var err error
		result, err = g.Square(result)
		if err != nil {
			return Form{}, err
		}
	}
	return result, nil
}

// RandomReducedForm draws a random valid reduced form of discriminant d,
// used by tests and by discriminant-generation fixtures. bits bounds the
// size of the candidate coefficients searched.
func (g Group) RandomReducedForm(d *big.Int, bits uint) (Form, error) {
	const maxOuterAttempts = 100
	const maxInnerAttempts = 100
	fourA := new(big.Int)
	for attempt := 0; attempt < maxOuterAttempts; attempt++ {
		a, err := randBits(bits)
		if err != nil {
			return Form{}, err
		}
		a.Abs(a)
		if a.Sign() == 0 {
			continue
		}
		fourA.Mul(a, big.NewInt(4))
		dMod := new(big.Int).Mod(d, fourA)
		twoA := new(big.Int).Mul(a, big.NewInt(2))

		for i := 0; i < maxInnerAttempts; i++ {
			b, err := randBits(bits)
			if err != nil {
				return Form{}, err
			}
			b.Mod(b, twoA)
			bb := new(big.Int).Mul(b, b)
			bb.Mod(bb, fourA)
			if bb.Cmp(dMod) != 0 {
				continue
			}
			c := new(big.Int).Mul(b, b)
			c.Sub(c, d)
			c.Quo(c, fourA)
			candidate := Form{A: new(big.Int).Set(a), B: b, C: c}
			if candidate.IsValid(d) {
				return candidate.Reduce()
			}
		}
	}
	return Form{}, ErrInvalidForm
}

// Pow computes f^n using binary exponentiation over Square/Compose.
func (g Group) Pow(f Form, n *big.Int) (Form, error) {
	if n.Sign() == 0 {
		return g.identity(), nil
	}
	result := g.identity()
	base := f.clone()
	exp := new(big.Int).Set(n)
	zero := big.NewInt(0)
	one := big.NewInt(1)
	bit := new(big.Int)
	var err error
	for exp.Cmp(zero) > 0 {
		bit.And(exp, one)
		if bit.Sign() != 0 {
			result, err = g.Compose(result, base)
			if err != nil {
				return Form{}, err
			}
		}
		base, err = g.Square(base)
		if err != nil {
			return Form{}, err
		}
		exp.Rsh(exp, 1)
	}
	return result, nil
}
