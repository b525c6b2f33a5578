// Package cvdf implements the continuous-VDF aggregator (C3): Pietrzak
// proofs per B-squaring leaf, a k-ary Fiat-Shamir aggregation tree, and a
// sparse, actively-pruned frontier.
package cvdf

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/enigmarikki/kala-sub000/classgroup"
)

var (
	ErrAggregationOverflow = errors.New("cvdf: aggregation recursion exceeded safety bound")
	ErrMissingPredecessor  = errors.New("cvdf: proof references a leaf absent from the proof path")
	ErrVerificationFailed  = errors.New("cvdf: proof equation failed")
)

// maxAggregationDepth bounds upward cascade per insertion, preventing
// runaway recursion on malformed/adversarial input (spec: "safety bound on
// level depth, e.g. 20").
const maxAggregationDepth = 20

// challengeModulus is 2^256 + 1, the modulus for Fiat-Shamir challenges.
var challengeModulus = new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

func formBytes(f classgroup.Form) []byte {
	out := make([]byte, 0, 3*256)
	appendLP := func(b []byte) {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
		out = append(out, lenBuf[:]...)
		out = append(out, b...)
	}
	appendLP(f.A.Bytes())
	appendLP(classgroup.SignedBytes(f.B))
	appendLP(f.C.Bytes())
	return out
}

// pietrzakChallenge computes r = H(x ‖ y ‖ mu ‖ D) mod 2^256+1.
func pietrzakChallenge(x, y, mu classgroup.Form, d *big.Int) *big.Int {
	h := sha256.New()
	h.Write(formBytes(x))
	h.Write(formBytes(y))
	h.Write(formBytes(mu))
	h.Write(d.Bytes())
	digest := h.Sum(nil)
	r := new(big.Int).SetBytes(digest)
	return r.Mod(r, challengeModulus)
}

// nodeChallenge computes r_j = H(child.value ‖ level ‖ index ‖ time ‖ D) mod 2^security.
func nodeChallenge(value classgroup.Form, level, index int, time uint64, d *big.Int, securityBits uint) *big.Int {
	h := sha256.New()
	h.Write(formBytes(value))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(level))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(index))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], time)
	h.Write(buf[:])
	h.Write(d.Bytes())
	digest := h.Sum(nil)
	r := new(big.Int).SetBytes(digest)
	mod := new(big.Int).Lsh(big.NewInt(1), securityBits)
	return r.Mod(r, mod)
}

// PietrzakProof is the ordered sequence of mu values produced while
// recursively halving a single leaf's delay proof.
type PietrzakProof struct {
	Mu []classgroup.Form
}

// GenerateLeafProof computes y = x^(2^t) and a Pietrzak proof that the
// relation holds, without requiring the verifier to redo the squaring.
func GenerateLeafProof(g classgroup.Group, x classgroup.Form, t uint64) (y classgroup.Form, proof PietrzakProof, err error) {
	y, err = g.RepeatedSquare(x, t)
	if err != nil {
		return classgroup.Form{}, PietrzakProof{}, err
	}
	if t == 0 {
		return y, PietrzakProof{}, nil
	}
	mus, err := proveRound(g, x, y, t)
	if err != nil {
		return classgroup.Form{}, PietrzakProof{}, err
	}
	return y, PietrzakProof{Mu: mus}, nil
}

func proveRound(g classgroup.Group, x, y classgroup.Form, t uint64) ([]classgroup.Form, error) {
	if t <= 1 {
		return nil, nil
	}
	half := t / 2
	mu, err := g.RepeatedSquare(x, half)
	if err != nil {
		return nil, err
	}
	r := pietrzakChallenge(x, y, mu, g.D)

	xr, err := g.Pow(x, r)
	if err != nil {
		return nil, err
	}
	x2, err := g.Compose(xr, mu)
	if err != nil {
		return nil, err
	}
	mur, err := g.Pow(mu, r)
	if err != nil {
		return nil, err
	}
	y2, err := g.Compose(mur, y)
	if err != nil {
		return nil, err
	}

	rest, err := proveRound(g, x2, y2, half)
	if err != nil {
		return nil, err
	}
	return append([]classgroup.Form{mu}, rest...), nil
}

// VerifyLeafProof checks that y = x^(2^t) given proof, without redoing the
// squaring.
func VerifyLeafProof(g classgroup.Group, proof PietrzakProof, x, y classgroup.Form, t uint64) (bool, error) {
	if t == 0 {
		return x.A.Cmp(y.A) == 0 && x.B.Cmp(y.B) == 0 && x.C.Cmp(y.C) == 0, nil
	}
	cx, cy := x, y
	for _, mu := range proof.Mu {
		r := pietrzakChallenge(cx, cy, mu, g.D)
		xr, err := g.Pow(cx, r)
		if err != nil {
			return false, err
		}
		x2, err := g.Compose(xr, mu)
		if err != nil {
			return false, err
		}
		mur, err := g.Pow(mu, r)
		if err != nil {
			return false, err
		}
		y2, err := g.Compose(mur, cy)
		if err != nil {
			return false, err
		}
		cx, cy = x2, y2
	}
	squared, err := g.Compose(cx, cx)
	if err != nil {
		return false, err
	}
	rs, err := squared.Reduce()
	if err != nil {
		return false, err
	}
	ry, err := cy.Reduce()
	if err != nil {
		return false, err
	}
	return rs.A.Cmp(ry.A) == 0 && rs.B.Cmp(ry.B) == 0 && rs.C.Cmp(ry.C) == 0, nil
}
