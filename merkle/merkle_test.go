package merkle

import "testing"

func TestRootEmptyIsZero(t *testing.T) {
	if got := Root(nil); got != ([32]byte{}) {
		t.Fatalf("Root(nil) = %x, want zero", got)
	}
}

func TestRootSingleLeafIsTaggedHash(t *testing.T) {
	var id [32]byte
	id[0] = 0xAB
	got := Root([][32]byte{id})

	var preimage [1 + 32]byte
	preimage[0] = leafTag
	copy(preimage[1:], id[:])
	want := sha3_256(preimage[:])

	if got != want {
		t.Fatalf("Root single leaf = %x, want %x", got, want)
	}
}

func TestRootOddCountPromotesLastUnchanged(t *testing.T) {
	var a, b, c [32]byte
	a[0], b[0], c[0] = 1, 2, 3

	got := Root([][32]byte{a, b, c})

	leafHash := func(id [32]byte) [32]byte {
		var p [1 + 32]byte
		p[0] = leafTag
		copy(p[1:], id[:])
		return sha3_256(p[:])
	}
	ha, hb, hc := leafHash(a), leafHash(b), leafHash(c)

	var nodePre [1 + 32 + 32]byte
	nodePre[0] = nodeTag
	copy(nodePre[1:33], ha[:])
	copy(nodePre[33:], hb[:])
	abNode := sha3_256(nodePre[:])

	// level 1: [abNode, hc] (hc promoted unchanged since it was odd-one-out)
	copy(nodePre[1:33], abNode[:])
	copy(nodePre[33:], hc[:])
	want := sha3_256(nodePre[:])

	if got != want {
		t.Fatalf("Root odd count = %x, want %x", got, want)
	}
}

func TestRootIsOrderSensitive(t *testing.T) {
	var a, b [32]byte
	a[0], b[0] = 1, 2
	r1 := Root([][32]byte{a, b})
	r2 := Root([][32]byte{b, a})
	if r1 == r2 {
		t.Fatalf("Root should be order-sensitive")
	}
}
