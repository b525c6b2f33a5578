// Package merkle builds a tagged-leaf SHA3-256 Merkle tree over 32-byte
// transaction ids. Distinct tag bytes domain-separate leaf hashing from
// internal-node hashing, preventing leaf/node preimage confusion; an
// unpaired node at a level carries forward unchanged rather than being
// duplicated.
package merkle

import "golang.org/x/crypto/sha3"

const (
	leafTag byte = 0x10
	nodeTag byte = 0x11
)

func sha3_256(b []byte) [32]byte {
	return sha3.Sum256(b)
}

// Root computes the tagged Merkle root over ids. An empty input yields the
// all-zero root.
func Root(ids [][32]byte) [32]byte {
	if len(ids) == 0 {
		return [32]byte{}
	}

	level := make([][32]byte, 0, len(ids))
	var leafPreimage [1 + 32]byte
	leafPreimage[0] = leafTag
	for _, id := range ids {
		copy(leafPreimage[1:], id[:])
		level = append(level, sha3_256(leafPreimage[:]))
	}

	var nodePreimage [1 + 32 + 32]byte
	nodePreimage[0] = nodeTag
	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); {
			if i == len(level)-1 {
				next = append(next, level[i]) // odd promotion: carry forward unchanged
				i++
				continue
			}
			copy(nodePreimage[1:33], level[i][:])
			copy(nodePreimage[33:], level[i+1][:])
			next = append(next, sha3_256(nodePreimage[:]))
			i += 2
		}
		level = next
	}
	return level[0]
}
