package cvdf

import (
	"github.com/enigmarikki/kala-sub000/classgroup"
)

// Node is a frontier entry: a leaf carries a Pietrzak proof over B
// squarings (never nil; its Mu list is empty when B is 0); an internal node
// aggregates its Arity children, has a nil Proof, and its value is checked
// against the children by VerifyAggregate.
type Node struct {
	Level int
	Index int
	Value classgroup.Form
	Time  uint64
	Proof *PietrzakProof
}

type frontierKey struct {
	level int
	index int
}

// Frontier is the sparse, actively-pruned set of not-yet-aggregated nodes.
// Unlike a frontier that retains every node forever, once Arity siblings at
// a level complete, they are aggregated into their parent and removed: the
// frontier holds only the boundary of the aggregation tree, not its whole
// history.
type Frontier struct {
	group         classgroup.Group
	arity         int
	leafDifficulty uint64
	securityBits  uint
	nodes         map[frontierKey]*Node
	nextLeafIndex int
}

// NewFrontier constructs an empty frontier over group g with the given
// aggregation arity k and per-leaf squaring count b.
func NewFrontier(g classgroup.Group, arity int, leafDifficulty uint64, securityBits uint) *Frontier {
	return &Frontier{
		group:          g,
		arity:          arity,
		leafDifficulty: leafDifficulty,
		securityBits:   securityBits,
		nodes:          make(map[frontierKey]*Node),
	}
}

// Leaves reports how many leaves have been appended so far.
func (fr *Frontier) Leaves() int { return fr.nextLeafIndex }

// Size reports how many nodes currently sit on the frontier (post-pruning).
func (fr *Frontier) Size() int { return len(fr.nodes) }

// AppendLeaf computes the next sequential leaf (x is the VDF form at the
// start of this leaf's B-squaring span, time is the closing iteration
// count), generates its Pietrzak proof, inserts it into the frontier, and
// cascades aggregation upward as far as complete sibling groups allow.
func (fr *Frontier) AppendLeaf(x classgroup.Form, time uint64) (*Node, error) {
	y, proof, err := GenerateLeafProof(fr.group, x, fr.leafDifficulty)
	if err != nil {
		return nil, err
	}
	index := fr.nextLeafIndex
	fr.nextLeafIndex++

	leaf := &Node{Level: 0, Index: index, Value: y, Time: time, Proof: &proof}
	fr.nodes[frontierKey{0, index}] = leaf

	if err := fr.cascade(0); err != nil {
		return nil, err
	}
	return leaf, nil
}

// cascade attempts to aggregate complete sibling groups starting at level,
// moving upward, bounded by maxAggregationDepth levels of recursion.
func (fr *Frontier) cascade(level int) error {
	for depth := 0; depth < maxAggregationDepth; depth++ {
		group, ok := fr.completeGroupAt(level)
		if !ok {
			return nil
		}
		parent, err := fr.aggregate(level, group)
		if err != nil {
			return err
		}
		for _, child := range group {
			delete(fr.nodes, frontierKey{level, child})
		}
		fr.nodes[frontierKey{level + 1, parent.Index}] = parent
		level++
	}
	return ErrAggregationOverflow
}

// completeGroupAt finds the lowest-indexed run of Arity siblings present at
// level that share a parent (index/arity), returning their indices in
// order if a complete run exists.
func (fr *Frontier) completeGroupAt(level int) ([]int, bool) {
	byParent := make(map[int][]int)
	for k := range fr.nodes {
		if k.level != level {
			continue
		}
		parent := k.index / fr.arity
		byParent[parent] = append(byParent[parent], k.index)
	}
	bestParent := -1
	for parent, children := range byParent {
		if len(children) != fr.arity {
			continue
		}
		if bestParent == -1 || parent < bestParent {
			bestParent = parent
		}
	}
	if bestParent == -1 {
		return nil, false
	}
	indices := make([]int, fr.arity)
	for i := 0; i < fr.arity; i++ {
		indices[i] = bestParent*fr.arity + i
	}
	return indices, true
}

// aggregate folds Arity children at level into a single parent node at
// level+1 via a Fiat-Shamir-weighted combination: the parent's value is the
// group composition of each child's value raised to a per-child challenge
// derived from that child's (value, level, index, time, D).
func (fr *Frontier) aggregate(level int, childIndices []int) (*Node, error) {
	acc := fr.group.IdentityForm()
	var lastTime uint64
	for _, idx := range childIndices {
		child, ok := fr.nodes[frontierKey{level, idx}]
		if !ok {
			return nil, ErrMissingPredecessor
		}
		r := nodeChallenge(child.Value, child.Level, child.Index, child.Time, fr.group.D, fr.securityBits)
		weighted, err := fr.group.Pow(child.Value, r)
		if err != nil {
			return nil, err
		}
		acc, err = fr.group.Compose(acc, weighted)
		if err != nil {
			return nil, err
		}
		if child.Time > lastTime {
			lastTime = child.Time
		}
	}
	reduced, err := acc.Reduce()
	if err != nil {
		return nil, err
	}
	parentIndex := childIndices[0] / fr.arity
	return &Node{
		Level: level + 1,
		Index: parentIndex,
		Value: reduced,
		Time:  lastTime,
		Proof: nil,
	}, nil
}

// VerifyAggregate recomputes a parent's expected value from its children's
// values and checks it against the claimed parent, failing explicitly if
// any child is absent rather than silently substituting a default.
func VerifyAggregate(g classgroup.Group, securityBits uint, children []*Node, parent *Node) (bool, error) {
	if len(children) == 0 {
		return false, ErrMissingPredecessor
	}
	acc := g.IdentityForm()
	for _, child := range children {
		if child == nil {
			return false, ErrMissingPredecessor
		}
		r := nodeChallenge(child.Value, child.Level, child.Index, child.Time, g.D, securityBits)
		weighted, err := g.Pow(child.Value, r)
		if err != nil {
			return false, err
		}
		acc, err = g.Compose(acc, weighted)
		if err != nil {
			return false, err
		}
	}
	reduced, err := acc.Reduce()
	if err != nil {
		return false, err
	}
	rp, err := parent.Value.Reduce()
	if err != nil {
		return false, err
	}
	return reduced.A.Cmp(rp.A) == 0 && reduced.B.Cmp(rp.B) == 0 && reduced.C.Cmp(rp.C) == 0, nil
}
