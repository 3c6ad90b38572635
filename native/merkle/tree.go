package merkle

import (
	"errors"
	"sort"
)

// ErrLeafNotFound is returned by Proof for leaves outside the tree.
var ErrLeafNotFound = errors.New("merkle: leaf not in tree")

// Tree is a sorted-pair Merkle tree built off-chain from whitelist leaves. An
// odd node at the end of a level is promoted unchanged.
type Tree struct {
	levels [][][32]byte
}

// NewTree builds a tree over leaves. Leaves are sorted so the root does not
// depend on input order.
func NewTree(leaves [][32]byte) *Tree {
	if len(leaves) == 0 {
		return &Tree{}
	}
	level := make([][32]byte, len(leaves))
	copy(level, leaves)
	sort.Slice(level, func(i, j int) bool {
		return string(level[i][:]) < string(level[j][:])
	})
	levels := [][][32]byte{level}
	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, HashPair(level[i], level[i+1]))
		}
		levels = append(levels, next)
		level = next
	}
	return &Tree{levels: levels}
}

// NewAccountTree builds a tree over the leaves of accounts.
func NewAccountTree(accounts [][20]byte) *Tree {
	leaves := make([][32]byte, 0, len(accounts))
	for _, account := range accounts {
		leaves = append(leaves, AccountLeaf(account[:]))
	}
	return NewTree(leaves)
}

// Root returns the tree root, or the zero hash for an empty tree.
func (t *Tree) Root() [32]byte {
	if t == nil || len(t.levels) == 0 {
		return [32]byte{}
	}
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Proof returns the sibling path of leaf from the bottom level up.
func (t *Tree) Proof(leaf [32]byte) ([][32]byte, error) {
	if t == nil || len(t.levels) == 0 {
		return nil, ErrLeafNotFound
	}
	pos := -1
	for i, candidate := range t.levels[0] {
		if candidate == leaf {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, ErrLeafNotFound
	}
	proof := make([][32]byte, 0, len(t.levels)-1)
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := pos ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		pos /= 2
	}
	return proof, nil
}
