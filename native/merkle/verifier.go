package merkle

import (
	"bytes"
	"crypto/sha256"
	"errors"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var errNilStore = errors.New("merkle: storage not configured")

// store is the persistence used by Verifier.
type store interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// AccountLeaf returns the leaf committed for an account identifier.
func AccountLeaf(account []byte) [32]byte {
	return sha256.Sum256(account)
}

// HashPair hashes two nodes in canonical order, smaller operand first.
func HashPair(a, b [32]byte) [32]byte {
	var out [32]byte
	if bytes.Compare(a[:], b[:]) < 0 {
		copy(out[:], ethcrypto.Keccak256(a[:], b[:]))
	} else {
		copy(out[:], ethcrypto.Keccak256(b[:], a[:]))
	}
	return out
}

// Fold applies proof to leaf and returns the implied root.
func Fold(leaf [32]byte, proof [][32]byte) [32]byte {
	acc := leaf
	for _, sibling := range proof {
		acc = HashPair(acc, sibling)
	}
	return acc
}

// Verify reports whether proof links leaf to root.
func Verify(root, leaf [32]byte, proof [][32]byte) bool {
	return Fold(leaf, proof) == root
}

type storedRoot struct {
	Root [32]byte
}

// Verifier holds a Merkle root in state and checks membership proofs against
// it.
type Verifier struct {
	store store
	key   []byte
}

// NewVerifier binds a verifier to the root stored under namespace.
func NewVerifier(s store, namespace string) *Verifier {
	return &Verifier{store: s, key: []byte("merkle/" + namespace + "/root")}
}

// Root returns the current root. The zero root verifies nothing.
func (v *Verifier) Root() ([32]byte, error) {
	if v == nil || v.store == nil {
		return [32]byte{}, errNilStore
	}
	var stored storedRoot
	if _, err := v.store.KVGet(v.key, &stored); err != nil {
		return [32]byte{}, err
	}
	return stored.Root, nil
}

// UpdateRoot replaces the stored root.
func (v *Verifier) UpdateRoot(root [32]byte) error {
	if v == nil || v.store == nil {
		return errNilStore
	}
	return v.store.KVPut(v.key, &storedRoot{Root: root})
}

// VerifyProof checks proof for leaf against the stored root.
func (v *Verifier) VerifyProof(leaf [32]byte, proof [][32]byte) (bool, error) {
	root, err := v.Root()
	if err != nil {
		return false, err
	}
	if root == ([32]byte{}) {
		return false, nil
	}
	return Verify(root, leaf, proof), nil
}
