package types

import (
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// BlockHeader commits to the state produced by one batch of transactions.
type BlockHeader struct {
	Height    uint64 `json:"height"`
	Timestamp uint64 `json:"timestamp"`
	PrevHash  []byte `json:"prevHash"`
	StateRoot []byte `json:"stateRoot"`
	TxHash    []byte `json:"txHash"`
}

// Hash returns the keccak256 digest of the RLP-encoded header.
func (h *BlockHeader) Hash() ([]byte, error) {
	encoded, err := rlp.EncodeToBytes(h)
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256(encoded), nil
}
