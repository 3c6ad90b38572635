package types

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// TxType defines the purpose of a transaction.
type TxType byte

const (
	TxTypeTransfer            TxType = 0x01 // Plain balance transfer
	TxTypeRegister            TxType = 0x10
	TxTypeClaimReserved       TxType = 0x11
	TxTypeRelease             TxType = 0x12
	TxTypeTransferName        TxType = 0x13
	TxTypeApprove             TxType = 0x14
	TxTypeSetAddress          TxType = 0x15
	TxTypeSetController       TxType = 0x16
	TxTypeSetPrimaryName      TxType = 0x17
	TxTypeUpdateRecords       TxType = 0x18
	TxTypeClearExpired        TxType = 0x19
	TxTypeWithdraw            TxType = 0x20 // admin
	TxTypeSwitchToPublicPhase TxType = 0x21 // admin
	TxTypeUpdateMerkleRoot    TxType = 0x22 // admin
	TxTypeAddReserved         TxType = 0x23 // admin
	TxTypeRemoveReserved      TxType = 0x24 // admin
	TxTypeTransferAdmin       TxType = 0x25 // admin
	TxTypeAcceptAdmin         TxType = 0x26
	TxTypeSetRecordsLimit     TxType = 0x27 // admin
)

var txTypeNames = map[TxType]string{
	TxTypeTransfer:            "transfer",
	TxTypeRegister:            "register",
	TxTypeClaimReserved:       "claim_reserved_name",
	TxTypeRelease:             "release",
	TxTypeTransferName:        "transfer_name",
	TxTypeApprove:             "approve",
	TxTypeSetAddress:          "set_address",
	TxTypeSetController:       "set_controller",
	TxTypeSetPrimaryName:      "set_primary_name",
	TxTypeUpdateRecords:       "update_records",
	TxTypeClearExpired:        "clear_expired_names",
	TxTypeWithdraw:            "withdraw",
	TxTypeSwitchToPublicPhase: "switch_to_public_phase",
	TxTypeUpdateMerkleRoot:    "update_merkle_root",
	TxTypeAddReserved:         "add_reserved_names",
	TxTypeRemoveReserved:      "remove_reserved_names",
	TxTypeTransferAdmin:       "transfer_admin",
	TxTypeAcceptAdmin:         "accept_admin",
	TxTypeSetRecordsLimit:     "set_records_size_limit",
}

// String returns the operation name used in logs and metrics.
func (t TxType) String() string {
	if name, ok := txTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(0x%02x)", byte(t))
}

// ErrMissingSignature is returned when recovering the sender of an unsigned transaction.
var ErrMissingSignature = errors.New("transaction: missing signature")

// Transaction is a signed request to mutate ledger state. Data carries the
// JSON-encoded operation payload; Value is the amount attached to the call.
type Transaction struct {
	Type    TxType   `json:"type"`
	ChainID uint64   `json:"chainId"`
	Nonce   uint64   `json:"nonce"`
	To      []byte   `json:"to,omitempty"`
	Value   *big.Int `json:"value"`
	Data    []byte   `json:"data"`

	R *big.Int `json:"r"`
	S *big.Int `json:"s"`
	V *big.Int `json:"v"`

	from []byte
}

type signingPayload struct {
	Type    uint8
	ChainID uint64
	Nonce   uint64
	To      []byte
	Value   *big.Int
	Data    []byte
}

// Hash returns the keccak256 digest signed by the sender.
func (tx *Transaction) Hash() ([]byte, error) {
	value := tx.Value
	if value == nil {
		value = big.NewInt(0)
	}
	encoded, err := rlp.EncodeToBytes(signingPayload{
		Type:    uint8(tx.Type),
		ChainID: tx.ChainID,
		Nonce:   tx.Nonce,
		To:      tx.To,
		Value:   value,
		Data:    tx.Data,
	})
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256(encoded), nil
}

// Sign attaches a secp256k1 signature over Hash.
func (tx *Transaction) Sign(privKey *ecdsa.PrivateKey) error {
	hash, err := tx.Hash()
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(hash, privKey)
	if err != nil {
		return err
	}
	tx.R = new(big.Int).SetBytes(sig[:32])
	tx.S = new(big.Int).SetBytes(sig[32:64])
	tx.V = new(big.Int).SetBytes([]byte{sig[64] + 27})
	tx.from = nil
	return nil
}

// From recovers the sender address from the signature.
func (tx *Transaction) From() ([]byte, error) {
	if tx.from != nil {
		return tx.from, nil
	}
	if tx.R == nil || tx.S == nil || tx.V == nil {
		return nil, ErrMissingSignature
	}
	hash, err := tx.Hash()
	if err != nil {
		return nil, err
	}
	rBytes, sBytes := tx.R.Bytes(), tx.S.Bytes()
	if len(rBytes) > 32 || len(sBytes) > 32 || tx.V.Uint64() < 27 {
		return nil, fmt.Errorf("transaction: malformed signature")
	}
	sig := make([]byte, 65)
	copy(sig[32-len(rBytes):32], rBytes)
	copy(sig[64-len(sBytes):64], sBytes)
	sig[64] = byte(tx.V.Uint64() - 27)
	pubKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return nil, err
	}
	tx.from = crypto.PubkeyToAddress(*pubKey).Bytes()
	return tx.from, nil
}

// AttachedValue returns a non-nil copy of Value.
func (tx *Transaction) AttachedValue() *big.Int {
	if tx.Value == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(tx.Value)
}
