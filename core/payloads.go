package core

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	coreerrors "namechain/core/errors"
	"namechain/core/types"
	"namechain/crypto"
	"namechain/native/registry"
)

// Transaction payloads are JSON documents carried in Transaction.Data.
// Addresses are bech32 strings, hashes are 0x-prefixed hex.

// RegisterPayload registers a name. An empty Recipient registers for the
// sender; any other recipient registers on its behalf.
type RegisterPayload struct {
	Name      string   `json:"name"`
	Recipient string   `json:"recipient,omitempty"`
	Years     uint64   `json:"years"`
	Referrer  *string  `json:"referrer,omitempty"`
	Proof     []string `json:"proof,omitempty"`
}

// NamePayload targets a single name (claim, release).
type NamePayload struct {
	Name string `json:"name"`
}

type TransferNamePayload struct {
	Name           string `json:"name"`
	To             string `json:"to"`
	KeepRecords    bool   `json:"keepRecords"`
	KeepController bool   `json:"keepController"`
	KeepResolving  bool   `json:"keepResolving"`
	Data           []byte `json:"data,omitempty"`
}

// ApprovePayload approves Operator for Name, or for every name of the sender
// when Name is nil.
type ApprovePayload struct {
	Operator string  `json:"operator"`
	Name     *string `json:"name,omitempty"`
	Approved bool    `json:"approved"`
}

type SetAddressPayload struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type SetControllerPayload struct {
	Name       string `json:"name"`
	Controller string `json:"controller"`
}

// SetPrimaryNamePayload sets the sender's primary name. A nil Name clears it.
type SetPrimaryNamePayload struct {
	Name *string `json:"name"`
}

// RecordChangePayload sets Key to Value, or deletes Key when Value is nil.
type RecordChangePayload struct {
	Key   string  `json:"key"`
	Value *string `json:"value"`
}

type UpdateRecordsPayload struct {
	Name       string                `json:"name"`
	Records    []RecordChangePayload `json:"records"`
	RemoveRest bool                  `json:"removeRest"`
}

type NamesPayload struct {
	Names []string `json:"names"`
}

// WithdrawPayload moves Amount out of the vault. An empty Beneficiary pays
// the sender.
type WithdrawPayload struct {
	Beneficiary string `json:"beneficiary,omitempty"`
	Amount      string `json:"amount"`
}

type MerkleRootPayload struct {
	Root string `json:"root"`
}

type ReservedEntryPayload struct {
	Name     string `json:"name"`
	Claimant string `json:"claimant,omitempty"`
}

type AddReservedPayload struct {
	Entries []ReservedEntryPayload `json:"entries"`
}

type TransferAdminPayload struct {
	NewAdmin string `json:"newAdmin"`
}

type RecordsLimitPayload struct {
	Limit uint64 `json:"limit"`
}

// EncodePayload builds the Data field of a transaction.
func EncodePayload(payload interface{}) ([]byte, error) {
	if payload == nil {
		return nil, nil
	}
	return json.Marshal(payload)
}

// NewTransaction assembles an unsigned transaction for payload.
func NewTransaction(txType types.TxType, chainID, nonce uint64, value *big.Int, payload interface{}) (*types.Transaction, error) {
	data, err := EncodePayload(payload)
	if err != nil {
		return nil, err
	}
	return &types.Transaction{Type: txType, ChainID: chainID, Nonce: nonce, Value: value, Data: data}, nil
}

func decodePayload(tx *types.Transaction, out interface{}) error {
	if len(tx.Data) == 0 {
		return fmt.Errorf("%w: empty payload for %s", coreerrors.ErrInvalidPayload, tx.Type)
	}
	dec := json.NewDecoder(bytes.NewReader(tx.Data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %v", coreerrors.ErrInvalidPayload, tx.Type, err)
	}
	return nil
}

func parseAccount(field, value string) ([20]byte, error) {
	addr, err := crypto.ParseAddress(value)
	if err != nil {
		return [20]byte{}, fmt.Errorf("%w: %s: %v", coreerrors.ErrInvalidPayload, field, err)
	}
	return addr.Raw(), nil
}

func parseOptionalAccount(field, value string) (*[20]byte, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	addr, err := parseAccount(field, value)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// ParseHash32 decodes a 0x-prefixed 32 byte hex string.
func ParseHash32(value string) ([32]byte, error) {
	var out [32]byte
	decoded, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(value), "0x"))
	if err != nil {
		return out, fmt.Errorf("%w: hash: %v", coreerrors.ErrInvalidPayload, err)
	}
	if len(decoded) != len(out) {
		return out, fmt.Errorf("%w: hash must be 32 bytes", coreerrors.ErrInvalidPayload)
	}
	copy(out[:], decoded)
	return out, nil
}

// FormatHash32 renders h as 0x-prefixed hex.
func FormatHash32(h [32]byte) string {
	return "0x" + hex.EncodeToString(h[:])
}

// ParseProof decodes hex-encoded merkle siblings.
func ParseProof(values []string) ([][32]byte, error) {
	if values == nil {
		return nil, nil
	}
	proof := make([][32]byte, 0, len(values))
	for _, value := range values {
		node, err := ParseHash32(value)
		if err != nil {
			return nil, err
		}
		proof = append(proof, node)
	}
	return proof, nil
}

func (p RegisterPayload) registration(sender [20]byte, paid *big.Int) (registry.Registration, bool, error) {
	reg := registry.Registration{Name: p.Name, Recipient: sender, Years: p.Years, Referrer: p.Referrer, Paid: paid}
	proof, err := ParseProof(p.Proof)
	if err != nil {
		return reg, false, err
	}
	reg.Proof = proof
	recipient, err := parseOptionalAccount("recipient", p.Recipient)
	if err != nil {
		return reg, false, err
	}
	if recipient == nil {
		return reg, false, nil
	}
	reg.Recipient = *recipient
	return reg, true, nil
}

func (p UpdateRecordsPayload) changes() []registry.RecordChange {
	out := make([]registry.RecordChange, 0, len(p.Records))
	for _, rec := range p.Records {
		out = append(out, registry.RecordChange{Key: rec.Key, Value: rec.Value})
	}
	return out
}

func (p AddReservedPayload) entries() ([]registry.ReservedEntry, error) {
	out := make([]registry.ReservedEntry, 0, len(p.Entries))
	for _, entry := range p.Entries {
		claimant, err := parseOptionalAccount("claimant", entry.Claimant)
		if err != nil {
			return nil, err
		}
		out = append(out, registry.ReservedEntry{Name: entry.Name, Claimant: claimant})
	}
	return out, nil
}

func parseAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: invalid amount %q", coreerrors.ErrInvalidPayload, value)
	}
	return amount, nil
}
