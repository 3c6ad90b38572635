package state

import (
	"fmt"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"namechain/core/types"
)

var accountPrefix = []byte("account/")

func accountStateKey(addr []byte) []byte {
	buf := make([]byte, len(accountPrefix)+len(addr))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], addr)
	return kvKey(buf)
}

// GetAccount returns the account stored for addr, or an empty account.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	if len(addr) == 0 {
		return nil, fmt.Errorf("address must not be empty")
	}
	data, err := m.trie.Get(accountStateKey(addr))
	if err != nil {
		return nil, err
	}
	account := (&types.Account{}).EnsureDefaults()
	if len(data) == 0 {
		return account, nil
	}
	stateAcc := new(gethtypes.StateAccount)
	if err := rlp.DecodeBytes(data, stateAcc); err != nil {
		return nil, fmt.Errorf("decode account %x: %w", addr, err)
	}
	account.Nonce = stateAcc.Nonce
	if stateAcc.Balance != nil {
		account.Balance = stateAcc.Balance.ToBig()
	}
	return account, nil
}

// PutAccount stores account as a go-ethereum state account.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if len(addr) == 0 {
		return fmt.Errorf("address must not be empty")
	}
	if account == nil {
		return fmt.Errorf("nil account")
	}
	account.EnsureDefaults()
	if account.Balance.Sign() < 0 {
		return fmt.Errorf("negative balance")
	}
	balance, overflow := uint256.FromBig(account.Balance)
	if overflow {
		return fmt.Errorf("balance overflow")
	}
	stateAcc := &gethtypes.StateAccount{
		Nonce:    account.Nonce,
		Balance:  balance,
		Root:     gethtypes.EmptyRootHash,
		CodeHash: gethtypes.EmptyCodeHash.Bytes(),
	}
	encoded, err := rlp.EncodeToBytes(stateAcc)
	if err != nil {
		return err
	}
	return m.trie.Update(accountStateKey(addr), encoded)
}
