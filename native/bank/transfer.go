package bank

import (
	"errors"
	"fmt"
	"math/big"

	"namechain/core/types"
)

var (
	ErrInsufficientBalance = errors.New("bank: insufficient balance")
	ErrInvalidAmount       = errors.New("bank: amount must not be negative")
	ErrInvalidRecipient    = errors.New("bank: invalid recipient")
)

type accountState interface {
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Ledger moves native balance between accounts.
type Ledger struct {
	state accountState
}

// NewLedger returns a ledger over state.
func NewLedger(state accountState) *Ledger {
	return &Ledger{state: state}
}

func (l *Ledger) account(addr [20]byte) (*types.Account, error) {
	if l == nil || l.state == nil {
		return nil, fmt.Errorf("bank: state not configured")
	}
	acc, err := l.state.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	if acc == nil {
		acc = &types.Account{}
	}
	acc.EnsureDefaults()
	return acc, nil
}

// Balance returns the balance of addr.
func (l *Ledger) Balance(addr [20]byte) (*big.Int, error) {
	acc, err := l.account(addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(acc.Balance), nil
}

// Transfer moves amount from one account to another. A zero amount is a no-op.
func (l *Ledger) Transfer(from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if to == ([20]byte{}) {
		return ErrInvalidRecipient
	}
	sender, err := l.account(from)
	if err != nil {
		return err
	}
	if sender.Balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, sender.Balance, amount)
	}
	if from == to {
		return nil
	}
	recipient, err := l.account(to)
	if err != nil {
		return err
	}
	sender.Balance = new(big.Int).Sub(sender.Balance, amount)
	recipient.Balance = new(big.Int).Add(recipient.Balance, amount)
	if err := l.state.PutAccount(from[:], sender); err != nil {
		return err
	}
	return l.state.PutAccount(to[:], recipient)
}

// Credit mints amount into addr. Used by genesis allocation.
func (l *Ledger) Credit(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	acc, err := l.account(addr)
	if err != nil {
		return err
	}
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	return l.state.PutAccount(addr[:], acc)
}
