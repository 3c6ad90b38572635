package registry

import (
	"fmt"
	"math/big"
)

// Config seeds the registry metadata at genesis.
type Config struct {
	Admin            [20]byte
	WhitelistPhase   bool
	RecordsSizeLimit uint64
	Reserved         []ReservedEntry
}

// Initialise writes the initial metadata and reserved names. It is meant to
// run once, before any other call.
func (e *Engine) Initialise(cfg Config) error {
	if err := e.ready(); err != nil {
		return err
	}
	if isZero(cfg.Admin) {
		return fmt.Errorf("registry: admin required")
	}
	limit := cfg.RecordsSizeLimit
	if limit == 0 {
		limit = DefaultRecordsSizeLimit
	}
	meta := &storedMeta{Admin: cfg.Admin, WhitelistPhase: cfg.WhitelistPhase, RecordsSizeLimit: limit}
	if err := e.storeMeta(meta); err != nil {
		return err
	}
	return e.AddReservedNames(cfg.Admin, cfg.Reserved)
}

func (e *Engine) adminMeta(caller [20]byte) (*storedMeta, error) {
	if err := e.writable(); err != nil {
		return nil, err
	}
	meta, err := e.loadMeta()
	if err != nil {
		return nil, err
	}
	if isZero(meta.Admin) || meta.Admin != caller {
		return nil, ErrCallerIsNotAdmin
	}
	return meta, nil
}

// Admin returns the current administrator and the pending one, if any.
func (e *Engine) Admin() ([20]byte, *[20]byte, error) {
	if err := e.ready(); err != nil {
		return [20]byte{}, nil, err
	}
	meta, err := e.loadMeta()
	if err != nil {
		return [20]byte{}, nil, err
	}
	if !meta.HasPendingAdmin {
		return meta.Admin, nil, nil
	}
	pending := meta.PendingAdmin
	return meta.Admin, &pending, nil
}

// TransferAdmin nominates newAdmin. The nomination takes effect once accepted.
func (e *Engine) TransferAdmin(caller, newAdmin [20]byte) error {
	meta, err := e.adminMeta(caller)
	if err != nil {
		return err
	}
	if isZero(newAdmin) {
		return ErrInvalidRecipient
	}
	meta.PendingAdmin = newAdmin
	meta.HasPendingAdmin = true
	return e.storeMeta(meta)
}

// AcceptAdmin completes a handover started by TransferAdmin.
func (e *Engine) AcceptAdmin(caller [20]byte) error {
	if err := e.writable(); err != nil {
		return err
	}
	meta, err := e.loadMeta()
	if err != nil {
		return err
	}
	if !meta.HasPendingAdmin || meta.PendingAdmin != caller {
		return ErrCallerIsNotAdmin
	}
	meta.Admin = caller
	meta.PendingAdmin = [20]byte{}
	meta.HasPendingAdmin = false
	return e.storeMeta(meta)
}

// Withdraw moves amount out of the vault to beneficiary, or to the admin when
// beneficiary is nil.
func (e *Engine) Withdraw(caller [20]byte, beneficiary *[20]byte, amount *big.Int) error {
	if _, err := e.adminMeta(caller); err != nil {
		return err
	}
	if e.payments == nil {
		return errNilPayments
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrWithdrawFailed)
	}
	to := caller
	if beneficiary != nil {
		to = *beneficiary
	}
	if isZero(to) {
		return ErrInvalidRecipient
	}
	balance, err := e.payments.Balance(e.vault)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: vault holds %s", ErrInsufficientBalance, balance)
	}
	if err := e.payOut(to, amount, ErrWithdrawFailed); err != nil {
		return err
	}
	e.emit(e.paymentEvent(EventTypeWithdraw, "", to, amount))
	return nil
}

// RecordsSizeLimit returns the byte ceiling applied to a name's records.
func (e *Engine) RecordsSizeLimit() (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	meta, err := e.loadMeta()
	if err != nil {
		return 0, err
	}
	return meta.RecordsSizeLimit, nil
}

// SetRecordsSizeLimit changes the records ceiling. Existing records above the
// new limit are kept until their next update.
func (e *Engine) SetRecordsSizeLimit(caller [20]byte, limit uint64) error {
	meta, err := e.adminMeta(caller)
	if err != nil {
		return err
	}
	if limit == 0 {
		return fmt.Errorf("registry: records size limit must be positive")
	}
	meta.RecordsSizeLimit = limit
	return e.storeMeta(meta)
}
