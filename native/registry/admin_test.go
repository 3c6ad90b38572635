package registry

import (
	"errors"
	"math/big"
	"testing"
)

func TestWithdraw(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(userU, "alice")
	if err := f.engine.Withdraw(userU, nil, big.NewInt(1)); !errors.Is(err, ErrCallerIsNotAdmin) {
		t.Fatalf("expected ErrCallerIsNotAdmin, got %v", err)
	}
	if err := f.engine.Withdraw(adminAddr, nil, big.NewInt(5000)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	beneficiary := userR
	before := f.balance(userR)
	if err := f.engine.Withdraw(adminAddr, &beneficiary, big.NewInt(400)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if f.balance(userR)-before != 400 {
		t.Fatalf("beneficiary not paid")
	}
	if err := f.engine.Withdraw(adminAddr, nil, big.NewInt(600)); err != nil {
		t.Fatalf("withdraw to admin: %v", err)
	}
	if f.balance(adminAddr) != 600 || f.balance(vaultAddr) != 0 {
		t.Fatalf("unexpected balances admin=%d vault=%d", f.balance(adminAddr), f.balance(vaultAddr))
	}
	if f.emitter.count(EventTypeWithdraw) != 2 {
		t.Fatalf("expected two withdraw events")
	}
}

func TestWithdrawTransferFailure(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(userU, "alice")
	f.bank.refuse[adminAddr] = true
	if err := f.engine.Withdraw(adminAddr, nil, big.NewInt(10)); !errors.Is(err, ErrWithdrawFailed) {
		t.Fatalf("expected ErrWithdrawFailed, got %v", err)
	}
}

func TestTwoStepAdminHandover(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.TransferAdmin(userU, userV); !errors.Is(err, ErrCallerIsNotAdmin) {
		t.Fatalf("expected ErrCallerIsNotAdmin, got %v", err)
	}
	if err := f.engine.TransferAdmin(adminAddr, userV); err != nil {
		t.Fatalf("nominate: %v", err)
	}
	admin, pending, err := f.engine.Admin()
	if err != nil || admin != adminAddr || pending == nil || *pending != userV {
		t.Fatalf("unexpected admin state %x %v %v", admin, pending, err)
	}
	if err := f.engine.AcceptAdmin(userW); !errors.Is(err, ErrCallerIsNotAdmin) {
		t.Fatalf("expected ErrCallerIsNotAdmin, got %v", err)
	}
	if err := f.engine.AcceptAdmin(userV); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := f.engine.SetRecordsSizeLimit(adminAddr, 10); !errors.Is(err, ErrCallerIsNotAdmin) {
		t.Fatalf("previous admin kept rights: %v", err)
	}
	if err := f.engine.SetRecordsSizeLimit(userV, 10); err != nil {
		t.Fatalf("new admin: %v", err)
	}
	if limit, _ := f.engine.RecordsSizeLimit(); limit != 10 {
		t.Fatalf("limit not applied: %d", limit)
	}
}
