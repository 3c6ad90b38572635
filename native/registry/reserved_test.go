package registry

import (
	"errors"
	"testing"
)

func TestReservedClaimScenario(t *testing.T) {
	f := newFixture(t)
	claimant := userV
	if err := f.engine.AddReservedNames(adminAddr, []ReservedEntry{{Name: "bob", Claimant: &claimant}}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := f.engine.ClaimReservedName(userW, "bob"); !errors.Is(err, ErrNotAuthorised) {
		t.Fatalf("expected ErrNotAuthorised, got %v", err)
	}
	before := f.balance(userV)
	if err := f.engine.ClaimReservedName(userV, "bob"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if f.balance(userV) != before {
		t.Fatalf("claiming must be free")
	}
	st := f.status("bob")
	if st.Kind != StatusRegistered || st.Addresses.Owner != userV {
		t.Fatalf("expected registered to V, got %+v", st)
	}
	if st.Period.Expiration-st.Period.Registration != YEAR {
		t.Fatalf("claim must grant exactly one year")
	}
	if _, reserved, _ := f.engine.GetReservedClaimant("bob"); reserved {
		t.Fatalf("claimed name still reserved")
	}
	if f.emitter.count(EventTypeReservedClaimed) != 1 {
		t.Fatalf("missing claim event")
	}
}

func TestReservedNameCannotBeBought(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.AddReservedNames(adminAddr, []ReservedEntry{{Name: "vip"}}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := f.register(userU, "vip", 1000); !errors.Is(err, ErrCannotBuyReservedName) {
		t.Fatalf("expected ErrCannotBuyReservedName, got %v", err)
	}
	if err := f.engine.ClaimReservedName(userU, "vip"); !errors.Is(err, ErrNotAuthorised) {
		t.Fatalf("unassigned reservation must not be claimable, got %v", err)
	}
	if err := f.engine.ClaimReservedName(userU, "plain"); !errors.Is(err, ErrNotReservedName) {
		t.Fatalf("expected ErrNotReservedName, got %v", err)
	}
	if err := f.engine.RemoveReservedNames(adminAddr, []string{"vip"}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := f.register(userU, "vip", 1000); err != nil {
		t.Fatalf("register after unreserve: %v", err)
	}
}

func TestReservedAdminRules(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.AddReservedNames(userU, []ReservedEntry{{Name: "x"}}); !errors.Is(err, ErrCallerIsNotAdmin) {
		t.Fatalf("expected ErrCallerIsNotAdmin, got %v", err)
	}
	if err := f.engine.RemoveReservedNames(userU, []string{"x"}); !errors.Is(err, ErrCallerIsNotAdmin) {
		t.Fatalf("expected ErrCallerIsNotAdmin, got %v", err)
	}
	f.mustRegister(userU, "live")
	if err := f.engine.AddReservedNames(adminAddr, []ReservedEntry{{Name: "other"}, {Name: "live"}}); !errors.Is(err, ErrNameAlreadyExists) {
		t.Fatalf("expected ErrNameAlreadyExists, got %v", err)
	}
	if _, reserved, _ := f.engine.GetReservedClaimant("other"); reserved {
		t.Fatalf("rejected batch must not be partially applied")
	}
}

func TestClaimReservedOverExpiredName(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(userU, "alice")
	f.now += YEAR
	claimant := userV
	if err := f.engine.AddReservedNames(adminAddr, []ReservedEntry{{Name: "alice", Claimant: &claimant}}); err != nil {
		t.Fatalf("reserve expired name: %v", err)
	}
	if st := f.status("alice"); st.Kind != StatusReserved {
		t.Fatalf("expected reserved, got %s", st.Kind)
	}
	if err := f.engine.ClaimReservedName(userV, "alice"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	raw, _ := f.engine.owned.Names(userU)
	if contains(raw, "alice") {
		t.Fatalf("stale owner entry survived the claim")
	}
}
