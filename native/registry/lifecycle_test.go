package registry

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"namechain/native/common"
)

type rejectChecker struct {
	banned map[string]bool
}

var errBanned = errors.New("banned")

func (c rejectChecker) IsNameAllowed(name string) error {
	if c.banned[name] {
		return errBanned
	}
	return nil
}

func TestRegisterRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(userU, "alice")

	st := f.status("alice")
	if st.Kind != StatusRegistered {
		t.Fatalf("expected registered, got %s", st.Kind)
	}
	if st.Addresses.Owner != userU || st.Addresses.Controller != userU || st.Addresses.Resolved != userU {
		t.Fatalf("unexpected roles %+v", st.Addresses)
	}
	if st.Period.Registration != startTime || st.Period.Expiration != startTime+YEAR {
		t.Fatalf("unexpected period %+v", st.Period)
	}
	for _, rel := range []Relation{RelationOwned, RelationControlled, RelationResolving} {
		if names := f.names(rel, userU); len(names) != 1 || names[0] != "alice" {
			t.Fatalf("%s index: %v", rel, names)
		}
	}
	if f.emitter.count(EventTypeNameRegistered) != 1 || f.emitter.count(EventTypeFeeReceived) != 1 {
		t.Fatalf("expected registration and fee events, got %d events", len(f.emitter.events))
	}
}

func TestRegisterScenarioDefaultPrice(t *testing.T) {
	f := newFixture(t)
	if err := f.register(userU, "alice", 1000); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := f.register(userU, "alice", 1000); !errors.Is(err, ErrNameAlreadyExists) {
		t.Fatalf("expected ErrNameAlreadyExists, got %v", err)
	}
	f.now += YEAR
	if st := f.status("alice"); st.Kind != StatusAvailable {
		t.Fatalf("expected available after a year, got %s", st.Kind)
	}
	if names := f.names(RelationOwned, userU); contains(names, "alice") {
		t.Fatalf("expired name still listed: %v", names)
	}
}

func TestExpiryBoundary(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(userU, "edge")
	f.now = startTime + YEAR - 1
	if st := f.status("edge"); st.Kind != StatusRegistered {
		t.Fatalf("expected registered one second before expiry, got %s", st.Kind)
	}
	f.now = startTime + YEAR
	if st := f.status("edge"); st.Kind != StatusAvailable {
		t.Fatalf("expected available at expiry, got %s", st.Kind)
	}
}

func TestRegisterMultipleYears(t *testing.T) {
	f := newFixture(t)
	err := f.engine.Register(userU, Registration{Name: "long", Years: 3, Paid: f.attach(userU, 1000)})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	period, err := f.engine.GetRegistrationPeriod("long")
	if err != nil {
		t.Fatalf("period: %v", err)
	}
	if period.Expiration != startTime+3*YEAR {
		t.Fatalf("unexpected expiration %d", period.Expiration)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	f.engine.SetNameChecker(rejectChecker{banned: map[string]bool{"bad": true}})

	cases := []struct {
		reg  Registration
		want error
	}{
		{Registration{Name: "", Recipient: userU, Years: 1}, ErrNameEmpty},
		{Registration{Name: "bad", Recipient: userU, Years: 1}, ErrNameNotAllowed},
		{Registration{Name: "ok", Years: 1}, ErrInvalidRecipient},
		{Registration{Name: "ok", Recipient: userU, Years: 0}, ErrInvalidDuration},
		{Registration{Name: "ok", Recipient: userU, Years: 1, Paid: big.NewInt(999)}, ErrFeeNotPaid},
	}
	for _, tc := range cases {
		if err := f.engine.RegisterOnBehalfOf(userU, tc.reg); !errors.Is(err, tc.want) {
			t.Fatalf("%+v: expected %v, got %v", tc.reg, tc.want, err)
		}
	}
	if len(f.names(RelationOwned, userU)) != 0 {
		t.Fatalf("failed registrations left index entries")
	}
	if len(f.emitter.events) != 0 {
		t.Fatalf("failed registrations emitted %d events", len(f.emitter.events))
	}
}

func TestRegisterRefundsExcess(t *testing.T) {
	f := newFixture(t)
	before := f.balance(userU)
	if err := f.register(userU, "alice", 1500); err != nil {
		t.Fatalf("register: %v", err)
	}
	if spent := before - f.balance(userU); spent != 1000 {
		t.Fatalf("expected to spend 1000, spent %d", spent)
	}
	if f.balance(vaultAddr) != 1000 {
		t.Fatalf("vault holds %d", f.balance(vaultAddr))
	}
}

func TestRegisterRefundFailureFailsCall(t *testing.T) {
	f := newFixture(t)
	paid := f.attach(userU, 1500)
	f.bank.refuse[userU] = true
	err := f.engine.Register(userU, Registration{Name: "alice", Years: 1, Paid: paid})
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
}

func TestRegisterOnBehalfOfIndexesRecipient(t *testing.T) {
	f := newFixture(t)
	err := f.engine.RegisterOnBehalfOf(userU, Registration{Name: "gift", Recipient: userV, Years: 1, Paid: f.attach(userU, 1000)})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(f.names(RelationOwned, userU)) != 0 {
		t.Fatalf("payer must not be indexed")
	}
	if names := f.names(RelationOwned, userV); !contains(names, "gift") {
		t.Fatalf("recipient not indexed: %v", names)
	}
}

func TestReRegisterExpiredIsHardReset(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(userU, "alice")
	if err := f.engine.SetController(userU, "alice", userW); err != nil {
		t.Fatalf("set controller: %v", err)
	}
	if err := f.engine.SetAddress(userW, "alice", userW); err != nil {
		t.Fatalf("set address: %v", err)
	}
	if err := f.engine.UpdateRecords(userW, "alice", []RecordChange{{Key: "url", Value: strPtr("x")}}, false); err != nil {
		t.Fatalf("records: %v", err)
	}

	f.now += YEAR
	f.mustRegister(userV, "alice")

	dict, err := f.engine.GetAddressDict("alice")
	if err != nil {
		t.Fatalf("dict: %v", err)
	}
	if dict != newAddressDict(userV) {
		t.Fatalf("expected roles reset to V, got %+v", dict)
	}
	if _, err := f.engine.GetAllRecords("alice"); !errors.Is(err, ErrNoRecordsForName) {
		t.Fatalf("expected records purged, got %v", err)
	}
	for _, rel := range []Relation{RelationOwned, RelationControlled, RelationResolving} {
		for _, addr := range [][20]byte{userU, userW} {
			raw, err := f.engine.index(rel).Names(addr)
			if err != nil {
				t.Fatalf("names: %v", err)
			}
			if contains(raw, "alice") {
				t.Fatalf("stale %s entry for %x", rel, addr)
			}
		}
	}
}

func TestReleasePurgesEverything(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(userU, "alice")
	if err := f.engine.UpdateRecords(userU, "alice", []RecordChange{{Key: "k", Value: strPtr("v")}}, false); err != nil {
		t.Fatalf("records: %v", err)
	}
	if err := f.engine.SetPrimaryName(userU, strPtr("alice")); err != nil {
		t.Fatalf("primary: %v", err)
	}
	if err := f.engine.Release(userV, "alice"); !errors.Is(err, ErrCallerIsNotOwner) {
		t.Fatalf("expected ErrCallerIsNotOwner, got %v", err)
	}
	if err := f.engine.Release(userU, "alice"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if st := f.status("alice"); st.Kind != StatusAvailable {
		t.Fatalf("expected available, got %s", st.Kind)
	}
	if count, _ := f.engine.owned.Count(userU); count != 0 {
		t.Fatalf("owned index not purged")
	}
	if _, err := f.engine.GetPrimaryName(userU); !errors.Is(err, ErrNoResolvedAddress) {
		t.Fatalf("expected primary cleared, got %v", err)
	}
	if err := f.engine.Release(userU, "alice"); !errors.Is(err, ErrNameDoesntExist) {
		t.Fatalf("expected ErrNameDoesntExist, got %v", err)
	}
	if len(f.store.data) == 0 {
		t.Fatalf("metadata unexpectedly removed")
	}
}

func TestClearExpiredNamesIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(userU, "old")
	f.mustRegister(userU, "fresh")
	f.now += YEAR / 2
	if err := f.engine.Register(userU, Registration{Name: "later", Years: 1, Paid: f.attach(userU, 1000)}); err != nil {
		t.Fatalf("register: %v", err)
	}

	cleared, err := f.engine.ClearExpiredNames([]string{"old", "fresh", "later", "unknown"})
	if err != nil || cleared != 0 {
		t.Fatalf("nothing expired yet: cleared=%d err=%v", cleared, err)
	}

	f.now = startTime + YEAR
	cleared, err = f.engine.ClearExpiredNames([]string{"old", "later"})
	if err != nil || cleared != 1 {
		t.Fatalf("expected one cleared, got %d err=%v", cleared, err)
	}
	cleared, err = f.engine.ClearExpiredNames([]string{"old"})
	if err != nil || cleared != 0 {
		t.Fatalf("second sweep must be a no-op: cleared=%d err=%v", cleared, err)
	}
	raw, _ := f.engine.owned.Names(userU)
	if contains(raw, "old") || !contains(raw, "fresh") || !contains(raw, "later") {
		t.Fatalf("unexpected raw owned index %v", raw)
	}
}

func TestStatusClassification(t *testing.T) {
	f := newFixture(t)
	f.engine.SetNameChecker(rejectChecker{banned: map[string]bool{"nope": true}})
	f.mustRegister(userU, "taken")
	claimant := userV
	if err := f.engine.AddReservedNames(adminAddr, []ReservedEntry{{Name: "held", Claimant: &claimant}}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	statuses, err := f.engine.GetNameStatus([]string{"taken", "held", "free", "nope"})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	want := []StatusKind{StatusRegistered, StatusReserved, StatusAvailable, StatusUnavailable}
	for i, st := range statuses {
		if st.Kind != want[i] {
			t.Fatalf("%s: expected %s, got %s", st.Name, want[i], st.Kind)
		}
	}
	if statuses[1].ReservedFor == nil || *statuses[1].ReservedFor != userV {
		t.Fatalf("reserved claimant missing")
	}
}

func TestPausedRegistryRejectsMutations(t *testing.T) {
	f := newFixture(t)
	f.engine.SetPauses(common.NewPauses(ModuleName))
	if err := f.register(userU, "alice", 1000); !errors.Is(err, common.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	if _, err := f.engine.GetNameStatus([]string{"alice"}); err != nil {
		t.Fatalf("queries must keep working: %v", err)
	}
}

func TestRegisterRejectsOutOfRangeDurations(t *testing.T) {
	f := newFixture(t)
	for _, years := range []uint64{DefaultMaxRegistrationYears + 1, 1 << 40, math.MaxUint64} {
		err := f.engine.Register(userU, Registration{Name: "huge", Years: years, Paid: f.attach(userU, 1000)})
		if !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("%d years: expected ErrInvalidDuration, got %v", years, err)
		}
		if _, err := f.engine.GetNamePrice("huge", userU, years, nil); !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("%d years: expected price rejection, got %v", years, err)
		}
	}

	f.engine.SetFeeCalculator(fixedCalculator{base: 1000})
	err := f.engine.Register(userU, Registration{Name: "huge", Years: 1 << 40, Paid: f.attach(userU, 1000)})
	if !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected overflowing expiration to be rejected, got %v", err)
	}
	if err := f.engine.Register(userU, Registration{Name: "huge", Years: DefaultMaxRegistrationYears + 1, Paid: f.attach(userU, 1000)}); err != nil {
		t.Fatalf("calculator bounds should apply instead of the default cap: %v", err)
	}
	period, err := f.engine.GetRegistrationPeriod("huge")
	if err != nil {
		t.Fatalf("period: %v", err)
	}
	if period.Expiration <= period.Registration {
		t.Fatalf("expiration %d not after registration %d", period.Expiration, period.Registration)
	}
	if names := f.names(RelationOwned, userU); len(names) != 1 || names[0] != "huge" {
		t.Fatalf("unexpected owned names %v", names)
	}
}
