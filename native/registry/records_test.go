package registry

import (
	"errors"
	"strings"
	"testing"
)

func TestUpdateRecordsUpsertAndDelete(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(userU, "alice")
	err := f.engine.UpdateRecords(userU, "alice", []RecordChange{
		{Key: "url", Value: strPtr("https://a")},
		{Key: "mail", Value: strPtr("a@b")},
	}, false)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	err = f.engine.UpdateRecords(userU, "alice", []RecordChange{
		{Key: "url", Value: strPtr("https://b")},
		{Key: "mail"},
		{Key: "missing"},
		{Key: "tw", Value: strPtr("@a")},
	}, false)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	records, err := f.engine.GetAllRecords("alice")
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 2 || records[0] != (Record{Key: "url", Value: "https://b"}) || records[1] != (Record{Key: "tw", Value: "@a"}) {
		t.Fatalf("unexpected records %+v", records)
	}
	if _, err := f.engine.GetRecord("alice", "mail"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestUpdateRecordsRemoveRest(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(userU, "alice")
	_ = f.engine.UpdateRecords(userU, "alice", []RecordChange{{Key: "a", Value: strPtr("1")}, {Key: "b", Value: strPtr("2")}}, false)
	if err := f.engine.UpdateRecords(userU, "alice", []RecordChange{{Key: "c", Value: strPtr("3")}}, true); err != nil {
		t.Fatalf("update: %v", err)
	}
	records, _ := f.engine.GetAllRecords("alice")
	if len(records) != 1 || records[0].Key != "c" {
		t.Fatalf("expected only c, got %+v", records)
	}
	if err := f.engine.UpdateRecords(userU, "alice", nil, true); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := f.engine.GetAllRecords("alice"); !errors.Is(err, ErrNoRecordsForName) {
		t.Fatalf("expected ErrNoRecordsForName, got %v", err)
	}
}

func TestUpdateRecordsOverflowLeavesRecordsUntouched(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(userU, "alice")
	if err := f.engine.SetRecordsSizeLimit(adminAddr, 10); err != nil {
		t.Fatalf("limit: %v", err)
	}
	if err := f.engine.UpdateRecords(userU, "alice", []RecordChange{{Key: "k", Value: strPtr("123456789")}}, false); err != nil {
		t.Fatalf("record at limit: %v", err)
	}
	err := f.engine.UpdateRecords(userU, "alice", []RecordChange{{Key: "k", Value: strPtr("0")}, {Key: "x", Value: strPtr(strings.Repeat("z", 9))}}, false)
	if !errors.Is(err, ErrRecordsOverflow) {
		t.Fatalf("expected ErrRecordsOverflow, got %v", err)
	}
	if v, _ := f.engine.GetRecord("alice", "k"); v != "123456789" {
		t.Fatalf("partial write committed: %q", v)
	}
}

func TestUpdateRecordsAuthorization(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(userU, "alice")
	if err := f.engine.SetController(userU, "alice", userW); err != nil {
		t.Fatalf("controller: %v", err)
	}
	change := []RecordChange{{Key: "k", Value: strPtr("v")}}
	if err := f.engine.UpdateRecords(userV, "alice", change, false); !errors.Is(err, ErrCallerIsNotController) {
		t.Fatalf("expected ErrCallerIsNotController, got %v", err)
	}
	if err := f.engine.UpdateRecords(userW, "alice", change, false); err != nil {
		t.Fatalf("controller update: %v", err)
	}
	if err := f.engine.UpdateRecords(userU, "alice", change, false); err != nil {
		t.Fatalf("owner update: %v", err)
	}
	f.now += YEAR
	if err := f.engine.UpdateRecords(userU, "alice", change, false); !errors.Is(err, ErrNameDoesntExist) {
		t.Fatalf("expected ErrNameDoesntExist after expiry, got %v", err)
	}
}
