package router

import (
	"errors"
	"testing"
)

var errMissing = errors.New("missing")

type stubResolver struct {
	addresses map[string][20]byte
	primaries map[[20]byte]string
}

func (s stubResolver) GetAddress(name string) ([20]byte, error) {
	addr, ok := s.addresses[name]
	if !ok {
		return [20]byte{}, errMissing
	}
	return addr, nil
}

func (s stubResolver) GetPrimaryName(addr [20]byte) (string, error) {
	name, ok := s.primaries[addr]
	if !ok {
		return "", errMissing
	}
	return name, nil
}

func TestAddRegistry(t *testing.T) {
	admin := [20]byte{1}
	r := New(admin)
	if err := r.AddRegistry([20]byte{2}, "nc", stubResolver{}); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
	if err := r.AddRegistry(admin, "NC", stubResolver{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.AddRegistry(admin, "nc", stubResolver{}); !errors.Is(err, ErrTLDAlreadyInUse) {
		t.Fatalf("expected ErrTLDAlreadyInUse, got %v", err)
	}
	if _, ok := r.GetRegistry("nc"); !ok {
		t.Fatalf("expected registry for nc")
	}
	if got := r.TLDs(); len(got) != 1 || got[0] != "nc" {
		t.Fatalf("unexpected tlds %v", got)
	}
}

func TestForwardsLookups(t *testing.T) {
	admin := [20]byte{1}
	holder := [20]byte{9}
	r := New(admin)
	resolver := stubResolver{
		addresses: map[string][20]byte{"alice": holder},
		primaries: map[[20]byte]string{holder: "alice"},
	}
	if err := r.AddRegistry(admin, "nc", resolver); err != nil {
		t.Fatalf("add: %v", err)
	}
	addr, err := r.GetAddress("alice.nc")
	if err != nil || addr != holder {
		t.Fatalf("resolve: %x %v", addr, err)
	}
	if _, err := r.GetAddress("alice.xyz"); !errors.Is(err, ErrUnknownTLD) {
		t.Fatalf("expected ErrUnknownTLD, got %v", err)
	}
	if _, err := r.GetAddress("alice"); !errors.Is(err, ErrMalformedAddress) {
		t.Fatalf("expected ErrMalformedAddress, got %v", err)
	}
	primary, err := r.GetPrimaryName("nc", holder)
	if err != nil || primary != "alice.nc" {
		t.Fatalf("primary: %q %v", primary, err)
	}
}

func TestSetAdmin(t *testing.T) {
	admin, next := [20]byte{1}, [20]byte{2}
	r := New(admin)
	if err := r.SetAdmin(next, next); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
	if err := r.SetAdmin(admin, next); err != nil {
		t.Fatalf("set admin: %v", err)
	}
	if r.Admin() != next {
		t.Fatalf("admin not updated")
	}
}

func TestSplitDomain(t *testing.T) {
	name, tld, err := SplitDomain("sub.alice.NC.")
	if err != nil || name != "sub.alice" || tld != "nc" {
		t.Fatalf("split: %q %q %v", name, tld, err)
	}
}
