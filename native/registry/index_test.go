package registry

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"
)

func TestIndexRandomOperationsStayDense(t *testing.T) {
	store := newMemoryStore()
	idx := newIndex(store, newKeyspace("nc"), RelationOwned)
	accounts := [][20]byte{{1}, {2}, {3}}
	model := map[[20]byte]map[string]bool{}
	for _, acc := range accounts {
		model[acc] = map[string]bool{}
	}
	rng := rand.New(rand.NewSource(42))

	for step := 0; step < 2000; step++ {
		acc := accounts[rng.Intn(len(accounts))]
		name := fmt.Sprintf("n%d", rng.Intn(25))
		if model[acc][name] && rng.Intn(2) == 0 {
			if err := idx.Remove(acc, name); err != nil {
				t.Fatalf("step %d: remove: %v", step, err)
			}
			delete(model[acc], name)
		} else if !model[acc][name] {
			if err := idx.Add(acc, name); err != nil {
				t.Fatalf("step %d: add: %v", step, err)
			}
			model[acc][name] = true
		}

		names, err := idx.Names(acc)
		if err != nil {
			t.Fatalf("step %d: names: %v", step, err)
		}
		count, err := idx.Count(acc)
		if err != nil {
			t.Fatalf("step %d: count: %v", step, err)
		}
		if uint64(len(names)) != count || len(names) != len(model[acc]) {
			t.Fatalf("step %d: count=%d listed=%d model=%d", step, count, len(names), len(model[acc]))
		}
		seen := map[string]bool{}
		for _, n := range names {
			if seen[n] {
				t.Fatalf("step %d: duplicate %q", step, n)
			}
			if !model[acc][n] {
				t.Fatalf("step %d: unexpected %q", step, n)
			}
			seen[n] = true
		}
	}
}

func TestIndexRemoveSwapsLastIntoHole(t *testing.T) {
	idx := newIndex(newMemoryStore(), newKeyspace("nc"), RelationControlled)
	acc := [20]byte{7}
	for _, n := range []string{"a", "b", "c", "d"} {
		if err := idx.Add(acc, n); err != nil {
			t.Fatalf("add %s: %v", n, err)
		}
	}
	if err := idx.Remove(acc, "b"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	names, _ := idx.Names(acc)
	want := []string{"a", "d", "c"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	if ok, _ := idx.Contains(acc, "b"); ok {
		t.Fatalf("removed name still indexed")
	}
	for _, n := range []string{"a", "d", "c"} {
		if err := idx.Remove(acc, n); err != nil {
			t.Fatalf("remove %s: %v", n, err)
		}
	}
	if count, _ := idx.Count(acc); count != 0 {
		t.Fatalf("expected empty index, count=%d", count)
	}
}

func TestIndexRemoveUnknownIsInvariantViolation(t *testing.T) {
	idx := newIndex(newMemoryStore(), newKeyspace("nc"), RelationResolving)
	if err := idx.Remove([20]byte{1}, "ghost"); !errors.Is(err, errIndexMissing) {
		t.Fatalf("expected invariant error, got %v", err)
	}
}

func TestIndexRelationsAreIndependent(t *testing.T) {
	store := newMemoryStore()
	keys := newKeyspace("nc")
	owned := newIndex(store, keys, RelationOwned)
	resolving := newIndex(store, keys, RelationResolving)
	acc := [20]byte{1}
	if err := owned.Add(acc, "x"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := owned.Add(acc, "x"); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if count, _ := owned.Count(acc); count != 1 {
		t.Fatalf("duplicate add changed count to %d", count)
	}
	if names, _ := resolving.Names(acc); len(names) != 0 {
		t.Fatalf("resolving relation leaked %v", names)
	}
	list, _ := owned.Names(acc)
	sort.Strings(list)
	if len(list) != 1 || list[0] != "x" {
		t.Fatalf("unexpected owned names %v", list)
	}
}

func TestNamesOfIndexedNameWithoutRecordIsInvariantViolation(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(userU, "alice")
	if err := f.store.KVDelete(f.engine.keys.name("alice")); err != nil {
		t.Fatalf("delete record: %v", err)
	}
	if _, err := f.engine.NamesOf(RelationOwned, userU); !errors.Is(err, errRecordMissing) {
		t.Fatalf("expected invariant error, got %v", err)
	}
}
