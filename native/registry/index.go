package registry

import (
	"fmt"
	"strconv"
)

// Index is an account to name-set relation stored as a dense positional array
// plus a name to position map. Add and Remove are O(1); positions 0..count-1
// are always occupied.
type Index struct {
	store storage
	keys  keyspace
	rel   Relation
}

func newIndex(store storage, keys keyspace, rel Relation) *Index {
	return &Index{store: store, keys: keys, rel: rel}
}

type storedCount struct {
	Value uint64
}

type storedSlot struct {
	Name string
}

type storedPosition struct {
	Value uint64
}

func (idx *Index) countKey(addr [20]byte) []byte {
	return []byte(idx.keys.indexBase(idx.rel, addr) + "count")
}

func (idx *Index) slotKey(addr [20]byte, pos uint64) []byte {
	return []byte(idx.keys.indexBase(idx.rel, addr) + "at/" + strconv.FormatUint(pos, 10))
}

func (idx *Index) positionKey(addr [20]byte, name string) []byte {
	return []byte(idx.keys.indexBase(idx.rel, addr) + "pos/" + name)
}

// Count returns the number of names associated with addr.
func (idx *Index) Count(addr [20]byte) (uint64, error) {
	var count storedCount
	if _, err := idx.store.KVGet(idx.countKey(addr), &count); err != nil {
		return 0, err
	}
	return count.Value, nil
}

func (idx *Index) position(addr [20]byte, name string) (uint64, bool, error) {
	var pos storedPosition
	ok, err := idx.store.KVGet(idx.positionKey(addr, name), &pos)
	if err != nil || !ok {
		return 0, false, err
	}
	return pos.Value, true, nil
}

// Contains reports whether name is currently associated with addr.
func (idx *Index) Contains(addr [20]byte, name string) (bool, error) {
	_, ok, err := idx.position(addr, name)
	return ok, err
}

// Add appends name to the set of addr. Adding a present name is a no-op.
func (idx *Index) Add(addr [20]byte, name string) error {
	if _, ok, err := idx.position(addr, name); err != nil || ok {
		return err
	}
	count, err := idx.Count(addr)
	if err != nil {
		return err
	}
	if err := idx.store.KVPut(idx.slotKey(addr, count), &storedSlot{Name: name}); err != nil {
		return err
	}
	if err := idx.store.KVPut(idx.positionKey(addr, name), &storedPosition{Value: count}); err != nil {
		return err
	}
	return idx.store.KVPut(idx.countKey(addr), &storedCount{Value: count + 1})
}

// Remove drops name from the set of addr by moving the last entry into the
// vacated slot. Removing a name that is not associated with addr is an
// invariant violation.
func (idx *Index) Remove(addr [20]byte, name string) error {
	pos, ok, err := idx.position(addr, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s %q", errIndexMissing, idx.rel, name)
	}
	count, err := idx.Count(addr)
	if err != nil {
		return err
	}
	if count == 0 || pos >= count {
		return fmt.Errorf("%w: %s %q at %d of %d", errIndexPosition, idx.rel, name, pos, count)
	}
	last := count - 1
	if pos != last {
		var moved storedSlot
		found, err := idx.store.KVGet(idx.slotKey(addr, last), &moved)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: %s slot %d empty", errIndexPosition, idx.rel, last)
		}
		if err := idx.store.KVPut(idx.slotKey(addr, pos), &moved); err != nil {
			return err
		}
		if err := idx.store.KVPut(idx.positionKey(addr, moved.Name), &storedPosition{Value: pos}); err != nil {
			return err
		}
	}
	if err := idx.store.KVDelete(idx.slotKey(addr, last)); err != nil {
		return err
	}
	if err := idx.store.KVDelete(idx.positionKey(addr, name)); err != nil {
		return err
	}
	if last == 0 {
		return idx.store.KVDelete(idx.countKey(addr))
	}
	return idx.store.KVPut(idx.countKey(addr), &storedCount{Value: last})
}

// Names enumerates the set of addr in positional order.
func (idx *Index) Names(addr [20]byte) ([]string, error) {
	count, err := idx.Count(addr)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for pos := uint64(0); pos < count; pos++ {
		var slot storedSlot
		ok, err := idx.store.KVGet(idx.slotKey(addr, pos), &slot)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s slot %d empty", errIndexPosition, idx.rel, pos)
		}
		names = append(names, slot.Name)
	}
	return names, nil
}
