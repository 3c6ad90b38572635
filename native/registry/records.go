package registry

import "fmt"

func recordsSize(records []Record) uint64 {
	var size uint64
	for _, rec := range records {
		size += uint64(len(rec.Key) + len(rec.Value))
	}
	return size
}

// UpdateRecords applies changes to the records of name. With removeRest the
// changes apply to an empty set instead of the stored one. The update is
// rejected as a whole when the result exceeds the records size limit.
func (e *Engine) UpdateRecords(caller [20]byte, name string, changes []RecordChange, removeRest bool) error {
	if err := e.writable(); err != nil {
		return err
	}
	rec, err := e.activeName(name)
	if err != nil {
		return err
	}
	if caller != rec.Controller && caller != rec.Owner {
		return ErrCallerIsNotController
	}
	var current []Record
	if !removeRest {
		current, err = e.loadRecords(name)
		if err != nil {
			return err
		}
	}
	updated := applyRecordChanges(current, changes)
	meta, err := e.loadMeta()
	if err != nil {
		return err
	}
	size := recordsSize(updated)
	if size > meta.RecordsSizeLimit {
		return fmt.Errorf("%w: %d bytes exceeds limit %d", ErrRecordsOverflow, size, meta.RecordsSizeLimit)
	}
	if err := e.storeRecords(name, updated); err != nil {
		return err
	}
	e.emit(e.recordsUpdatedEvent(name, len(updated), size))
	return nil
}

// applyRecordChanges upserts in place and appends new keys so existing
// entries keep their order.
func applyRecordChanges(current []Record, changes []RecordChange) []Record {
	out := make([]Record, 0, len(current)+len(changes))
	out = append(out, current...)
	for _, change := range changes {
		pos := -1
		for i := range out {
			if out[i].Key == change.Key {
				pos = i
				break
			}
		}
		switch {
		case change.Value == nil && pos >= 0:
			out = append(out[:pos], out[pos+1:]...)
		case change.Value == nil:
		case pos >= 0:
			out[pos].Value = *change.Value
		default:
			out = append(out, Record{Key: change.Key, Value: *change.Value})
		}
	}
	return out
}

// GetRecord returns the value stored under key for an active name.
func (e *Engine) GetRecord(name, key string) (string, error) {
	records, err := e.GetAllRecords(name)
	if err != nil {
		return "", err
	}
	for _, rec := range records {
		if rec.Key == key {
			return rec.Value, nil
		}
	}
	return "", ErrRecordNotFound
}

// GetAllRecords returns every record of an active name.
func (e *Engine) GetAllRecords(name string) ([]Record, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if _, err := e.activeName(name); err != nil {
		return nil, err
	}
	records, err := e.loadRecords(name)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRecordsForName
	}
	return records, nil
}
