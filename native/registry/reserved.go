package registry

// AddReservedNames reserves each entry's name for its claimant. Entries
// without a claimant block registration but cannot be claimed.
func (e *Engine) AddReservedNames(caller [20]byte, entries []ReservedEntry) error {
	if _, err := e.adminMeta(caller); err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.Name == "" {
			return ErrNameEmpty
		}
		if _, active, err := e.loadActive(entry.Name); err != nil {
			return err
		} else if active {
			return ErrNameAlreadyExists
		}
	}
	for _, entry := range entries {
		stored := storedReserved{}
		if entry.Claimant != nil && !isZero(*entry.Claimant) {
			stored.HasClaimant = true
			stored.Claimant = *entry.Claimant
		}
		if err := e.state.KVPut(e.keys.reserved(entry.Name), &stored); err != nil {
			return err
		}
	}
	return nil
}

// RemoveReservedNames drops the reservation of each name. Unknown names are
// ignored.
func (e *Engine) RemoveReservedNames(caller [20]byte, names []string) error {
	if _, err := e.adminMeta(caller); err != nil {
		return err
	}
	for _, name := range names {
		if err := e.state.KVDelete(e.keys.reserved(name)); err != nil {
			return err
		}
	}
	return nil
}

// GetReservedClaimant reports whether name is reserved and for whom.
func (e *Engine) GetReservedClaimant(name string) (*[20]byte, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	reserved, ok, err := e.loadReserved(name)
	if err != nil || !ok {
		return nil, ok, err
	}
	if !reserved.HasClaimant {
		return nil, true, nil
	}
	claimant := reserved.Claimant
	return &claimant, true, nil
}
