package registry

// SetAddress points name at addr. Only the controller may change it. A
// primary name of the previous address that pointed at name is cleared.
func (e *Engine) SetAddress(caller [20]byte, name string, addr [20]byte) error {
	if err := e.writable(); err != nil {
		return err
	}
	rec, err := e.activeName(name)
	if err != nil {
		return err
	}
	if caller != rec.Controller {
		return ErrCallerIsNotController
	}
	if isZero(addr) {
		return ErrInvalidRecipient
	}
	previous := rec.Resolved
	if previous != addr {
		if err := e.clearPrimaryIf(previous, name); err != nil {
			return err
		}
		if err := e.moveIndex(RelationResolving, previous, addr, name); err != nil {
			return err
		}
	}
	rec.Resolved = addr
	if err := e.storeName(rec); err != nil {
		return err
	}
	e.emit(e.roleSetEvent(EventTypeAddressSet, name, previous, addr))
	return nil
}

// SetController hands control of name to controller. The owner or the
// current controller may call it.
func (e *Engine) SetController(caller [20]byte, name string, controller [20]byte) error {
	if err := e.writable(); err != nil {
		return err
	}
	rec, err := e.activeName(name)
	if err != nil {
		return err
	}
	if caller != rec.Owner && caller != rec.Controller {
		return ErrCallerIsNotOwner
	}
	if isZero(controller) {
		return ErrInvalidRecipient
	}
	previous := rec.Controller
	if err := e.moveIndex(RelationControlled, previous, controller, name); err != nil {
		return err
	}
	rec.Controller = controller
	if err := e.storeName(rec); err != nil {
		return err
	}
	e.emit(e.roleSetEvent(EventTypeControllerSet, name, previous, controller))
	return nil
}

// GetAddressDict returns the roles of an active name.
func (e *Engine) GetAddressDict(name string) (AddressDict, error) {
	if err := e.ready(); err != nil {
		return AddressDict{}, err
	}
	rec, err := e.activeName(name)
	if err != nil {
		return AddressDict{}, err
	}
	return rec.addresses(), nil
}

// GetAddress returns the resolved address of an active name.
func (e *Engine) GetAddress(name string) ([20]byte, error) {
	dict, err := e.GetAddressDict(name)
	return dict.Resolved, err
}

// GetOwner returns the owner of an active name.
func (e *Engine) GetOwner(name string) ([20]byte, error) {
	dict, err := e.GetAddressDict(name)
	return dict.Owner, err
}

// GetController returns the controller of an active name.
func (e *Engine) GetController(name string) ([20]byte, error) {
	dict, err := e.GetAddressDict(name)
	return dict.Controller, err
}

// GetRegistrationPeriod returns the registration window of an active name.
func (e *Engine) GetRegistrationPeriod(name string) (Period, error) {
	if err := e.ready(); err != nil {
		return Period{}, err
	}
	rec, err := e.activeName(name)
	if err != nil {
		return Period{}, err
	}
	return rec.period(), nil
}

// GetNameRecord returns the full record of an active name.
func (e *Engine) GetNameRecord(name string) (*NameRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	rec, err := e.activeName(name)
	if err != nil {
		return nil, err
	}
	return rec.record(), nil
}

// SetPrimaryName makes name the primary name of the caller, or clears it when
// name is nil. The name must be active and resolve to the caller.
func (e *Engine) SetPrimaryName(caller [20]byte, name *string) error {
	if err := e.writable(); err != nil {
		return err
	}
	if name == nil {
		if err := e.state.KVDelete(e.keys.primary(caller)); err != nil {
			return err
		}
		e.emit(e.primarySetEvent(caller, ""))
		return nil
	}
	rec, err := e.activeName(*name)
	if err != nil {
		return err
	}
	if rec.Resolved != caller {
		return ErrNoResolvedAddress
	}
	if err := e.state.KVPut(e.keys.primary(caller), &storedPrimary{Name: *name}); err != nil {
		return err
	}
	e.emit(e.primarySetEvent(caller, *name))
	return nil
}

// GetPrimaryName returns the primary name of addr after checking that it is
// still active and still resolves to addr.
func (e *Engine) GetPrimaryName(addr [20]byte) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	var primary storedPrimary
	ok, err := e.state.KVGet(e.keys.primary(addr), &primary)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoResolvedAddress
	}
	rec, active, err := e.loadActive(primary.Name)
	if err != nil {
		return "", err
	}
	if !active || rec.Resolved != addr {
		return "", ErrNoResolvedAddress
	}
	return primary.Name, nil
}

func (e *Engine) clearPrimaryIf(addr [20]byte, name string) error {
	var primary storedPrimary
	ok, err := e.state.KVGet(e.keys.primary(addr), &primary)
	if err != nil {
		return err
	}
	if !ok || primary.Name != name {
		return nil
	}
	return e.state.KVDelete(e.keys.primary(addr))
}
