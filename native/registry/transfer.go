package registry

import "fmt"

// TransferOptions selects which of the current settings survive a transfer.
type TransferOptions struct {
	KeepRecords    bool
	KeepController bool
	KeepResolving  bool
	Data           []byte
}

// Transfer hands name to a new owner. The caller must be the owner or an
// operator approved by the owner. Unless kept, the controller and resolved
// address follow the new owner and the records are cleared. The receiver hook
// of the recipient runs after every local mutation.
func (e *Engine) Transfer(caller, to [20]byte, name string, opts TransferOptions) error {
	if err := e.writable(); err != nil {
		return err
	}
	meta, err := e.loadMeta()
	if err != nil {
		return err
	}
	if meta.WhitelistPhase {
		return ErrRestrictedDuringWhitelistPhase
	}
	if isZero(to) {
		return ErrInvalidRecipient
	}
	rec, err := e.activeName(name)
	if err != nil {
		return err
	}
	from := rec.Owner
	allowed, err := e.isApproved(from, caller, name)
	if err != nil {
		return err
	}
	if caller != from && !allowed {
		return ErrCallerIsNotOwner
	}

	if err := e.moveIndex(RelationOwned, from, to, name); err != nil {
		return err
	}
	rec.Owner = to
	if !opts.KeepController {
		if err := e.moveIndex(RelationControlled, rec.Controller, to, name); err != nil {
			return err
		}
		rec.Controller = to
	}
	if !opts.KeepResolving && rec.Resolved != to {
		if err := e.clearPrimaryIf(rec.Resolved, name); err != nil {
			return err
		}
		if err := e.moveIndex(RelationResolving, rec.Resolved, to, name); err != nil {
			return err
		}
		rec.Resolved = to
	}
	if !opts.KeepRecords {
		if err := e.state.KVDelete(e.keys.records(name)); err != nil {
			return err
		}
	}
	if err := e.state.KVDelete(e.keys.nameApproval(name)); err != nil {
		return err
	}
	if err := e.storeName(rec); err != nil {
		return err
	}
	e.emit(e.nameTransferredEvent(name, from, to, caller))

	if e.receivers == nil {
		return nil
	}
	receiver, ok := e.receivers.ReceiverFor(to)
	if !ok || receiver == nil {
		return nil
	}
	if err := receiver.OnNameReceived(caller, from, name, opts.Data); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferRejected, err)
	}
	return nil
}

// Approve grants or revokes operator rights. With a nil name the approval
// covers every name of the caller; otherwise it covers the named name, which
// the caller must own. Approving oneself is rejected; revoking is not.
func (e *Engine) Approve(caller, operator [20]byte, name *string, approved bool) error {
	if err := e.writable(); err != nil {
		return err
	}
	if approved && operator == caller {
		return ErrSelfApprove
	}
	if isZero(operator) {
		return ErrInvalidRecipient
	}
	if name == nil {
		key := e.keys.operatorApproval(caller, operator)
		if approved {
			if err := e.state.KVPut(key, &storedFlag{Approved: true}); err != nil {
				return err
			}
		} else if err := e.state.KVDelete(key); err != nil {
			return err
		}
		e.emit(e.approvalEvent(caller, operator, nil, approved))
		return nil
	}
	rec, err := e.activeName(*name)
	if err != nil {
		return err
	}
	if rec.Owner != caller {
		return ErrCallerIsNotOwner
	}
	key := e.keys.nameApproval(*name)
	if approved {
		if err := e.state.KVPut(key, &storedApproval{Operator: operator}); err != nil {
			return err
		}
	} else {
		var current storedApproval
		ok, err := e.state.KVGet(key, &current)
		if err != nil {
			return err
		}
		if ok && current.Operator == operator {
			if err := e.state.KVDelete(key); err != nil {
				return err
			}
		}
	}
	e.emit(e.approvalEvent(caller, operator, name, approved))
	return nil
}

// Allowance reports whether operator may transfer name on behalf of owner, or
// any of owner's names when name is nil.
func (e *Engine) Allowance(owner, operator [20]byte, name *string) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	if name == nil {
		return e.hasOperatorApproval(owner, operator)
	}
	rec, ok, err := e.loadActive(*name)
	if err != nil || !ok || rec.Owner != owner {
		return false, err
	}
	return e.isApproved(owner, operator, *name)
}

func (e *Engine) hasOperatorApproval(owner, operator [20]byte) (bool, error) {
	var flag storedFlag
	ok, err := e.state.KVGet(e.keys.operatorApproval(owner, operator), &flag)
	if err != nil {
		return false, err
	}
	return ok && flag.Approved, nil
}

func (e *Engine) isApproved(owner, operator [20]byte, name string) (bool, error) {
	blanket, err := e.hasOperatorApproval(owner, operator)
	if err != nil || blanket {
		return blanket, err
	}
	var current storedApproval
	ok, err := e.state.KVGet(e.keys.nameApproval(name), &current)
	if err != nil {
		return false, err
	}
	return ok && current.Operator == operator, nil
}
