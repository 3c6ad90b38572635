package registry

import (
	"namechain/native/merkle"
)

// IsWhitelistPhase reports whether registrations are still gated by the
// whitelist.
func (e *Engine) IsWhitelistPhase() (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	meta, err := e.loadMeta()
	if err != nil {
		return false, err
	}
	return meta.WhitelistPhase, nil
}

// VerifyProof reports whether proof places account in the whitelist. A
// missing proof or verifier never verifies.
func (e *Engine) VerifyProof(account [20]byte, proof [][32]byte) (bool, error) {
	if proof == nil || e.verifier == nil {
		return false, nil
	}
	return e.verifier.VerifyProof(merkle.AccountLeaf(account[:]), proof)
}

// checkWhitelist enforces the whitelist rules for a registration: no
// delegated claims, one name per account and a valid membership proof.
func (e *Engine) checkWhitelist(caller, recipient [20]byte, proof [][32]byte) error {
	if recipient != caller {
		return ErrRestrictedDuringWhitelistPhase
	}
	count, err := e.owned.Count(caller)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrAlreadyClaimed
	}
	ok, err := e.VerifyProof(caller, proof)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidMerkleProof
	}
	return nil
}

// SwitchToPublicPhase permanently ends the whitelist phase.
func (e *Engine) SwitchToPublicPhase(caller [20]byte) error {
	meta, err := e.adminMeta(caller)
	if err != nil {
		return err
	}
	if !meta.WhitelistPhase {
		return nil
	}
	meta.WhitelistPhase = false
	if err := e.storeMeta(meta); err != nil {
		return err
	}
	e.emit(e.newEvent(EventTypePublicPhaseActivated, "", nil))
	return nil
}

// UpdateMerkleRoot replaces the whitelist root. Only valid while the phase is
// active.
func (e *Engine) UpdateMerkleRoot(caller [20]byte, root [32]byte) error {
	meta, err := e.adminMeta(caller)
	if err != nil {
		return err
	}
	if !meta.WhitelistPhase || e.verifier == nil {
		return ErrOnlyDuringWhitelistPhase
	}
	return e.verifier.UpdateRoot(root)
}
