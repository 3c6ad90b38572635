package registry

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"namechain/core/events"
	"namechain/core/types"
	"namechain/native/common"
)

// ModuleName identifies the registry for pause checks.
const ModuleName = "registry"

// NameChecker validates name legality.
type NameChecker interface {
	IsNameAllowed(name string) error
}

// FeeCalculator quotes base price and premium for a name and duration.
type FeeCalculator interface {
	GetNamePrice(name string, years uint64) (base *big.Int, premium *big.Int, err error)
}

// MerkleVerifier holds the whitelist root.
type MerkleVerifier interface {
	UpdateRoot(root [32]byte) error
	VerifyProof(leaf [32]byte, proof [][32]byte) (bool, error)
}

type payments interface {
	Balance(addr [20]byte) (*big.Int, error)
	Transfer(from, to [20]byte, amount *big.Int) error
}

// Engine implements the name registry of a single TLD on top of a key-value
// state backend. Value attached to a call is expected in the vault account
// before the call is made; refunds and payouts leave from it.
type Engine struct {
	tld          string
	keys         keyspace
	vault        [20]byte
	state        storage
	payments     payments
	checker      NameChecker
	fees         FeeCalculator
	verifier     MerkleVerifier
	receivers    ReceiverDirectory
	pauses       common.PauseView
	emitter      events.Emitter
	nowFn        func() int64
	defaultPrice *big.Int

	owned      *Index
	controlled *Index
	resolving  *Index
}

// NewEngine constructs a registry for tld whose funds are held by vault.
func NewEngine(tld string, vault [20]byte) *Engine {
	return &Engine{
		tld:          strings.ToLower(strings.TrimSpace(tld)),
		keys:         newKeyspace(tld),
		vault:        vault,
		emitter:      events.NoopEmitter{},
		nowFn:        func() int64 { return time.Now().Unix() },
		defaultPrice: big.NewInt(1000),
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state storage) {
	e.state = state
	e.owned = newIndex(state, e.keys, RelationOwned)
	e.controlled = newIndex(state, e.keys, RelationControlled)
	e.resolving = newIndex(state, e.keys, RelationResolving)
}

// SetPayments configures the balance ledger used for refunds and payouts.
func (e *Engine) SetPayments(p payments) { e.payments = p }

// SetNameChecker configures the name legality collaborator. A nil checker
// accepts every non-empty name.
func (e *Engine) SetNameChecker(c NameChecker) { e.checker = c }

// SetFeeCalculator configures the price collaborator. Without one every
// registration costs the default price.
func (e *Engine) SetFeeCalculator(c FeeCalculator) { e.fees = c }

// SetMerkleVerifier configures the whitelist root holder.
func (e *Engine) SetMerkleVerifier(v MerkleVerifier) { e.verifier = v }

// SetReceivers configures the directory of transfer receiver hooks.
func (e *Engine) SetReceivers(r ReceiverDirectory) { e.receivers = r }

// SetPauses configures the module pause view.
func (e *Engine) SetPauses(p common.PauseView) { e.pauses = p }

// SetDefaultPrice overrides the price used when no fee calculator is set.
func (e *Engine) SetDefaultPrice(price *big.Int) {
	if price == nil || price.Sign() < 0 {
		return
	}
	e.defaultPrice = new(big.Int).Set(price)
}

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// TLD returns the top-level domain served by the engine.
func (e *Engine) TLD() string { return e.tld }

// Vault returns the account holding registry funds.
func (e *Engine) Vault() [20]byte { return e.vault }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// checkDuration rejects zero durations, durations above the default cap when
// no fee calculator is set, and durations whose expiration overflows int64.
func (e *Engine) checkDuration(years uint64) error {
	if years == 0 {
		return ErrInvalidDuration
	}
	if e.fees == nil && years > DefaultMaxRegistrationYears {
		return fmt.Errorf("%w: %d years (max %d)", ErrInvalidDuration, years, DefaultMaxRegistrationYears)
	}
	now := e.now()
	if now < 0 {
		now = 0
	}
	if years > uint64((math.MaxInt64-now)/YEAR) {
		return fmt.Errorf("%w: %d years overflows the expiration", ErrInvalidDuration, years)
	}
	return nil
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return nil
}

func (e *Engine) writable() error {
	if err := e.ready(); err != nil {
		return err
	}
	return common.Guard(e.pauses, ModuleName)
}

func (e *Engine) index(rel Relation) *Index {
	switch rel {
	case RelationOwned:
		return e.owned
	case RelationControlled:
		return e.controlled
	default:
		return e.resolving
	}
}

func isZero(addr [20]byte) bool {
	return addr == [20]byte{}
}

func (e *Engine) validateName(name string) error {
	if name == "" {
		return ErrNameEmpty
	}
	if e.checker == nil {
		return nil
	}
	if err := e.checker.IsNameAllowed(name); err != nil {
		return fmt.Errorf("%w: %v", ErrNameNotAllowed, err)
	}
	return nil
}

// lifecycle derives the state of name from storage and the current time.
func (e *Engine) lifecycle(name string) (Lifecycle, *storedName, error) {
	rec, ok, err := e.loadName(name)
	if err != nil {
		return LifecycleAvailable, nil, err
	}
	if ok && int64(rec.Expiration) > e.now() {
		return LifecycleActive, rec, nil
	}
	_, reserved, err := e.loadReserved(name)
	if err != nil {
		return LifecycleAvailable, nil, err
	}
	if reserved {
		return LifecycleReserved, rec, nil
	}
	if ok {
		return LifecycleExpired, rec, nil
	}
	return LifecycleAvailable, nil, nil
}

func (e *Engine) activeName(name string) (*storedName, error) {
	state, rec, err := e.lifecycle(name)
	if err != nil {
		return nil, err
	}
	if state != LifecycleActive {
		return nil, ErrNameDoesntExist
	}
	return rec, nil
}

// Register registers reg.Name for the caller.
func (e *Engine) Register(caller [20]byte, reg Registration) error {
	reg.Recipient = caller
	return e.RegisterOnBehalfOf(caller, reg)
}

// RegisterOnBehalfOf registers reg.Name for reg.Recipient, paid by caller.
// Every precondition is checked before the first write.
func (e *Engine) RegisterOnBehalfOf(caller [20]byte, reg Registration) error {
	if err := e.writable(); err != nil {
		return err
	}
	if e.payments == nil {
		return errNilPayments
	}
	if err := e.validateName(reg.Name); err != nil {
		return err
	}
	if isZero(reg.Recipient) {
		return ErrInvalidRecipient
	}
	if err := e.checkDuration(reg.Years); err != nil {
		return err
	}
	if _, reserved, err := e.loadReserved(reg.Name); err != nil {
		return err
	} else if reserved {
		return ErrCannotBuyReservedName
	}
	meta, err := e.loadMeta()
	if err != nil {
		return err
	}
	if meta.WhitelistPhase {
		if err := e.checkWhitelist(caller, reg.Recipient, reg.Proof); err != nil {
			return err
		}
	}
	price, err := e.quote(meta, reg.Name, reg.Recipient, reg.Years, reg.Referrer)
	if err != nil {
		return err
	}
	paid := reg.Paid
	if paid == nil {
		paid = big.NewInt(0)
	}
	total := price.Total()
	if paid.Cmp(total) < 0 {
		return fmt.Errorf("%w: attached %s, price %s", ErrFeeNotPaid, paid, total)
	}
	state, _, err := e.lifecycle(reg.Name)
	if err != nil {
		return err
	}
	if state == LifecycleActive {
		return ErrNameAlreadyExists
	}

	rec, err := e.createName(reg.Name, reg.Recipient, reg.Years)
	if err != nil {
		return err
	}
	e.emit(e.nameRegisteredEvent(rec, caller))
	return e.settle(caller, reg.Name, price, paid)
}

// ClaimReservedName registers a reserved name for its designated claimant at
// no cost for exactly one year.
func (e *Engine) ClaimReservedName(caller [20]byte, name string) error {
	if err := e.writable(); err != nil {
		return err
	}
	reserved, ok, err := e.loadReserved(name)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotReservedName
	}
	if !reserved.HasClaimant || reserved.Claimant != caller {
		return ErrNotAuthorised
	}
	if _, active, err := e.loadActive(name); err != nil {
		return err
	} else if active {
		return ErrNameAlreadyExists
	}
	if err := e.state.KVDelete(e.keys.reserved(name)); err != nil {
		return err
	}
	rec, err := e.createName(name, caller, 1)
	if err != nil {
		return err
	}
	e.emit(e.newEvent(EventTypeReservedClaimed, name, map[string]string{"claimant": addrString(caller)}))
	e.emit(e.nameRegisteredEvent(rec, caller))
	return nil
}

func (e *Engine) loadActive(name string) (*storedName, bool, error) {
	rec, ok, err := e.loadName(name)
	if err != nil || !ok {
		return nil, false, err
	}
	if int64(rec.Expiration) <= e.now() {
		return rec, false, nil
	}
	return rec, true, nil
}

// Release purges an active name owned by the caller.
func (e *Engine) Release(caller [20]byte, name string) error {
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
	rec, err := e.activeName(name)
	if err != nil {
		return err
	}
	if rec.Owner != caller {
		return ErrCallerIsNotOwner
	}
	if err := e.purge(rec); err != nil {
		return err
	}
	e.emit(e.nameReleasedEvent(rec, "released"))
	return nil
}

// ClearExpiredNames purges the expired names among names and reports how many
// were removed. Names that are active, reserved or unknown are skipped.
func (e *Engine) ClearExpiredNames(names []string) (int, error) {
	if err := e.writable(); err != nil {
		return 0, err
	}
	cleared := 0
	for _, name := range names {
		rec, ok, err := e.loadName(name)
		if err != nil {
			return cleared, err
		}
		if !ok || int64(rec.Expiration) > e.now() {
			continue
		}
		if err := e.purge(rec); err != nil {
			return cleared, err
		}
		e.emit(e.nameReleasedEvent(rec, "expired"))
		cleared++
	}
	return cleared, nil
}

// createName writes a fresh record for recipient, replacing any stale expired
// record first.
func (e *Engine) createName(name string, recipient [20]byte, years uint64) (*storedName, error) {
	stale, ok, err := e.loadName(name)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := e.purge(stale); err != nil {
			return nil, err
		}
	}
	now := e.now()
	dict := newAddressDict(recipient)
	rec := &storedName{
		Name:         name,
		Owner:        dict.Owner,
		Controller:   dict.Controller,
		Resolved:     dict.Resolved,
		Registration: uint64(now),
		Expiration:   uint64(now + YEAR*int64(years)),
	}
	if err := e.storeName(rec); err != nil {
		return nil, err
	}
	for _, rel := range []Relation{RelationOwned, RelationControlled, RelationResolving} {
		if err := e.index(rel).Add(recipient, name); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// purge removes every trace of rec: the record, its metadata, its approvals,
// the index entries of all three roles and a primary name pointing at it.
func (e *Engine) purge(rec *storedName) error {
	if err := e.owned.Remove(rec.Owner, rec.Name); err != nil {
		return err
	}
	if err := e.controlled.Remove(rec.Controller, rec.Name); err != nil {
		return err
	}
	if err := e.resolving.Remove(rec.Resolved, rec.Name); err != nil {
		return err
	}
	if err := e.clearPrimaryIf(rec.Resolved, rec.Name); err != nil {
		return err
	}
	if err := e.state.KVDelete(e.keys.records(rec.Name)); err != nil {
		return err
	}
	if err := e.state.KVDelete(e.keys.nameApproval(rec.Name)); err != nil {
		return err
	}
	return e.state.KVDelete(e.keys.name(rec.Name))
}

// moveIndex reassigns name within rel from one account to another.
func (e *Engine) moveIndex(rel Relation, from, to [20]byte, name string) error {
	if from == to {
		return nil
	}
	idx := e.index(rel)
	if err := idx.Remove(from, name); err != nil {
		return err
	}
	return idx.Add(to, name)
}

// GetNameStatus classifies each of names.
func (e *Engine) GetNameStatus(names []string) ([]NameStatus, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	out := make([]NameStatus, 0, len(names))
	for _, name := range names {
		status, err := e.nameStatus(name)
		if err != nil {
			return nil, err
		}
		out = append(out, status)
	}
	return out, nil
}

func (e *Engine) nameStatus(name string) (NameStatus, error) {
	status := NameStatus{Name: name}
	state, rec, err := e.lifecycle(name)
	if err != nil {
		return status, err
	}
	switch state {
	case LifecycleActive:
		dict, period := rec.addresses(), rec.period()
		status.Kind = StatusRegistered
		status.Addresses = &dict
		status.Period = &period
		return status, nil
	case LifecycleReserved:
		reserved, _, err := e.loadReserved(name)
		if err != nil {
			return status, err
		}
		status.Kind = StatusReserved
		if reserved.HasClaimant {
			claimant := reserved.Claimant
			status.ReservedFor = &claimant
		}
		return status, nil
	}
	if e.validateName(name) != nil {
		status.Kind = StatusUnavailable
		return status, nil
	}
	status.Kind = StatusAvailable
	return status, nil
}

// NamesOf returns the active names associated with addr under rel. Expired
// names awaiting a sweep are left out.
func (e *Engine) NamesOf(rel Relation, addr [20]byte) ([]string, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	names, err := e.index(rel).Names(addr)
	if err != nil {
		return nil, err
	}
	active := names[:0]
	for _, name := range names {
		rec, ok, err := e.loadName(name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s %q", errRecordMissing, rel, name)
		}
		if int64(rec.Expiration) > e.now() {
			active = append(active, name)
		}
	}
	return active, nil
}

// GetOwnedNamesOfAddress lists the active names owned by addr.
func (e *Engine) GetOwnedNamesOfAddress(addr [20]byte) ([]string, error) {
	return e.NamesOf(RelationOwned, addr)
}

// GetControlledNamesOfAddress lists the active names controlled by addr.
func (e *Engine) GetControlledNamesOfAddress(addr [20]byte) ([]string, error) {
	return e.NamesOf(RelationControlled, addr)
}

// GetResolvingNamesOfAddress lists the active names resolving to addr.
func (e *Engine) GetResolvingNamesOfAddress(addr [20]byte) ([]string, error) {
	return e.NamesOf(RelationResolving, addr)
}
