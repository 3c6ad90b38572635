package core

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"namechain/core/events"
	coreerrors "namechain/core/errors"
	"namechain/core/genesis"
	"namechain/core/state"
	"namechain/core/types"
	"namechain/native/bank"
	nativecommon "namechain/native/common"
	"namechain/native/registry"
	"namechain/storage/trie"
)

// StateProcessor applies transactions to the state trie. A transaction either
// applies completely or leaves the trie as it found it.
type StateProcessor struct {
	Trie          *trie.Trie
	genesis       *genesis.Genesis
	pauses        nativecommon.PauseView
	receivers     registry.ReceiverDirectory
	committedRoot common.Hash
	events        []types.Event
}

// NewStateProcessor binds a processor to tr using the chain parameters of g.
func NewStateProcessor(tr *trie.Trie, g *genesis.Genesis) (*StateProcessor, error) {
	if tr == nil {
		return nil, fmt.Errorf("state processor: nil trie")
	}
	if g == nil {
		return nil, fmt.Errorf("state processor: nil genesis")
	}
	return &StateProcessor{
		Trie:          tr,
		genesis:       g,
		committedRoot: tr.Root(),
		events:        make([]types.Event, 0),
	}, nil
}

// SetPauses installs the module pause view consulted by the registry.
func (sp *StateProcessor) SetPauses(p nativecommon.PauseView) { sp.pauses = p }

// SetReceivers installs the directory of name-transfer receivers.
func (sp *StateProcessor) SetReceivers(r registry.ReceiverDirectory) { sp.receivers = r }

// CurrentRoot returns the last committed state root.
func (sp *StateProcessor) CurrentRoot() common.Hash {
	return sp.committedRoot
}

// PendingRoot returns the root of the trie including in-memory mutations.
func (sp *StateProcessor) PendingRoot() common.Hash {
	return sp.Trie.Hash()
}

// ResetToRoot discards any in-memory changes and reloads the trie at the
// provided root hash.
func (sp *StateProcessor) ResetToRoot(root common.Hash) error {
	if err := sp.Trie.Reset(root); err != nil {
		return err
	}
	sp.committedRoot = root
	return nil
}

// Commit persists the current trie contents and returns the resulting state
// root.
func (sp *StateProcessor) Commit(blockNumber uint64) (common.Hash, error) {
	newRoot, err := sp.Trie.Commit(sp.committedRoot, blockNumber)
	if err != nil {
		return common.Hash{}, err
	}
	sp.committedRoot = newRoot
	return newRoot, nil
}

// Events returns the events buffered since the last DrainEvents.
func (sp *StateProcessor) Events() []types.Event {
	out := make([]types.Event, len(sp.events))
	copy(out, sp.events)
	return out
}

// DrainEvents returns and clears the buffered events.
func (sp *StateProcessor) DrainEvents() []types.Event {
	out := sp.events
	sp.events = make([]types.Event, 0)
	return out
}

type eventWithPayload interface {
	Event() *types.Event
}

type bufferEmitter struct {
	buf *[]types.Event
}

func (b bufferEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	payload, ok := evt.(eventWithPayload)
	if !ok {
		return
	}
	event := payload.Event()
	if event == nil {
		return
	}
	*b.buf = append(*b.buf, *event)
}

// Registry returns an engine over the processor's state that discards events.
func (sp *StateProcessor) Registry(now int64) *registry.Engine {
	return sp.newRegistry(state.NewManager(sp.Trie), now, events.NoopEmitter{})
}

func (sp *StateProcessor) newRegistry(manager *state.Manager, now int64, emitter events.Emitter) *registry.Engine {
	engine := sp.genesis.NewRegistry(manager)
	engine.SetEmitter(emitter)
	engine.SetNowFunc(func() int64 { return now })
	if sp.pauses != nil {
		engine.SetPauses(sp.pauses)
	}
	if sp.receivers != nil {
		engine.SetReceivers(sp.receivers)
	}
	return engine
}

// GetAccount returns the account for addr from the working state.
func (sp *StateProcessor) GetAccount(addr []byte) (*types.Account, error) {
	return state.NewManager(sp.Trie).GetAccount(addr)
}

// ApplyTransaction executes tx at block time now. On error every change made
// by the transaction is discarded and no event is kept.
func (sp *StateProcessor) ApplyTransaction(tx *types.Transaction, now int64) error {
	if tx == nil {
		return coreerrors.ErrNilTransaction
	}
	if tx.ChainID != sp.genesis.ChainID {
		return fmt.Errorf("%w: got %d want %d", coreerrors.ErrChainIDMismatch, tx.ChainID, sp.genesis.ChainID)
	}
	fromBytes, err := tx.From()
	if err != nil {
		return err
	}
	var sender [20]byte
	copy(sender[:], fromBytes)

	snapshot := sp.Trie.Copy()
	buffered := make([]types.Event, 0)
	if err := sp.apply(tx, sender, now, &buffered); err != nil {
		sp.Trie.Restore(snapshot)
		return err
	}
	sp.events = append(sp.events, buffered...)
	return nil
}

func (sp *StateProcessor) apply(tx *types.Transaction, sender [20]byte, now int64, buffered *[]types.Event) error {
	manager := state.NewManager(sp.Trie)
	ledger := bank.NewLedger(manager)

	account, err := manager.GetAccount(sender[:])
	if err != nil {
		return err
	}
	if tx.Nonce != account.Nonce {
		return fmt.Errorf("%w: got %d want %d", coreerrors.ErrNonceMismatch, tx.Nonce, account.Nonce)
	}
	account.Nonce++
	if err := manager.PutAccount(sender[:], account); err != nil {
		return err
	}

	value := tx.AttachedValue()
	if value.Sign() < 0 {
		return fmt.Errorf("%w: negative value", coreerrors.ErrInvalidPayload)
	}
	if tx.Type == types.TxTypeTransfer {
		return sp.applyTransfer(ledger, sender, tx.To, value)
	}
	if value.Sign() > 0 {
		if tx.Type != types.TxTypeRegister {
			return fmt.Errorf("%w: %s", coreerrors.ErrValueNotAccepted, tx.Type)
		}
		if err := ledger.Transfer(sender, sp.genesis.Vault, value); err != nil {
			if errors.Is(err, bank.ErrInsufficientBalance) {
				return fmt.Errorf("%w: %w", coreerrors.ErrInsufficientBalance, err)
			}
			return err
		}
	}

	engine := sp.newRegistry(manager, now, bufferEmitter{buf: buffered})
	return sp.dispatch(engine, tx, sender, value)
}

func (sp *StateProcessor) applyTransfer(ledger *bank.Ledger, sender [20]byte, to []byte, value *big.Int) error {
	if len(to) != 20 {
		return fmt.Errorf("%w: transfer recipient must be 20 bytes", coreerrors.ErrInvalidPayload)
	}
	var recipient [20]byte
	copy(recipient[:], to)
	return ledger.Transfer(sender, recipient, value)
}

func (sp *StateProcessor) dispatch(engine *registry.Engine, tx *types.Transaction, sender [20]byte, value *big.Int) error {
	switch tx.Type {
	case types.TxTypeRegister:
		var p RegisterPayload
		if err := decodePayload(tx, &p); err != nil {
			return err
		}
		reg, onBehalf, err := p.registration(sender, value)
		if err != nil {
			return err
		}
		if onBehalf {
			return engine.RegisterOnBehalfOf(sender, reg)
		}
		return engine.Register(sender, reg)
	case types.TxTypeClaimReserved:
		var p NamePayload
		if err := decodePayload(tx, &p); err != nil {
			return err
		}
		return engine.ClaimReservedName(sender, p.Name)
	case types.TxTypeRelease:
		var p NamePayload
		if err := decodePayload(tx, &p); err != nil {
			return err
		}
		return engine.Release(sender, p.Name)
	case types.TxTypeTransferName:
		var p TransferNamePayload
		if err := decodePayload(tx, &p); err != nil {
			return err
		}
		to, err := parseAccount("to", p.To)
		if err != nil {
			return err
		}
		return engine.Transfer(sender, to, p.Name, registry.TransferOptions{
			KeepRecords:    p.KeepRecords,
			KeepController: p.KeepController,
			KeepResolving:  p.KeepResolving,
			Data:           p.Data,
		})
	case types.TxTypeApprove:
		var p ApprovePayload
		if err := decodePayload(tx, &p); err != nil {
			return err
		}
		operator, err := parseAccount("operator", p.Operator)
		if err != nil {
			return err
		}
		return engine.Approve(sender, operator, p.Name, p.Approved)
	case types.TxTypeSetAddress:
		var p SetAddressPayload
		if err := decodePayload(tx, &p); err != nil {
			return err
		}
		addr, err := parseAccount("address", p.Address)
		if err != nil {
			return err
		}
		return engine.SetAddress(sender, p.Name, addr)
	case types.TxTypeSetController:
		var p SetControllerPayload
		if err := decodePayload(tx, &p); err != nil {
			return err
		}
		controller, err := parseAccount("controller", p.Controller)
		if err != nil {
			return err
		}
		return engine.SetController(sender, p.Name, controller)
	case types.TxTypeSetPrimaryName:
		var p SetPrimaryNamePayload
		if err := decodePayload(tx, &p); err != nil {
			return err
		}
		return engine.SetPrimaryName(sender, p.Name)
	case types.TxTypeUpdateRecords:
		var p UpdateRecordsPayload
		if err := decodePayload(tx, &p); err != nil {
			return err
		}
		return engine.UpdateRecords(sender, p.Name, p.changes(), p.RemoveRest)
	case types.TxTypeClearExpired:
		var p NamesPayload
		if err := decodePayload(tx, &p); err != nil {
			return err
		}
		_, err := engine.ClearExpiredNames(p.Names)
		return err
	case types.TxTypeWithdraw:
		var p WithdrawPayload
		if err := decodePayload(tx, &p); err != nil {
			return err
		}
		beneficiary, err := parseOptionalAccount("beneficiary", p.Beneficiary)
		if err != nil {
			return err
		}
		amount, err := parseAmount(p.Amount)
		if err != nil {
			return err
		}
		return engine.Withdraw(sender, beneficiary, amount)
	case types.TxTypeSwitchToPublicPhase:
		return engine.SwitchToPublicPhase(sender)
	case types.TxTypeUpdateMerkleRoot:
		var p MerkleRootPayload
		if err := decodePayload(tx, &p); err != nil {
			return err
		}
		root, err := ParseHash32(p.Root)
		if err != nil {
			return err
		}
		return engine.UpdateMerkleRoot(sender, root)
	case types.TxTypeAddReserved:
		var p AddReservedPayload
		if err := decodePayload(tx, &p); err != nil {
			return err
		}
		entries, err := p.entries()
		if err != nil {
			return err
		}
		return engine.AddReservedNames(sender, entries)
	case types.TxTypeRemoveReserved:
		var p NamesPayload
		if err := decodePayload(tx, &p); err != nil {
			return err
		}
		return engine.RemoveReservedNames(sender, p.Names)
	case types.TxTypeTransferAdmin:
		var p TransferAdminPayload
		if err := decodePayload(tx, &p); err != nil {
			return err
		}
		admin, err := parseAccount("newAdmin", p.NewAdmin)
		if err != nil {
			return err
		}
		return engine.TransferAdmin(sender, admin)
	case types.TxTypeAcceptAdmin:
		return engine.AcceptAdmin(sender)
	case types.TxTypeSetRecordsLimit:
		var p RecordsLimitPayload
		if err := decodePayload(tx, &p); err != nil {
			return err
		}
		return engine.SetRecordsSizeLimit(sender, p.Limit)
	}
	return fmt.Errorf("%w: %d", coreerrors.ErrUnknownType, tx.Type)
}
