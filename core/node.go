package core

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	coreerrors "namechain/core/errors"
	"namechain/core/genesis"
	"namechain/core/types"
	nativecommon "namechain/native/common"
	"namechain/native/registry"
	"namechain/native/router"
	"namechain/storage"
	"namechain/storage/trie"
)

// CommittedBlock describes one committed transaction and the events it
// produced.
type CommittedBlock struct {
	Header *types.BlockHeader
	TxHash []byte
	TxType types.TxType
	Sender [20]byte
	Events []types.Event
}

// BlockSink receives every committed block in commit order.
type BlockSink interface {
	HandleBlock(ctx context.Context, block *CommittedBlock) error
}

// Receipt is returned to the submitter of a committed transaction.
type Receipt struct {
	Height    uint64        `json:"height"`
	TxHash    string        `json:"txHash"`
	StateRoot string        `json:"stateRoot"`
	Events    []types.Event `json:"events"`
}

// Node sequences transactions into blocks. Every submitted transaction that
// applies is committed as its own block.
type Node struct {
	db      storage.Database
	chain   *Blockchain
	state   *StateProcessor
	genesis *genesis.Genesis
	router  *router.Router
	logger  *slog.Logger
	nowFn   func() time.Time
	sinks   []BlockSink
	stateMu sync.Mutex
}

// NewNode opens the chain stored in db, building the genesis state from g
// when the database is empty.
func NewNode(db storage.Database, g *genesis.Genesis) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("node: nil database")
	}
	if g == nil {
		return nil, fmt.Errorf("node: nil genesis")
	}
	chain, err := NewBlockchain(db)
	if err != nil {
		return nil, err
	}
	if !chain.Initialised() {
		header, err := genesis.Build(g, db)
		if err != nil {
			return nil, fmt.Errorf("node: build genesis: %w", err)
		}
		if err := chain.Init(header); err != nil {
			return nil, err
		}
	}
	tip := chain.Tip()
	stateTrie, err := trie.NewTrie(db, tip.StateRoot)
	if err != nil {
		return nil, fmt.Errorf("node: open state at height %d: %w", tip.Height, err)
	}
	sp, err := NewStateProcessor(stateTrie, g)
	if err != nil {
		return nil, err
	}
	n := &Node{
		db:      db,
		chain:   chain,
		state:   sp,
		genesis: g,
		router:  router.New(g.Admin),
		logger:  slog.Default(),
		nowFn:   time.Now,
	}
	if err := n.router.AddRegistry(g.Admin, g.TLD, registryResolver{node: n}); err != nil {
		return nil, err
	}
	return n, nil
}

// SetLogger replaces the node logger.
func (n *Node) SetLogger(logger *slog.Logger) {
	if logger != nil {
		n.logger = logger
	}
}

// SetNowFunc overrides the block clock. Intended for tests.
func (n *Node) SetNowFunc(now func() time.Time) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	if now != nil {
		n.nowFn = now
	}
}

// SetPauses installs the module pause view.
func (n *Node) SetPauses(p nativecommon.PauseView) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	n.state.SetPauses(p)
}

// AddSink subscribes sink to committed blocks.
func (n *Node) AddSink(sink BlockSink) {
	if sink == nil {
		return
	}
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	n.sinks = append(n.sinks, sink)
}

// blockTime never runs backwards relative to the tip.
func (n *Node) blockTime() int64 {
	now := n.nowFn().Unix()
	if tip := n.chain.Tip(); tip != nil && now < int64(tip.Timestamp) {
		return int64(tip.Timestamp)
	}
	return now
}

// SubmitTransaction applies tx and commits it as the next block. A rejected
// transaction leaves the state untouched and produces no block.
func (n *Node) SubmitTransaction(ctx context.Context, tx *types.Transaction) (*Receipt, error) {
	if tx == nil {
		return nil, coreerrors.ErrNilTransaction
	}
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tip := n.chain.Tip()
	parentRoot := n.state.CurrentRoot()
	now := n.blockTime()

	if err := n.state.ApplyTransaction(tx, now); err != nil {
		n.logger.Debug("transaction rejected",
			slog.String("type", tx.Type.String()),
			slog.Any("error", err))
		return nil, err
	}

	rollback := func(cause error) error {
		n.state.DrainEvents()
		if rbErr := n.state.ResetToRoot(parentRoot); rbErr != nil {
			return fmt.Errorf("%v (rollback failed: %w)", cause, rbErr)
		}
		return cause
	}

	height := tip.Height + 1
	root, err := n.state.Commit(height)
	if err != nil {
		return nil, rollback(fmt.Errorf("state commit failed: %w", err))
	}
	txHash, err := tx.Hash()
	if err != nil {
		return nil, rollback(err)
	}
	prevHash, err := tip.Hash()
	if err != nil {
		return nil, rollback(err)
	}
	header := &types.BlockHeader{
		Height:    height,
		Timestamp: uint64(now),
		PrevHash:  prevHash,
		StateRoot: root.Bytes(),
		TxHash:    txHash,
	}
	if err := n.chain.AddHeader(header); err != nil {
		return nil, rollback(err)
	}

	from, _ := tx.From()
	block := &CommittedBlock{Header: header, TxHash: txHash, TxType: tx.Type, Events: n.state.DrainEvents()}
	copy(block.Sender[:], from)

	n.logger.Info("block committed",
		slog.Uint64("height", height),
		slog.String("tx", hex.EncodeToString(txHash)),
		slog.String("type", tx.Type.String()),
		slog.Int("events", len(block.Events)))

	for _, sink := range n.sinks {
		if err := sink.HandleBlock(ctx, block); err != nil {
			n.logger.Warn("block sink failed",
				slog.Uint64("height", height),
				slog.Any("error", err))
		}
	}

	return &Receipt{
		Height:    height,
		TxHash:    "0x" + hex.EncodeToString(txHash),
		StateRoot: root.Hex(),
		Events:    block.Events,
	}, nil
}

// View runs fn against a registry over a snapshot of the committed state.
// Changes fn makes are discarded.
func (n *Node) View(fn func(*registry.Engine) error) error {
	n.stateMu.Lock()
	snapshot := n.state.Trie.Copy()
	now := n.blockTime()
	sp := &StateProcessor{Trie: snapshot, genesis: n.genesis, pauses: n.state.pauses}
	n.stateMu.Unlock()
	return fn(sp.Registry(now))
}

// GetAccount returns the committed account of addr.
func (n *Node) GetAccount(addr [20]byte) (*types.Account, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.state.GetAccount(addr[:])
}

// Head returns the latest committed header.
func (n *Node) Head() *types.BlockHeader { return n.chain.Tip() }

// HeaderByHeight returns a committed header.
func (n *Node) HeaderByHeight(height uint64) (*types.BlockHeader, error) {
	return n.chain.HeaderByHeight(height)
}

func (n *Node) GetHeight() uint64 { return n.chain.GetHeight() }

// StateRoot returns the committed state root.
func (n *Node) StateRoot() common.Hash {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.state.CurrentRoot()
}

func (n *Node) ChainID() uint64 { return n.genesis.ChainID }

func (n *Node) TLD() string { return n.genesis.TLD }

// Vault returns the registry vault account.
func (n *Node) Vault() [20]byte { return n.genesis.Vault }

// Router returns the TLD router serving this node's registry.
func (n *Node) Router() *router.Router { return n.router }

type registryResolver struct {
	node *Node
}

func (r registryResolver) GetAddress(name string) ([20]byte, error) {
	var out [20]byte
	err := r.node.View(func(e *registry.Engine) error {
		addr, err := e.GetAddress(name)
		out = addr
		return err
	})
	return out, err
}

func (r registryResolver) GetPrimaryName(addr [20]byte) (string, error) {
	var out string
	err := r.node.View(func(e *registry.Engine) error {
		name, err := e.GetPrimaryName(addr)
		out = name
		return err
	})
	return out, err
}
