package genesis

import (
	"fmt"

	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"namechain/core/state"
	"namechain/core/types"
	"namechain/native/bank"
	"namechain/native/merkle"
	"namechain/native/registry"
	"namechain/storage"
	"namechain/storage/trie"
)

// NewRegistry wires a registry engine for the genesis TLD to manager, with
// the collaborators configured by g.
func (g *Genesis) NewRegistry(manager *state.Manager) *registry.Engine {
	engine := registry.NewEngine(g.TLD, g.Vault)
	engine.SetState(manager)
	engine.SetPayments(bank.NewLedger(manager))
	engine.SetNameChecker(g.Checker)
	if g.Fees != nil {
		engine.SetFeeCalculator(g.Fees)
	}
	engine.SetMerkleVerifier(merkle.NewVerifier(manager, g.TLD))
	if g.DefaultPrice != nil {
		engine.SetDefaultPrice(g.DefaultPrice)
	}
	return engine
}

// Build executes the genesis against an empty trie in db, commits it and
// returns the height-zero header.
func Build(g *Genesis, db storage.Database) (*types.BlockHeader, error) {
	if g == nil {
		return nil, fmt.Errorf("genesis must not be nil")
	}
	if db == nil {
		return nil, fmt.Errorf("database must not be nil")
	}
	stateTrie, err := trie.NewTrie(db, nil)
	if err != nil {
		return nil, fmt.Errorf("init state trie: %w", err)
	}
	manager := state.NewManager(stateTrie)
	parentRoot := stateTrie.Root()

	ledger := bank.NewLedger(manager)
	for _, alloc := range g.Alloc {
		if alloc.Amount.Sign() == 0 {
			continue
		}
		if err := ledger.Credit(alloc.Account, alloc.Amount); err != nil {
			return nil, fmt.Errorf("alloc %x: %w", alloc.Account, err)
		}
	}

	engine := g.NewRegistry(manager)
	engine.SetNowFunc(func() int64 { return g.Time.Unix() })
	if err := engine.Initialise(g.Registry); err != nil {
		return nil, fmt.Errorf("initialise registry: %w", err)
	}
	if g.WhitelistRoot != ([32]byte{}) {
		if err := merkle.NewVerifier(manager, g.TLD).UpdateRoot(g.WhitelistRoot); err != nil {
			return nil, fmt.Errorf("whitelist root: %w", err)
		}
	}

	root, err := stateTrie.Commit(parentRoot, 0)
	if err != nil {
		return nil, fmt.Errorf("commit state: %w", err)
	}
	return &types.BlockHeader{
		Height:    0,
		Timestamp: uint64(g.Time.Unix()),
		PrevHash:  []byte{},
		StateRoot: root.Bytes(),
		TxHash:    gethtypes.EmptyRootHash.Bytes(),
	}, nil
}
