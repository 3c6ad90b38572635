package core

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"namechain/core/types"
	"namechain/storage"
)

var (
	tipKey          = []byte("chain/tip")
	headerKeyPrefix = []byte("chain/header/")
)

var errChainNotInitialised = errors.New("chain: not initialised")

func headerKey(height uint64) []byte {
	key := make([]byte, len(headerKeyPrefix)+8)
	copy(key, headerKeyPrefix)
	binary.BigEndian.PutUint64(key[len(headerKeyPrefix):], height)
	return key
}

// Blockchain persists the header of every committed block and tracks the tip.
type Blockchain struct {
	db  storage.Database
	tip *types.BlockHeader
	mu  sync.RWMutex
}

// NewBlockchain opens the header chain stored in db. A fresh database yields
// an empty chain that must be seeded with Init.
func NewBlockchain(db storage.Database) (*Blockchain, error) {
	bc := &Blockchain{db: db}
	raw, err := db.Get(tipKey)
	if errors.Is(err, storage.ErrNotFound) {
		return bc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("chain: read tip: %w", err)
	}
	if len(raw) != 8 {
		return nil, fmt.Errorf("chain: malformed tip")
	}
	tip, err := bc.load(binary.BigEndian.Uint64(raw))
	if err != nil {
		return nil, err
	}
	bc.tip = tip
	return bc, nil
}

// Initialised reports whether a genesis header is stored.
func (bc *Blockchain) Initialised() bool {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.tip != nil
}

// Init stores the genesis header.
func (bc *Blockchain) Init(genesis *types.BlockHeader) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if bc.tip != nil {
		return fmt.Errorf("chain: already initialised")
	}
	if genesis.Height != 0 {
		return fmt.Errorf("chain: genesis height must be zero")
	}
	return bc.store(genesis)
}

// AddHeader appends h on top of the current tip.
func (bc *Blockchain) AddHeader(h *types.BlockHeader) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if bc.tip == nil {
		return errChainNotInitialised
	}
	if h.Height != bc.tip.Height+1 {
		return fmt.Errorf("chain: height %d does not extend tip %d", h.Height, bc.tip.Height)
	}
	tipHash, err := bc.tip.Hash()
	if err != nil {
		return err
	}
	if !bytes.Equal(h.PrevHash, tipHash) {
		return fmt.Errorf("chain: prevhash mismatch")
	}
	return bc.store(h)
}

func (bc *Blockchain) store(h *types.BlockHeader) error {
	encoded, err := rlp.EncodeToBytes(h)
	if err != nil {
		return err
	}
	if err := bc.db.Put(headerKey(h.Height), encoded); err != nil {
		return err
	}
	var height [8]byte
	binary.BigEndian.PutUint64(height[:], h.Height)
	if err := bc.db.Put(tipKey, height[:]); err != nil {
		return err
	}
	bc.tip = h
	return nil
}

func (bc *Blockchain) load(height uint64) (*types.BlockHeader, error) {
	raw, err := bc.db.Get(headerKey(height))
	if err != nil {
		return nil, fmt.Errorf("chain: header %d: %w", height, err)
	}
	header := new(types.BlockHeader)
	if err := rlp.DecodeBytes(raw, header); err != nil {
		return nil, fmt.Errorf("chain: decode header %d: %w", height, err)
	}
	return header, nil
}

// HeaderByHeight returns the committed header at height.
func (bc *Blockchain) HeaderByHeight(height uint64) (*types.BlockHeader, error) {
	bc.mu.RLock()
	tip := bc.tip
	bc.mu.RUnlock()
	if tip == nil {
		return nil, errChainNotInitialised
	}
	if height > tip.Height {
		return nil, fmt.Errorf("block at height %d not found", height)
	}
	return bc.load(height)
}

// Tip returns the latest committed header.
func (bc *Blockchain) Tip() *types.BlockHeader {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.tip
}

func (bc *Blockchain) GetHeight() uint64 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if bc.tip == nil {
		return 0
	}
	return bc.tip.Height
}
