package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	gethleveldb "github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("storage: key not found")

// Database is the key-value store backing the node. Besides raw access it
// exposes the trie database the state trie is committed into, so the state and
// chain metadata share a single backend.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	TrieDB() *triedb.Database
	Close() error
}

type kvBackend struct {
	disk   ethdb.Database
	trieDB *triedb.Database
	once   *sync.Once
}

func newBackend(disk ethdb.Database) kvBackend {
	return kvBackend{disk: disk, trieDB: triedb.NewDatabase(disk, nil), once: new(sync.Once)}
}

func (b *kvBackend) Put(key []byte, value []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("storage: key must not be empty")
	}
	return b.disk.Put(key, value)
}

func (b *kvBackend) Get(key []byte) ([]byte, error) {
	ok, err := b.disk.Has(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return b.disk.Get(key)
}

func (b *kvBackend) Has(key []byte) (bool, error) {
	return b.disk.Has(key)
}

func (b *kvBackend) Delete(key []byte) error {
	return b.disk.Delete(key)
}

func (b *kvBackend) TrieDB() *triedb.Database {
	return b.trieDB
}

func (b *kvBackend) Close() error {
	var err error
	b.once.Do(func() {
		if closeErr := b.trieDB.Close(); closeErr != nil {
			err = closeErr
		}
		if closeErr := b.disk.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	})
	return err
}

// --- In-Memory DB (for testing) ---

// MemDB keeps all state in memory. Contents are lost on Close.
type MemDB struct {
	kvBackend
}

func NewMemDB() *MemDB {
	return &MemDB{kvBackend: newBackend(rawdb.NewMemoryDatabase())}
}

// --- Persistent DB ---

// LevelDBOptions tunes the on-disk store.
type LevelDBOptions struct {
	CacheMB int
	Handles int
}

// LevelDB is a persistent key-value store using LevelDB.
type LevelDB struct {
	kvBackend
	path string
}

// NewLevelDB creates or opens a LevelDB database at the specified path using
// default tuning.
func NewLevelDB(path string) (*LevelDB, error) {
	return NewLevelDBWithOptions(path, LevelDBOptions{})
}

// NewLevelDBWithOptions opens a LevelDB database with explicit cache and file
// handle budgets. Zero values keep the go-ethereum defaults.
func NewLevelDBWithOptions(path string, cfg LevelDBOptions) (*LevelDB, error) {
	kv, err := gethleveldb.NewCustom(path, "namechain/db/", func(options *opt.Options) {
		options.ErrorIfMissing = false
		if cfg.CacheMB > 0 {
			options.BlockCacheCapacity = cfg.CacheMB / 2 * opt.MiB
			options.WriteBuffer = cfg.CacheMB / 4 * opt.MiB
		}
		if cfg.Handles > 0 {
			options.OpenFilesCacheCapacity = cfg.Handles
		}
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open leveldb %s: %w", path, err)
	}
	return &LevelDB{kvBackend: newBackend(rawdb.NewDatabase(kv)), path: path}, nil
}

// Path returns the directory backing the database.
func (ldb *LevelDB) Path() string { return ldb.path }
