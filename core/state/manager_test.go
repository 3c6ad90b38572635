package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"namechain/core/types"
	"namechain/storage"
	"namechain/storage/trie"
)

func newTestManager(t *testing.T) (*Manager, storage.Database) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(func() { db.Close() })
	tr, err := trie.NewTrie(db, nil)
	require.NoError(t, err)
	return NewManager(tr), db
}

type sample struct {
	Name  string
	Count uint64
	Owner [20]byte
}

func TestKVRoundTripAndDelete(t *testing.T) {
	mgr, _ := newTestManager(t)
	key := []byte("registry/nc/name/alice")

	var missing sample
	ok, err := mgr.KVGet(key, &missing)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mgr.KVPut(key, &sample{Name: "alice", Count: 0, Owner: [20]byte{1}}))
	var got sample
	ok, err = mgr.KVGet(key, &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alice", got.Name)
	require.Equal(t, [20]byte{1}, got.Owner)

	require.NoError(t, mgr.KVDelete(key))
	ok, err = mgr.KVGet(key, nil)
	require.NoError(t, err)
	require.False(t, ok)

	require.Error(t, mgr.KVPut(nil, &got))
}

func TestAccountsPersistAcrossCommit(t *testing.T) {
	mgr, db := newTestManager(t)
	addr := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10, 0x11, 0x12, 0x13, 0x14}

	empty, err := mgr.GetAccount(addr)
	require.NoError(t, err)
	require.Zero(t, empty.Balance.Sign())

	require.NoError(t, mgr.PutAccount(addr, &types.Account{Nonce: 3, Balance: big.NewInt(42)}))
	root, err := mgr.Trie().Commit(mgr.Trie().Root(), 1)
	require.NoError(t, err)

	reopened, err := trie.NewTrie(db, root.Bytes())
	require.NoError(t, err)
	acc, err := NewManager(reopened).GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(3), acc.Nonce)
	require.Equal(t, int64(42), acc.Balance.Int64())

	require.Error(t, mgr.PutAccount(addr, &types.Account{Balance: big.NewInt(-1)}))
}
