package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"namechain/core/types"
	"namechain/storage"
)

func TestBlockchainAppendsAndReloads(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(func() { db.Close() })

	bc, err := NewBlockchain(db)
	require.NoError(t, err)
	require.False(t, bc.Initialised())
	require.Error(t, bc.AddHeader(&types.BlockHeader{Height: 1}))

	genesis := &types.BlockHeader{Height: 0, Timestamp: 10, StateRoot: []byte{1}}
	require.NoError(t, bc.Init(genesis))
	require.Error(t, bc.Init(genesis))

	prev, err := genesis.Hash()
	require.NoError(t, err)
	require.Error(t, bc.AddHeader(&types.BlockHeader{Height: 1, PrevHash: []byte{9}}))
	require.Error(t, bc.AddHeader(&types.BlockHeader{Height: 2, PrevHash: prev}))
	next := &types.BlockHeader{Height: 1, Timestamp: 11, PrevHash: prev, StateRoot: []byte{2}}
	require.NoError(t, bc.AddHeader(next))

	reopened, err := NewBlockchain(db)
	require.NoError(t, err)
	require.Equal(t, uint64(1), reopened.GetHeight())
	require.Equal(t, []byte{2}, reopened.Tip().StateRoot)
	loaded, err := reopened.HeaderByHeight(0)
	require.NoError(t, err)
	require.Equal(t, uint64(10), loaded.Timestamp)
	_, err = reopened.HeaderByHeight(5)
	require.Error(t, err)
}
