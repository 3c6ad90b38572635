package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namechain/core"
	"namechain/core/types"
	"namechain/crypto"
	"namechain/native/merkle"
)

type fakeNode struct {
	t       *testing.T
	mu      sync.Mutex
	calls   []string
	sent    *types.Transaction
	token   string
	results map[string]interface{}
}

func (f *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))

	f.mu.Lock()
	f.calls = append(f.calls, req.Method)
	if req.Method == "nc_sendTransaction" {
		f.token = r.Header.Get("Authorization")
		var tx types.Transaction
		require.Len(f.t, req.Params, 1)
		require.NoError(f.t, json.Unmarshal(req.Params[0], &tx))
		f.sent = &tx
	}
	f.mu.Unlock()

	result, ok := f.results[req.Method]
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0", "id": 1,
			"error": map[string]interface{}{"code": -32601, "message": "method not found"},
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": 1, "result": result})
}

func newTestApp(t *testing.T, endpoint string) (*app, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	return &app{
		endpoint: endpoint,
		token:    "secret-token",
		keystore: filepath.Join(t.TempDir(), "key.json"),
		out:      out,
		secret:   func() (string, error) { return "passphrase", nil },
	}, out
}

func execute(a *app, args ...string) error {
	flags := []string{"--rpc", a.endpoint, "--token", a.token, "--keystore", a.keystore}
	root := newRootCmd(a)
	root.SetArgs(append(flags, args...))
	root.SetErr(&bytes.Buffer{})
	return root.Execute()
}

func TestRegisterSignsQuotedTransaction(t *testing.T) {
	node := &fakeNode{t: t, results: map[string]interface{}{
		"nc_chainInfo":       map[string]interface{}{"chainId": 7, "tlds": []string{"nc"}, "height": 3},
		"nc_getAccount":      map[string]interface{}{"nonce": 4, "balance": "5000"},
		"nc_getNamePrice":    map[string]interface{}{"total": "2000"},
		"nc_sendTransaction": map[string]interface{}{"height": 4},
	}}
	srv := httptest.NewServer(node)
	defer srv.Close()

	a, out := newTestApp(t, srv.URL)
	key, err := crypto.CreateKeystore(a.keystore, "passphrase")
	require.NoError(t, err)

	require.NoError(t, execute(a, "tx", "register", "bobby", "--years", "2"))

	require.NotNil(t, node.sent)
	assert.Equal(t, []string{"nc_getNamePrice", "nc_chainInfo", "nc_getAccount", "nc_sendTransaction"}, node.calls)
	assert.Equal(t, "Bearer secret-token", node.token)
	assert.Equal(t, types.TxTypeRegister, node.sent.Type)
	assert.Equal(t, uint64(7), node.sent.ChainID)
	assert.Equal(t, uint64(4), node.sent.Nonce)
	assert.Equal(t, "2000", node.sent.Value.String())

	var payload core.RegisterPayload
	require.NoError(t, json.Unmarshal(node.sent.Data, &payload))
	assert.Equal(t, "bobby", payload.Name)
	assert.Equal(t, uint64(2), payload.Years)
	assert.Nil(t, payload.Referrer)

	from, err := node.sent.From()
	require.NoError(t, err)
	assert.Equal(t, key.PubKey().Address().Bytes(), from)
	assert.Contains(t, out.String(), `"height": 4`)
}

func TestTransferCarriesRecipient(t *testing.T) {
	node := &fakeNode{t: t, results: map[string]interface{}{
		"nc_chainInfo":       map[string]interface{}{"chainId": 7},
		"nc_getAccount":      map[string]interface{}{"nonce": 0},
		"nc_sendTransaction": map[string]interface{}{"height": 1},
	}}
	srv := httptest.NewServer(node)
	defer srv.Close()

	a, _ := newTestApp(t, srv.URL)
	_, err := crypto.CreateKeystore(a.keystore, "passphrase")
	require.NoError(t, err)

	to := crypto.MustNewAddress(crypto.NCPrefix, bytes.Repeat([]byte{0x22}, crypto.AddressLength))
	require.NoError(t, execute(a, "tx", "transfer", to.String(), "150"))

	require.NotNil(t, node.sent)
	assert.Equal(t, types.TxTypeTransfer, node.sent.Type)
	assert.Equal(t, to.Bytes(), node.sent.To)
	assert.Equal(t, "150", node.sent.Value.String())
	assert.Empty(t, node.sent.Data)
}

func TestNodeErrorsSurface(t *testing.T) {
	node := &fakeNode{t: t, results: map[string]interface{}{}}
	srv := httptest.NewServer(node)
	defer srv.Close()

	a, _ := newTestApp(t, srv.URL)
	err := execute(a, "query", "status", "alice")
	require.Error(t, err)
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32601, rpcErr.Code)
}

func TestQueryPrintsResult(t *testing.T) {
	node := &fakeNode{t: t, results: map[string]interface{}{
		"nc_resolve": map[string]interface{}{"address": "nc1example"},
	}}
	srv := httptest.NewServer(node)
	defer srv.Close()

	a, out := newTestApp(t, srv.URL)
	require.NoError(t, execute(a, "query", "resolve", "alice.nc"))
	assert.Equal(t, []string{"nc_resolve"}, node.calls)
	assert.Equal(t, "{\n  \"address\": \"nc1example\"\n}\n", out.String())
}

func TestMerkleRootAndProof(t *testing.T) {
	members := make([][20]byte, 3)
	lines := []string{"# whitelist", ""}
	for i := range members {
		members[i][0] = byte(i + 1)
		lines = append(lines, crypto.FromRaw(members[i]).String())
	}
	path := filepath.Join(t.TempDir(), "members.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o600))

	tree := merkle.NewAccountTree(members)

	a, out := newTestApp(t, "http://unused")
	require.NoError(t, execute(a, "merkle", "root", path))
	assert.Equal(t, core.FormatHash32(tree.Root())+"\n", out.String())

	out.Reset()
	require.NoError(t, execute(a, "merkle", "proof", path, crypto.FromRaw(members[1]).String()))
	proofLines := strings.Fields(out.String())
	proof, err := core.ParseProof(proofLines)
	require.NoError(t, err)
	assert.True(t, merkle.Verify(tree.Root(), merkle.AccountLeaf(members[1][:]), proof))
}

func TestRecordChangesAndReservedEntries(t *testing.T) {
	changes, err := recordChanges([]string{"url=https://a.example", "avatar="}, []string{"email"})
	require.NoError(t, err)
	require.Len(t, changes, 3)
	assert.Equal(t, "https://a.example", *changes[0].Value)
	assert.Equal(t, "", *changes[1].Value)
	assert.Nil(t, changes[2].Value)

	_, err = recordChanges([]string{"novalue"}, nil)
	assert.Error(t, err)

	entries, err := reservedEntries([]string{"wallet", "vault"}, []string{"wallet=nc1owner"})
	require.NoError(t, err)
	assert.Equal(t, []core.ReservedEntryPayload{{Name: "wallet", Claimant: "nc1owner"}, {Name: "vault"}}, entries)

	_, err = reservedEntries([]string{"wallet"}, []string{"other=nc1owner"})
	assert.Error(t, err)
}
