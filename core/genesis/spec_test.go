package genesis

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"namechain/core/state"
	"namechain/crypto"
	"namechain/native/merkle"
	"namechain/native/namechecker"
	"namechain/native/registry"
	"namechain/storage"
	"namechain/storage/trie"
)

func addr(b byte) string {
	return crypto.MustNewAddress(crypto.NCPrefix, bytes.Repeat([]byte{b}, 20)).String()
}

func raw(b byte) [20]byte {
	var out [20]byte
	copy(out[:], bytes.Repeat([]byte{b}, 20))
	return out
}

func sampleGenesis() string {
	return `genesisTime: "2024-01-01T00:00:00Z"
chainId: 7
tld: azero
admin: ` + addr(0xad) + `
vault: ` + addr(0xee) + `
alloc:
  ` + addr(0x01) + `: "1000000"
  ` + addr(0x02) + `: "0"
registry:
  whitelistPhase: true
  recordsSizeLimit: 512
  defaultPrice: "900"
  reserved:
    - name: wallet
      claimant: ` + addr(0x01) + `
    - name: admin
  whitelist:
    members:
      - ` + addr(0x01) + `
      - ` + addr(0x03) + `
  nameChecker:
    minLength: 2
    maxLength: 20
    allowed:
      - {lower: 97, upper: 122}
  fees:
    maxRegistrationYears: 2
    commonPrice: "100"
    priceByLength:
      2: "400"
`
}

func TestLoadAndBuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleGenesis()), 0o644))

	g, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, uint64(7), g.ChainID)
	require.Equal(t, "azero", g.TLD)
	require.Equal(t, raw(0xad), g.Admin)
	require.Len(t, g.Alloc, 2)
	require.Len(t, g.Registry.Reserved, 2)
	require.Nil(t, g.Registry.Reserved[1].Claimant)
	require.Equal(t, merkle.NewAccountTree([][20]byte{raw(0x01), raw(0x03)}).Root(), g.WhitelistRoot)

	require.ErrorIs(t, g.Checker.IsNameAllowed("a"), namechecker.ErrTooShort)
	base, premium, err := g.Fees.GetNamePrice("vip", 2)
	require.NoError(t, err)
	require.Equal(t, int64(100), base.Int64())
	require.Equal(t, int64(100), premium.Int64())

	db := storage.NewMemDB()
	t.Cleanup(func() { db.Close() })
	header, err := Build(g, db)
	require.NoError(t, err)
	require.Equal(t, uint64(0), header.Height)
	require.Equal(t, uint64(g.Time.Unix()), header.Timestamp)

	tr, err := trie.NewTrie(db, header.StateRoot)
	require.NoError(t, err)
	manager := state.NewManager(tr)
	acc, err := manager.GetAccount(bytes.Repeat([]byte{0x01}, 20))
	require.NoError(t, err)
	require.Equal(t, int64(1000000), acc.Balance.Int64())

	engine := g.NewRegistry(manager)
	admin, pending, err := engine.Admin()
	require.NoError(t, err)
	require.Equal(t, raw(0xad), admin)
	require.Nil(t, pending)
	phase, err := engine.IsWhitelistPhase()
	require.NoError(t, err)
	require.True(t, phase)
	limit, err := engine.RecordsSizeLimit()
	require.NoError(t, err)
	require.Equal(t, uint64(512), limit)
	claimant, reserved, err := engine.GetReservedClaimant("wallet")
	require.NoError(t, err)
	require.True(t, reserved)
	require.Equal(t, raw(0x01), *claimant)

	proof, err := merkle.NewAccountTree([][20]byte{raw(0x01), raw(0x03)}).Proof(merkle.AccountLeaf(bytes.Repeat([]byte{0x03}, 20)))
	require.NoError(t, err)
	ok, err := engine.VerifyProof(raw(0x03), proof)
	require.NoError(t, err)
	require.True(t, ok)

	statuses, err := engine.GetNameStatus([]string{"admin"})
	require.NoError(t, err)
	require.Equal(t, registry.StatusReserved, statuses[0].Kind)
}

func TestDecodeRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"unknown field": strings.Replace(sampleGenesis(), "chainId: 7", "chainId: 7\nvalidators: []", 1),
		"zero chain":    strings.Replace(sampleGenesis(), "chainId: 7", "chainId: 0", 1),
		"bad admin":     strings.Replace(sampleGenesis(), "admin: "+addr(0xad), "admin: nc1xyz", 1),
		"bad time":      strings.Replace(sampleGenesis(), "2024-01-01T00:00:00Z", "yesterday", 1),
		"negative":      strings.Replace(sampleGenesis(), `"1000000"`, `"-5"`, 1),
		"dotted tld":    strings.Replace(sampleGenesis(), "tld: azero", "tld: a.zero", 1),
		"bad range":     strings.Replace(sampleGenesis(), "{lower: 97, upper: 122}", "{lower: 122, upper: 97}", 1),
		"zero years":    strings.Replace(sampleGenesis(), "maxRegistrationYears: 2", "maxRegistrationYears: 0", 1),
		"huge years":    strings.Replace(sampleGenesis(), "maxRegistrationYears: 2", "maxRegistrationYears: 1099511627776", 1),
		"dup reserved":  strings.Replace(sampleGenesis(), "- name: admin", "- name: wallet", 1),
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			require.Error(t, err)
		})
	}
}

func TestDefaultsApplyWhenOmitted(t *testing.T) {
	doc := `genesisTime: "2024-01-01T00:00:00Z"
chainId: 1
tld: nc
admin: ` + addr(0xad) + `
vault: ` + addr(0xee) + `
`
	g, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.Nil(t, g.Fees)
	require.NoError(t, g.Checker.IsNameAllowed("my-name"))
	require.Equal(t, [32]byte{}, g.WhitelistRoot)
	require.Nil(t, g.DefaultPrice)
}
