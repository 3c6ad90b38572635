package modules

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"namechain/core"
	"namechain/core/types"
	"namechain/services/indexer"
)

// HistorySource answers name history queries, normally the event indexer.
type HistorySource interface {
	History(ctx context.Context, name string, limit int) ([]indexer.Entry, error)
}

// ChainModule serves chain metadata, accounts, blocks and cross-TLD
// resolution through the router.
type ChainModule struct {
	node    *core.Node
	history HistorySource
}

func NewChainModule(node *core.Node, history HistorySource) *ChainModule {
	return &ChainModule{node: node, history: history}
}

type ChainInfoResult struct {
	ChainID   uint64   `json:"chainId"`
	TLDs      []string `json:"tlds"`
	Height    uint64   `json:"height"`
	StateRoot string   `json:"stateRoot"`
	Timestamp uint64   `json:"timestamp"`
}

type AccountResult struct {
	Address string `json:"address"`
	Nonce   uint64 `json:"nonce"`
	Balance string `json:"balance"`
}

type HeaderResult struct {
	Height    uint64 `json:"height"`
	Hash      string `json:"hash"`
	PrevHash  string `json:"prevHash"`
	StateRoot string `json:"stateRoot"`
	TxHash    string `json:"txHash"`
	Timestamp uint64 `json:"timestamp"`
}

type DomainResult struct {
	Domain string `json:"domain"`
}

type heightParams struct {
	Height *uint64 `json:"height"`
}

type domainParams struct {
	Domain string `json:"domain"`
}

type primaryDomainParams struct {
	Address string `json:"address"`
	TLD     string `json:"tld"`
}

type historyParams struct {
	Name  string `json:"name"`
	Limit int    `json:"limit"`
}

func hexBytes(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func (m *ChainModule) Info() (*ChainInfoResult, *ModuleError) {
	if m.node == nil {
		return nil, errModuleOffline
	}
	head := m.node.Head()
	out := &ChainInfoResult{
		ChainID:   m.node.ChainID(),
		TLDs:      m.node.Router().TLDs(),
		StateRoot: m.node.StateRoot().Hex(),
	}
	if head != nil {
		out.Height = head.Height
		out.Timestamp = head.Timestamp
	}
	return out, nil
}

func (m *ChainModule) Account(raw json.RawMessage) (*AccountResult, *ModuleError) {
	if m.node == nil {
		return nil, errModuleOffline
	}
	var params addressParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	addr, modErr := parseAddress("address", params.Address)
	if modErr != nil {
		return nil, modErr
	}
	account, err := m.node.GetAccount(addr)
	if err != nil {
		return nil, wrapError(err)
	}
	return &AccountResult{Address: formatAddress(addr), Nonce: account.Nonce, Balance: amountString(account.Balance)}, nil
}

// Header returns the block at height, or the head when height is omitted.
func (m *ChainModule) Header(raw json.RawMessage) (*HeaderResult, *ModuleError) {
	if m.node == nil {
		return nil, errModuleOffline
	}
	var params heightParams
	if len(raw) > 0 {
		if err := decodeParams(raw, &params); err != nil {
			return nil, err
		}
	}
	var (
		header *types.BlockHeader
		err    error
	)
	if params.Height == nil {
		header = m.node.Head()
	} else {
		header, err = m.node.HeaderByHeight(*params.Height)
	}
	if err != nil {
		return nil, invalidParams("block not found", err)
	}
	if header == nil {
		return nil, invalidParams("block not found", nil)
	}
	hash, err := header.Hash()
	if err != nil {
		return nil, wrapError(err)
	}
	return &HeaderResult{
		Height:    header.Height,
		Hash:      hexBytes(hash),
		PrevHash:  hexBytes(header.PrevHash),
		StateRoot: hexBytes(header.StateRoot),
		TxHash:    hexBytes(header.TxHash),
		Timestamp: header.Timestamp,
	}, nil
}

// Resolve maps a fully qualified "name.tld" domain to its address.
func (m *ChainModule) Resolve(raw json.RawMessage) (*AddressResult, *ModuleError) {
	if m.node == nil {
		return nil, errModuleOffline
	}
	var params domainParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	addr, err := m.node.Router().GetAddress(params.Domain)
	if err != nil {
		return nil, wrapError(err)
	}
	return &AddressResult{Address: formatAddress(addr)}, nil
}

// PrimaryDomain returns the primary "name.tld" of an address. The node's TLD
// is used when tld is omitted.
func (m *ChainModule) PrimaryDomain(raw json.RawMessage) (*DomainResult, *ModuleError) {
	if m.node == nil {
		return nil, errModuleOffline
	}
	var params primaryDomainParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	addr, modErr := parseAddress("address", params.Address)
	if modErr != nil {
		return nil, modErr
	}
	tld := strings.TrimSpace(params.TLD)
	if tld == "" {
		tld = m.node.TLD()
	}
	domain, err := m.node.Router().GetPrimaryName(tld, addr)
	if err != nil {
		return nil, wrapError(err)
	}
	return &DomainResult{Domain: domain}, nil
}

// History lists indexed events of a name in commit order.
func (m *ChainModule) History(ctx context.Context, raw json.RawMessage) ([]indexer.Entry, *ModuleError) {
	if m.history == nil {
		return nil, &ModuleError{HTTPStatus: http.StatusServiceUnavailable, Code: codeServerError, Message: "indexer not configured"}
	}
	var params historyParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	name, modErr := requireName(params.Name)
	if modErr != nil {
		return nil, modErr
	}
	entries, err := m.history.History(ctx, name, params.Limit)
	if err != nil {
		return nil, wrapError(err)
	}
	if entries == nil {
		entries = []indexer.Entry{}
	}
	return entries, nil
}

