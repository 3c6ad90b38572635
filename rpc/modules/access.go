package modules

import (
	"encoding/json"
	"math/big"

	"namechain/core"
	"namechain/native/registry"
)

// AccessModule exposes approvals, the whitelist phase and registry
// administration settings.
type AccessModule struct {
	node *core.Node
}

func NewAccessModule(node *core.Node) *AccessModule {
	return &AccessModule{node: node}
}

type AllowanceResult struct {
	Approved bool `json:"approved"`
}

type WhitelistResult struct {
	WhitelistPhase bool `json:"whitelistPhase"`
}

type ProofResult struct {
	Valid bool `json:"valid"`
}

type RegistrySettingsResult struct {
	TLD              string `json:"tld"`
	Admin            string `json:"admin"`
	PendingAdmin     string `json:"pendingAdmin,omitempty"`
	Vault            string `json:"vault"`
	VaultBalance     string `json:"vaultBalance"`
	RecordsSizeLimit uint64 `json:"recordsSizeLimit"`
	WhitelistPhase   bool   `json:"whitelistPhase"`
}

type allowanceParams struct {
	Owner    string  `json:"owner"`
	Operator string  `json:"operator"`
	Name     *string `json:"name,omitempty"`
}

type proofParams struct {
	Address string   `json:"address"`
	Proof   []string `json:"proof"`
}

// Allowance reports whether operator may transfer owner's names, either one
// name or all of them when name is omitted.
func (m *AccessModule) Allowance(raw json.RawMessage) (*AllowanceResult, *ModuleError) {
	var params allowanceParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	owner, modErr := parseAddress("owner", params.Owner)
	if modErr != nil {
		return nil, modErr
	}
	operator, modErr := parseAddress("operator", params.Operator)
	if modErr != nil {
		return nil, modErr
	}
	out := &AllowanceResult{}
	if err := viewState(m.node, func(engine *registry.Engine) error {
		approved, viewErr := engine.Allowance(owner, operator, params.Name)
		out.Approved = approved
		return viewErr
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *AccessModule) WhitelistPhase() (*WhitelistResult, *ModuleError) {
	out := &WhitelistResult{}
	if err := viewState(m.node, func(engine *registry.Engine) error {
		phase, viewErr := engine.IsWhitelistPhase()
		out.WhitelistPhase = phase
		return viewErr
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// VerifyProof checks a whitelist membership proof against the stored root.
func (m *AccessModule) VerifyProof(raw json.RawMessage) (*ProofResult, *ModuleError) {
	var params proofParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	addr, modErr := parseAddress("address", params.Address)
	if modErr != nil {
		return nil, modErr
	}
	proof, err := core.ParseProof(params.Proof)
	if err != nil {
		return nil, invalidParams("invalid proof", err)
	}
	out := &ProofResult{}
	if modErr := viewState(m.node, func(engine *registry.Engine) error {
		valid, viewErr := engine.VerifyProof(addr, proof)
		out.Valid = valid
		return viewErr
	}); modErr != nil {
		return nil, modErr
	}
	return out, nil
}

// Settings summarises the registry administration state.
func (m *AccessModule) Settings() (*RegistrySettingsResult, *ModuleError) {
	out := &RegistrySettingsResult{}
	if err := viewState(m.node, func(engine *registry.Engine) error {
		admin, pending, viewErr := engine.Admin()
		if viewErr != nil {
			return viewErr
		}
		limit, viewErr := engine.RecordsSizeLimit()
		if viewErr != nil {
			return viewErr
		}
		phase, viewErr := engine.IsWhitelistPhase()
		if viewErr != nil {
			return viewErr
		}
		out.TLD = engine.TLD()
		out.Admin = formatAddress(admin)
		out.PendingAdmin = formatOptionalAddress(pending)
		out.Vault = formatAddress(engine.Vault())
		out.RecordsSizeLimit = limit
		out.WhitelistPhase = phase
		return nil
	}); err != nil {
		return nil, err
	}
	account, err := m.node.GetAccount(m.node.Vault())
	if err != nil {
		return nil, wrapError(err)
	}
	out.VaultBalance = amountString(account.Balance)
	return out, nil
}

func amountString(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}
