package modules

import (
	"encoding/json"
	"strings"

	"namechain/core"
	"namechain/native/registry"
)

// NamesModule serves read-only registry queries.
type NamesModule struct {
	node *core.Node
}

func NewNamesModule(node *core.Node) *NamesModule {
	return &NamesModule{node: node}
}

type AddressDictResult struct {
	Owner      string `json:"owner"`
	Controller string `json:"controller"`
	Resolved   string `json:"resolved"`
}

type PeriodResult struct {
	Registration int64 `json:"registration"`
	Expiration   int64 `json:"expiration"`
}

type NameStatusResult struct {
	Name        string             `json:"name"`
	Status      string             `json:"status"`
	Addresses   *AddressDictResult `json:"addresses,omitempty"`
	Period      *PeriodResult      `json:"period,omitempty"`
	ReservedFor string             `json:"reservedFor,omitempty"`
}

type NameRecordResult struct {
	Name      string            `json:"name"`
	Addresses AddressDictResult `json:"addresses"`
	Period    PeriodResult      `json:"period"`
}

type PriceResult struct {
	Base     string `json:"base"`
	Premium  string `json:"premium"`
	Discount string `json:"discount"`
	Total    string `json:"total"`
	Referrer string `json:"referrer,omitempty"`
}

type RecordResult struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type AddressResult struct {
	Address string `json:"address"`
}

type NameResult struct {
	Name string `json:"name"`
}

type ReservedResult struct {
	Name     string `json:"name"`
	Reserved bool   `json:"reserved"`
	Claimant string `json:"claimant,omitempty"`
}

type nameParams struct {
	Name string `json:"name"`
}

type namesParams struct {
	Names []string `json:"names"`
}

type addressParams struct {
	Address string `json:"address"`
}

type priceParams struct {
	Name      string  `json:"name"`
	Recipient string  `json:"recipient"`
	Years     uint64  `json:"years"`
	Referrer  *string `json:"referrer,omitempty"`
}

type recordParams struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

type namesOfParams struct {
	Relation string `json:"relation"`
	Address  string `json:"address"`
}

func formatAddressDict(dict registry.AddressDict) AddressDictResult {
	return AddressDictResult{
		Owner:      formatAddress(dict.Owner),
		Controller: formatAddress(dict.Controller),
		Resolved:   formatAddress(dict.Resolved),
	}
}

func formatStatus(status registry.NameStatus) NameStatusResult {
	out := NameStatusResult{Name: status.Name, Status: status.Kind.String()}
	if status.Addresses != nil {
		dict := formatAddressDict(*status.Addresses)
		out.Addresses = &dict
	}
	if status.Period != nil {
		out.Period = &PeriodResult{Registration: status.Period.Registration, Expiration: status.Period.Expiration}
	}
	out.ReservedFor = formatOptionalAddress(status.ReservedFor)
	return out
}

// NameStatus classifies each requested name.
func (m *NamesModule) NameStatus(raw json.RawMessage) ([]NameStatusResult, *ModuleError) {
	var params namesParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	if len(params.Names) == 0 {
		return nil, invalidParams("names are required", nil)
	}
	var statuses []registry.NameStatus
	if err := viewState(m.node, func(engine *registry.Engine) error {
		var viewErr error
		statuses, viewErr = engine.GetNameStatus(params.Names)
		return viewErr
	}); err != nil {
		return nil, err
	}
	out := make([]NameStatusResult, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, formatStatus(status))
	}
	return out, nil
}

// NamePrice quotes a registration. An empty recipient quotes the vault rate
// for an unknown buyer.
func (m *NamesModule) NamePrice(raw json.RawMessage) (*PriceResult, *ModuleError) {
	var params priceParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	name, modErr := requireName(params.Name)
	if modErr != nil {
		return nil, modErr
	}
	var recipient [20]byte
	if strings.TrimSpace(params.Recipient) != "" {
		if recipient, modErr = parseAddress("recipient", params.Recipient); modErr != nil {
			return nil, modErr
		}
	}
	years := params.Years
	if years == 0 {
		years = 1
	}
	var price registry.Price
	if err := viewState(m.node, func(engine *registry.Engine) error {
		var viewErr error
		price, viewErr = engine.GetNamePrice(name, recipient, years, params.Referrer)
		return viewErr
	}); err != nil {
		return nil, err
	}
	out := &PriceResult{
		Base:     amountString(price.Base),
		Premium:  amountString(price.Premium),
		Discount: amountString(price.Discount),
		Total:    price.Total().String(),
		Referrer: formatOptionalAddress(price.Referrer),
	}
	return out, nil
}

// NameRecord returns the roles and registration window of an active name.
func (m *NamesModule) NameRecord(raw json.RawMessage) (*NameRecordResult, *ModuleError) {
	var params nameParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	name, modErr := requireName(params.Name)
	if modErr != nil {
		return nil, modErr
	}
	var record *registry.NameRecord
	if err := viewState(m.node, func(engine *registry.Engine) error {
		var viewErr error
		record, viewErr = engine.GetNameRecord(name)
		return viewErr
	}); err != nil {
		return nil, err
	}
	return &NameRecordResult{
		Name:      record.Name,
		Addresses: formatAddressDict(record.Addresses),
		Period:    PeriodResult{Registration: record.Period.Registration, Expiration: record.Period.Expiration},
	}, nil
}

// Address resolves a name under the node's TLD.
func (m *NamesModule) Address(raw json.RawMessage) (*AddressResult, *ModuleError) {
	var params nameParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	name, modErr := requireName(params.Name)
	if modErr != nil {
		return nil, modErr
	}
	var addr [20]byte
	if err := viewState(m.node, func(engine *registry.Engine) error {
		var viewErr error
		addr, viewErr = engine.GetAddress(name)
		return viewErr
	}); err != nil {
		return nil, err
	}
	return &AddressResult{Address: formatAddress(addr)}, nil
}

// PrimaryName returns the reverse record of an address.
func (m *NamesModule) PrimaryName(raw json.RawMessage) (*NameResult, *ModuleError) {
	var params addressParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	addr, modErr := parseAddress("address", params.Address)
	if modErr != nil {
		return nil, modErr
	}
	var name string
	if err := viewState(m.node, func(engine *registry.Engine) error {
		var viewErr error
		name, viewErr = engine.GetPrimaryName(addr)
		return viewErr
	}); err != nil {
		return nil, err
	}
	return &NameResult{Name: name}, nil
}

// Records lists every record of an active name.
func (m *NamesModule) Records(raw json.RawMessage) ([]RecordResult, *ModuleError) {
	var params nameParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	name, modErr := requireName(params.Name)
	if modErr != nil {
		return nil, modErr
	}
	var records []registry.Record
	if err := viewState(m.node, func(engine *registry.Engine) error {
		var viewErr error
		records, viewErr = engine.GetAllRecords(name)
		return viewErr
	}); err != nil {
		return nil, err
	}
	out := make([]RecordResult, 0, len(records))
	for _, record := range records {
		out = append(out, RecordResult{Key: record.Key, Value: record.Value})
	}
	return out, nil
}

func (m *NamesModule) Record(raw json.RawMessage) (*RecordResult, *ModuleError) {
	var params recordParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	name, modErr := requireName(params.Name)
	if modErr != nil {
		return nil, modErr
	}
	if params.Key == "" {
		return nil, invalidParams("key is required", nil)
	}
	var value string
	if err := viewState(m.node, func(engine *registry.Engine) error {
		var viewErr error
		value, viewErr = engine.GetRecord(name, params.Key)
		return viewErr
	}); err != nil {
		return nil, err
	}
	return &RecordResult{Key: params.Key, Value: value}, nil
}

// NamesOf lists the names an address owns, controls or resolves to.
func (m *NamesModule) NamesOf(raw json.RawMessage) ([]string, *ModuleError) {
	var params namesOfParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	rel, ok := registry.ParseRelation(params.Relation)
	if !ok {
		return nil, invalidParams("relation must be owned, controlled or resolving", nil)
	}
	addr, modErr := parseAddress("address", params.Address)
	if modErr != nil {
		return nil, modErr
	}
	var names []string
	if err := viewState(m.node, func(engine *registry.Engine) error {
		var viewErr error
		names, viewErr = engine.NamesOf(rel, addr)
		return viewErr
	}); err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// ReservedClaimant reports whether a name is reserved and for whom.
func (m *NamesModule) ReservedClaimant(raw json.RawMessage) (*ReservedResult, *ModuleError) {
	var params nameParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	name, modErr := requireName(params.Name)
	if modErr != nil {
		return nil, modErr
	}
	out := &ReservedResult{Name: name}
	if err := viewState(m.node, func(engine *registry.Engine) error {
		claimant, reserved, viewErr := engine.GetReservedClaimant(name)
		if viewErr != nil {
			return viewErr
		}
		out.Reserved = reserved
		out.Claimant = formatOptionalAddress(claimant)
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}
