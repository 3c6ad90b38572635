package rpc

import (
	"context"
	"encoding/json"

	"namechain/rpc/modules"
)

func read(call func(json.RawMessage) (interface{}, *modules.ModuleError)) method {
	return method{call: func(_ context.Context, params json.RawMessage) (interface{}, *modules.ModuleError) {
		return call(params)
	}}
}

func registerMethods(names *modules.NamesModule, access *modules.AccessModule, chain *modules.ChainModule, txs *modules.TransactionsModule) map[string]method {
	return map[string]method{
		"nc_sendTransaction": {write: true, call: func(ctx context.Context, params json.RawMessage) (interface{}, *modules.ModuleError) {
			return txs.Send(ctx, params)
		}},

		"nc_chainInfo": read(func(json.RawMessage) (interface{}, *modules.ModuleError) { return chain.Info() }),
		"nc_getAccount": read(func(p json.RawMessage) (interface{}, *modules.ModuleError) {
			return chain.Account(p)
		}),
		"nc_getBlock": read(func(p json.RawMessage) (interface{}, *modules.ModuleError) {
			return chain.Header(p)
		}),
		"nc_resolve": read(func(p json.RawMessage) (interface{}, *modules.ModuleError) {
			return chain.Resolve(p)
		}),
		"nc_getPrimaryDomain": read(func(p json.RawMessage) (interface{}, *modules.ModuleError) {
			return chain.PrimaryDomain(p)
		}),
		"nc_getNameHistory": {call: func(ctx context.Context, params json.RawMessage) (interface{}, *modules.ModuleError) {
			return chain.History(ctx, params)
		}},

		"nc_getNameStatus": read(func(p json.RawMessage) (interface{}, *modules.ModuleError) {
			return names.NameStatus(p)
		}),
		"nc_getNamePrice": read(func(p json.RawMessage) (interface{}, *modules.ModuleError) {
			return names.NamePrice(p)
		}),
		"nc_getNameRecord": read(func(p json.RawMessage) (interface{}, *modules.ModuleError) {
			return names.NameRecord(p)
		}),
		"nc_getAddress": read(func(p json.RawMessage) (interface{}, *modules.ModuleError) {
			return names.Address(p)
		}),
		"nc_getPrimaryName": read(func(p json.RawMessage) (interface{}, *modules.ModuleError) {
			return names.PrimaryName(p)
		}),
		"nc_getRecords": read(func(p json.RawMessage) (interface{}, *modules.ModuleError) {
			return names.Records(p)
		}),
		"nc_getRecord": read(func(p json.RawMessage) (interface{}, *modules.ModuleError) {
			return names.Record(p)
		}),
		"nc_getNamesOf": read(func(p json.RawMessage) (interface{}, *modules.ModuleError) {
			return names.NamesOf(p)
		}),
		"nc_getReservedClaimant": read(func(p json.RawMessage) (interface{}, *modules.ModuleError) {
			return names.ReservedClaimant(p)
		}),

		"nc_getAllowance": read(func(p json.RawMessage) (interface{}, *modules.ModuleError) {
			return access.Allowance(p)
		}),
		"nc_isWhitelistPhase": read(func(json.RawMessage) (interface{}, *modules.ModuleError) {
			return access.WhitelistPhase()
		}),
		"nc_verifyProof": read(func(p json.RawMessage) (interface{}, *modules.ModuleError) {
			return access.VerifyProof(p)
		}),
		"nc_getRegistrySettings": read(func(json.RawMessage) (interface{}, *modules.ModuleError) {
			return access.Settings()
		}),
	}
}
