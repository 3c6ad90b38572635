package modules

import (
	"context"
	"encoding/json"

	"namechain/core"
	"namechain/core/types"
)

// TransactionsModule submits signed transactions to the node.
type TransactionsModule struct {
	node *core.Node
}

func NewTransactionsModule(node *core.Node) *TransactionsModule {
	return &TransactionsModule{node: node}
}

// Send decodes a signed transaction, applies it and returns the receipt of
// the block it was committed in.
func (m *TransactionsModule) Send(ctx context.Context, raw json.RawMessage) (*core.Receipt, *ModuleError) {
	if m.node == nil {
		return nil, errModuleOffline
	}
	if len(raw) == 0 {
		return nil, invalidParams("transaction object required", nil)
	}
	var tx types.Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, invalidParams("invalid transaction object", err)
	}
	receipt, err := m.node.SubmitTransaction(ctx, &tx)
	if err != nil {
		return nil, wrapError(err)
	}
	return receipt, nil
}
