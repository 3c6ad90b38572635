package resolver

import (
	"errors"
	"strings"

	"namechain/core"
	"namechain/native/registry"
	"namechain/native/router"
)

// Backend looks up fully qualified "name.tld" domains.
type Backend interface {
	Resolve(domain string) ([20]byte, error)
	Records(domain string) ([]registry.Record, error)
}

// NodeBackend resolves through the node's router and reads records from the
// registry of the node's own TLD.
type NodeBackend struct {
	node *core.Node
}

func NewNodeBackend(node *core.Node) *NodeBackend {
	return &NodeBackend{node: node}
}

func (b *NodeBackend) Resolve(domain string) ([20]byte, error) {
	return b.node.Router().GetAddress(domain)
}

func (b *NodeBackend) Records(domain string) ([]registry.Record, error) {
	name, tld, err := router.SplitDomain(domain)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(tld, b.node.TLD()) {
		return nil, nil
	}
	var records []registry.Record
	err = b.node.View(func(engine *registry.Engine) error {
		var viewErr error
		records, viewErr = engine.GetAllRecords(name)
		return viewErr
	})
	if errors.Is(err, registry.ErrNoRecordsForName) {
		return nil, nil
	}
	return records, err
}
