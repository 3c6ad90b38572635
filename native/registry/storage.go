package registry

import (
	"fmt"
	"strings"
)

// storage abstracts the subset of state manager functionality required by the
// registry. Values are RLP encoded by the backend.
type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

// keyspace namespaces every key of one registry instance under its TLD.
type keyspace struct {
	prefix string
}

func newKeyspace(tld string) keyspace {
	return keyspace{prefix: "registry/" + strings.ToLower(strings.TrimSpace(tld)) + "/"}
}

func (k keyspace) name(name string) []byte     { return []byte(k.prefix + "name/" + name) }
func (k keyspace) records(name string) []byte  { return []byte(k.prefix + "records/" + name) }
func (k keyspace) reserved(name string) []byte { return []byte(k.prefix + "reserved/" + name) }
func (k keyspace) meta() []byte                { return []byte(k.prefix + "meta") }

func (k keyspace) primary(addr [20]byte) []byte {
	return []byte(fmt.Sprintf("%sprimary/%x", k.prefix, addr))
}

func (k keyspace) nameApproval(name string) []byte {
	return []byte(k.prefix + "approval/name/" + name)
}

func (k keyspace) operatorApproval(owner, operator [20]byte) []byte {
	return []byte(fmt.Sprintf("%sapproval/operator/%x/%x", k.prefix, owner, operator))
}

func (k keyspace) indexBase(rel Relation, addr [20]byte) string {
	return fmt.Sprintf("%sindex/%s/%x/", k.prefix, rel, addr)
}

// storedName is the persisted form of an active or expired name. Timestamps
// are unsigned for RLP.
type storedName struct {
	Name         string
	Owner        [20]byte
	Controller   [20]byte
	Resolved     [20]byte
	Registration uint64
	Expiration   uint64
}

func (s *storedName) addresses() AddressDict {
	return AddressDict{Owner: s.Owner, Controller: s.Controller, Resolved: s.Resolved}
}

func (s *storedName) period() Period {
	return Period{Registration: int64(s.Registration), Expiration: int64(s.Expiration)}
}

func (s *storedName) record() *NameRecord {
	return &NameRecord{Name: s.Name, Addresses: s.addresses(), Period: s.period()}
}

type storedRecord struct {
	Key   string
	Value string
}

type storedRecords struct {
	Entries []storedRecord
}

type storedReserved struct {
	HasClaimant bool
	Claimant    [20]byte
}

type storedPrimary struct {
	Name string
}

type storedApproval struct {
	Operator [20]byte
}

type storedFlag struct {
	Approved bool
}

type storedMeta struct {
	Admin            [20]byte
	PendingAdmin     [20]byte
	HasPendingAdmin  bool
	WhitelistPhase   bool
	RecordsSizeLimit uint64
}

func (e *Engine) loadName(name string) (*storedName, bool, error) {
	var stored storedName
	ok, err := e.state.KVGet(e.keys.name(name), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &stored, true, nil
}

func (e *Engine) storeName(rec *storedName) error {
	return e.state.KVPut(e.keys.name(rec.Name), rec)
}

func (e *Engine) loadRecords(name string) ([]Record, error) {
	var stored storedRecords
	ok, err := e.state.KVGet(e.keys.records(name), &stored)
	if err != nil || !ok {
		return nil, err
	}
	out := make([]Record, 0, len(stored.Entries))
	for _, entry := range stored.Entries {
		out = append(out, Record{Key: entry.Key, Value: entry.Value})
	}
	return out, nil
}

func (e *Engine) storeRecords(name string, records []Record) error {
	if len(records) == 0 {
		return e.state.KVDelete(e.keys.records(name))
	}
	stored := storedRecords{Entries: make([]storedRecord, 0, len(records))}
	for _, rec := range records {
		stored.Entries = append(stored.Entries, storedRecord{Key: rec.Key, Value: rec.Value})
	}
	return e.state.KVPut(e.keys.records(name), &stored)
}

func (e *Engine) loadReserved(name string) (*storedReserved, bool, error) {
	var stored storedReserved
	ok, err := e.state.KVGet(e.keys.reserved(name), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &stored, true, nil
}

func (e *Engine) loadMeta() (*storedMeta, error) {
	var meta storedMeta
	ok, err := e.state.KVGet(e.keys.meta(), &meta)
	if err != nil {
		return nil, err
	}
	if !ok || meta.RecordsSizeLimit == 0 {
		meta.RecordsSizeLimit = DefaultRecordsSizeLimit
	}
	return &meta, nil
}

func (e *Engine) storeMeta(meta *storedMeta) error {
	return e.state.KVPut(e.keys.meta(), meta)
}
