package registry

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"

	"namechain/core/events"
	"namechain/core/types"
)

type memoryStore struct {
	data map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (m *memoryStore) KVGet(key []byte, out interface{}) (bool, error) {
	raw, ok := m.data[string(key)]
	if !ok {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	return true, rlp.DecodeBytes(raw, out)
}

func (m *memoryStore) KVPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.data[string(key)] = encoded
	return nil
}

func (m *memoryStore) KVDelete(key []byte) error {
	delete(m.data, string(key))
	return nil
}

var errBankRefused = errors.New("bank refused")

type mockBank struct {
	balances map[[20]byte]*big.Int
	refuse   map[[20]byte]bool
}

func newMockBank() *mockBank {
	return &mockBank{balances: make(map[[20]byte]*big.Int), refuse: make(map[[20]byte]bool)}
}

func (b *mockBank) Balance(addr [20]byte) (*big.Int, error) {
	if bal, ok := b.balances[addr]; ok {
		return new(big.Int).Set(bal), nil
	}
	return big.NewInt(0), nil
}

func (b *mockBank) Transfer(from, to [20]byte, amount *big.Int) error {
	if b.refuse[to] {
		return errBankRefused
	}
	have, _ := b.Balance(from)
	if have.Cmp(amount) < 0 {
		return errBankRefused
	}
	got, _ := b.Balance(to)
	b.balances[from] = have.Sub(have, amount)
	b.balances[to] = got.Add(got, amount)
	return nil
}

type captureEmitter struct {
	events []*types.Event
}

func (c *captureEmitter) Emit(evt events.Event) {
	if wrapped, ok := evt.(interface{ Event() *types.Event }); ok {
		c.events = append(c.events, wrapped.Event())
	}
}

func (c *captureEmitter) count(kind string) int {
	n := 0
	for _, evt := range c.events {
		if evt.Type == kind {
			n++
		}
	}
	return n
}

var (
	adminAddr = [20]byte{0xad}
	vaultAddr = [20]byte{0xee}
	userU     = [20]byte{0x01}
	userV     = [20]byte{0x02}
	userW     = [20]byte{0x03}
	userR     = [20]byte{0x04}
)

type fixture struct {
	t       *testing.T
	engine  *Engine
	store   *memoryStore
	bank    *mockBank
	emitter *captureEmitter
	now     int64
}

const startTime int64 = 1_700_000_000

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:       t,
		store:   newMemoryStore(),
		bank:    newMockBank(),
		emitter: &captureEmitter{},
		now:     startTime,
	}
	f.engine = NewEngine("nc", vaultAddr)
	f.engine.SetState(f.store)
	f.engine.SetPayments(f.bank)
	f.engine.SetEmitter(f.emitter)
	f.engine.SetNowFunc(func() int64 { return f.now })
	if err := f.engine.Initialise(Config{Admin: adminAddr}); err != nil {
		t.Fatalf("initialise: %v", err)
	}
	for _, addr := range [][20]byte{userU, userV, userW, userR} {
		f.bank.balances[addr] = big.NewInt(1_000_000)
	}
	return f
}

// attach moves value from the caller into the vault the way the runtime does
// before dispatching a call.
func (f *fixture) attach(caller [20]byte, value int64) *big.Int {
	amount := big.NewInt(value)
	if err := f.bank.Transfer(caller, vaultAddr, amount); err != nil {
		f.t.Fatalf("attach value: %v", err)
	}
	return amount
}

func (f *fixture) register(caller [20]byte, name string, value int64) error {
	return f.engine.Register(caller, Registration{Name: name, Years: 1, Paid: f.attach(caller, value)})
}

func (f *fixture) mustRegister(caller [20]byte, name string) {
	f.t.Helper()
	if err := f.register(caller, name, 1000); err != nil {
		f.t.Fatalf("register %q: %v", name, err)
	}
}

func (f *fixture) balance(addr [20]byte) int64 {
	bal, _ := f.bank.Balance(addr)
	return bal.Int64()
}

func (f *fixture) status(name string) NameStatus {
	f.t.Helper()
	statuses, err := f.engine.GetNameStatus([]string{name})
	if err != nil {
		f.t.Fatalf("status %q: %v", name, err)
	}
	return statuses[0]
}

func (f *fixture) names(rel Relation, addr [20]byte) []string {
	f.t.Helper()
	names, err := f.engine.NamesOf(rel, addr)
	if err != nil {
		f.t.Fatalf("names: %v", err)
	}
	return names
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func strPtr(s string) *string { return &s }
