package genesis

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"namechain/native/feecalc"
	"namechain/native/merkle"
	"namechain/native/namechecker"
	"namechain/native/registry"
)

// Spec is the YAML genesis document.
type Spec struct {
	GenesisTime string            `yaml:"genesisTime"`
	ChainID     uint64            `yaml:"chainId"`
	TLD         string            `yaml:"tld"`
	Admin       string            `yaml:"admin"`
	Vault       string            `yaml:"vault"`
	Alloc       map[string]string `yaml:"alloc"`
	Registry    RegistrySpec      `yaml:"registry"`
}

// RegistrySpec seeds the registry of the genesis TLD.
type RegistrySpec struct {
	WhitelistPhase   bool                `yaml:"whitelistPhase"`
	RecordsSizeLimit uint64              `yaml:"recordsSizeLimit"`
	DefaultPrice     string              `yaml:"defaultPrice"`
	Reserved         []ReservedSpec      `yaml:"reserved"`
	Whitelist        WhitelistSpec       `yaml:"whitelist"`
	NameChecker      *namechecker.Config `yaml:"nameChecker"`
	Fees             *FeeSpec            `yaml:"fees"`
}

type ReservedSpec struct {
	Name     string `yaml:"name"`
	Claimant string `yaml:"claimant,omitempty"`
}

// WhitelistSpec either pins a root or lists the members the root is built
// from. Root wins when both are present.
type WhitelistSpec struct {
	Root    string   `yaml:"root,omitempty"`
	Members []string `yaml:"members,omitempty"`
}

// FeeSpec configures the fee calculator. Without one the registry charges
// DefaultPrice for any duration up to registry.DefaultMaxRegistrationYears.
type FeeSpec struct {
	MaxRegistrationYears uint64         `yaml:"maxRegistrationYears"`
	CommonPrice          string         `yaml:"commonPrice"`
	PriceByLength        map[int]string `yaml:"priceByLength"`
}

// Allocation is an initial balance.
type Allocation struct {
	Account [20]byte
	Amount  *big.Int
}

// Genesis is a validated Spec with every field decoded.
type Genesis struct {
	Time          time.Time
	ChainID       uint64
	TLD           string
	Admin         [20]byte
	Vault         [20]byte
	Alloc         []Allocation
	Registry      registry.Config
	WhitelistRoot [32]byte
	DefaultPrice  *big.Int
	Checker       *namechecker.Checker
	Fees          *feecalc.Calculator
}

// Load reads and validates the genesis file at path.
func Load(path string) (*Genesis, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis %q: %w", path, err)
	}
	g, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("genesis %q: %w", path, err)
	}
	return g, nil
}

// Decode parses a YAML genesis document. Unknown fields are rejected.
func Decode(r io.Reader) (*Genesis, error) {
	var spec Spec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode genesis: %w", err)
	}
	return spec.Validate()
}

// Validate decodes and checks every field of the spec.
func (s *Spec) Validate() (*Genesis, error) {
	g := &Genesis{ChainID: s.ChainID, TLD: strings.ToLower(strings.TrimSpace(s.TLD))}
	if g.ChainID == 0 {
		return nil, fmt.Errorf("chainId must be positive")
	}
	if g.TLD == "" || strings.Contains(g.TLD, ".") {
		return nil, fmt.Errorf("invalid tld %q", s.TLD)
	}
	parsedTime, err := parseGenesisTime(s.GenesisTime)
	if err != nil {
		return nil, err
	}
	g.Time = parsedTime

	if g.Admin, err = ParseBech32Account(s.Admin); err != nil {
		return nil, fmt.Errorf("admin: %w", err)
	}
	if g.Vault, err = ParseBech32Account(s.Vault); err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}

	accounts := make([]string, 0, len(s.Alloc))
	for addr := range s.Alloc {
		accounts = append(accounts, addr)
	}
	sort.Strings(accounts)
	for _, addr := range accounts {
		parsed, err := ParseBech32Account(addr)
		if err != nil {
			return nil, fmt.Errorf("alloc[%q]: %w", addr, err)
		}
		amount, err := parseAmountString(s.Alloc[addr])
		if err != nil {
			return nil, fmt.Errorf("alloc[%q]: %w", addr, err)
		}
		g.Alloc = append(g.Alloc, Allocation{Account: parsed, Amount: amount})
	}

	if err := s.Registry.apply(g); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	return g, nil
}

func (r *RegistrySpec) apply(g *Genesis) error {
	g.Registry = registry.Config{
		Admin:            g.Admin,
		WhitelistPhase:   r.WhitelistPhase,
		RecordsSizeLimit: r.RecordsSizeLimit,
	}
	seen := make(map[string]struct{}, len(r.Reserved))
	for _, entry := range r.Reserved {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return fmt.Errorf("reserved name must not be empty")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("reserved name %q listed twice", name)
		}
		seen[name] = struct{}{}
		reserved := registry.ReservedEntry{Name: name}
		if strings.TrimSpace(entry.Claimant) != "" {
			claimant, err := ParseBech32Account(entry.Claimant)
			if err != nil {
				return fmt.Errorf("reserved[%q] claimant: %w", name, err)
			}
			reserved.Claimant = &claimant
		}
		g.Registry.Reserved = append(g.Registry.Reserved, reserved)
	}

	root, err := r.Whitelist.root()
	if err != nil {
		return err
	}
	g.WhitelistRoot = root

	if strings.TrimSpace(r.DefaultPrice) != "" {
		price, err := parseAmountString(r.DefaultPrice)
		if err != nil {
			return fmt.Errorf("defaultPrice: %w", err)
		}
		g.DefaultPrice = price
	}

	checkerCfg := namechecker.DefaultConfig()
	if r.NameChecker != nil {
		checkerCfg = *r.NameChecker
	}
	if g.Checker, err = namechecker.New(checkerCfg); err != nil {
		return fmt.Errorf("nameChecker: %w", err)
	}

	if r.Fees != nil {
		feeCfg, err := r.Fees.config()
		if err != nil {
			return fmt.Errorf("fees: %w", err)
		}
		if g.Fees, err = feecalc.New(feeCfg); err != nil {
			return fmt.Errorf("fees: %w", err)
		}
	}
	return nil
}

func (w WhitelistSpec) root() ([32]byte, error) {
	var root [32]byte
	if trimmed := strings.TrimSpace(w.Root); trimmed != "" {
		decoded, err := hex.DecodeString(strings.TrimPrefix(trimmed, "0x"))
		if err != nil {
			return root, fmt.Errorf("whitelist root: %w", err)
		}
		if len(decoded) != len(root) {
			return root, fmt.Errorf("whitelist root must be 32 bytes, got %d", len(decoded))
		}
		copy(root[:], decoded)
		return root, nil
	}
	if len(w.Members) == 0 {
		return root, nil
	}
	members := make([][20]byte, 0, len(w.Members))
	for _, member := range w.Members {
		addr, err := ParseBech32Account(member)
		if err != nil {
			return root, fmt.Errorf("whitelist member %q: %w", member, err)
		}
		members = append(members, addr)
	}
	return merkle.NewAccountTree(members).Root(), nil
}

func (f *FeeSpec) config() (feecalc.Config, error) {
	cfg := feecalc.Config{
		MaxRegistrationYears: f.MaxRegistrationYears,
		PriceByLength:        make(map[int]*big.Int, len(f.PriceByLength)),
	}
	common, err := parseAmountString(f.CommonPrice)
	if err != nil {
		return cfg, fmt.Errorf("commonPrice: %w", err)
	}
	cfg.CommonPrice = common
	for length, value := range f.PriceByLength {
		price, err := parseAmountString(value)
		if err != nil {
			return cfg, fmt.Errorf("priceByLength[%d]: %w", length, err)
		}
		cfg.PriceByLength[length] = price
	}
	return cfg, nil
}

func parseGenesisTime(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("genesisTime must be provided")
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid genesisTime %q: %w", value, err)
	}
	return parsed.UTC(), nil
}

func parseAmountString(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount %q must not be negative", value)
	}
	return amount, nil
}
