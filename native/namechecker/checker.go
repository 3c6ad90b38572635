package namechecker

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrTooShort                     = errors.New("namechecker: name too short")
	ErrTooLong                      = errors.New("namechecker: name too long")
	ErrContainsDisallowedCharacters = errors.New("namechecker: name contains disallowed characters")
	ErrInvalidRange                 = errors.New("namechecker: invalid range")
)

// UnicodeRange is an inclusive range of code points.
type UnicodeRange struct {
	Lower rune `yaml:"lower"`
	Upper rune `yaml:"upper"`
}

func (r UnicodeRange) contains(c rune) bool {
	return r.Lower <= c && c <= r.Upper
}

// Config describes the accepted names. Length bounds count runes.
type Config struct {
	MinLength         int            `yaml:"minLength"`
	MaxLength         int            `yaml:"maxLength"`
	Allowed           []UnicodeRange `yaml:"allowed"`
	DisallowedOnEdges []UnicodeRange `yaml:"disallowedOnEdges"`
}

// DefaultConfig accepts lowercase ascii letters, digits and inner hyphens,
// between 1 and 64 characters.
func DefaultConfig() Config {
	return Config{
		MinLength: 1,
		MaxLength: 64,
		Allowed: []UnicodeRange{
			{Lower: 'a', Upper: 'z'},
			{Lower: '0', Upper: '9'},
			{Lower: '-', Upper: '-'},
		},
		DisallowedOnEdges: []UnicodeRange{{Lower: '-', Upper: '-'}},
	}
}

// Validate checks the bounds and ranges of the configuration.
func (c Config) Validate() error {
	if c.MinLength <= 0 || c.MinLength > c.MaxLength {
		return fmt.Errorf("%w: length bounds %d..%d", ErrInvalidRange, c.MinLength, c.MaxLength)
	}
	for _, rng := range append(append([]UnicodeRange(nil), c.Allowed...), c.DisallowedOnEdges...) {
		if rng.Lower > rng.Upper {
			return fmt.Errorf("%w: %#x > %#x", ErrInvalidRange, rng.Lower, rng.Upper)
		}
	}
	return nil
}

// Checker enforces a Config.
type Checker struct {
	cfg Config
}

// New returns a checker for cfg.
func New(cfg Config) (*Checker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Checker{cfg: cfg}, nil
}

// Config returns the active configuration.
func (c *Checker) Config() Config { return c.cfg }

// IsNameAllowed reports nil for an acceptable name and the reason otherwise.
func (c *Checker) IsNameAllowed(name string) error {
	if !utf8.ValidString(name) {
		return ErrContainsDisallowedCharacters
	}
	length := utf8.RuneCountInString(name)
	if length > c.cfg.MaxLength {
		return ErrTooLong
	}
	if length < c.cfg.MinLength {
		return ErrTooShort
	}
	first, _ := utf8.DecodeRuneInString(name)
	last, _ := utf8.DecodeLastRuneInString(name)
	if inAny(c.cfg.DisallowedOnEdges, first) || inAny(c.cfg.DisallowedOnEdges, last) {
		return ErrContainsDisallowedCharacters
	}
	for _, r := range name {
		if !inAny(c.cfg.Allowed, r) {
			return ErrContainsDisallowedCharacters
		}
	}
	return nil
}

func inAny(ranges []UnicodeRange, r rune) bool {
	for _, rng := range ranges {
		if rng.contains(r) {
			return true
		}
	}
	return false
}
