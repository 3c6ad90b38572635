package feecalc

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	ErrInvalidDuration = errors.New("feecalc: invalid duration")
	ErrZeroLength      = errors.New("feecalc: zero length name")
	ErrOverflow        = errors.New("feecalc: price overflows 256 bits")
	ErrInvalidConfig   = errors.New("feecalc: invalid configuration")
)

// MaxDuration bounds MaxRegistrationYears.
const MaxDuration uint64 = 255

// Config is the fee schedule. PriceByLength is keyed by the byte length of a
// name and falls back to CommonPrice.
type Config struct {
	MaxRegistrationYears uint64
	CommonPrice          *big.Int
	PriceByLength        map[int]*big.Int
}

// Calculator prices registrations in overflow-checked 256-bit arithmetic.
type Calculator struct {
	maxYears uint64
	common   *uint256.Int
	byLength map[int]*uint256.Int
}

func toU256(field string, v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, field)
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrOverflow, field)
	}
	return out, nil
}

// New validates cfg and returns a calculator.
func New(cfg Config) (*Calculator, error) {
	if cfg.MaxRegistrationYears == 0 || cfg.MaxRegistrationYears > MaxDuration {
		return nil, fmt.Errorf("%w: max registration years must be in 1..%d", ErrInvalidConfig, MaxDuration)
	}
	common, err := toU256("common price", cfg.CommonPrice)
	if err != nil {
		return nil, err
	}
	calc := &Calculator{
		maxYears: cfg.MaxRegistrationYears,
		common:   common,
		byLength: make(map[int]*uint256.Int, len(cfg.PriceByLength)),
	}
	for length, price := range cfg.PriceByLength {
		if length <= 0 {
			return nil, fmt.Errorf("%w: price length %d", ErrInvalidConfig, length)
		}
		v, err := toU256(fmt.Sprintf("price for length %d", length), price)
		if err != nil {
			return nil, err
		}
		calc.byLength[length] = v
	}
	return calc, nil
}

// MaxRegistrationYears returns the longest duration accepted.
func (c *Calculator) MaxRegistrationYears() uint64 { return c.maxYears }

// GetNamePrice returns the yearly price for the name length as base and
// (years-1) times that price as premium.
func (c *Calculator) GetNamePrice(name string, years uint64) (*big.Int, *big.Int, error) {
	if years < 1 || years > c.maxYears {
		return nil, nil, fmt.Errorf("%w: %d years (max %d)", ErrInvalidDuration, years, c.maxYears)
	}
	if len(name) == 0 {
		return nil, nil, ErrZeroLength
	}
	base := c.common
	if v, ok := c.byLength[len(name)]; ok {
		base = v
	}
	premium, overflow := new(uint256.Int).MulOverflow(base, uint256.NewInt(years-1))
	if overflow {
		return nil, nil, ErrOverflow
	}
	if _, overflow := new(uint256.Int).AddOverflow(base, premium); overflow {
		return nil, nil, ErrOverflow
	}
	return base.ToBig(), premium.ToBig(), nil
}
