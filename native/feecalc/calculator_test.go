package feecalc

import (
	"errors"
	"math/big"
	"testing"
)

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	calc, err := New(Config{
		MaxRegistrationYears: 3,
		CommonPrice:          big.NewInt(10),
		PriceByLength:        map[int]*big.Int{3: big.NewInt(100), 4: big.NewInt(50)},
	})
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}
	return calc
}

func TestGetNamePriceSplitsBaseAndPremium(t *testing.T) {
	calc := newTestCalculator(t)
	cases := []struct {
		name    string
		years   uint64
		base    int64
		premium int64
	}{
		{"abc", 1, 100, 0},
		{"abc", 3, 100, 200},
		{"gold", 2, 50, 50},
		{"longname", 2, 10, 10},
	}
	for _, tc := range cases {
		base, premium, err := calc.GetNamePrice(tc.name, tc.years)
		if err != nil {
			t.Fatalf("%s/%d: %v", tc.name, tc.years, err)
		}
		if base.Cmp(big.NewInt(tc.base)) != 0 || premium.Cmp(big.NewInt(tc.premium)) != 0 {
			t.Fatalf("%s/%d: got base %s premium %s", tc.name, tc.years, base, premium)
		}
	}
}

func TestGetNamePriceRejectsInvalidInput(t *testing.T) {
	calc := newTestCalculator(t)
	if _, _, err := calc.GetNamePrice("abc", 0); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration for zero years, got %v", err)
	}
	if _, _, err := calc.GetNamePrice("abc", 4); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration above max, got %v", err)
	}
	if _, _, err := calc.GetNamePrice("", 1); !errors.Is(err, ErrZeroLength) {
		t.Fatalf("expected ErrZeroLength, got %v", err)
	}
}

func TestGetNamePriceDetectsOverflow(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 255)
	calc, err := New(Config{MaxRegistrationYears: 2, CommonPrice: huge})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, _, err := calc.GetNamePrice("abc", 1); err != nil {
		t.Fatalf("single year should fit: %v", err)
	}
	if _, _, err := calc.GetNamePrice("abc", 2); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := New(Config{MaxRegistrationYears: 1, CommonPrice: big.NewInt(-1)}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected negative price rejection, got %v", err)
	}
	if _, err := New(Config{MaxRegistrationYears: MaxDuration + 1, CommonPrice: big.NewInt(1)}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected max duration rejection, got %v", err)
	}
}

func TestGetNamePriceMatchesReferenceSchedule(t *testing.T) {
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(12), nil)
	scaled := func(v int64) *big.Int { return new(big.Int).Mul(big.NewInt(v), unit) }
	calc, err := New(Config{
		MaxRegistrationYears: 3,
		CommonPrice:          scaled(6),
		PriceByLength:        map[int]*big.Int{3: scaled(640), 4: scaled(160)},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	cases := []struct {
		name          string
		years         uint64
		base, premium *big.Int
	}{
		{"abc", 1, scaled(640), scaled(0)},
		{"abcd", 2, scaled(160), scaled(160)},
		{"abcde", 3, scaled(6), scaled(12)},
	}
	for _, tc := range cases {
		base, premium, err := calc.GetNamePrice(tc.name, tc.years)
		if err != nil {
			t.Fatalf("%s/%d: %v", tc.name, tc.years, err)
		}
		if base.Cmp(tc.base) != 0 || premium.Cmp(tc.premium) != 0 {
			t.Fatalf("%s/%d: got base %s premium %s", tc.name, tc.years, base, premium)
		}
	}
	if got := calc.MaxRegistrationYears(); got != 3 {
		t.Fatalf("max years %d", got)
	}
}
