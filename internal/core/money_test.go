package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		err error
	}{
		{"1", 100, nil},
		{"1.0", 100, nil},
		{"1.23", 123, nil},
		{"1,23", 123, nil},
		{"0.01", 1, nil},
		{" 2.50 ", 250, nil},
		{"12.340", 1234, nil},
		{"1.005", 0, ErrInvalidPrecision},
		{"-1", 0, ErrInvalidAmount},
		{"0", 0, ErrInvalidAmount},
		{"abc", 0, ErrInvalidAmount},
		{"1.2.3", 0, ErrInvalidAmount},
		{"", 0, ErrRequired},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.err == nil {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
			continue
		}
		if !errors.Is(err, tc.err) {
			t.Fatalf("%q expected %v, got %v", tc.in, tc.err, err)
		}
		ve, ok := IsValidation(err)
		if !ok || ve.Field != "amount" {
			t.Fatalf("%q expected validation error on amount, got %#v", tc.in, err)
		}
	}
}

func TestIncomeFromDecimal(t *testing.T) {
	if m, err := IncomeFromDecimal("income", decimal.Zero); err != nil || m.Cents != 0 {
		t.Fatalf("zero income should be allowed, got %v %v", m, err)
	}
	if _, err := IncomeFromDecimal("income", decimal.RequireFromString("-0.01")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := IncomeFromDecimal("income", decimal.RequireFromString("10.001")); !errors.Is(err, ErrInvalidPrecision) {
		t.Fatalf("expected ErrInvalidPrecision, got %v", err)
	}
}

func TestMoneyFromDecimalRoundsHalfUp(t *testing.T) {
	cases := map[string]int64{
		"400":      40000,
		"133.3333": 13333,
		"0.005":    1,
		"2.675":    268,
	}
	for in, want := range cases {
		if got := MoneyFromDecimal(decimal.RequireFromString(in)); got.Cents != want {
			t.Errorf("MoneyFromDecimal(%s) = %d, want %d", in, got.Cents, want)
		}
	}
}

func TestMoneyString(t *testing.T) {
	if s := (Money{Cents: -1230}).String(); s != "-12.30" {
		t.Fatalf("unexpected %q", s)
	}
	if s := Sum(Money{Cents: 1}, Money{Cents: 99}).String(); s != "1.00" {
		t.Fatalf("unexpected %q", s)
	}
}
