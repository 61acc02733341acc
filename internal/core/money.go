// Package core provides money parsing and handling utilities.
//
// Amounts enter the system as decimals and are stored as integer cents.
// AmountPrecision is the number of fractional digits the ledger accepts;
// anything finer is rejected rather than rounded.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const AmountPrecision = 2

// ParseAmount converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. The value
// must be strictly positive and have at most AmountPrecision fractional
// digits; trailing zeros beyond that are fine ("12.340").
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,3")   -> 1230 cents
//	ParseAmount("12.345") -> ErrInvalidPrecision
//	ParseAmount("-1")     -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return Money{}, &ValidationError{Field: "amount", Err: ErrRequired}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	return AmountFromDecimal("amount", d)
}

// AmountFromDecimal validates a strictly positive amount.
func AmountFromDecimal(field string, d decimal.Decimal) (Money, error) {
	if !d.IsPositive() {
		return Money{}, &ValidationError{Field: field, Err: ErrInvalidAmount}
	}
	return fromDecimal(field, d)
}

// IncomeFromDecimal validates a non-negative amount.
func IncomeFromDecimal(field string, d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, &ValidationError{Field: field, Err: ErrInvalidAmount}
	}
	return fromDecimal(field, d)
}

func fromDecimal(field string, d decimal.Decimal) (Money, error) {
	if !d.Equal(d.Truncate(AmountPrecision)) {
		return Money{}, &ValidationError{Field: field, Err: ErrInvalidPrecision}
	}
	cents := d.Shift(AmountPrecision)
	if cents.GreaterThan(decimal.NewFromInt(math.MaxInt64 / 2)) {
		return Money{}, &ValidationError{Field: field, Err: ErrInvalidAmount}
	}
	return Money{Cents: cents.IntPart()}, nil
}

// MoneyFromDecimal rounds half-up to cents. Used for derived values such as
// averages, never for user input.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Round(AmountPrecision).Shift(AmountPrecision).IntPart()}
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -AmountPrecision)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }

// String formats the amount with exactly two decimals, e.g. "-12.30".
func (m Money) String() string {
	return m.Decimal().StringFixed(AmountPrecision)
}

// Sum adds all amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
