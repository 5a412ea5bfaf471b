// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents; decimal text is converted at the edges
// with shopspring/decimal so no float ever touches a balance.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

// Largest amount accepted from text, in whole units.
var maxUnits = decimal.New(1, 15)

// ParseDecimalToCents converts a decimal string to cents with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Negative
// values are rejected; zero is allowed and left to the caller to judge.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
//	ParseDecimalToCents("12.344") -> 1234, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.ContainsAny(s, "eE") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}
	if d.GreaterThan(maxUnits) {
		return 0, ErrInvalidAmount
	}
	return d.Round(2).Shift(2).IntPart(), nil
}

// ParseAmount parses a strictly positive amount.
func ParseAmount(s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	m := Money{Cents: cents}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// ParseNonNegativeAmount parses an amount that may be zero.
func ParseNonNegativeAmount(s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (m Money) IsNegative() bool {
	return m.Cents < 0
}

// Decimal returns the amount in units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with exactly two decimal digits and a dot separator.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Sum adds up a list of amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
