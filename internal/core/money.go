// Package core holds the domain model and the pure computation components:
// installment plan generation, statement projection and settlement transitions.
//
// This file contains money parsing and formatting. All arithmetic inside the
// package happens on integer cents; decimal values exist only at the parse and
// format boundaries.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a monetary value in integer minor units (cents).
type Money struct {
	Cents int64
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// Neg returns the value with its sign flipped.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

// IsNegative reports whether the value is below zero.
func (m Money) IsNegative() bool {
	return m.Cents < 0
}

// Decimal returns the value in major units, for formatting only.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the value like "1234.56". Display code that needs a locale
// string should go through FormatBRL instead.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// ParseDecimalToCents converts a decimal string to cents with half-up rounding
// on the third decimal place. It accepts both dot (12.34) and comma (12,34)
// decimal separators. Negative values are rejected; zero is allowed so fee
// fields can be left at "0".
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.346") -> 1235, nil (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

// FormatBRL renders cents as a Brazilian currency string, e.g. "R$ 1.234,56".
// Never used for arithmetic.
func FormatBRL(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := decimal.New(cents, -2).StringFixed(2)
	intPart, fracPart, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteRune('.')
		}
		b.WriteRune(r)
	}
	out := "R$ " + b.String() + "," + fracPart
	if neg {
		return "-" + out
	}
	return out
}
