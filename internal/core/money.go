// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from user input
// and formatting cents for display.
package core

import (
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the ISO code used when formatting amounts.
var DefaultCurrency = "USD"

var maxCents = decimal.NewFromInt(math.MaxInt64)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading currency sign. Rounding is half away from zero on the
// third decimal place. Zero and negative values are rejected.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("$12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(strings.TrimSpace(s), "+") || d.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if cents.Sign() <= 0 || cents.GreaterThan(maxCents) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// ParseNonNegativeCents parses an optional amount such as the taxable
// part of a paycheck. Zero is accepted, negatives and garbage are not.
func ParseNonNegativeCents(s string) (int64, error) {
	d, err := parseDecimal(s)
	if err != nil || d.Sign() < 0 {
		return 0, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if cents.GreaterThan(maxCents) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// ParseAmount is the lenient parser used for externally supplied rows:
// anything that is not a number counts as zero. Negative values are kept.
func ParseAmount(s string) Money {
	d, err := parseDecimal(s)
	if err != nil {
		return Money{}
	}
	cents := d.Shift(2).Round(0)
	if cents.Abs().GreaterThan(maxCents) {
		return Money{}
	}
	return Money{Cents: cents.IntPart()}
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "€")
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	return decimal.NewFromString(s)
}

// MoneyFromFloat converts a float (JSON number) to cents.
func MoneyFromFloat(f float64) Money {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}
	}
	return Money{Cents: decimal.NewFromFloat(f).Shift(2).Round(0).IntPart()}
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }

// Percent returns pct percent of m, rounded to the nearest cent.
func (m Money) Percent(pct int64) Money {
	d := decimal.NewFromInt(m.Cents).Mul(decimal.NewFromInt(pct)).Div(decimal.NewFromInt(100))
	return Money{Cents: d.Round(0).IntPart()}
}

// Float returns the amount in major units for JSON payloads and charts.
func (m Money) Float() float64 {
	f, _ := decimal.New(m.Cents, -2).Float64()
	return f
}

// Decimal returns the plain decimal string, e.g. "12.30".
func (m Money) Decimal() string {
	return decimal.New(m.Cents, -2).StringFixed(2)
}

// String formats the amount in DefaultCurrency, e.g. "$1,234.50".
func (m Money) String() string {
	return money.New(m.Cents, DefaultCurrency).Display()
}
