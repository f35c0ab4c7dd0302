// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and dollar representations.
package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in integer cents.
type Money struct {
	Cents int64
}

var ErrInvalidAmount = errors.New("invalid amount")

// errAmountOverflow marks a well-formed amount whose whole part does not fit
// in int64 cents.
var errAmountOverflow = fmt.Errorf("%w: too large", ErrInvalidAmount)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, an optional
// leading dollar sign, and performs half-up rounding on the third decimal place.
// When both separators appear the comma is read as digit grouping (1,000.50).
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("$25")    -> 2500, nil
//	ParseDecimalToCents("12.346") -> 1235, nil (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	whole, frac, err := splitDecimal(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := whole*100 + truncatedFraction(frac)
	if roundsUp(frac) {
		cents++
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseDepositAmount parses a typed deposit and checks it against the vault
// bounds using the exact decimal, before any rounding to cents. So 24.995 is
// below the minimum and 1000.004 above the maximum. Whole parts too large for
// int64 report ErrAboveMaximum; other malformed input reports ErrInvalidAmount.
func ParseDepositAmount(s string) (Money, error) {
	whole, frac, err := splitDecimal(s)
	if errors.Is(err, errAmountOverflow) {
		return Money{}, ErrAboveMaximum
	}
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	truncated := whole*100 + truncatedFraction(frac)
	if truncated < MinDepositCents {
		return Money{}, ErrBelowMinimum
	}
	if truncated > MaxDepositCents || (truncated == MaxDepositCents && hasSubCent(frac)) {
		return Money{}, ErrAboveMaximum
	}
	m := Money{Cents: truncated}
	if roundsUp(frac) {
		m.Cents++
	}
	return m, m.ValidateDeposit()
}

// splitDecimal normalizes s and returns its whole part and the raw digits
// after the separator.
func splitDecimal(s string) (int64, string, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return 0, "", ErrInvalidAmount
	}
	if strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, "", ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, "", ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, "", ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		// Digits only, so the sole failure left is range.
		return 0, "", errAmountOverflow
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, "", errAmountOverflow
	}
	return iv, fracPart, nil
}

// truncatedFraction returns the first two fractional digits as cents.
func truncatedFraction(frac string) int64 {
	var cents int64
	if len(frac) > 0 {
		cents = int64(frac[0]-'0') * 10
	}
	if len(frac) > 1 {
		cents += int64(frac[1] - '0')
	}
	return cents
}

// roundsUp reports whether half-up rounding on the third decimal adds a cent.
func roundsUp(frac string) bool {
	return len(frac) > 2 && frac[2] >= '5'
}

func hasSubCent(frac string) bool {
	if len(frac) <= 2 {
		return false
	}
	return strings.Trim(frac[2:], "0") != ""
}

// MoneyFromDollars converts a real dollar amount to cents, rounding half away from zero.
// Non-finite and non-positive inputs are reported as ErrBelowMinimum, the same
// way the ledger treats any amount that cannot reach the deposit floor.
func MoneyFromDollars(d float64) (Money, error) {
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return Money{}, ErrBelowMinimum
	}
	if d > float64(math.MaxInt64/100) {
		return Money{}, ErrAboveMaximum
	}
	return Money{Cents: int64(math.Round(d * 100))}, nil
}

// DepositFromDollars is MoneyFromDollars for stored deposits: the bounds are
// checked on d itself, so 24.996 cannot round its way up to the minimum.
func DepositFromDollars(d float64) (Money, error) {
	m, err := MoneyFromDollars(d)
	if err != nil {
		return Money{}, err
	}
	if d < float64(MinDepositCents)/100 {
		return Money{}, ErrBelowMinimum
	}
	if d > float64(MaxDepositCents)/100 {
		return Money{}, ErrAboveMaximum
	}
	return m, nil
}

// Dollars returns the amount as a real number of dollars.
// Use cents for ledger arithmetic; dollars are for projections and display.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateDeposit enforces the per-deposit bounds of the vault.
func (m Money) ValidateDeposit() error {
	if m.Cents < MinDepositCents {
		return ErrBelowMinimum
	}
	if m.Cents > MaxDepositCents {
		return ErrAboveMaximum
	}
	return nil
}
