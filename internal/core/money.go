// Package core holds the ledger domain: transactions, parties, money
// and the balance arithmetic the dashboard is built on.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between paise and rupee representations.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToPaise converts a decimal rupee string to paise with
// half-up rounding on the third decimal place.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Transaction amounts are magnitudes, so signs are rejected. Zero is
// a valid amount (a zero entry contributes nothing to a balance).
//
// Examples:
//
//	ParseDecimalToPaise("2500")   -> 250000, nil
//	ParseDecimalToPaise("12,34")  -> 1234, nil
//	ParseDecimalToPaise("12.346") -> 1235, nil (rounds up)
func ParseDecimalToPaise(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracPaise int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracPaise = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracPaise += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracPaise++
			}
		}
	}
	return iv*100 + fracPaise, nil
}

// PaiseFromRupees converts a wire-format rupee number to paise,
// rounding half away from zero.
func PaiseFromRupees(rupees float64) int64 {
	if rupees < 0 {
		return -PaiseFromRupees(-rupees)
	}
	return int64(rupees*100 + 0.5)
}

// Validate rejects negative magnitudes. Zero is allowed: the backend
// records zero-amount corrections and they must not corrupt balances.
func (m Money) Validate() error {
	if m.Paise < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Rupees returns the rupee value as a float64 for display purposes.
// Use paise for calculations to avoid floating-point precision issues.
func (m Money) Rupees() float64 {
	return float64(m.Paise) / 100.0
}

// Abs returns the magnitude of m.
func (m Money) Abs() Money {
	if m.Paise < 0 {
		return Money{Paise: -m.Paise}
	}
	return m
}

// String renders the amount as a plain decimal rupee string with no
// separators: "2500" for whole rupees, "2500.50" otherwise. Exported
// CSV rows and Sheets cells use this canonical form.
func (m Money) String() string {
	p := m.Paise
	sign := ""
	if p < 0 {
		sign = "-"
		p = -p
	}
	if p%100 == 0 {
		return fmt.Sprintf("%s%d", sign, p/100)
	}
	return fmt.Sprintf("%s%d.%02d", sign, p/100, p%100)
}
