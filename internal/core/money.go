// Package core holds the domain model shared by the decomposition and
// apportionment engine.
//
// This file contains money parsing and formatting. Amounts are kept as integer
// cents; raw user input stays a string until it is parsed here.
package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in integer cents. Transactions are signed; draft splits
// and shares are always non-negative.
type Money struct {
	Cents int64
}

// rawAmountPattern matches unsigned decimal input, including in-progress
// keystrokes such as "", "12." and ",5".
var rawAmountPattern = regexp.MustCompile(`^[0-9]*([.,][0-9]*)?$`)

// ValidRawAmount reports whether s is acceptable as an in-flight amount field.
// The empty string is valid so a user can clear the field while typing.
func ValidRawAmount(s string) bool {
	return rawAmountPattern.MatchString(strings.TrimSpace(s))
}

// ParseAmount converts an unsigned decimal string to cents with half-up
// rounding on the third decimal place.
//
// It accepts both dot (12.34) and comma (12,34) separators. Incomplete input
// ("", "12.", ".") parses to zero cents so in-progress edits contribute
// nothing to aggregates. Signed values are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234, nil
//	ParseAmount("12,345") -> 1235, nil (rounds up)
//	ParseAmount("")       -> 0, nil
//	ParseAmount("-3")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, nil
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
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
			return Money{}, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return Money{}, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return Money{Cents: iv*100 + fracCents}, nil
}

func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

func (m Money) IsNegative() bool {
	return m.Cents < 0
}

// Float returns the decimal value for wire serialization and display.
// Use cents for all arithmetic.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with two decimals, e.g. "25.00" or "-3.50".
func (m Money) String() string {
	c := m.Cents
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// FromFloat converts a 2-decimal float from the wire to cents with half-up
// rounding, tolerating the usual float64 representation error.
func FromFloat(v float64) Money {
	if v >= 0 {
		return Money{Cents: int64(v*100 + 0.5)}
	}
	return Money{Cents: -int64(-v*100 + 0.5)}
}
