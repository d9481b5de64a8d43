// Package core defines the ledger entity model and the derived-aggregate
// computations.
//
// This file holds the Money value and amount parsing. Amounts are whole
// rupiah: the base currency has no minor unit, so fractional input is
// rounded half-up to the nearest rupiah.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in whole rupiah. Stored amounts are always positive;
// the type also carries signed derived values (net flow).
type Money struct {
	Rupiah int64
}

func (m Money) Validate() error {
	if m.Rupiah <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ParseAmount converts a decimal string to whole rupiah.
//
// Both "." and "," are accepted as separators. Separators followed by
// exactly three digits each are read as thousands grouping ("1.000.000");
// otherwise a single final separator is read as a decimal point and the
// fraction is rounded half-up. Negative, zero, and malformed input is
// rejected.
//
// Examples:
//
//	ParseAmount("250000")    -> 250000
//	ParseAmount("1.000.000") -> 1000000
//	ParseAmount("1250,50")   -> 1251 (rounds up)
//	ParseAmount("1250,4")    -> 1250 (rounds down)
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	for _, p := range parts {
		if p == "" {
			return 0, ErrInvalidAmount
		}
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return 0, ErrInvalidAmount
			}
		}
	}

	intPart := parts[0]
	fracPart := ""
	if len(parts) > 1 {
		if grouped(parts[1:]) {
			// Thousands grouping: 1.000.000
			intPart = strings.Join(parts, "")
		} else if len(parts) == 2 {
			fracPart = parts[1]
		} else {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Half-up rounding on the first fractional digit
	if len(fracPart) > 0 && fracPart[0] >= '5' {
		iv++
	}
	if iv <= 0 {
		return 0, ErrInvalidAmount
	}
	return iv, nil
}

// grouped reports whether every trailing segment is a three-digit group.
func grouped(segments []string) bool {
	for _, seg := range segments {
		if len(seg) != 3 {
			return false
		}
	}
	return true
}

// String formats the amount with Indonesian thousands grouping, e.g.
// "Rp1.000.000". Negative derived values keep their sign.
func (m Money) String() string {
	v := m.Rupiah
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	digits := strconv.FormatInt(v, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "Rp" + b.String()
}
