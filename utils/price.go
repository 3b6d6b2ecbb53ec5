package utils

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParsePrice turns a display price such as "₹1,299.50" or "Rs. 499" into
// minor currency units (129950, 49900).
func ParsePrice(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Rs.")
	s = strings.TrimPrefix(s, "Rs")

	var digits strings.Builder
	seenDigit := false
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits.WriteRune(r)
			seenDigit = true
		case r == '.':
			digits.WriteRune(r)
		case r == ',' || unicode.IsSpace(r):
		case !seenDigit:
			// currency symbol
		default:
			return 0, fmt.Errorf("invalid price %q", s)
		}
	}
	if !seenDigit {
		return 0, fmt.Errorf("invalid price %q", s)
	}

	whole, frac, _ := strings.Cut(digits.String(), ".")
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	if len(frac) > 2 {
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}
	minor, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return units*100 + minor, nil
}

// FormatPrice renders minor units with two decimals and an optional symbol.
func FormatPrice(minor int64, symbol string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, symbol, minor/100, minor%100)
}
