package types

import (
	"strconv"
	"strings"
)

// NumericStringStep is the type of a numeric string literal after adding delta to it:
// a leading '+' and leading zeros are ignored, the value is read as an int64 (wrapping
// on overflow), then as a float64, and int|float when neither parse succeeds.
func NumericStringStep(s string, delta int64) []Atomic {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "+")
	trimmed = strings.TrimLeft(trimmed, "0")
	if trimmed == "" || trimmed[0] == '.' {
		trimmed = "0" + trimmed
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return []Atomic{IntLit(i + delta)}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return []Atomic{FloatLit(f + float64(delta))}
	}
	return []Atomic{Int(), TFloat{}}
}

// IncrementAlphanumeric is the result of incrementing a non-numeric string:
// the trailing run of letters and digits counts up with carry, so "a" becomes "b",
// "Az" becomes "Ba" and "zz" becomes "aaa"
func IncrementAlphanumeric(s string) string {
	if s == "" {
		return "1"
	}
	b := []byte(s)
	for i := len(b) - 1; i >= 0; i-- {
		switch c := b[i]; {
		case c == 'z':
			b[i] = 'a'
		case c == 'Z':
			b[i] = 'A'
		case c == '9':
			b[i] = '0'
		case c >= 'a' && c < 'z', c >= 'A' && c < 'Z', c >= '0' && c < '9':
			b[i] = c + 1
			return string(b)
		default:
			// non alphanumeric characters stop the carry
			return string(b)
		}
	}
	var carry byte
	switch first := s[0]; {
	case first >= 'a' && first <= 'z':
		carry = 'a'
	case first >= 'A' && first <= 'Z':
		carry = 'A'
	default:
		carry = '1'
	}
	return string(carry) + string(b)
}
