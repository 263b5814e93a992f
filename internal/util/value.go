package util

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

type ValueKind int

const (
	ValueNumber ValueKind = iota
	ValueNull
	ValueUnparseable
)

func (k ValueKind) String() string {
	switch k {
	case ValueNumber:
		return "number"
	case ValueNull:
		return "null"
	default:
		return "unparseable"
	}
}

// nullSentinels are placeholders the source uses instead of a figure.
// W is the withheld marker.
var nullSentinels = map[string]struct{}{
	"":    {},
	"nan": {},
	"NaN": {},
	"NA":  {},
	"N/A": {},
	"--":  {},
	"W":   {},
	"XX":  {},
}

// CoerceValue converts a raw production figure to a number, or nil when the
// cell holds a sentinel or cannot be read as a number.
func CoerceValue(raw string) *float64 {
	v, _ := ClassifyValue(raw)
	return v
}

// ClassifyValue is CoerceValue plus the reason a nil came back.
func ClassifyValue(raw string) (*float64, ValueKind) {
	s := compactValue(raw)
	if _, ok := nullSentinels[s]; ok {
		return nil, ValueNull
	}
	if !isPlainDecimal(s) {
		return nil, ValueUnparseable
	}
	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(parsed, 0) || math.IsNaN(parsed) {
		return nil, ValueUnparseable
	}
	return FloatPtr(parsed), ValueNumber
}

// FormatValue renders a coerced value so that CoerceValue reads it back
// unchanged: no exponent, no thousands separators.
func FormatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// compactValue drops estimate markers (e/E anywhere, OCR moves them around),
// thousands separators and all whitespace.
func compactValue(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range NormalizeCell(raw) {
		switch {
		case r == 'e' || r == 'E' || r == ',':
			continue
		case unicode.IsSpace(r):
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isPlainDecimal(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	digits, dots := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}
