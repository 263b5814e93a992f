package pipeline

import (
	"strings"

	"worldprod/internal/util"
)

// YearClass is the outcome of classifying a header cell as a year token.
type YearClass int

const (
	YearNone YearClass = iota
	YearLoose
	YearStrict
)

func (c YearClass) String() string {
	switch c {
	case YearStrict:
		return "strict"
	case YearLoose:
		return "loose"
	default:
		return "none"
	}
}

type YearMode string

const (
	YearModeLoose  YearMode = "loose"
	YearModeStrict YearMode = "strict"
)

// ConfusableYearChars are the glyphs OCR substitutes into year digits.
// Letters are matched case-insensitively.
const ConfusableYearChars = "0123456789.~_&-!'ila"

// PlaceholderGlyph stands in for an unreadable digit.
const PlaceholderGlyph = '~'

const maxLooseTail = 7

// looseLeads are tried longest first so "19" wins over "1".
var looseLeads = []string{"19", "20", "1", "t", "l"}

// ClassifyYearToken decides whether a header cell reads as a year.
func ClassifyYearToken(token string) YearClass {
	s := util.NormalizeCell(token)
	if s == "" {
		return YearNone
	}
	if isStrictYear(s) {
		return YearStrict
	}
	if isLooseYear(s) || isDegenerateYear(s) {
		return YearLoose
	}
	return YearNone
}

// Accepts reports whether a token counts as a year under the mode.
func (m YearMode) Accepts(token string) bool {
	class := ClassifyYearToken(token)
	if m == YearModeStrict {
		return class == YearStrict
	}
	return class != YearNone
}

func isStrictYear(s string) bool {
	s = trimEstimateMarker(s)
	if len(s) != 4 {
		return false
	}
	if !strings.HasPrefix(s, "19") && !strings.HasPrefix(s, "20") {
		return false
	}
	return isDigit(s[2]) && isDigit(s[3])
}

func isLooseYear(s string) bool {
	s = strings.TrimPrefix(s, ".")
	s = trimEstimateMarker(strings.ToLower(s))
	for _, lead := range looseLeads {
		if !strings.HasPrefix(s, lead) {
			continue
		}
		tail := s[len(lead):]
		if len(tail) > maxLooseTail {
			continue
		}
		if allConfusable(tail) {
			return true
		}
	}
	return false
}

func isDegenerateYear(s string) bool {
	for _, r := range s {
		if r != '1' && r != PlaceholderGlyph {
			return false
		}
	}
	return true
}

func trimEstimateMarker(s string) string {
	if n := len(s); n > 0 && (s[n-1] == 'e' || s[n-1] == 'E') {
		return s[:n-1]
	}
	return s
}

func allConfusable(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune(ConfusableYearChars, r) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
