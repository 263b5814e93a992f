package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var reSpaces = regexp.MustCompile(`\s+`)

// NormalizeCell applies NFKC, drops control characters and trims the result.
// Extracted cells often carry non-breaking spaces and full-width digits.
func NormalizeCell(input string) string {
	s := norm.NFKC.String(input)
	s = strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

func CollapseSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// MatchText lowercases and collapses a cell for substring matching.
func MatchText(input string) string {
	return strings.ToLower(CollapseSpaces(NormalizeCell(input)))
}

func IsBlank(input string) bool {
	return strings.TrimSpace(input) == ""
}

func FloatPtr(v float64) *float64 { return &v }

func IntPtr(v int) *int { return &v }
