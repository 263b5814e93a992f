package pipeline

import (
	"regexp"
	"strings"
	"unicode"

	"worldprod/internal"
	"worldprod/internal/util"
)

const worldTotalLabel = "World total"

var (
	reTrailingDigits = regexp.MustCompile(`\d+$`)
	reParenBalanced  = regexp.MustCompile(`\([^()]*\)`)
	reParenOpenTail  = regexp.MustCompile(`\([^)]*$`)
)

// CleanEntity strips footnote digits and annotations from a country label:
// "United States5, excludes Puerto Rico (partial)" becomes "United States".
func CleanEntity(raw string) string {
	s := cleanLabel(raw, true, false)
	if s == "w" || s == "W" {
		return worldTotalLabel
	}
	return s
}

func CleanMetric(raw string) string {
	return cleanLabel(raw, true, false)
}

// CleanCategory keeps parentheses, which carry the commodity form.
func CleanCategory(raw string) string {
	return cleanLabel(raw, false, true)
}

func CleanUnit(raw string) string {
	return util.CollapseSpaces(util.NormalizeCell(raw))
}

func cleanLabel(raw string, stripParens, keepParens bool) string {
	s := util.NormalizeCell(raw)
	if i := strings.Index(s, ","); i >= 0 {
		s = s[:i]
	}
	s = reTrailingDigits.ReplaceAllString(strings.TrimSpace(s), "")
	if stripParens {
		for reParenBalanced.MatchString(s) {
			s = reParenBalanced.ReplaceAllString(s, " ")
		}
		s = reParenOpenTail.ReplaceAllString(s, " ")
	}
	s = util.CollapseSpaces(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), r == ' ':
			return r
		case keepParens && (r == '(' || r == ')'):
			return r
		}
		return -1
	}, s)
	return util.CollapseSpaces(s)
}

func CleanKey(k internal.RecordKey) internal.RecordKey {
	return internal.RecordKey{
		Source:   k.Source,
		Entity:   CleanEntity(k.Entity),
		Category: CleanCategory(k.Category),
		Metric:   CleanMetric(k.Metric),
		Unit:     CleanUnit(k.Unit),
	}
}

// Consolidate cleans every key and folds records whose cleaned keys collide
// into the first one. Cells already set on the survivor are kept; folded
// non-blank cells that lose are counted as duplicates.
func Consolidate(records []internal.WideRecord) ([]internal.WideRecord, int, int) {
	index := map[internal.RecordKey]int{}
	out := make([]internal.WideRecord, 0, len(records))
	collisions, duplicates := 0, 0

	for _, rec := range records {
		key := CleanKey(rec.Key)
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			cells := make(map[string]string, len(rec.Cells))
			for col, v := range rec.Cells {
				cells[col] = v
			}
			out = append(out, internal.WideRecord{Key: key, Cells: cells})
			continue
		}
		collisions++
		for col, v := range rec.Cells {
			prev, exists := out[i].Cells[col]
			switch {
			case !exists || util.IsBlank(prev):
				out[i].Cells[col] = v
			case !util.IsBlank(v):
				duplicates++
			}
		}
	}
	return out, collisions, duplicates
}

// Prune drops records that carry no usable row: a blank entity (spacer or
// continuation rows) or no non-blank year cell (sub-heading rows). Withheld
// markers such as "W" count as content.
func Prune(records []internal.WideRecord) ([]internal.WideRecord, DropCounts) {
	drops := DropCounts{}
	out := make([]internal.WideRecord, 0, len(records))
	for _, rec := range records {
		if util.IsBlank(rec.Key.Entity) {
			drops[DropBlankEntity]++
			continue
		}
		if !hasContent(rec.Cells) {
			drops[DropAllBlank]++
			continue
		}
		out = append(out, rec)
	}
	return out, drops
}

func hasContent(cells map[string]string) bool {
	for _, v := range cells {
		if !util.IsBlank(v) {
			return true
		}
	}
	return false
}
