package pipeline

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"worldprod/internal"
	"worldprod/internal/util"
)

const DefaultYearColumnPrefix = "PROD_"

// AttachSource prepends the source identifier column.
func AttachSource(t internal.HeadedTable, source string) internal.HeadedTable {
	header := make([]string, 0, len(t.Header)+1)
	header = append(header, "")
	header = append(header, t.Header...)

	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		out := make([]string, 0, len(row)+1)
		out = append(out, source)
		rows[i] = append(out, row...)
	}

	return internal.HeadedTable{
		Shape:  internal.TableShape{IDColumns: t.Shape.IDColumns + 1, Width: t.Shape.Width + 1},
		Header: header,
		Rows:   rows,
	}
}

// Melt turns a (source, entity, data...) table into one record per data cell,
// row by row. Unlabeled columns are kept so they can be counted when dropped.
func Melt(t internal.HeadedTable, tableID string) ([]internal.LongRecord, error) {
	if t.Shape.IDColumns != 2 {
		return nil, eris.Errorf("melt: want 2 id columns, got %d", t.Shape.IDColumns)
	}
	out := make([]internal.LongRecord, 0, len(t.Rows)*t.Shape.DataColumns())
	for _, row := range t.Rows {
		source := cellAt(row, 0)
		entity := cellAt(row, 1)
		for c := t.Shape.IDColumns; c < t.Shape.Width; c++ {
			out = append(out, internal.LongRecord{
				TableID:     tableID,
				Source:      source,
				Entity:      entity,
				MetricLabel: cellAt(t.Header, c),
				Value:       cellAt(row, c),
			})
		}
	}
	return out, nil
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func yearSuffixPattern(sep string) *regexp.Regexp {
	if sep == "" {
		sep = DefaultHeaderSeparator
	}
	return regexp.MustCompile(regexp.QuoteMeta(sep) + `((?:19|20)\d{2}[eE]?)$`)
}

// SplitYear separates the year suffix from each metric label. Records without
// one are dropped and counted by reason.
func SplitYear(records []internal.LongRecord, sep string) ([]internal.YearedRecord, DropCounts) {
	re := yearSuffixPattern(sep)
	drops := DropCounts{}
	out := make([]internal.YearedRecord, 0, len(records))
	for _, rec := range records {
		label := strings.TrimSpace(rec.MetricLabel)
		if label == "" {
			drops[DropEmptyLabel]++
			continue
		}
		loc := re.FindStringSubmatchIndex(label)
		if loc == nil {
			drops[DropNoYearSuffix]++
			continue
		}
		out = append(out, internal.YearedRecord{
			LongRecord: rec,
			Year:       strings.ToLower(label[loc[2]:loc[3]]),
			MetricBase: strings.TrimSpace(label[:loc[0]]),
		})
	}
	return out, drops
}

// Pivot groups yeared records by key in first-seen order with one column per
// year. The first non-blank value for a key/year wins; later non-blank values
// are ignored and counted.
func Pivot(records []internal.YearedRecord, prefix string) ([]internal.WideRecord, []string, int) {
	if prefix == "" {
		prefix = DefaultYearColumnPrefix
	}
	index := map[internal.RecordKey]int{}
	var out []internal.WideRecord
	seenCols := map[string]struct{}{}
	duplicates := 0

	for _, rec := range records {
		key := internal.RecordKey{
			Source:   rec.Source,
			Entity:   rec.Entity,
			Category: rec.Category,
			Metric:   rec.MetricBase,
			Unit:     rec.Unit,
		}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, internal.WideRecord{Key: key, Cells: map[string]string{}})
		}
		col := prefix + rec.Year
		seenCols[col] = struct{}{}

		if util.IsBlank(rec.Value) {
			if _, exists := out[i].Cells[col]; !exists {
				out[i].Cells[col] = rec.Value
			}
			continue
		}
		if prev := out[i].Cells[col]; !util.IsBlank(prev) {
			duplicates++
			continue
		}
		out[i].Cells[col] = rec.Value
	}

	return out, sortedKeys(seenCols), duplicates
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
