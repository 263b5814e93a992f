package pipeline

import (
	"worldprod/internal"
	"worldprod/internal/util"
)

// TrimTable cuts the table to the row above the header through the section
// end, then drops columns that are blank in every kept row. The row above the
// header carries the stem fragments that HeaderMerger joins with the years.
func TrimTable(rows internal.RawTable, lm internal.Landmark) internal.RawTable {
	if len(rows) == 0 {
		return internal.RawTable{}
	}
	start := lm.HeaderRow - 1
	if start < 0 {
		start = 0
	}
	end := len(rows) - 1
	if lm.SectionEnd != nil && *lm.SectionEnd < end {
		end = *lm.SectionEnd
	}
	if start > end {
		return internal.RawTable{}
	}

	kept := rows[start : end+1]
	width := kept.Width()
	var cols []int
	for c := 0; c < width; c++ {
		for r := range kept {
			if !util.IsBlank(kept.Cell(r, c)) {
				cols = append(cols, c)
				break
			}
		}
	}

	out := make(internal.RawTable, len(kept))
	for r := range kept {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = kept.Cell(r, c)
		}
		out[r] = row
	}
	return out
}
