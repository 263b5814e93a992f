package pipeline

import (
	"strings"

	"worldprod/internal"
	"worldprod/internal/util"
)

const DefaultEndMarker = "world total"

type DetectOptions struct {
	Mode      YearMode
	EndMarker string
	// MultiYearFallback accepts the first row holding two or more year
	// tokens anywhere when no row has the blank-key-cell layout.
	MultiYearFallback bool
}

func (o DetectOptions) withDefaults() DetectOptions {
	if o.Mode == "" {
		o.Mode = YearModeLoose
	}
	if strings.TrimSpace(o.EndMarker) == "" {
		o.EndMarker = DefaultEndMarker
	}
	return o
}

// DetectLandmarks finds the year header row and the optional terminal row.
func DetectLandmarks(rows internal.RawTable, opts DetectOptions) (internal.Landmark, error) {
	opts = opts.withDefaults()
	if len(rows) == 0 || rows.Width() < 2 {
		return internal.Landmark{}, ErrLandmarkNotFound
	}

	header := findHeaderRow(rows, opts.Mode)
	if header < 0 && opts.MultiYearFallback {
		header = findMultiYearRow(rows, opts.Mode)
	}
	if header < 0 {
		return internal.Landmark{}, ErrLandmarkNotFound
	}

	return internal.Landmark{
		HeaderRow:  header,
		SectionEnd: findSectionEnd(rows, header, opts.EndMarker),
	}, nil
}

func findHeaderRow(rows internal.RawTable, mode YearMode) int {
	for i := range rows {
		if !util.IsBlank(rows.Cell(i, 0)) {
			continue
		}
		if mode.Accepts(rows.Cell(i, 1)) {
			return i
		}
	}
	return -1
}

func findMultiYearRow(rows internal.RawTable, mode YearMode) int {
	for i, row := range rows {
		hits := 0
		for _, cell := range row {
			if mode.Accepts(cell) {
				hits++
			}
		}
		if hits >= 2 {
			return i
		}
	}
	return -1
}

func findSectionEnd(rows internal.RawTable, from int, marker string) *int {
	needle := util.MatchText(marker)
	for i := from; i < len(rows); i++ {
		for _, cell := range rows[i] {
			if strings.Contains(util.MatchText(cell), needle) {
				return util.IntPtr(i)
			}
		}
	}
	return nil
}
