package pipeline

import (
	"strings"

	"worldprod/internal"
	"worldprod/internal/util"
)

const DefaultHeaderSeparator = "_"

// MergeHeader joins the stem row and the year row of a trimmed table into a
// single header. The remaining rows become data rows padded to the header
// width.
func MergeHeader(rows internal.RawTable, sep string) (internal.HeadedTable, error) {
	if len(rows) < 2 {
		return internal.HeadedTable{}, ErrInsufficientRows
	}
	if sep == "" {
		sep = DefaultHeaderSeparator
	}

	width := rows.Width()
	stems := make([]string, width)
	for i := range stems {
		stems[i] = strings.TrimSpace(rows.Cell(0, i))
	}
	stems = FillHeaderGaps(stems)

	header := make([]string, width)
	for i := 1; i < width; i++ {
		a := stems[i]
		b := strings.TrimSpace(rows.Cell(1, i))
		switch {
		case a != "" && b != "":
			header[i] = a + sep + b
		case a != "":
			header[i] = a
		default:
			header[i] = b
		}
	}

	data := make([][]string, 0, len(rows)-2)
	for r := 2; r < len(rows); r++ {
		row := make([]string, width)
		for c := range row {
			row[c] = rows.Cell(r, c)
		}
		data = append(data, row)
	}

	return internal.HeadedTable{
		Shape:  internal.TableShape{IDColumns: 1, Width: width},
		Header: header,
		Rows:   data,
	}, nil
}

// FillHeaderGaps fills empty labels from the next label to the right, except
// that a "reserve" label never leaks backward into the columns before it; those
// take the last label seen on the left instead.
func FillHeaderGaps(labels []string) []string {
	out := make([]string, len(labels))
	copy(out, labels)
	if len(out) > 0 {
		out[0] = ""
	}

	lastLeft := ""
	for i := 1; i < len(out); i++ {
		if !util.IsBlank(labels[i]) {
			lastLeft = labels[i]
			continue
		}
		next := nextLabel(labels, i+1)
		switch {
		case next == "":
			out[i] = lastLeft
		case strings.Contains(strings.ToLower(next), "reserve"):
			out[i] = lastLeft
		default:
			out[i] = next
		}
	}
	return out
}

func nextLabel(labels []string, from int) string {
	for j := from; j < len(labels); j++ {
		if !util.IsBlank(labels[j]) {
			return labels[j]
		}
	}
	return ""
}

// HeaderGaps lists the data positions still unlabeled after merging.
func HeaderGaps(header []string) []int {
	var gaps []int
	for i := 1; i < len(header); i++ {
		if util.IsBlank(header[i]) {
			gaps = append(gaps, i)
		}
	}
	return gaps
}
