package sources

import (
	"bytes"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"worldprod/internal"
)

// parseHTML keeps the largest table in the file by cell count; pages with
// several tables usually hold one production table plus notes.
func parseHTML(name string, blob []byte) ([]internal.SourceTable, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(blob))
	if err != nil {
		return nil, eris.Wrapf(err, "sources: parse html %s", name)
	}

	var best [][]string
	bestIdx, bestCells := -1, 0
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		rows := readHTMLTable(table)
		n := 0
		for _, r := range rows {
			n += len(r)
		}
		if n > bestCells {
			best, bestIdx, bestCells = rows, i, n
		}
	})
	if bestIdx < 0 {
		return nil, eris.Errorf("sources: no table in %s", name)
	}
	return []internal.SourceTable{newTable(name+"#table-"+strconv.Itoa(bestIdx), name, best)}, nil
}

// readHTMLTable flattens a table. A colspan cell is followed by blank cells so
// positions line up with the year row below it.
func readHTMLTable(table *goquery.Selection) [][]string {
	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Closest("table").Get(0) != table.Get(0) {
			return
		}
		var cells []string
		tr.ChildrenFiltered("th,td").Each(func(_ int, cell *goquery.Selection) {
			text := cell.Text()
			span := 1
			if v, ok := cell.Attr("colspan"); ok {
				if n, err := strconv.Atoi(v); err == nil && n > 1 {
					span = n
				}
			}
			cells = append(cells, text)
			for k := 1; k < span; k++ {
				cells = append(cells, "")
			}
		})
		rows = append(rows, cells)
	})
	return rows
}
