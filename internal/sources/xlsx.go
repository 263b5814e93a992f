package sources

import (
	"bytes"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"worldprod/internal"
)

// parseXLSX yields one table per sheet. The page comes from the sheet name
// when it carries one, else from the file name.
func parseXLSX(name string, blob []byte) ([]internal.SourceTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, eris.Wrapf(err, "sources: open xlsx %s", name)
	}
	defer f.Close()

	var out []internal.SourceTable
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, eris.Wrapf(err, "sources: read sheet %s of %s", sheet, name)
		}
		hint := sheet
		if _, ok := PageFromName(sheet); !ok {
			hint = name
		}
		out = append(out, newTable(name+"#"+sheet, hint, rows))
	}
	return out, nil
}
