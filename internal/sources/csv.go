package sources

import (
	"bytes"
	"encoding/csv"

	"github.com/rotisserie/eris"

	"worldprod/internal"
)

func parseCSV(name string, blob []byte) ([]internal.SourceTable, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(blob, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "sources: parse csv %s", name)
	}
	return []internal.SourceTable{newTable(name, name, rows)}, nil
}
