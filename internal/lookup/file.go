package lookup

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"worldprod/internal"
	"worldprod/internal/util"
)

var (
	pageColumns     = []string{"page_number", "page"}
	categoryColumns = []string{"commodity_name", "commodity", "category"}
	unitColumns     = []string{"units", "unit"}
)

// LoadFile reads a page lookup from a .csv or .yaml/.yml file.
func LoadFile(path string) ([]internal.LookupEntry, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "lookup: read %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ParseCSV(blob)
	case ".yaml", ".yml":
		return ParseYAML(blob)
	default:
		return nil, eris.Errorf("lookup: unsupported file %s", path)
	}
}

// ParseCSV expects a header row with page_number and commodity_name columns
// and an optional units column.
func ParseCSV(blob []byte) ([]internal.LookupEntry, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(blob, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "lookup: parse csv")
	}
	if len(rows) == 0 {
		return nil, eris.New("lookup: csv is empty")
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(util.NormalizeCell(h))
	}
	pageIdx := findColumn(header, pageColumns)
	catIdx := findColumn(header, categoryColumns)
	unitIdx := findColumn(header, unitColumns)
	if pageIdx < 0 || catIdx < 0 {
		return nil, eris.Errorf("lookup: missing required column %q or %q", pageColumns[0], categoryColumns[0])
	}

	var out []internal.LookupEntry
	for line, row := range rows[1:] {
		raw := cell(row, pageIdx)
		if raw == "" {
			continue
		}
		page, err := strconv.Atoi(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "lookup: bad page on line %d", line+2)
		}
		out = append(out, internal.LookupEntry{
			Page:     page,
			Category: cell(row, catIdx),
			Unit:     cell(row, unitIdx),
		})
	}
	return out, nil
}

func ParseYAML(blob []byte) ([]internal.LookupEntry, error) {
	var out []internal.LookupEntry
	if err := yaml.Unmarshal(blob, &out); err != nil {
		return nil, eris.Wrap(err, "lookup: parse yaml")
	}
	return out, nil
}

func findColumn(header []string, names []string) int {
	for _, name := range names {
		for i, h := range header {
			if h == name {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return util.NormalizeCell(row[idx])
}
