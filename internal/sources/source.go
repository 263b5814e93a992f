// Package sources reads raw table dumps produced by the extraction service.
package sources

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"worldprod/internal"
	"worldprod/internal/util"
)

var rePage = regexp.MustCompile(`(?i)page[_\- ]?(\d+)`)

// DirSource loads every supported table file under Dir.
type DirSource struct {
	Dir string
	Log *zap.Logger
}

func NewDirSource(dir string, log *zap.Logger) *DirSource {
	if log == nil {
		log = zap.L()
	}
	return &DirSource{Dir: dir, Log: log}
}

// Load walks the directory in lexical order. A file that cannot be parsed is
// logged and skipped; a missing directory is an error.
func (s *DirSource) Load(ctx context.Context) ([]internal.SourceTable, error) {
	files, err := ListTableFiles(s.Dir)
	if err != nil {
		return nil, err
	}

	var out []internal.SourceTable
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tables, err := ReadFile(path)
		if err != nil {
			s.Log.Warn("sources: unreadable table file", zap.String("path", path), zap.Error(err))
			continue
		}
		out = append(out, tables...)
	}
	s.Log.Debug("sources: loaded", zap.String("dir", s.Dir), zap.Int("files", len(files)), zap.Int("tables", len(out)))
	return out, nil
}

// ListTableFiles returns the supported files below dir, sorted.
func ListTableFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if isSupported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "sources: walk %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

func isSupported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx", ".html", ".htm":
		return true
	}
	return false
}

func ReadFile(path string) ([]internal.SourceTable, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "sources: read %s", path)
	}
	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseCSV(name, blob)
	case ".xlsx":
		return parseXLSX(name, blob)
	case ".html", ".htm":
		return parseHTML(name, blob)
	default:
		return nil, eris.Errorf("sources: unsupported file %s", path)
	}
}

// PageFromName extracts the page number from names like "page_12.csv".
func PageFromName(name string) (int, bool) {
	m := rePage.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func newTable(id, pageHint string, rows [][]string) internal.SourceTable {
	t := internal.SourceTable{ID: id, Rows: normalizeRows(rows)}
	t.Page, t.HasPage = PageFromName(pageHint)
	t.Confidence = GridConfidence(t.Rows)
	return t
}

// GridConfidence scores how much of the grid is filled: non-blank cells over
// rows times width. Nil means there is no usable grid.
func GridConfidence(rows internal.RawTable) *float64 {
	width := rows.Width()
	if width == 0 {
		return nil
	}
	filled := 0
	for _, row := range rows {
		for _, cell := range row {
			if !util.IsBlank(cell) {
				filled++
			}
		}
	}
	if filled == 0 {
		return nil
	}
	return util.FloatPtr(float64(filled) / float64(len(rows)*width))
}

func normalizeRows(rows [][]string) internal.RawTable {
	out := make(internal.RawTable, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = util.NormalizeCell(c)
		}
		out[i] = cells
	}
	return out
}
