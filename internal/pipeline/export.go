package pipeline

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"worldprod/internal"
	"worldprod/internal/util"
)

var keyHeaders = []string{"source", "entity", "category", "metric", "unit"}

func datasetHeader(ds internal.Dataset) []string {
	out := make([]string, 0, len(keyHeaders)+len(ds.YearColumns))
	out = append(out, keyHeaders...)
	return append(out, ds.YearColumns...)
}

func keyCells(k internal.RecordKey) []string {
	return []string{k.Source, k.Entity, k.Category, k.Metric, k.Unit}
}

// WriteCSV writes one row per record; null values are empty cells.
func WriteCSV(w io.Writer, ds internal.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(datasetHeader(ds)); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, rec := range ds.Records {
		row := keyCells(rec.Key)
		for _, col := range ds.YearColumns {
			row = append(row, util.FormatValue(rec.Values[col]))
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}

func ExportDatasetToXLSX(ds internal.Dataset, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range datasetHeader(ds) {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, rec := range ds.Records {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}
		for c, v := range keyCells(rec.Key) {
			set(c+1, v)
		}
		for c, col := range ds.YearColumns {
			if v := rec.Values[col]; v != nil {
				set(len(keyHeaders)+c+1, *v)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir for %s", outputPath)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return eris.Wrapf(err, "export: save %s", outputPath)
	}
	return nil
}

// WriteDatasetFile picks the writer from the file extension.
func WriteDatasetFile(ds internal.Dataset, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ExportDatasetToXLSX(ds, path)
	case ".csv":
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return eris.Wrapf(err, "export: create dir for %s", path)
		}
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "export: create %s", path)
		}
		if err := WriteCSV(f, ds); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	default:
		return eris.Errorf("export: unsupported output format: %s", path)
	}
}
