package internal

// RawTable is a cell grid as delivered by the table extractor. Empty string
// means a missing cell; rows are not necessarily rectangular.
type RawTable [][]string

// Cell returns the cell at (row, col), treating short rows as padded with
// empty cells.
func (t RawTable) Cell(row, col int) string {
	if row < 0 || row >= len(t) || col < 0 || col >= len(t[row]) {
		return ""
	}
	return t[row][col]
}

// Width is the length of the longest row.
func (t RawTable) Width() int {
	w := 0
	for _, row := range t {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

type SourceTable struct {
	ID         string
	Page       int
	HasPage    bool
	Confidence *float64
	Rows       RawTable
}

type Landmark struct {
	HeaderRow  int
	SectionEnd *int
}

// TableShape makes the column contract between stages explicit: columns
// [0, IDColumns) identify a row, columns [IDColumns, Width) carry data.
type TableShape struct {
	IDColumns int
	Width     int
}

func (s TableShape) DataColumns() int {
	if s.Width < s.IDColumns {
		return 0
	}
	return s.Width - s.IDColumns
}

type HeadedTable struct {
	Shape  TableShape
	Header []string
	Rows   [][]string
}

type LongRecord struct {
	TableID     string
	Source      string
	Entity      string
	Category    string
	MetricLabel string
	Value       string
	Unit        string
}

type YearedRecord struct {
	LongRecord
	Year       string
	MetricBase string
}

type RecordKey struct {
	Source   string
	Entity   string
	Category string
	Metric   string
	Unit     string
}

type WideRecord struct {
	Key   RecordKey
	Cells map[string]string
}

type FinalRecord struct {
	Key    RecordKey
	Values map[string]*float64
}

type Dataset struct {
	YearColumns []string
	Records     []FinalRecord
}

type LookupEntry struct {
	Page     int    `json:"page" yaml:"page"`
	Category string `json:"category" yaml:"category"`
	Unit     string `json:"unit" yaml:"unit"`
}
