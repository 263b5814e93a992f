package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// RunReport carries every per-run counter. Nothing is kept in package state.
type RunReport struct {
	RunID           string             `yaml:"run_id"`
	StartedAt       time.Time          `yaml:"started_at"`
	FinishedAt      time.Time          `yaml:"finished_at"`
	TablesSeen      int                `yaml:"tables_seen"`
	TablesProcessed int                `yaml:"tables_processed"`
	Skipped         []SkippedTable     `yaml:"skipped,omitempty"`
	LongRecords     int                `yaml:"long_records"`
	Dropped         DropCounts         `yaml:"dropped,omitempty"`
	DuplicateCells  int                `yaml:"duplicate_cells"`
	KeyCollisions   int                `yaml:"key_collisions"`
	LookupMisses    int                `yaml:"lookup_misses"`
	HeaderGaps      map[string][]int   `yaml:"header_gaps,omitempty"`
	Confidence      map[string]float64 `yaml:"confidence,omitempty"`
	OutputRows      int                `yaml:"output_rows"`
	YearColumns     []string           `yaml:"year_columns,omitempty"`
	NullCounts      map[string]int     `yaml:"null_counts,omitempty"`
	Unparseable     map[string]int     `yaml:"unparseable,omitempty"`
}

func newRunReport(runID string, started time.Time) RunReport {
	return RunReport{
		RunID:       runID,
		StartedAt:   started,
		Dropped:     DropCounts{},
		HeaderGaps:  map[string][]int{},
		Confidence:  map[string]float64{},
		NullCounts:  map[string]int{},
		Unparseable: map[string]int{},
	}
}

func (r RunReport) Status() string {
	switch {
	case r.OutputRows == 0:
		return StatusFailed
	case len(r.Skipped) > 0 || r.Dropped.Total() > 0:
		return StatusPartial
	default:
		return StatusOK
	}
}

// Summary renders the report for a terminal.
func (r RunReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %s\n", r.RunID, r.Status())
	fmt.Fprintf(&b, "tables: %s seen, %s processed, %s skipped\n",
		humanize.Comma(int64(r.TablesSeen)), humanize.Comma(int64(r.TablesProcessed)), humanize.Comma(int64(len(r.Skipped))))
	for _, s := range r.Skipped {
		fmt.Fprintf(&b, "  skipped %s (%s)\n", s.TableID, s.Reason)
	}
	fmt.Fprintf(&b, "records: %s long, %s dropped, %s output rows\n",
		humanize.Comma(int64(r.LongRecords)), humanize.Comma(int64(r.Dropped.Total())), humanize.Comma(int64(r.OutputRows)))

	reasons := make([]string, 0, len(r.Dropped))
	for reason := range r.Dropped {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(&b, "  dropped %s: %s\n", reason, humanize.Comma(int64(r.Dropped[DropReason(reason)])))
	}
	if r.DuplicateCells > 0 || r.KeyCollisions > 0 {
		fmt.Fprintf(&b, "duplicates: %s cells ignored, %s keys merged\n",
			humanize.Comma(int64(r.DuplicateCells)), humanize.Comma(int64(r.KeyCollisions)))
	}
	if id, score, ok := r.lowestConfidence(); ok {
		fmt.Fprintf(&b, "lowest grid fill: %s %.0f%%\n", id, score*100)
	}
	if r.LookupMisses > 0 {
		fmt.Fprintf(&b, "lookup misses: %s\n", humanize.Comma(int64(r.LookupMisses)))
	}
	for _, col := range r.YearColumns {
		nulls := r.NullCounts[col]
		fmt.Fprintf(&b, "  %s: %s values, %s null, %s unparseable\n", col,
			humanize.Comma(int64(r.OutputRows-nulls)), humanize.Comma(int64(nulls)), humanize.Comma(int64(r.Unparseable[col])))
	}
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "finished %s in %s\n", humanize.Time(r.FinishedAt), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
	return b.String()
}

func (r RunReport) lowestConfidence() (string, float64, bool) {
	ids := make([]string, 0, len(r.Confidence))
	for id := range r.Confidence {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	best, found := "", false
	for _, id := range ids {
		if !found || r.Confidence[id] < r.Confidence[best] {
			best, found = id, true
		}
	}
	return best, r.Confidence[best], found
}

func (r RunReport) MarshalReport() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, eris.Wrap(err, "report: encode yaml")
	}
	if err := enc.Close(); err != nil {
		return nil, eris.Wrap(err, "report: encode yaml")
	}
	return buf.Bytes(), nil
}

func (r RunReport) WriteYAML(path string) error {
	blob, err := r.MarshalReport()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "report: create dir for %s", path)
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", path)
	}
	return nil
}

func ParseReport(blob []byte) (RunReport, error) {
	var r RunReport
	if err := yaml.Unmarshal(blob, &r); err != nil {
		return RunReport{}, eris.Wrap(err, "report: decode yaml")
	}
	return r, nil
}
