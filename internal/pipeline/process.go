package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"worldprod/internal"
	"worldprod/internal/config"
	"worldprod/internal/util"
)

// PageResolver maps a source page to its commodity category and unit.
type PageResolver interface {
	Resolve(page int) (internal.LookupEntry, bool)
}

type Service struct {
	cfg    config.Config
	lookup PageResolver
	log    *zap.Logger
	now    func() time.Time
}

// NewService wires the pipeline. A nil lookup leaves category and unit empty
// without counting misses; a nil logger falls back to zap.L().
func NewService(cfg config.Config, lookup PageResolver, log *zap.Logger) *Service {
	if log == nil {
		log = zap.L()
	}
	return &Service{cfg: cfg, lookup: lookup, log: log, now: time.Now}
}

func (s *Service) detectOptions() DetectOptions {
	return DetectOptions{
		Mode:              YearMode(s.cfg.YearMode),
		EndMarker:         s.cfg.EndMarker,
		MultiYearFallback: s.cfg.MultiYearFallback,
	}
}

type tableResult struct {
	records    []internal.LongRecord
	gaps       []int
	confidence *float64
	lookupMiss bool
	skip       *SkippedTable
}

// Run normalizes every table into one dataset. Tables are handled in ID order
// and that order decides which value survives a key/year duplicate. Bad tables
// are skipped and reported; only an empty result is fatal.
func (s *Service) Run(ctx context.Context, tables []internal.SourceTable) (internal.Dataset, RunReport, error) {
	report := newRunReport(uuid.NewString(), s.now())
	log := s.log.With(zap.String("run_id", report.RunID))

	sorted := make([]internal.SourceTable, len(tables))
	copy(sorted, tables)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	report.TablesSeen = len(sorted)
	log.Info("pipeline: run started", zap.Int("tables", len(sorted)), zap.Int("workers", s.cfg.Workers))

	results, err := s.processAll(ctx, sorted)
	if err != nil {
		report.FinishedAt = s.now()
		return internal.Dataset{}, report, err
	}

	var corpus []internal.LongRecord
	for i, res := range results {
		id := sorted[i].ID
		if res.skip != nil {
			report.Skipped = append(report.Skipped, *res.skip)
			continue
		}
		report.TablesProcessed++
		if len(res.gaps) > 0 {
			report.HeaderGaps[id] = res.gaps
		}
		if res.confidence != nil {
			report.Confidence[id] = *res.confidence
		}
		if res.lookupMiss {
			report.LookupMisses++
		}
		corpus = append(corpus, res.records...)
	}
	report.LongRecords = len(corpus)

	ds := s.assemble(corpus, &report)
	report.OutputRows = len(ds.Records)
	report.FinishedAt = s.now()

	if len(ds.Records) == 0 {
		log.Error("pipeline: empty dataset", zap.Int("skipped", len(report.Skipped)), zap.Int("dropped", report.Dropped.Total()))
		return ds, report, ErrEmptyDataset
	}
	log.Info("pipeline: run finished",
		zap.String("status", report.Status()),
		zap.Int("rows", report.OutputRows),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("dropped", report.Dropped.Total()),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return ds, report, nil
}

func (s *Service) processAll(ctx context.Context, tables []internal.SourceTable) ([]tableResult, error) {
	results := make([]tableResult, len(tables))
	if s.cfg.Workers <= 1 {
		for i, t := range tables {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = s.processTable(t)
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, t := range tables {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.processTable(t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// processTable runs the per-table stages up to melt and lookup enrichment.
func (s *Service) processTable(t internal.SourceTable) tableResult {
	log := s.log.With(zap.String("table", t.ID))
	skip := func(reason SkipReason, err error) tableResult {
		detail := ""
		if err != nil {
			detail = (&TableError{TableID: t.ID, Err: err}).Error()
		}
		log.Warn("pipeline: table skipped", zap.String("reason", string(reason)), zap.Error(err))
		return tableResult{skip: &SkippedTable{TableID: t.ID, Reason: reason, Detail: detail}}
	}

	if isEmptyGrid(t.Rows) {
		return skip(SkipEmptyGrid, nil)
	}
	lm, err := DetectLandmarks(t.Rows, s.detectOptions())
	if err != nil {
		return skip(skipReasonFor(err), err)
	}
	trimmed := TrimTable(t.Rows, lm)
	headed, err := MergeHeader(trimmed, s.cfg.HeaderSeparator)
	if err != nil {
		return skip(skipReasonFor(err), err)
	}
	gaps := HeaderGaps(headed.Header)

	records, err := Melt(AttachSource(headed, s.cfg.SourceTag), t.ID)
	if err != nil {
		return skip(skipReasonFor(err), err)
	}

	miss := false
	if s.lookup != nil {
		entry, ok := internal.LookupEntry{}, false
		if t.HasPage {
			entry, ok = s.lookup.Resolve(t.Page)
		}
		if ok {
			for i := range records {
				records[i].Category = entry.Category
				records[i].Unit = entry.Unit
			}
		} else {
			miss = true
			log.Debug("pipeline: no lookup entry", zap.Int("page", t.Page), zap.Bool("has_page", t.HasPage))
		}
	}

	log.Debug("pipeline: table melted",
		zap.Int("header_row", lm.HeaderRow),
		zap.Bool("open_ended", lm.SectionEnd == nil),
		zap.Int("records", len(records)),
		zap.Float64p("confidence", t.Confidence),
	)
	return tableResult{records: records, gaps: gaps, confidence: t.Confidence, lookupMiss: miss}
}

func isEmptyGrid(rows internal.RawTable) bool {
	for _, row := range rows {
		for _, cell := range row {
			if !util.IsBlank(cell) {
				return false
			}
		}
	}
	return true
}

// assemble runs the corpus-wide stages: year split, pivot, cleanup, pruning
// and coercion.
func (s *Service) assemble(corpus []internal.LongRecord, report *RunReport) internal.Dataset {
	yeared, drops := SplitYear(corpus, s.cfg.HeaderSeparator)
	for reason, n := range drops {
		report.Dropped[reason] += n
	}

	wide, cols, dupes := Pivot(yeared, s.cfg.YearColumnPrefix)
	report.DuplicateCells += dupes

	wide, collisions, foldDupes := Consolidate(wide)
	report.KeyCollisions += collisions
	report.DuplicateCells += foldDupes

	wide, pruned := Prune(wide)
	for reason, n := range pruned {
		report.Dropped[reason] += n
	}

	ds := Coerce(wide, cols, report.NullCounts, report.Unparseable)
	report.YearColumns = ds.YearColumns
	return ds
}

// Coerce converts every year cell to a number or null. The count maps, when
// non-nil, receive per-column null and unparseable tallies.
func Coerce(records []internal.WideRecord, cols []string, nulls, unparseable map[string]int) internal.Dataset {
	ds := internal.Dataset{
		YearColumns: cols,
		Records:     make([]internal.FinalRecord, 0, len(records)),
	}
	for _, rec := range records {
		values := make(map[string]*float64, len(cols))
		for _, col := range cols {
			v, kind := util.ClassifyValue(rec.Cells[col])
			values[col] = v
			if v == nil && nulls != nil {
				nulls[col]++
			}
			if kind == util.ValueUnparseable && unparseable != nil {
				unparseable[col]++
			}
		}
		ds.Records = append(ds.Records, internal.FinalRecord{Key: rec.Key, Values: values})
	}
	return ds
}
