// Package batch runs one normalization pass over the input directory and
// stores what it produced.
package batch

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"worldprod/internal"
	"worldprod/internal/config"
	"worldprod/internal/lookup"
	"worldprod/internal/pipeline"
	"worldprod/internal/sources"
	"worldprod/internal/storage"
)

const (
	ExitOK      = 0
	ExitFatal   = 1
	ExitPartial = 3
)

type Runner struct {
	db  *storage.DB
	cfg config.Config
	log *zap.Logger
}

func NewRunner(db *storage.DB, cfg config.Config, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.L()
	}
	return &Runner{db: db, cfg: cfg, log: log}
}

type Result struct {
	Dataset internal.Dataset
	Report  pipeline.RunReport
}

// Run reads cfg.InputDir, writes cfg.OutputPath and records the run. An empty
// dataset still records the run and its report before returning
// pipeline.ErrEmptyDataset.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	tables, err := sources.NewDirSource(r.cfg.InputDir, r.log).Load(ctx)
	if err != nil {
		return Result{}, err
	}

	idx, err := lookup.Load(r.db, r.cfg)
	if err != nil {
		return Result{}, err
	}
	var resolver pipeline.PageResolver
	if idx != nil {
		resolver = idx
		r.log.Debug("batch: lookup loaded", zap.Int("pages", idx.Len()))
	}

	ds, report, runErr := pipeline.NewService(r.cfg, resolver, r.log).Run(ctx, tables)
	if runErr != nil && !errors.Is(runErr, pipeline.ErrEmptyDataset) {
		return Result{Report: report}, runErr
	}
	res := Result{Dataset: ds, Report: report}

	if runErr == nil {
		if err := pipeline.WriteDatasetFile(ds, r.cfg.OutputPath); err != nil {
			return res, err
		}
	}
	if r.cfg.ReportPath != "" {
		if err := report.WriteYAML(r.cfg.ReportPath); err != nil {
			return res, err
		}
	}
	if err := r.persist(ds, report); err != nil {
		return res, err
	}
	return res, runErr
}

func (r *Runner) persist(ds internal.Dataset, report pipeline.RunReport) error {
	if r.db == nil {
		return nil
	}
	blob, err := report.MarshalReport()
	if err != nil {
		return err
	}
	skipped := make([]storage.SkippedRow, 0, len(report.Skipped))
	for _, s := range report.Skipped {
		skipped = append(skipped, storage.SkippedRow{TableID: s.TableID, Reason: string(s.Reason), Detail: s.Detail})
	}
	run := storage.RunRow{
		ID:         report.RunID,
		Status:     report.Status(),
		StartedAt:  report.StartedAt.UTC().Format(time.RFC3339Nano),
		FinishedAt: report.FinishedAt.UTC().Format(time.RFC3339Nano),
		InputDir:   r.cfg.InputDir,
		OutputPath: r.cfg.OutputPath,
		ReportYAML: string(blob),
	}
	if err := r.db.InsertRun(run, skipped); err != nil {
		return err
	}
	if len(ds.Records) == 0 {
		return nil
	}
	if err := r.db.InsertDataset(report.RunID, ds); err != nil {
		return eris.Wrapf(err, "batch: store dataset for run %s", report.RunID)
	}
	return nil
}

// ExitCode maps a run outcome to the process exit status: 0 when every table
// was used, 3 when output exists but tables were skipped or records dropped,
// 1 when nothing was produced.
func ExitCode(res Result, err error) int {
	if err != nil || len(res.Dataset.Records) == 0 {
		return ExitFatal
	}
	if res.Report.Status() == pipeline.StatusPartial {
		return ExitPartial
	}
	return ExitOK
}
