package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"worldprod/internal/batch"
	"worldprod/internal/config"
	"worldprod/internal/logger"
	"worldprod/internal/lookup"
	"worldprod/internal/pipeline"
	"worldprod/internal/storage"
	"worldprod/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	input := fs.String("input", cfg.InputDir, "directory of extracted tables")
	output := fs.String("output", cfg.OutputPath, "dataset path (.csv or .xlsx)")
	report := fs.String("report", cfg.ReportPath, "run report yaml path")
	lookupFile := fs.String("lookup", cfg.LookupFile, "page lookup file (.csv or .yaml)")
	workers := fs.Int("workers", cfg.Workers, "parallel table workers")
	runID := fs.String("run", "", "run id (default: latest)")
	out := fs.String("out", "", "export path (.csv or .xlsx)")
	file := fs.String("file", "", "lookup file to import")
	_ = fs.Parse(os.Args[2:])

	cfg.InputDir = *input
	cfg.OutputPath = *output
	cfg.ReportPath = *report
	cfg.LookupFile = *lookupFile
	cfg.Workers = *workers
	must(cfg.Validate())

	restore := logger.Init(logger.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	defer restore()
	defer func() { _ = zap.L().Sync() }()

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch cmd {
	case "run":
		res, err := batch.NewRunner(db, cfg, zap.L()).Run(ctx)
		if res.Report.RunID != "" {
			fmt.Print(res.Report.Summary())
		}
		if err != nil && !errors.Is(err, pipeline.ErrEmptyDataset) {
			must(err)
		}
		code := batch.ExitCode(res, err)
		if code == batch.ExitOK || code == batch.ExitPartial {
			fmt.Printf("output: %s\n", cfg.OutputPath)
		}
		if code != batch.ExitOK {
			_ = db.Close()
			os.Exit(code)
		}
	case "lookup:import":
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}
		count, err := lookup.ImportFile(db, *file)
		must(err)
		fmt.Printf("lookup import complete: %d pages\n", count)
	case "lookup:sync":
		must(cfg.Require("LOOKUP_API_BASE_URL", cfg.LookupAPIBaseURL))
		must(cfg.Require("LOOKUP_API_TOKEN", cfg.LookupAPIToken))
		count, err := lookup.NewSyncService(db, cfg).Sync(ctx)
		must(err)
		fmt.Printf("lookup sync complete: %d pages\n", count)
	case "lookup:status":
		st, err := lookup.LoadStatus(db)
		must(err)
		fmt.Printf("lookup pages: %d\n", st.Pages)
		fmt.Printf("last sync: %s\n", stamp(st.LastSync))
		fmt.Printf("last import: %s\n", stamp(st.LastImport))
	case "export":
		id := resolveRunID(db, *runID)
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		ds, err := db.GetDataset(id)
		must(err)
		if len(ds.Records) == 0 {
			must(fmt.Errorf("no dataset rows for run %s", id))
		}
		must(pipeline.WriteDatasetFile(ds, *out))
		fmt.Printf("exported %d rows to %s\n", len(ds.Records), *out)
	case "report":
		id := resolveRunID(db, *runID)
		run, err := db.GetRun(id)
		must(err)
		if run == nil {
			must(fmt.Errorf("run %s not found", id))
		}
		rep, err := pipeline.ParseReport([]byte(run.ReportYAML))
		must(err)
		fmt.Print(rep.Summary())
		skipped, err := db.ListSkipped(id)
		must(err)
		for _, s := range skipped {
			if s.Detail != "" {
				fmt.Printf("  %s: %s\n", s.TableID, s.Detail)
			}
		}
	case "watch":
		runner := batch.NewRunner(db, cfg, zap.L())
		w := watcher.NewService(cfg.InputDir, time.Duration(cfg.WatchIntervalSec)*time.Second, func(ctx context.Context) error {
			res, err := runner.Run(ctx)
			if res.Report.RunID != "" {
				zap.L().Info("watch: run complete", zap.String("run_id", res.Report.RunID), zap.String("status", res.Report.Status()))
			}
			return err
		}, zap.L())
		must(w.Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

func resolveRunID(db *storage.DB, id string) string {
	if strings.TrimSpace(id) != "" {
		return id
	}
	latest, err := db.LatestRunID()
	must(err)
	if latest == "" {
		must(fmt.Errorf("no runs recorded"))
	}
	return latest
}

func stamp(v *string) string {
	if v == nil {
		return "never"
	}
	return *v
}

func usage() {
	fmt.Println("usage: worldprod <command> [flags]")
	fmt.Println("commands:")
	fmt.Println("  run --input=./data/tables --output=./out/world_production.csv [--report=...yaml] [--lookup=...csv] [--workers=1]")
	fmt.Println("  lookup:import --file=./commodity_names.csv")
	fmt.Println("  lookup:sync")
	fmt.Println("  lookup:status")
	fmt.Println("  export [--run=<id>] --out=./out/world_production.xlsx")
	fmt.Println("  report [--run=<id>]")
	fmt.Println("  watch --input=./data/tables")
	fmt.Println("exit codes: 0 ok, 3 partial (tables skipped or records dropped, the usual result for pages with a Reserves column), 1 failed")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
