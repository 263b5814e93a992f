package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"worldprod/internal/batch"
	"worldprod/internal/config"
	"worldprod/internal/logger"
	"worldprod/internal/storage"
	"worldprod/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(cfg.Validate())

	restore := logger.Init(logger.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	defer restore()

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	runner := batch.NewRunner(db, cfg, zap.L())
	svc := watcher.NewService(cfg.InputDir, time.Duration(cfg.WatchIntervalSec)*time.Second, func(ctx context.Context) error {
		_, err := runner.Run(ctx)
		return err
	}, zap.L())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
