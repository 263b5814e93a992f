// Package watcher reruns the batch whenever the input directory changes.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"worldprod/internal/sources"
)

// RunFunc performs one batch run.
type RunFunc func(ctx context.Context) error

type Service struct {
	dir      string
	interval time.Duration
	run      RunFunc
	log      *zap.Logger

	last string
}

func NewService(dir string, interval time.Duration, run RunFunc, log *zap.Logger) *Service {
	if log == nil {
		log = zap.L()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Service{dir: dir, interval: interval, run: run, log: log}
}

// Run polls until ctx is cancelled. Cycle errors are logged, not returned.
func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(ctx); err != nil {
			s.log.Warn("watcher: cycle error", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.interval):
		}
	}
}

// runCycle runs the batch when the directory fingerprint moved since the last
// successful run.
func (s *Service) runCycle(ctx context.Context) error {
	fp, err := Fingerprint(s.dir)
	if err != nil {
		return err
	}
	if fp == s.last {
		s.log.Debug("watcher: no change", zap.String("dir", s.dir))
		return nil
	}

	start := time.Now()
	if err := s.run(ctx); err != nil {
		return err
	}
	s.last = fp
	s.log.Info("watcher: cycle done",
		zap.String("dir", s.dir),
		zap.String("fingerprint", fp[:12]),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Fingerprint hashes the name, size and modification time of every table file
// under dir.
func Fingerprint(dir string) (string, error) {
	files, err := sources.ListTableFiles(dir)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s\x00%d\x00%d\n", path, info.Size(), info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
