package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFingerprintChanges(t *testing.T) {
	dir := t.TempDir()
	a, err := Fingerprint(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "page_1.csv"), []byte(",x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := Fingerprint(dir)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("fingerprint did not change after adding a table")
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Fingerprint(dir)
	if err != nil {
		t.Fatal(err)
	}
	if b != c {
		t.Fatal("unsupported files must not change the fingerprint")
	}
}

func TestRunCycleSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "page_1.csv"), []byte(",x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	calls := 0
	svc := NewService(dir, time.Hour, func(context.Context) error {
		calls++
		return nil
	}, nil)

	for i := 0; i < 3; i++ {
		if err := svc.runCycle(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 1 {
		t.Fatalf("calls=%d", calls)
	}
}

func TestRunCycleRetriesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	svc := NewService(dir, time.Hour, func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("boom")
		}
		return nil
	}, nil)

	if err := svc.runCycle(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("calls=%d", calls)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc := NewService(t.TempDir(), time.Hour, func(context.Context) error {
		cancel()
		return nil
	}, nil)

	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
