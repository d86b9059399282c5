//go:build linux

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "w.imp", "BEGIN WRITE 1; END")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- watchFiles(ctx, []string{path}, 20*time.Millisecond, func(p string) {
			changed <- p
		})
	}()

	// Give the watch time to register before writing.
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("BEGIN WRITE 2; END"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case p := <-changed:
		if p != path {
			t.Errorf("callback got %q, want %q", p, path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watchFiles returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watchFiles did not stop after cancel")
	}
}

func TestWatchFiles_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.imp")
	if err := watchFiles(context.Background(), []string{missing}, time.Millisecond, func(string) {}); err == nil {
		t.Fatal("expected an error watching a missing file")
	}
}
