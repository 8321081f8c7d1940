package watcher

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func quietLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestHashFile(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.txt")
	content := []byte("test content for hashing")
	if err := os.WriteFile(testFile, content, 0o600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	hash1, size, err := HashFile(testFile)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}
	if size != int64(len(content)) {
		t.Errorf("expected size %d, got %d", len(content), size)
	}

	if err := os.WriteFile(testFile, []byte("different content"), 0o600); err != nil {
		t.Fatalf("failed to modify test file: %v", err)
	}
	hash2, _, err := HashFile(testFile)
	if err != nil {
		t.Fatalf("second HashFile failed: %v", err)
	}
	if hash1 == hash2 {
		t.Error("different content should produce different hash")
	}

	if _, _, err := HashFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestSettle(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte(p), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	w, err := New(dir, ".txt", time.Second, nil, quietLog())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.fsWatcher.Close()
	if h, _, err := HashFile(a); err == nil {
		w.hashes[a] = h
	}

	now := time.Now()
	w.pending[a] = now.Add(-2 * time.Second)
	w.pending[b] = now

	// b is still settling, so nothing is released.
	if got := w.settle(now); !got.Empty() {
		t.Fatalf("expected empty batch, got %+v", got)
	}

	// a was rewritten with identical content and is dropped.
	got := w.settle(now.Add(2 * time.Second))
	if len(got.Changed) != 1 || got.Changed[0] != b {
		t.Fatalf("expected only %s changed, got %+v", b, got)
	}
	if w.TrackedFiles() != 2 {
		t.Errorf("expected 2 tracked files, got %d", w.TrackedFiles())
	}

	w.removed[a] = true
	got = w.settle(now.Add(3 * time.Second))
	if len(got.Removed) != 1 || got.Removed[0] != a {
		t.Fatalf("expected %s removed, got %+v", a, got)
	}
	if w.TrackedFiles() != 1 {
		t.Errorf("expected 1 tracked file, got %d", w.TrackedFiles())
	}
}

func TestMatches(t *testing.T) {
	w := &Watcher{ext: ".txt"}
	cases := map[string]bool{
		"/d/a.txt":       true,
		"/d/A.TXT":       true,
		"/d/a.txt.anno":  false,
		"/d/.hidden.txt": false,
		"/d/a.csv":       false,
	}
	for name, want := range cases {
		if got := w.matches(name); got != want {
			t.Errorf("matches(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestWatcherReportsNewDocument(t *testing.T) {
	dir := t.TempDir()
	batches := make(chan Batch, 4)
	w, err := New(dir, ".txt", 100*time.Millisecond, func(b Batch) { batches <- b }, quietLog())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(w.dir, "new.txt")
	if err := os.WriteFile(path, []byte("Ann\nmet\nBob\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, "skip.csv"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case b := <-batches:
		if len(b.Changed) != 1 || b.Changed[0] != path {
			t.Errorf("expected %s changed, got %+v", path, b)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for batch")
	}
}
