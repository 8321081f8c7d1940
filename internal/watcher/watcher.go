// Package watcher monitors the document directory and reports settled
// batches of changes.
package watcher

import (
	"crypto/sha256"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultInterval is how long a directory must stay quiet before a batch is
// reported.
const DefaultInterval = time.Second

// Batch is a settled set of document changes.
type Batch struct {
	Changed []string
	Removed []string
}

// Empty reports whether the batch carries no changes.
func (b Batch) Empty() bool { return len(b.Changed) == 0 && len(b.Removed) == 0 }

// Watcher monitors one directory for document files with a given extension.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dir       string
	ext       string
	interval  time.Duration
	onChange  func(Batch)
	log       *slog.Logger

	// path -> last event time for files awaiting a settle
	pending map[string]time.Time
	removed map[string]bool
	// path -> content hash of the last reported version
	hashes  map[string][32]byte
	stateMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a watcher for dir. onChange is called from the watcher's own
// goroutine.
func New(dir, ext string, interval time.Duration, onChange func(Batch), log *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		fsWatcher.Close()
		return nil, err
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		dir:       abs,
		ext:       ext,
		interval:  interval,
		onChange:  onChange,
		log:       log.With("component", "watcher"),
		pending:   make(map[string]time.Time),
		removed:   make(map[string]bool),
		hashes:    make(map[string][32]byte),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching. Files already present are hashed so that only
// later edits are reported.
func (w *Watcher) Start() error {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return err
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !w.matches(entry.Name()) {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if hash, _, err := HashFile(path); err == nil {
			w.hashes[path] = hash
		}
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()
	w.log.Info("watching documents", "dir", w.dir, "ext", w.ext)
	return nil
}

// Stop shuts the watcher down and waits for its goroutines.
func (w *Watcher) Stop() error {
	close(w.done)
	w.wg.Wait()
	return w.fsWatcher.Close()
}

func (w *Watcher) matches(name string) bool {
	if strings.HasPrefix(filepath.Base(name), ".") {
		return false
	}
	return w.ext == "" || strings.EqualFold(filepath.Ext(name), w.ext)
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.matches(event.Name) {
				continue
			}
			w.stateMu.Lock()
			switch {
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				delete(w.pending, event.Name)
				if _, known := w.hashes[event.Name]; known {
					w.removed[event.Name] = true
				}
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				delete(w.removed, event.Name)
				w.pending[event.Name] = time.Now()
			}
			w.stateMu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case now := <-ticker.C:
			if b := w.settle(now); !b.Empty() && w.onChange != nil {
				w.onChange(b)
			}
		}
	}
}

// settle collects files quiet for the interval. A batch is only released
// once every pending file has settled, so a bulk copy is reported once.
func (w *Watcher) settle(now time.Time) Batch {
	threshold := now.Add(-w.interval)

	w.stateMu.Lock()
	var ready []string
	for path, last := range w.pending {
		if !last.Before(threshold) {
			w.stateMu.Unlock()
			return Batch{}
		}
		ready = append(ready, path)
	}
	var b Batch
	for path := range w.removed {
		b.Removed = append(b.Removed, path)
		delete(w.hashes, path)
	}
	w.removed = make(map[string]bool)
	for _, path := range ready {
		delete(w.pending, path)
	}
	w.stateMu.Unlock()

	// Hash outside the lock; unchanged rewrites are dropped.
	for _, path := range ready {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		hash, _, err := HashFile(path)
		if err != nil {
			w.log.Warn("hash failed", "path", path, "error", err)
			continue
		}
		w.stateMu.Lock()
		prev, known := w.hashes[path]
		w.hashes[path] = hash
		w.stateMu.Unlock()
		if known && prev == hash {
			continue
		}
		b.Changed = append(b.Changed, path)
	}

	sort.Strings(b.Changed)
	sort.Strings(b.Removed)
	return b
}

// HashFile computes the SHA-256 of a file by streaming it.
func HashFile(path string) ([32]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return [32]byte{}, 0, err
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return [32]byte{}, 0, err
	}

	var hash [32]byte
	copy(hash[:], h.Sum(nil))
	return hash, size, nil
}

// TrackedFiles returns the number of documents with a known hash.
func (w *Watcher) TrackedFiles() int {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	return len(w.hashes)
}
