package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/dgallion1/dragonfly/internal/data"
)

// IndexFile is the name of the persisted index in the metadata directory.
const IndexFile = "inverted_index.json"

// translitLabel marks the column holding transliterations.
const translitLabel = "ROMAN"

// Local keeps an Index in sync with the documents of a data directory.
// Rebuilds run on a single background goroutine; requests made while a
// build is running are coalesced into one follow-up build.
type Local struct {
	index       *Index
	files       func() []string
	metadataDir string
	log         *slog.Logger

	requests chan struct{}
	ready    atomic.Bool
}

// NewLocal creates a searcher over the files returned by files.
func NewLocal(files func() []string, metadataDir string, maxEntries int, log *slog.Logger) *Local {
	return &Local{
		index:       NewIndex(maxEntries),
		files:       files,
		metadataDir: metadataDir,
		log:         log.With("component", "search"),
		requests:    make(chan struct{}, 1),
	}
}

func (l *Local) Index() *Index { return l.index }

// Ready reports whether the index has been loaded or built.
func (l *Local) Ready() bool { return l.ready.Load() }

func (l *Local) Retrieve(term string, wildcards bool) Result {
	return l.index.Retrieve(term, wildcards)
}

// Start loads the persisted index, or queues a build when none exists, and
// serves rebuild requests until ctx is done.
func (l *Local) Start(ctx context.Context) {
	if err := l.Load(); err != nil {
		if !os.IsNotExist(err) {
			l.log.Warn("cannot load search index", "error", err)
		}
		l.Rebuild()
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-l.requests:
				if err := l.Build(ctx); err != nil {
					l.log.Error("search index build failed", "error", err)
				}
			}
		}
	}()
}

// Rebuild requests a background build.
func (l *Local) Rebuild() {
	select {
	case l.requests <- struct{}{}:
	default:
	}
}

// Build reindexes every document and persists the result.
func (l *Local) Build(ctx context.Context) error {
	fresh := NewIndex(l.index.maxEntries)
	files := l.files()
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.HasSuffix(f, data.AnnotationExt) {
			continue
		}
		doc, err := data.ReadDocument(f)
		if err != nil {
			l.log.Warn("skipping document", "file", f, "error", err)
			continue
		}
		sentences, trans := columns(doc)
		fresh.Add(f, sentences, trans)
	}
	l.index.replace(fresh)
	l.ready.Store(true)
	l.log.Info("search index built", "documents", len(files))
	return l.Save()
}

func columns(doc *data.Document) (sentences, trans [][]string) {
	tcol := -1
	for i, label := range doc.Labels {
		if i > 0 && strings.EqualFold(label, translitLabel) {
			tcol = i
			break
		}
	}
	for _, s := range doc.Sentences {
		sentences = append(sentences, s.Tokens())
		if tcol > 0 {
			trans = append(trans, s.Rows[tcol])
		}
	}
	return sentences, trans
}

type persisted struct {
	MaxEntries   int               `json:"max_entries"`
	NumDocuments int               `json:"num_documents"`
	Words        map[string]*Entry `json:"words"`
}

// Save writes the index to the metadata directory.
func (l *Local) Save() error {
	if l.metadataDir == "" {
		return nil
	}
	if err := os.MkdirAll(l.metadataDir, 0o755); err != nil {
		return fmt.Errorf("create metadata dir: %w", err)
	}

	l.index.mu.RLock()
	raw, err := json.Marshal(persisted{
		MaxEntries:   l.index.maxEntries,
		NumDocuments: l.index.numDocs,
		Words:        l.index.words,
	})
	l.index.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode search index: %w", err)
	}
	return os.WriteFile(filepath.Join(l.metadataDir, IndexFile), raw, 0o644)
}

// Load reads a persisted index.
func (l *Local) Load() error {
	if l.metadataDir == "" {
		return os.ErrNotExist
	}
	raw, err := os.ReadFile(filepath.Join(l.metadataDir, IndexFile))
	if err != nil {
		return err
	}
	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("decode search index: %w", err)
	}
	if p.Words == nil {
		p.Words = make(map[string]*Entry)
	}
	fresh := NewIndex(p.MaxEntries)
	fresh.numDocs = p.NumDocuments
	fresh.words = p.Words
	l.index.replace(fresh)
	l.ready.Store(true)
	return nil
}

func (ix *Index) replace(other *Index) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.maxEntries = other.maxEntries
	ix.numDocs = other.numDocs
	ix.words = other.words
}
