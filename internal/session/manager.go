package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/dragonfly/internal/data"
	"github.com/dgallion1/dragonfly/internal/tagging"
)

var (
	ErrNotFound         = errors.New("session not found")
	ErrDocumentNotFound = errors.New("document not found")
)

// Options configures a Manager.
type Options struct {
	Tags   *tagging.Registry
	Lister *data.FileLister
	Lookup Lookup

	// AnnotationsDir holds existing annotations; OutputDir receives saves.
	AnnotationsDir string
	OutputDir      string

	// AdjudicateDirs holds one directory per annotator. When set, documents
	// without reference annotations show the first annotator's tags, and
	// every annotator's tags are reported in the state.
	AdjudicateDirs []string

	// ForceTerminalBlankLine ends every saved file with a blank line even
	// when the source document did not.
	ForceTerminalBlankLine bool

	// OnSave is called with every payload written by a session.
	OnSave func(data.SavePayload)

	UndoCapacity int
	TTL          time.Duration
}

// Manager is a thread-safe registry of open sessions with idle expiry.
type Manager struct {
	opts Options
	log  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(opts Options, log *slog.Logger) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Hour
	}
	return &Manager{
		opts:     opts,
		log:      log.With("component", "sessions"),
		sessions: make(map[string]*Session),
	}
}

// Open loads the index-th document into a new session. The returned result
// carries any warnings raised while loading.
func (m *Manager) Open(index int) (*Session, Result, error) {
	filename, ok := m.opts.Lister.Filename(index)
	if !ok {
		return nil, Result{}, fmt.Errorf("%w: index %d", ErrDocumentNotFound, index)
	}

	doc, err := data.ReadDocument(filename)
	if err != nil {
		return nil, Result{}, err
	}

	c := &capture{lookup: m.opts.Lookup}
	res := &Result{Notifications: []Notification{}, Handled: true}
	c.res = res

	loaded, err := data.LoadAnnotations(doc, m.opts.AnnotationsDir)
	if err != nil {
		m.log.Warn("annotations not loaded", "file", filename, "error", err)
		c.Notify(tagging.LevelDanger, "Annotations not loaded: "+err.Error())
	}
	if dirs := m.opts.AdjudicateDirs; len(dirs) > 0 {
		if !loaded && err == nil {
			if _, err := data.LoadAnnotations(doc, dirs[0]); err != nil {
				m.log.Warn("annotations not loaded", "file", filename, "error", err)
				c.Notify(tagging.LevelDanger, "Annotations not loaded: "+err.Error())
			}
		}
		if err := data.LoadAdjudications(doc, dirs); err != nil {
			m.log.Warn("adjudication annotations not loaded", "file", filename, "error", err)
			c.Notify(tagging.LevelDanger, "Adjudication annotations not loaded: "+err.Error())
		}
	}

	translation, err := data.LoadTranslation(m.opts.Lister.Dir(), filename)
	if err != nil {
		m.log.Warn("translation not loaded", "file", filename, "error", err)
	}

	hl := tagging.NewHighlighter(doc.ToGrid(), m.opts.Tags, tagging.Options{
		Notifier:     c,
		Searcher:     c,
		Clipboard:    c,
		UndoCapacity: m.opts.UndoCapacity,
	})
	hl.InitializeHighlight()

	now := time.Now()
	s := &Session{
		id:            uuid.NewString(),
		index:         index,
		hasNext:       m.opts.Lister.HasNext(index),
		doc:           doc,
		translation:   translation,
		hl:            hl,
		sink:          c,
		outputDir:     m.opts.OutputDir,
		forceTrailing: m.opts.ForceTerminalBlankLine,
		onSave:        m.opts.OnSave,
		createdAt:     now,
		updatedAt:     now,
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.log.Info("session opened", "session_id", s.id, "file", filename, "tokens", doc.NumTokens())

	s.mu.Lock()
	defer s.mu.Unlock()
	return s, s.end(res), nil
}

// OpenFile opens a document by name. The name is matched exactly, then as
// a substring of the document paths.
func (m *Manager) OpenFile(name string) (*Session, Result, error) {
	index, ok := m.opts.Lister.IndexOf(name)
	if !ok {
		return nil, Result{}, fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
	}
	return m.Open(index)
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Close discards a session. It reports whether the session existed.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Cleanup removes sessions idle for longer than the TTL and returns how
// many were removed.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	n := 0
	for id, s := range m.sessions {
		if now.Sub(s.lastUsed()) > m.opts.TTL {
			if s.NeedsSaveWarning() {
				m.log.Warn("expiring session with unsaved changes", "session_id", id)
			}
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Start runs periodic cleanup until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Cleanup(); n > 0 {
					m.log.Info("expired sessions", "count", n)
				}
			}
		}
	}()
}
