package session

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgallion1/dragonfly/internal/data"
	"github.com/dgallion1/dragonfly/internal/grid"
	"github.com/dgallion1/dragonfly/internal/search"
	"github.com/dgallion1/dragonfly/internal/tagging"
)

// Lookup answers find-mode queries.
type Lookup interface {
	Retrieve(term string, wildcards bool) search.Result
}

// Notification is a status message raised while handling an event.
type Notification struct {
	Level   tagging.Level `json:"level"`
	Message string        `json:"message"`
}

// Result is what one event produced, plus the session state after it.
type Result struct {
	Handled       bool           `json:"handled"`
	Notifications []Notification `json:"notifications"`
	Copied        string         `json:"copied,omitempty"`
	ShowSearch    bool           `json:"show_search,omitempty"`
	SearchTerm    string         `json:"search_term,omitempty"`
	Search        *search.Result `json:"search,omitempty"`
	State         State          `json:"state"`
}

// State is a JSON-safe view of a session.
type State struct {
	ID              string            `json:"session_id"`
	Index           int               `json:"index"`
	HasNext         bool              `json:"has_next"`
	Filename        string            `json:"filename"`
	Labels          []string          `json:"labels"`
	Mode            string            `json:"mode"`
	CurrentType     tagging.TagType   `json:"current_type"`
	Types           []tagging.TagType `json:"types"`
	Cascade         bool              `json:"cascade"`
	Dirty           bool              `json:"dirty"`
	Saved           bool              `json:"saved"`
	NeedsSave       bool              `json:"needs_save"`
	UndoDepth       int               `json:"undo_depth"`
	Gesture         bool              `json:"gesture"`
	SelectionAnchor int               `json:"selection_anchor,omitempty"`
	Tokens          []grid.Token      `json:"tokens"`
	OpenedAt        time.Time         `json:"opened_at"`

	// Adjudications are the annotators' tags when adjudicating.
	Adjudications []data.Adjudication `json:"adjudications,omitempty"`
	// Translation is the document's English translation, one line per
	// sentence.
	Translation []string `json:"translation,omitempty"`
}

// capture collects the highlighter's side effects for one event.
type capture struct {
	res    *Result
	lookup Lookup
}

func (c *capture) Notify(level tagging.Level, message string) {
	c.res.Notifications = append(c.res.Notifications, Notification{Level: level, Message: message})
}

func (c *capture) Copy(text string) { c.res.Copied = text }
func (c *capture) Show()            { c.res.ShowSearch = true }

func (c *capture) Search(text string) {
	c.res.ShowSearch = true
	c.res.SearchTerm = text
	if c.lookup != nil {
		r := c.lookup.Retrieve(text, false)
		c.res.Search = &r
	}
}

// Session is one open document view. Events are handled one at a time.
type Session struct {
	mu sync.Mutex

	id      string
	index   int
	hasNext bool
	doc     *data.Document
	hl      *tagging.Highlighter
	sink    *capture

	translation []string

	outputDir     string
	forceTrailing bool
	onSave        func(data.SavePayload)

	saved    bool
	modifier bool

	createdAt time.Time
	updatedAt time.Time
}

func (s *Session) ID() string { return s.id }

// begin starts capturing an event. Callers hold s.mu.
func (s *Session) begin() *Result {
	res := &Result{Notifications: []Notification{}}
	s.sink.res = res
	s.updatedAt = time.Now()
	return res
}

// end attaches the state to the captured result. Callers hold s.mu.
func (s *Session) end(res *Result) Result {
	s.sink.res = &Result{}
	res.State = s.state()
	return *res
}

// mutating reports whether a click in the current mode may change tags.
func (s *Session) mutating() bool {
	m := s.hl.Mode()
	return m == tagging.ModeTag || m == tagging.ModeDelete
}

// Key handles a single-character command.
func (s *Session) Key(key rune) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.begin()
	depth := s.hl.UndoDepth()
	res.Handled = s.hl.PressKey(key)
	if s.hl.UndoDepth() != depth {
		s.saved = false
	}
	return s.end(res)
}

// Click handles a click on the token at (row, col) with the current
// modifier state.
func (s *Session) Click(row, col int) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.begin()
	if s.mutating() {
		s.saved = false
	}
	res.Handled = s.hl.ClickAt(row, col, s.modifier)
	return s.end(res)
}

// SetModifier records the multi-token key state. Releasing it ends any
// gesture in progress.
func (s *Session) SetModifier(down bool) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.begin()
	s.modifier = down
	if !down {
		s.hl.ReleaseModifier()
	}
	res.Handled = true
	return s.end(res)
}

// Undo rolls back the last action.
func (s *Session) Undo() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.begin()
	res.Handled = s.hl.Undo()
	if res.Handled {
		s.saved = false
	}
	return s.end(res)
}

// Save writes the session's annotations to the output directory.
func (s *Session) Save() (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.begin()

	payload := s.payload()
	if _, err := data.WriteAnnotations(s.outputDir, payload); err != nil {
		s.sink.Notify(tagging.LevelDanger, "Annotations could not be saved")
		return s.end(res), fmt.Errorf("save %s: %w", payload.Filename, err)
	}
	s.saved = true
	res.Handled = true
	if s.onSave != nil {
		s.onSave(payload)
	}
	s.sink.Notify(tagging.LevelSuccess, "Annotations saved.")
	return s.end(res), nil
}

// Payload returns the annotations as they would be saved.
func (s *Session) Payload() data.SavePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payload()
}

func (s *Session) payload() data.SavePayload {
	return data.SavePayload{
		Filename: filepath.Base(s.doc.Filename),
		Tokens:   s.hl.Grid().Collect(s.doc.TerminalBlankLine || s.forceTrailing),
	}
}

// Entity returns the entity starting at (row, col).
func (s *Session) Entity(row, col int) (tagging.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok := s.hl.TokenAt(row, col)
	if tok == nil {
		return tagging.Entity{}, fmt.Errorf("no token at %s", grid.FormatID(row, col))
	}
	return s.hl.EntityAt(tok)
}

// NeedsSaveWarning reports whether leaving the document would lose edits.
func (s *Session) NeedsSaveWarning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.needsSave()
}

func (s *Session) needsSave() bool {
	return s.hl.Dirty() && !s.saved
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

func (s *Session) state() State {
	return State{
		ID:              s.id,
		Index:           s.index,
		HasNext:         s.hasNext,
		Filename:        filepath.Base(s.doc.Filename),
		Labels:          s.doc.Labels,
		Mode:            s.hl.Mode().String(),
		CurrentType:     s.hl.CurrentType(),
		Types:           s.hl.Registry().Types(),
		Cascade:         s.hl.Cascade(),
		Dirty:           s.hl.Dirty(),
		Saved:           s.saved,
		NeedsSave:       s.needsSave(),
		UndoDepth:       s.hl.UndoDepth(),
		Gesture:         s.hl.GestureActive(),
		SelectionAnchor: s.hl.SelectionAnchor(),
		Tokens:          s.hl.Grid().Snapshot(),
		OpenedAt:        s.createdAt,
		Adjudications:   s.doc.Adjudications,
		Translation:     s.translation,
	}
}

// Suspend toggles keyboard handling, e.g. while a text field has focus.
func (s *Session) Suspend(suspended bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hl.Suspend(suspended)
}

func (s *Session) lastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}
