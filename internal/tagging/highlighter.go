package tagging

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/dragonfly/internal/grid"
)

// ErrSpanGeometry is reported when the two clicks of a multi-token gesture
// are not on one row running left to right.
var ErrSpanGeometry = errors.New("multi-token tags must be on one line and run left to right")

// Mode is the current meaning of a token click.
type Mode int

const (
	ModeTag Mode = iota
	ModeDelete
	ModeSelect
	ModeFind
)

func (m Mode) String() string {
	switch m {
	case ModeTag:
		return "tag"
	case ModeDelete:
		return "delete"
	case ModeSelect:
		return "select"
	case ModeFind:
		return "find"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Options wires the highlighter to its collaborators. Nil collaborators
// are replaced with no-ops.
type Options struct {
	Notifier     Notifier
	Searcher     Searcher
	Clipboard    Clipboard
	UndoCapacity int
}

// Highlighter is the tagging state machine for one document view. It is not
// safe for concurrent use; callers serialize events.
type Highlighter struct {
	grid *grid.Grid
	tags *Registry
	undo *UndoManager

	notifier  Notifier
	searcher  Searcher
	clipboard Clipboard

	mode     Mode
	prevMode Mode
	current  TagType
	cascade  bool
	dirty    bool

	// Multi-token gesture in progress and the undo level it opened.
	span      *Span
	spanLevel *UndoLevel

	// Row of the first select-mode click, 0 when unset.
	anchor int

	suspended bool
}

// NewHighlighter creates a highlighter in tag mode with the registry's
// start type selected and cascading on.
func NewHighlighter(g *grid.Grid, tags *Registry, opts Options) *Highlighter {
	h := &Highlighter{
		grid:      g,
		tags:      tags,
		undo:      NewUndoManager(opts.UndoCapacity),
		notifier:  opts.Notifier,
		searcher:  opts.Searcher,
		clipboard: opts.Clipboard,
		mode:      ModeTag,
		prevMode:  ModeTag,
		current:   tags.Start(),
		cascade:   true,
	}
	if h.notifier == nil {
		h.notifier = nopNotifier{}
	}
	if h.searcher == nil {
		h.searcher = nopSearcher{}
	}
	if h.clipboard == nil {
		h.clipboard = nopClipboard{}
	}
	return h
}

func (h *Highlighter) Mode() Mode           { return h.mode }
func (h *Highlighter) CurrentType() TagType { return h.current }
func (h *Highlighter) Cascade() bool        { return h.cascade }
func (h *Highlighter) Grid() *grid.Grid     { return h.grid }
func (h *Highlighter) Registry() *Registry  { return h.tags }
func (h *Highlighter) UndoDepth() int       { return h.undo.Len() }
func (h *Highlighter) GestureActive() bool  { return h.span != nil }
func (h *Highlighter) SelectionAnchor() int { return h.anchor }

// Dirty reports whether the user changed any tag during this session.
func (h *Highlighter) Dirty() bool { return h.dirty }

// ToggleCascade flips cascading on or off.
func (h *Highlighter) ToggleCascade() {
	h.cascade = !h.cascade
}

// Suspend makes PressKey ignore input, e.g. while a text field has focus.
func (h *Highlighter) Suspend(suspended bool) {
	h.suspended = suspended
}

// Revert returns to the mode saved before select or find mode.
func (h *Highlighter) Revert() {
	h.mode = h.prevMode
}

// InitializeHighlight applies the tags loaded with the document. Tags whose
// type is not registered are cleared and reported in one warning. Undo
// recording is enabled once the pass completes.
func (h *Highlighter) InitializeHighlight() {
	var mismatched []string
	seen := make(map[string]bool)
	for _, tok := range h.grid.Tokens() {
		if tok.Tag == grid.Outside {
			tok.Clear()
		}
		if tok.Tag == "" {
			continue
		}
		if _, ok := h.tags.Resolve(tok.Tag); !ok {
			if !seen[tok.Tag] {
				seen[tok.Tag] = true
				mismatched = append(mismatched, tok.Tag)
			}
			tok.Clear()
			continue
		}
		h.apply(tok, tok.Tag, false)
	}
	if len(mismatched) > 0 {
		h.notifier.Notify(LevelDanger, "Tags in the annotations do not match the configured tag types: "+strings.Join(mismatched, ", "))
	}
	h.undo.SetActive(true)
}

// ClickToken handles a click on tok according to the current mode.
// modifierHeld is the state of the multi-token key.
func (h *Highlighter) ClickToken(tok *grid.Token, modifierHeld bool) {
	if tok == nil {
		return
	}
	// A plain click closes an open gesture; its first tag stays as an
	// ordinary undoable action.
	if !modifierHeld && h.span != nil {
		h.span = nil
		h.spanLevel = nil
	}
	switch h.mode {
	case ModeDelete:
		h.dirty = true
		h.undo.Begin()
		h.undo.Record(tok)
		tok.Clear()
	case ModeSelect:
		h.selectToken(tok)
	case ModeFind:
		h.searcher.Search(tok.Text)
	default:
		h.dirty = true
		if modifierHeld {
			h.gestureClick(tok)
			return
		}
		h.undo.Begin()
		h.apply(tok, h.current.Start(), false)
		if h.cascade {
			h.cascadeToken(tok)
		}
	}
}

// ReleaseModifier ends a multi-token gesture. A span that never received
// its second click is rolled back.
func (h *Highlighter) ReleaseModifier() {
	if h.span != nil && h.span.Size() > 0 {
		h.revertGesture()
	}
	h.span = nil
	h.spanLevel = nil
}

// Undo rolls back the most recent action. It reports false when there is
// nothing to undo.
func (h *Highlighter) Undo() bool {
	// An open gesture owns the newest level; close it so a later
	// release does not revert a second time.
	h.span = nil
	h.spanLevel = nil
	l := h.undo.Pop()
	if l == nil {
		return false
	}
	l.Apply(h.grid)
	return true
}

func (h *Highlighter) gestureClick(tok *grid.Token) {
	if h.span == nil {
		h.spanLevel = h.undo.Begin()
		h.span = NewSpan(h.current)
		h.span.Append(tok)
		h.apply(tok, h.current.Start(), false)
		return
	}

	first := h.span.First()
	if err := checkSpanEnd(first, tok); err != nil {
		h.revertGesture()
		h.span = nil
		h.spanLevel = nil
		h.notifier.Notify(LevelDanger, "Multi-token tags must be on one line and run left to right")
		return
	}

	for col := first.Col + 1; col <= tok.Col; col++ {
		h.span.Append(h.grid.Token(first.Row, col))
	}
	h.applySpan(h.span, false)
	if h.cascade {
		h.cascadeSpan(h.span)
	}
	h.span = nil
	h.spanLevel = nil
}

func (h *Highlighter) revertGesture() {
	if h.spanLevel == nil {
		return
	}
	if h.undo.Discard(h.spanLevel) {
		h.spanLevel.Apply(h.grid)
	}
}

// apply sets a tag on tok. Inferred tags never replace an explicit one.
func (h *Highlighter) apply(tok *grid.Token, tag string, inferred bool) bool {
	if inferred && tok.IsExplicit() {
		return false
	}
	h.undo.Record(tok)
	tok.Tag = tag
	tok.Inferred = inferred
	return true
}

func (h *Highlighter) applySpan(s *Span, inferred bool) {
	for i, tok := range s.Tokens() {
		h.apply(tok, s.tagAt(i), inferred)
	}
}

func checkSpanEnd(first, last *grid.Token) error {
	if last.Row != first.Row || last.Col <= first.Col {
		return fmt.Errorf("%w: %s to %s", ErrSpanGeometry, first.ID(), last.ID())
	}
	return nil
}
