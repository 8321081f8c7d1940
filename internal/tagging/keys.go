package tagging

import (
	"strconv"

	"github.com/dgallion1/dragonfly/internal/grid"
)

// PressKey applies a single-character command. It reports whether the key
// was recognized.
func (h *Highlighter) PressKey(key rune) bool {
	if h.suspended {
		return false
	}

	switch key {
	case 'c':
		h.ToggleCascade()
	case '0', 'd', 'n':
		h.mode = ModeDelete
	case 's':
		h.prevMode = h.mode
		h.mode = ModeSelect
	case 'f':
		h.prevMode = h.mode
		h.mode = ModeFind
		h.searcher.Show()
	case 'u':
		h.Undo()
	case 'r':
		// Drop a stuck gesture, e.g. when the key-up event was lost.
		h.span = nil
		h.spanLevel = nil
	default:
		return h.SetTagType(string(key))
	}
	return true
}

// SetTagType switches to tag mode with the type whose id is the given
// digit string.
func (h *Highlighter) SetTagType(id string) bool {
	if !h.tags.IsTagType(id) {
		return false
	}
	n, _ := strconv.Atoi(id)
	t, err := h.tags.Get(n)
	if err != nil {
		return false
	}
	h.mode = ModeTag
	h.current = t
	return true
}

// ClickAt is ClickToken addressed by grid coordinates.
func (h *Highlighter) ClickAt(row, col int, modifierHeld bool) bool {
	tok := h.grid.Token(row, col)
	if tok == nil {
		return false
	}
	h.ClickToken(tok, modifierHeld)
	return true
}

// TokenAt returns the token at (row, col) of the highlighter's grid.
func (h *Highlighter) TokenAt(row, col int) *grid.Token {
	return h.grid.Token(row, col)
}
