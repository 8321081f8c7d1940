package tagging

import (
	"errors"
	"strings"

	"github.com/dgallion1/dragonfly/internal/grid"
)

// ErrNotEntityStart is returned when an entity is looked up from one of its
// inside tokens.
var ErrNotEntityStart = errors.New("you must click the first tag of a sequence")

// selectToken implements the two-click copy gesture of select mode.
func (h *Highlighter) selectToken(tok *grid.Token) {
	if h.anchor == 0 {
		h.anchor = tok.Row
		return
	}

	var parts []string
	switch {
	case h.anchor == tok.Row:
		parts = append(parts, h.grid.FirstText(tok.Row))
	case h.anchor < tok.Row:
		for row := h.anchor; row < tok.Row; row++ {
			parts = append(parts, h.grid.FirstText(row))
		}
		parts = append(parts, tok.Text)
	default:
		parts = append(parts, tok.Text)
		for row := tok.Row + 1; row <= h.anchor; row++ {
			parts = append(parts, h.grid.FirstText(row))
		}
	}

	h.clipboard.Copy(strings.Join(parts, " "))
	h.anchor = 0
	h.Revert()
	h.notifier.Notify(LevelSuccess, "Copied")
}

// Entity describes the entity that starts at a token.
type Entity struct {
	Text string `json:"text"`
	Type string `json:"type,omitempty"`
}

// EntityAt returns the full text and type of the entity beginning at tok.
// An untagged token yields its own text with no type.
func (h *Highlighter) EntityAt(tok *grid.Token) (Entity, error) {
	if !tok.HasEntityTag() {
		return Entity{Text: tok.Text}, nil
	}
	if strings.HasPrefix(tok.Tag, "I-") {
		return Entity{}, ErrNotEntityStart
	}

	name := strings.TrimPrefix(tok.Tag, "B-")
	inside := "I-" + name
	parts := []string{tok.Text}
	for col := tok.Col + 1; ; col++ {
		next := h.grid.Token(tok.Row, col)
		if next == nil || next.Tag != inside {
			break
		}
		parts = append(parts, next.Text)
	}
	return Entity{Text: strings.Join(parts, " "), Type: name}, nil
}
