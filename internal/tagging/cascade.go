package tagging

import (
	"fmt"
	"strings"

	"github.com/dgallion1/dragonfly/internal/grid"
)

// cascadeToken copies the origin's tag to every token with the same text.
// Tokens with an explicit tag keep it. Returns the number of tokens changed.
func (h *Highlighter) cascadeToken(origin *grid.Token) int {
	count := 0
	for _, tok := range h.grid.Tokens() {
		if !strings.EqualFold(tok.Text, origin.Text) {
			continue
		}
		if h.apply(tok, origin.Tag, true) {
			count++
		}
	}
	h.notifier.Notify(LevelSuccess, fmt.Sprintf("Cascade: %d", count))
	return count
}

// cascadeSpan repeats a completed multi-token span at every untagged run of
// tokens with the same texts on one row. Returns the number of spans added.
func (h *Highlighter) cascadeSpan(tmpl *Span) int {
	pattern := tmpl.Tokens()
	first := pattern[0]
	count := 0
	for _, cand := range h.grid.Tokens() {
		if cand == first || cand.HasEntityTag() || !strings.EqualFold(cand.Text, first.Text) {
			continue
		}
		if match := h.matchSpan(cand, pattern, tmpl.Type()); match != nil {
			h.applySpan(match, true)
			count++
		}
	}
	h.notifier.Notify(LevelSuccess, fmt.Sprintf("Cascade: %d", count))
	return count
}

// matchSpan extends start rightwards along its row to the length of
// pattern. It returns nil unless every position matches and is untagged.
func (h *Highlighter) matchSpan(start *grid.Token, pattern []*grid.Token, typ TagType) *Span {
	s := NewSpan(typ)
	s.Append(start)
	for i := 1; i < len(pattern); i++ {
		next := h.grid.Token(start.Row, start.Col+i)
		if next == nil || next.HasEntityTag() || !strings.EqualFold(next.Text, pattern[i].Text) {
			return nil
		}
		s.Append(next)
	}
	return s
}
