package tagging

import "github.com/dgallion1/dragonfly/internal/grid"

// Span is a multi-token entity under construction.
type Span struct {
	typ    TagType
	tokens []*grid.Token
}

// NewSpan starts an empty span of the given type.
func NewSpan(typ TagType) *Span {
	return &Span{typ: typ}
}

// Append adds tok at the right end of the span.
func (s *Span) Append(tok *grid.Token) {
	s.tokens = append(s.tokens, tok)
}

// First returns the leftmost token, or nil for an empty span.
func (s *Span) First() *grid.Token {
	if len(s.tokens) == 0 {
		return nil
	}
	return s.tokens[0]
}

// Size is the number of tokens in the span.
func (s *Span) Size() int {
	return len(s.tokens)
}

// Tokens returns the tokens from left to right.
func (s *Span) Tokens() []*grid.Token {
	return s.tokens
}

// Type is the tag type the span applies.
func (s *Span) Type() TagType {
	return s.typ
}

// tagAt is the tag string the span assigns to its i-th token.
func (s *Span) tagAt(i int) string {
	if i == 0 {
		return s.typ.Start()
	}
	return s.typ.Inside()
}
