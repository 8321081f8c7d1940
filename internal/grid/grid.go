package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// Outside is the tag string for a token that is not part of an entity.
const Outside = "O"

// Token is a single annotatable cell in the document grid.
type Token struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Text     string `json:"text"`
	Tag      string `json:"tag,omitempty"` // empty means untagged
	Inferred bool   `json:"inferred"`
}

// ID returns the stable "row-col" identifier of the token.
func (t *Token) ID() string {
	return FormatID(t.Row, t.Col)
}

// HasEntityTag reports whether the token carries a B- or I- tag.
func (t *Token) HasEntityTag() bool {
	return strings.Contains(t.Tag, "-")
}

// IsExplicit reports whether the token carries an entity tag that was
// applied directly rather than through a cascade.
func (t *Token) IsExplicit() bool {
	return t.HasEntityTag() && !t.Inferred
}

// Clear resets the token to untagged.
func (t *Token) Clear() {
	t.Tag = ""
	t.Inferred = false
}

// Grid is the token collection of one document, addressed 1-based by
// (row, column). Rows are contiguous and columns are contiguous within a row.
type Grid struct {
	rows [][]*Token
}

// New builds a grid from rows of token text.
func New(rows [][]string) *Grid {
	g := &Grid{rows: make([][]*Token, len(rows))}
	for r, row := range rows {
		g.rows[r] = make([]*Token, len(row))
		for c, text := range row {
			g.rows[r][c] = &Token{Row: r + 1, Col: c + 1, Text: text}
		}
	}
	return g
}

// Rows returns the number of rows.
func (g *Grid) Rows() int {
	return len(g.rows)
}

// Row returns the tokens of a row, or nil if the row does not exist.
func (g *Grid) Row(row int) []*Token {
	if row < 1 || row > len(g.rows) {
		return nil
	}
	return g.rows[row-1]
}

// Token returns the token at (row, col), or nil if out of range.
func (g *Grid) Token(row, col int) *Token {
	r := g.Row(row)
	if col < 1 || col > len(r) {
		return nil
	}
	return r[col-1]
}

// ByID looks a token up by its "row-col" identifier.
func (g *Grid) ByID(id string) *Token {
	row, col, err := ParseID(id)
	if err != nil {
		return nil
	}
	return g.Token(row, col)
}

// Tokens returns every token in row order.
func (g *Grid) Tokens() []*Token {
	var out []*Token
	for _, row := range g.rows {
		out = append(out, row...)
	}
	return out
}

// FirstText returns the text of the first token of a row.
func (g *Grid) FirstText(row int) string {
	if t := g.Token(row, 1); t != nil {
		return t.Text
	}
	return ""
}

// Snapshot returns value copies of every token in row order.
func (g *Grid) Snapshot() []Token {
	var out []Token
	for _, row := range g.rows {
		for _, t := range row {
			out = append(out, *t)
		}
	}
	return out
}

// FormatID renders a (row, col) pair as "row-col".
func FormatID(row, col int) string {
	return strconv.Itoa(row) + "-" + strconv.Itoa(col)
}

// ParseID parses a "row-col" identifier.
func ParseID(id string) (int, int, error) {
	rs, cs, ok := strings.Cut(id, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid token id %q", id)
	}
	row, err := strconv.Atoi(rs)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid token row %q: %w", id, err)
	}
	col, err := strconv.Atoi(cs)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid token column %q: %w", id, err)
	}
	return row, col, nil
}
