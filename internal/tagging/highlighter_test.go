package tagging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/dragonfly/internal/grid"
)

type message struct {
	level Level
	text  string
}

type recorder struct {
	messages []message
	copied   []string
	searched []string
	shown    int
}

func (r *recorder) Notify(level Level, text string) {
	r.messages = append(r.messages, message{level, text})
}
func (r *recorder) Copy(text string)   { r.copied = append(r.copied, text) }
func (r *recorder) Search(text string) { r.searched = append(r.searched, text) }
func (r *recorder) Show()              { r.shown++ }

func (r *recorder) last() message {
	if len(r.messages) == 0 {
		return message{}
	}
	return r.messages[len(r.messages)-1]
}

func newTestHighlighter(t *testing.T, rows [][]string) (*Highlighter, *recorder) {
	t.Helper()
	rec := &recorder{}
	h := NewHighlighter(grid.New(rows), testRegistry(t), Options{
		Notifier:  rec,
		Searcher:  rec,
		Clipboard: rec,
	})
	h.InitializeHighlight()
	return h, rec
}

func tagOf(h *Highlighter, row, col int) (string, bool) {
	tok := h.TokenAt(row, col)
	return tok.Tag, tok.Inferred
}

func TestHighlighter_Defaults(t *testing.T) {
	h, _ := newTestHighlighter(t, [][]string{{"a"}})
	assert.Equal(t, ModeTag, h.Mode())
	assert.Equal(t, "PER", h.CurrentType().Name)
	assert.True(t, h.Cascade())
	assert.False(t, h.Dirty())
}

func TestHighlighter_KeyTransitions(t *testing.T) {
	h, rec := newTestHighlighter(t, [][]string{{"a"}})

	assert.True(t, h.PressKey('4'))
	assert.Equal(t, ModeTag, h.Mode())
	assert.Equal(t, "LOC", h.CurrentType().Name)

	assert.False(t, h.PressKey('7'))
	assert.Equal(t, "LOC", h.CurrentType().Name)

	for _, k := range []rune{'0', 'd', 'n'} {
		h.PressKey('1')
		h.PressKey(k)
		assert.Equal(t, ModeDelete, h.Mode(), "key %q", k)
	}

	h.PressKey('s')
	assert.Equal(t, ModeSelect, h.Mode())
	h.Revert()
	assert.Equal(t, ModeDelete, h.Mode())

	h.PressKey('f')
	assert.Equal(t, ModeFind, h.Mode())
	assert.Equal(t, 1, rec.shown)
	h.Revert()
	assert.Equal(t, ModeDelete, h.Mode())

	h.PressKey('c')
	assert.False(t, h.Cascade())
	h.PressKey('c')
	assert.True(t, h.Cascade())

	h.Suspend(true)
	assert.False(t, h.PressKey('2'))
	assert.Equal(t, ModeDelete, h.Mode())
}

func TestHighlighter_CascadeAndUndo(t *testing.T) {
	h, rec := newTestHighlighter(t, [][]string{{"Paris", "is", "in", "France", "Paris"}})
	h.PressKey('4')

	require.True(t, h.ClickAt(1, 1, false))

	tag, inferred := tagOf(h, 1, 1)
	assert.Equal(t, "B-LOC", tag)
	assert.False(t, inferred)
	tag, inferred = tagOf(h, 1, 5)
	assert.Equal(t, "B-LOC", tag)
	assert.True(t, inferred)
	assert.Equal(t, message{LevelSuccess, "Cascade: 1"}, rec.last())
	assert.True(t, h.Dirty())

	h.PressKey('u')
	for _, col := range []int{1, 5} {
		tag, inferred := tagOf(h, 1, col)
		assert.Equal(t, "", tag)
		assert.False(t, inferred)
	}
}

func TestHighlighter_CascadeKeepsExplicitTags(t *testing.T) {
	h, _ := newTestHighlighter(t, [][]string{{"Jordan", "Jordan", "jordan"}})

	// Explicit PER on col 2.
	h.PressKey('c')
	h.ClickAt(1, 2, false)
	h.PressKey('c')

	// Explicit LOC on col 1 cascades only to col 3.
	h.PressKey('4')
	h.ClickAt(1, 1, false)

	tag, inferred := tagOf(h, 1, 2)
	assert.Equal(t, "B-PER", tag)
	assert.False(t, inferred)
	tag, inferred = tagOf(h, 1, 3)
	assert.Equal(t, "B-LOC", tag)
	assert.True(t, inferred)

	// Re-tagging with the same explicit tag leaves explicit tokens explicit.
	h.ClickAt(1, 1, false)
	_, inferred = tagOf(h, 1, 1)
	assert.False(t, inferred)
}

func TestHighlighter_CascadeReplacesInferred(t *testing.T) {
	h, _ := newTestHighlighter(t, [][]string{{"Amazon", "Amazon"}})
	h.PressKey('2')
	h.ClickAt(1, 1, false)
	tag, inferred := tagOf(h, 1, 2)
	require.Equal(t, "B-ORG", tag)
	require.True(t, inferred)

	// An explicit click wins over the earlier inferred tag.
	h.PressKey('4')
	h.ClickAt(1, 2, false)
	tag, inferred = tagOf(h, 1, 2)
	assert.Equal(t, "B-LOC", tag)
	assert.False(t, inferred)
	// And the first token is explicit, so it is not overwritten.
	tag, _ = tagOf(h, 1, 1)
	assert.Equal(t, "B-ORG", tag)
}

func TestHighlighter_Delete(t *testing.T) {
	h, _ := newTestHighlighter(t, [][]string{{"Rome", "Rome"}})
	h.ClickAt(1, 1, false)
	h.PressKey('d')
	h.ClickAt(1, 2, false)

	tag, _ := tagOf(h, 1, 2)
	assert.Equal(t, "", tag)
	// Delete is single-token.
	tag, _ = tagOf(h, 1, 1)
	assert.Equal(t, "B-PER", tag)

	require.True(t, h.Undo())
	tag, inferred := tagOf(h, 1, 2)
	assert.Equal(t, "B-PER", tag)
	assert.True(t, inferred)
}

func TestHighlighter_MultiTokenGesture(t *testing.T) {
	h, _ := newTestHighlighter(t, [][]string{{"a", "New", "York", "City", "Hall", "b"}})
	h.PressKey('c')
	h.PressKey('2')

	h.ClickAt(1, 2, true)
	assert.True(t, h.GestureActive())
	tag, _ := tagOf(h, 1, 2)
	assert.Equal(t, "B-ORG", tag)

	h.ClickAt(1, 5, true)
	assert.False(t, h.GestureActive())
	h.ReleaseModifier()

	want := map[int]string{1: "", 2: "B-ORG", 3: "I-ORG", 4: "I-ORG", 5: "I-ORG", 6: ""}
	for col, w := range want {
		tag, inferred := tagOf(h, 1, col)
		assert.Equal(t, w, tag, "col %d", col)
		assert.False(t, inferred, "col %d", col)
	}

	// The whole span is one undo level.
	h.Undo()
	for col := 1; col <= 6; col++ {
		tag, _ := tagOf(h, 1, col)
		assert.Equal(t, "", tag, "col %d", col)
	}
}

func TestHighlighter_MultiTokenGeometryRejected(t *testing.T) {
	cases := []struct {
		name     string
		from, to [2]int
	}{
		{"different rows", [2]int{1, 5}, [2]int{2, 2}},
		{"right to left", [2]int{1, 4}, [2]int{1, 2}},
		{"same token", [2]int{1, 3}, [2]int{1, 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, rec := newTestHighlighter(t, [][]string{
				{"a", "b", "c", "d", "e"},
				{"f", "g", "h", "i", "j"},
			})
			h.ClickAt(tc.from[0], tc.from[1], true)
			h.ClickAt(tc.to[0], tc.to[1], true)

			for _, tok := range h.Grid().Tokens() {
				assert.Equal(t, "", tok.Tag, tok.ID())
			}
			assert.False(t, h.GestureActive())
			assert.Equal(t, LevelDanger, rec.last().level)
			assert.Equal(t, 0, h.UndoDepth())
		})
	}
}

func TestHighlighter_ReleaseCancelsPartialGesture(t *testing.T) {
	h, _ := newTestHighlighter(t, [][]string{{"x", "y", "z"}})
	h.ClickAt(1, 1, false)
	h.ClickAt(1, 2, true)
	tag, _ := tagOf(h, 1, 2)
	require.Equal(t, "B-PER", tag)

	h.ReleaseModifier()
	tag, _ = tagOf(h, 1, 2)
	assert.Equal(t, "", tag)
	assert.False(t, h.GestureActive())

	// The earlier single-token level is untouched.
	assert.Equal(t, 1, h.UndoDepth())
	tag, _ = tagOf(h, 1, 1)
	assert.Equal(t, "B-PER", tag)
}

func TestHighlighter_PlainClickClosesGesture(t *testing.T) {
	h, _ := newTestHighlighter(t, [][]string{{"x", "y"}})
	h.ClickAt(1, 1, true)
	h.PressKey('4')
	h.ClickAt(1, 1, false)
	assert.False(t, h.GestureActive())

	h.ReleaseModifier()
	tag, inferred := tagOf(h, 1, 1)
	assert.Equal(t, "B-LOC", tag)
	assert.False(t, inferred)
	assert.Equal(t, 2, h.UndoDepth())

	require.True(t, h.Undo())
	tag, _ = tagOf(h, 1, 1)
	assert.Equal(t, "B-PER", tag)
	require.True(t, h.Undo())
	tag, _ = tagOf(h, 1, 1)
	assert.Equal(t, "", tag)
}

func TestHighlighter_MultiTokenCascade(t *testing.T) {
	h, rec := newTestHighlighter(t, [][]string{
		{"new", "york", "is", "big"},
		{"NEW", "YORK", "again"},
		{"new", "jersey"},
		{"new"},
	})
	h.PressKey('3')
	h.ClickAt(1, 1, true)
	h.ClickAt(1, 2, true)

	tag, inferred := tagOf(h, 2, 1)
	assert.Equal(t, "B-GPE", tag)
	assert.True(t, inferred)
	tag, _ = tagOf(h, 2, 2)
	assert.Equal(t, "I-GPE", tag)

	// Partial matches are left alone.
	tag, _ = tagOf(h, 3, 1)
	assert.Equal(t, "", tag)
	tag, _ = tagOf(h, 4, 1)
	assert.Equal(t, "", tag)
	assert.Equal(t, message{LevelSuccess, "Cascade: 1"}, rec.last())
}

func TestHighlighter_MultiTokenCascadeSkipsTaggedRuns(t *testing.T) {
	h, _ := newTestHighlighter(t, [][]string{
		{"Bank", "of", "Spain"},
		{"Bank", "of", "Spain"},
	})
	h.PressKey('c')
	h.PressKey('4')
	h.ClickAt(2, 3, false)
	h.PressKey('c')

	h.PressKey('2')
	h.ClickAt(1, 1, true)
	h.ClickAt(1, 3, true)

	tag, _ := tagOf(h, 2, 1)
	assert.Equal(t, "", tag)
	tag, _ = tagOf(h, 2, 3)
	assert.Equal(t, "B-LOC", tag)
}

func TestHighlighter_InitializeHighlight(t *testing.T) {
	g := grid.New([][]string{{"Ann", "met", "Bob", "at", "Acme"}})
	g.Token(1, 1).Tag = "B-PER"
	g.Token(1, 2).Tag = "O"
	g.Token(1, 3).Tag = "B-MISC"
	g.Token(1, 4).Tag = "B-FAC"
	g.Token(1, 5).Tag = "B-MISC"

	rec := &recorder{}
	h := NewHighlighter(g, testRegistry(t), Options{Notifier: rec})
	h.InitializeHighlight()

	tag, inferred := tagOf(h, 1, 1)
	assert.Equal(t, "B-PER", tag)
	assert.False(t, inferred)
	tag, inferred = tagOf(h, 1, 2)
	assert.Equal(t, "", tag, "a loaded O tag is the null tag")
	assert.False(t, inferred)
	tag, _ = tagOf(h, 1, 3)
	assert.Equal(t, "", tag)

	require.Len(t, rec.messages, 1)
	assert.Equal(t, LevelDanger, rec.messages[0].level)
	assert.Contains(t, rec.messages[0].text, "B-MISC, B-FAC")

	// Loading does not create undo history.
	assert.Equal(t, 0, h.UndoDepth())
	assert.False(t, h.Undo())
}

func TestHighlighter_Select(t *testing.T) {
	h, rec := newTestHighlighter(t, [][]string{{"Hello", "there"}, {"World"}, {"Again"}})
	h.PressKey('s')

	h.ClickAt(1, 1, false)
	assert.Equal(t, 1, h.SelectionAnchor())
	h.ClickAt(2, 1, false)

	require.Len(t, rec.copied, 1)
	assert.Equal(t, "Hello World", rec.copied[0])
	assert.Equal(t, ModeTag, h.Mode())
	assert.Equal(t, 0, h.SelectionAnchor())
	assert.Equal(t, message{LevelSuccess, "Copied"}, rec.last())

	h.PressKey('s')
	h.ClickAt(2, 1, false)
	h.ClickAt(2, 1, false)
	assert.Equal(t, "World", rec.copied[1])

	h.PressKey('s')
	h.ClickAt(1, 2, false)
	h.ClickAt(3, 1, false)
	assert.Equal(t, "Hello World Again", rec.copied[2])

	// Upward: the target text, then every first-column text down to the
	// anchor row.
	h.PressKey('s')
	h.ClickAt(3, 1, false)
	h.ClickAt(1, 2, false)
	assert.Equal(t, "there World Again", rec.copied[3])
	assert.Equal(t, 0, h.SelectionAnchor())
}

func TestHighlighter_Find(t *testing.T) {
	h, rec := newTestHighlighter(t, [][]string{{"Lagos"}})
	h.PressKey('f')
	h.ClickAt(1, 1, false)

	assert.Equal(t, []string{"Lagos"}, rec.searched)
	assert.Equal(t, ModeFind, h.Mode())
	tag, _ := tagOf(h, 1, 1)
	assert.Equal(t, "", tag)
}

func TestHighlighter_EntityAt(t *testing.T) {
	h, _ := newTestHighlighter(t, [][]string{{"the", "Red", "Cross", "said"}})
	h.PressKey('2')
	h.ClickAt(1, 2, true)
	h.ClickAt(1, 3, true)

	e, err := h.EntityAt(h.TokenAt(1, 2))
	require.NoError(t, err)
	assert.Equal(t, Entity{Text: "Red Cross", Type: "ORG"}, e)

	_, err = h.EntityAt(h.TokenAt(1, 3))
	assert.ErrorIs(t, err, ErrNotEntityStart)

	e, err = h.EntityAt(h.TokenAt(1, 4))
	require.NoError(t, err)
	assert.Equal(t, Entity{Text: "said"}, e)
}
