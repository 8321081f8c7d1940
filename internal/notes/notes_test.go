package notes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotepad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "notes")
	n, err := New(dir)
	require.NoError(t, err)

	text, err := n.Load("doc1.txt")
	require.NoError(t, err)
	assert.Equal(t, "", text)

	require.NoError(t, n.Save("doc1.txt", "# Open issues\n\n- *Kyiv* vs Kiev\n"))
	require.NoError(t, n.Save("", "global"))

	text, err = n.Load("doc1.txt")
	require.NoError(t, err)
	assert.Contains(t, text, "Open issues")

	text, err = n.Load(Global)
	require.NoError(t, err)
	assert.Equal(t, "global", text)

	html, err := n.RenderHTML("doc1.txt")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Open issues</h1>")
	assert.Contains(t, html, "<em>Kyiv</em>")
}

func TestNotepad_PathsStayInDir(t *testing.T) {
	dir := t.TempDir()
	n, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, n.Save("../../escape.txt", "x"))
	_, err = os.Stat(filepath.Join(dir, "escape.txt"))
	assert.NoError(t, err)
}
