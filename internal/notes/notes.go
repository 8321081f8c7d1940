package notes

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
)

// Global is the note name shared by every document.
const Global = "all"

// Notepad keeps free-form annotator notes as files, one per document plus
// a global one.
type Notepad struct {
	dir string
	md  goldmark.Markdown
}

// New creates a notepad storing notes in dir.
func New(dir string) (*Notepad, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create notes dir: %w", err)
	}
	return &Notepad{dir: dir, md: goldmark.New()}, nil
}

func (n *Notepad) path(doc string) string {
	doc = filepath.Base(strings.TrimSpace(doc))
	if doc == "" || doc == "." || doc == string(filepath.Separator) {
		doc = Global
	}
	return filepath.Join(n.dir, doc)
}

// Save replaces the notes of doc. An empty doc names the global notes.
func (n *Notepad) Save(doc, text string) error {
	if err := os.WriteFile(n.path(doc), []byte(text), 0o644); err != nil {
		return fmt.Errorf("save notes: %w", err)
	}
	return nil
}

// Load returns the notes of doc, or "" if there are none.
func (n *Notepad) Load(doc string) (string, error) {
	data, err := os.ReadFile(n.path(doc))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load notes: %w", err)
	}
	return string(data), nil
}

// RenderHTML loads the notes of doc and renders them as Markdown.
func (n *Notepad) RenderHTML(doc string) (string, error) {
	text, err := n.Load(doc)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := n.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("render notes: %w", err)
	}
	return buf.String(), nil
}
