package data

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/dragonfly/internal/grid"
)

// ErrEmptyFile is returned when a document has no rows.
var ErrEmptyFile = errors.New("empty file")

// Sentence is one block of a document. Rows holds the document's columns,
// transposed: Rows[0] are the tokens and the other rows are the extra
// columns (transliterations, translations, gazetteer hits...).
type Sentence struct {
	Index int        `json:"index"`
	Rows  [][]string `json:"rows"`
	Tags  []string   `json:"tags,omitempty"`
}

// Tokens returns the token row.
func (s Sentence) Tokens() []string {
	if len(s.Rows) == 0 {
		return nil
	}
	return s.Rows[0]
}

// Document is a tab-separated input file split into sentences.
type Document struct {
	Filename          string     `json:"filename"`
	Labels            []string   `json:"labels"`
	Sentences         []Sentence `json:"sentences"`
	TerminalBlankLine bool       `json:"terminal_blank_line"`
	HasAnnotations    bool       `json:"has_annotations"`

	// Adjudications are other annotators' tags, in the order attached.
	Adjudications []Adjudication `json:"adjudications,omitempty"`
}

// Adjudication is one annotator's tags for a document. Tags[i] is the tag
// column of sentence i.
type Adjudication struct {
	Name string     `json:"name"`
	Tags [][]string `json:"tags"`
}

// NumTokens counts the tokens over all sentences.
func (d *Document) NumTokens() int {
	n := 0
	for _, s := range d.Sentences {
		n += len(s.Tokens())
	}
	return n
}

// ReadDocument reads a document from disk.
func ReadDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := ParseDocument(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc.Filename = path
	return doc, nil
}

// ParseDocument splits tab-separated rows into sentences. The width of the
// first row fixes the column count; a blank row or a row of another width
// ends the current sentence. A first row whose first cell is tok, token or
// tokens is a header of row labels.
func ParseDocument(r io.Reader) (*Document, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var first []string
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		first = strings.Split(line, "\t")
		break
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if first == nil {
		return nil, ErrEmptyFile
	}

	width := len(first)
	doc := &Document{TerminalBlankLine: true}
	var block [][]string
	if isHeader(first) {
		for _, label := range first {
			doc.Labels = append(doc.Labels, strings.TrimSpace(label))
		}
	} else {
		for i := range first {
			doc.Labels = append(doc.Labels, fmt.Sprintf("row %d", i+1))
		}
		block = append(block, first)
	}

	flush := func() {
		doc.Sentences = append(doc.Sentences, newSentence(len(doc.Sentences), width, block))
		block = nil
	}

	for sc.Scan() {
		fields := strings.Split(strings.TrimRight(sc.Text(), "\r"), "\t")
		if isData(fields, width) {
			block = append(block, fields)
		} else if len(block) > 0 {
			flush()
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(block) > 0 {
		flush()
		doc.TerminalBlankLine = false
	}
	return doc, nil
}

func isHeader(row []string) bool {
	switch strings.ToLower(row[0]) {
	case "tok", "token", "tokens":
		return true
	}
	return false
}

func isData(row []string, width int) bool {
	if len(row) != width {
		return false
	}
	for _, v := range row {
		if v != "" {
			return true
		}
	}
	return false
}

func newSentence(index, width int, block [][]string) Sentence {
	s := Sentence{Index: index, Rows: make([][]string, width)}
	for _, fields := range block {
		for c, v := range fields {
			s.Rows[c] = append(s.Rows[c], v)
		}
	}
	return s
}

// AttachAnnotations copies the tag column of an annotation file onto the
// document. The annotations must have the same number of sentences and the
// same first word.
func (d *Document) AttachAnnotations(anno *Document) error {
	tags, err := d.tagColumns(anno)
	if err != nil {
		return err
	}
	for i := range d.Sentences {
		d.Sentences[i].Tags = tags[i]
	}
	d.HasAnnotations = true
	return nil
}

// AttachAdjudication adds the annotations of the annotator called name.
// They are checked like AttachAnnotations but leave the document's own
// tags alone.
func (d *Document) AttachAdjudication(name string, anno *Document) error {
	tags, err := d.tagColumns(anno)
	if err != nil {
		return err
	}
	d.Adjudications = append(d.Adjudications, Adjudication{Name: name, Tags: tags})
	return nil
}

func (d *Document) tagColumns(anno *Document) ([][]string, error) {
	if len(anno.Sentences) != len(d.Sentences) {
		return nil, fmt.Errorf("annotations and input file are different lengths: %d != %d",
			len(anno.Sentences), len(d.Sentences))
	}
	if len(d.Sentences) == 0 {
		return nil, nil
	}
	docFirst := firstWord(d.Sentences[0])
	annoFirst := firstWord(anno.Sentences[0])
	if docFirst != annoFirst {
		return nil, fmt.Errorf("input file and annotations do not match: %s != %s", docFirst, annoFirst)
	}
	tags := make([][]string, len(d.Sentences))
	for i := range d.Sentences {
		rows := anno.Sentences[i].Rows
		if len(rows) < 2 {
			return nil, fmt.Errorf("annotation sentence %d has no tag column", i)
		}
		tags[i] = rows[1]
	}
	return tags, nil
}

func firstWord(s Sentence) string {
	if toks := s.Tokens(); len(toks) > 0 {
		return toks[0]
	}
	return ""
}

// ToGrid builds the annotation grid: sentence i is row i+1 and token j is
// column j+1. Attached tags are copied onto the tokens; "O" becomes the
// null tag.
func (d *Document) ToGrid() *grid.Grid {
	rows := make([][]string, len(d.Sentences))
	for i, s := range d.Sentences {
		rows[i] = s.Tokens()
	}
	g := grid.New(rows)
	for i, s := range d.Sentences {
		for j, tag := range s.Tags {
			if tok := g.Token(i+1, j+1); tok != nil && tag != grid.Outside {
				tok.Tag = tag
			}
		}
	}
	return g
}
