// Package curate holds batch maintenance tools for annotation files:
// retyping or removing entities by phrase, and finding dictionary phrases
// that were left untagged.
package curate

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/dragonfly/internal/grid"
)

// Transform retypes every entity whose tokens spell Phrase. A Type of O
// removes the entity.
type Transform struct {
	Phrase  string `json:"phrase"`
	Type    string `json:"type"`
	Applied int    `json:"applied"`
}

// Transforms are keyed by the lower-cased tokens of their phrase.
type Transforms map[string]*Transform

func phraseKey(tokens []string) string {
	return strings.ToLower(strings.Join(tokens, "\t"))
}

func changeType(v string) string {
	v = strings.ToUpper(strings.TrimSpace(v))
	switch v {
	case "DEL", "DELETE", "RM", "REMOVE":
		return grid.Outside
	}
	return v
}

// ReadTransforms reads "phrase<TAB>type" lines. Blank lines are skipped;
// lines with another number of columns are returned as problems.
func ReadTransforms(r io.Reader) (Transforms, []error, error) {
	t := make(Transforms)
	var problems []error
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 2 || strings.TrimSpace(fields[0]) == "" || changeType(fields[1]) == "" {
			problems = append(problems, fmt.Errorf("line %d: unexpected row %q", n, line))
			continue
		}
		t[phraseKey(strings.Fields(fields[0]))] = &Transform{Phrase: fields[0], Type: changeType(fields[1])}
	}
	return t, problems, sc.Err()
}

// Sorted returns the transforms ordered by phrase.
func (t Transforms) Sorted() []*Transform {
	out := make([]*Transform, 0, len(t))
	for _, tr := range t {
		out = append(out, tr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phrase < out[j].Phrase })
	return out
}

func (tr *Transform) apply(rows [][]string) {
	tr.Applied++
	for i, row := range rows {
		switch {
		case tr.Type == grid.Outside:
			row[1] = grid.Outside
		case i == 0:
			row[1] = "B-" + tr.Type
		default:
			row[1] = "I-" + tr.Type
		}
	}
}

// Correct copies an annotation stream from r to w, applying the matching
// transform to each entity. It returns the number of entities changed.
func (t Transforms) Correct(r io.Reader, w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	changes := 0
	var entity [][]string
	flush := func() {
		if len(entity) == 0 {
			return
		}
		tokens := make([]string, len(entity))
		for i, row := range entity {
			tokens[i] = row[0]
		}
		if tr, ok := t[phraseKey(tokens)]; ok {
			tr.apply(entity)
			changes++
		}
		for _, row := range entity {
			bw.WriteString(strings.Join(row, "\t") + "\n")
		}
		entity = nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		row := strings.Split(strings.TrimRight(sc.Text(), "\r"), "\t")
		if len(row) < 2 || row[1] == "" {
			flush()
			bw.WriteString("\n")
			continue
		}
		switch row[1][0] {
		case 'B':
			flush()
			entity = [][]string{row}
		case 'I':
			// An I- tag without an open entity is copied unchanged.
			if entity == nil {
				bw.WriteString(strings.Join(row, "\t") + "\n")
				continue
			}
			entity = append(entity, row)
		default:
			flush()
			bw.WriteString(strings.Join(row, "\t") + "\n")
		}
	}
	if err := sc.Err(); err != nil {
		return changes, err
	}
	flush()
	return changes, bw.Flush()
}

// CorrectReport summarizes a correction run.
type CorrectReport struct {
	Files   int          `json:"files"`
	Changes int          `json:"changes"`
	Applied []*Transform `json:"applied"`
}

// CorrectFiles corrects input, a file or a directory of files, into outDir
// under the same base names.
func (t Transforms) CorrectFiles(input, outDir string) (CorrectReport, error) {
	files, err := inputFiles(input)
	if err != nil {
		return CorrectReport{}, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return CorrectReport{}, fmt.Errorf("create output dir: %w", err)
	}

	var rep CorrectReport
	for _, f := range files {
		n, err := t.correctFile(f, filepath.Join(outDir, filepath.Base(f)))
		if err != nil {
			return rep, err
		}
		rep.Files++
		rep.Changes += n
	}
	rep.Applied = t.Sorted()
	return rep, nil
}

func (t Transforms) correctFile(src, dst string) (int, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	n, err := t.Correct(in, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("correct %s: %w", src, err)
	}
	return n, nil
}

// inputFiles lists the regular files of a directory, sorted, or returns
// the path itself when it is a file.
func inputFiles(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{input}, nil
	}
	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(input, e.Name()))
		}
	}
	return files, nil
}
