package curate

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/dragonfly/internal/grid"
)

// PhraseTree is a token trie of dictionary phrases.
type PhraseTree struct {
	next     map[string]*PhraseTree
	terminal bool
}

// NewPhraseTree builds a trie from space-separated phrases, ignoring case.
func NewPhraseTree(phrases []string) *PhraseTree {
	t := &PhraseTree{}
	for _, p := range phrases {
		t.Add(p)
	}
	return t
}

func (t *PhraseTree) Add(phrase string) {
	tokens := strings.Fields(strings.ToLower(phrase))
	if len(tokens) == 0 {
		return
	}
	node := t
	for _, tok := range tokens {
		if node.next == nil {
			node.next = make(map[string]*PhraseTree)
		}
		child, ok := node.next[tok]
		if !ok {
			child = &PhraseTree{}
			node.next[tok] = child
		}
		node = child
	}
	node.terminal = true
}

// Longest returns the length of the longest phrase that tokens starts
// with, or 0.
func (t *PhraseTree) Longest(tokens []string) int {
	best := 0
	node := t
	for i, tok := range tokens {
		node = node.next[strings.ToLower(tok)]
		if node == nil {
			break
		}
		if node.terminal {
			best = i + 1
		}
	}
	return best
}

// Missing scans an annotation stream for dictionary phrases made of
// untagged tokens. Runs of untagged tokens end at sentence breaks and at
// tagged tokens; within a run the longest phrase at each position wins.
func (t *PhraseTree) Missing(r io.Reader) ([]string, error) {
	var found []string
	var run []string
	flush := func() {
		for i := 0; i < len(run); {
			n := t.Longest(run[i:])
			if n == 0 {
				i++
				continue
			}
			found = append(found, strings.Join(run[i:i+n], " "))
			i += n
		}
		run = run[:0]
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		row := strings.Split(strings.TrimRight(sc.Text(), "\r"), "\t")
		if len(row) < 2 || row[0] == "" || row[1] == "" || row[1] != grid.Outside {
			flush()
			continue
		}
		run = append(run, row[0])
	}
	flush()
	return found, sc.Err()
}

// MissingReport maps each file with untagged dictionary phrases to them.
type MissingReport struct {
	Files   []string            `json:"files"`
	Phrases map[string][]string `json:"phrases"`
}

// MissingFiles runs Missing over input, a file or a directory of files.
func (t *PhraseTree) MissingFiles(input string) (MissingReport, error) {
	files, err := inputFiles(input)
	if err != nil {
		return MissingReport{}, err
	}
	rep := MissingReport{Phrases: make(map[string][]string)}
	for _, f := range files {
		phrases, err := t.missingFile(f)
		if err != nil {
			return rep, err
		}
		if len(phrases) > 0 {
			rep.Files = append(rep.Files, f)
			rep.Phrases[f] = phrases
		}
	}
	return rep, nil
}

func (t *PhraseTree) missingFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return t.Missing(f)
}

// ReadPhrases returns the first column of a TSV dictionary.
func ReadPhrases(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		first, _, _ := strings.Cut(strings.TrimRight(sc.Text(), "\r"), "\t")
		if first = strings.TrimSpace(first); first != "" {
			out = append(out, first)
		}
	}
	return out, sc.Err()
}
