package recommend

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/dragonfly/internal/data"
	"github.com/dgallion1/dragonfly/internal/grid"
)

const corpusFile = "corpus.yaml"

// Counts holds, per lower-cased token, how often it was seen and how often
// it was tagged.
type Counts struct {
	Seen   map[string]int `yaml:"seen"`
	Tagged map[string]int `yaml:"tagged"`
}

func newCounts() Counts {
	return Counts{Seen: make(map[string]int), Tagged: make(map[string]int)}
}

func (c Counts) add(o Counts, sign int) {
	for k, v := range o.Seen {
		c.Seen[k] += sign * v
		if c.Seen[k] == 0 {
			delete(c.Seen, k)
		}
	}
	for k, v := range o.Tagged {
		c.Tagged[k] += sign * v
		if c.Tagged[k] == 0 {
			delete(c.Tagged, k)
		}
	}
}

// Frequencies tracks how often each token is tagged across saved
// documents. Sentences without any tag are treated as not yet annotated
// and are not counted.
type Frequencies struct {
	dir string

	mu     sync.Mutex
	corpus *Counts
}

// NewFrequencies keeps its counts in dir.
func NewFrequencies(dir string) (*Frequencies, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create frequencies dir: %w", err)
	}
	return &Frequencies{dir: dir}, nil
}

// Update replaces the counts of a saved document with those of p.
func (f *Frequencies) Update(p data.SavePayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := CountPayload(p)
	name := filepath.Base(p.Filename) + ".yaml"

	prev, err := readCounts(filepath.Join(f.dir, name))
	if err != nil {
		return err
	}
	corpus, err := f.load()
	if err != nil {
		return err
	}
	corpus.add(prev, -1)
	corpus.add(doc, 1)

	if err := writeCounts(filepath.Join(f.dir, name), doc); err != nil {
		return err
	}
	return writeCounts(filepath.Join(f.dir, corpusFile), *corpus)
}

// Percentage returns the share of word's occurrences that were tagged, in
// [0, 1].
func (f *Frequencies) Percentage(word string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	corpus, err := f.load()
	if err != nil {
		return 0, err
	}
	word = strings.ToLower(word)
	seen := corpus.Seen[word]
	if seen <= 0 {
		return 0, nil
	}
	return float64(corpus.Tagged[word]) / float64(seen), nil
}

// CountPayload counts the tokens of every sentence in p that has at least
// one tag other than O.
func CountPayload(p data.SavePayload) Counts {
	c := newCounts()
	var sentence []grid.Entry
	flush := func() {
		tagged := false
		for _, e := range sentence {
			if e.Tag != grid.Outside && e.Tag != "" {
				tagged = true
				break
			}
		}
		if tagged {
			for _, e := range sentence {
				tok := strings.ToLower(e.Token)
				c.Seen[tok]++
				if e.Tag != grid.Outside && e.Tag != "" {
					c.Tagged[tok]++
				}
			}
		}
		sentence = sentence[:0]
	}
	for _, e := range p.Tokens {
		if e.IsSeparator() {
			flush()
			continue
		}
		sentence = append(sentence, e)
	}
	flush()
	return c
}

// load returns the corpus counts, reading them on first use. Callers hold
// f.mu.
func (f *Frequencies) load() (*Counts, error) {
	if f.corpus != nil {
		return f.corpus, nil
	}
	c, err := readCounts(filepath.Join(f.dir, corpusFile))
	if err != nil {
		return nil, err
	}
	f.corpus = &c
	return f.corpus, nil
}

func readCounts(path string) (Counts, error) {
	c := newCounts()
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("read counts: %w", err)
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("parse counts %s: %w", path, err)
	}
	if c.Seen == nil {
		c.Seen = make(map[string]int)
	}
	if c.Tagged == nil {
		c.Tagged = make(map[string]int)
	}
	return c, nil
}

func writeCounts(path string, c Counts) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode counts: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}
