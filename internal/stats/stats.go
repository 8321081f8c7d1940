package stats

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TypeStats counts the entities of one type.
type TypeStats struct {
	Type        string         `json:"type"`
	NumEntities int            `json:"num_entities"`
	Entities    map[string]int `json:"entities"`
}

// Stats summarizes a set of annotation files.
type Stats struct {
	NumFiles        int                   `json:"num_files"`
	NumTokens       int                   `json:"num_tokens"`
	NumTaggedTokens int                   `json:"num_tagged_tokens"`
	Types           map[string]*TypeStats `json:"types"`
}

func New() *Stats {
	return &Stats{Types: make(map[string]*TypeStats)}
}

// CollectDir reads every .anno file in dir.
func CollectDir(dir string) (*Stats, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.anno"))
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	sort.Strings(files)
	s := New()
	for _, f := range files {
		if err := s.AddFile(f); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Stats) AddFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if err := s.Add(f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	s.NumFiles++
	return nil
}

// Add counts one "token<TAB>tag" stream. An entity runs from a B- tag
// through the I- tags that follow it.
func (s *Stats) Add(r io.Reader) error {
	var span [][2]string
	flush := func() {
		if len(span) > 0 {
			s.addEntity(span)
			span = nil
		}
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Split(strings.TrimRight(sc.Text(), "\r"), "\t")
		if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
			flush()
			continue
		}
		s.NumTokens++
		tok, tag := fields[0], fields[1]
		switch tag[0] {
		case 'B':
			flush()
			span = [][2]string{{tok, tag}}
		case 'I':
			if len(span) > 0 {
				span = append(span, [2]string{tok, tag})
			}
		default:
			flush()
		}
	}
	flush()
	return sc.Err()
}

func (s *Stats) addEntity(span [][2]string) {
	s.NumTaggedTokens += len(span)
	typ := strings.ToUpper(strings.TrimPrefix(span[0][1][1:], "-"))
	if typ == "" || typ == "O" {
		return
	}
	words := make([]string, len(span))
	for i, p := range span {
		words[i] = p[0]
	}
	ts := s.Types[typ]
	if ts == nil {
		ts = &TypeStats{Type: typ, Entities: make(map[string]int)}
		s.Types[typ] = ts
	}
	ts.NumEntities++
	ts.Entities[strings.ToLower(strings.Join(words, " "))]++
}

func (s *Stats) NumEntities() int {
	n := 0
	for _, t := range s.Types {
		n += t.NumEntities
	}
	return n
}

func (s *Stats) NumUniqueEntities() int {
	n := 0
	for _, t := range s.Types {
		n += len(t.Entities)
	}
	return n
}

// PercentageTagged is the share of tokens inside an entity.
func (s *Stats) PercentageTagged() float64 {
	if s.NumTokens == 0 {
		return 0
	}
	return 100 * float64(s.NumTaggedTokens) / float64(s.NumTokens)
}

// TypeNames returns the entity types in sorted order.
func (s *Stats) TypeNames() []string {
	names := make([]string, 0, len(s.Types))
	for n := range s.Types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Summary is the JSON form returned by the API.
type Summary struct {
	Stats
	NumEntities       int     `json:"num_entities"`
	NumUniqueEntities int     `json:"num_unique_entities"`
	PercentageTagged  float64 `json:"percentage_tagged"`
}

func (s *Stats) Summary() Summary {
	return Summary{
		Stats:             *s,
		NumEntities:       s.NumEntities(),
		NumUniqueEntities: s.NumUniqueEntities(),
		PercentageTagged:  s.PercentageTagged(),
	}
}
