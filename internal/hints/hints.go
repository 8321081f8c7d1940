package hints

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Hint is an annotation guideline attached to tokens matching a pattern.
type Hint struct {
	Regex   string `json:"regex"`
	Comment string `json:"comment"`

	re *regexp.Regexp
}

// Set is an ordered list of hints.
type Set struct {
	Hints []Hint
}

// LoadFile reads hints from a "regex<TAB>comment" file. A missing file
// yields an empty set.
func LoadFile(path string) (*Set, []error, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return &Set{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open hints: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads hints. Lines with an invalid pattern or without a comment
// are skipped and reported in the returned slice.
func Parse(r io.Reader) (*Set, []error, error) {
	s := &Set{}
	var problems []error
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		pattern, comment, ok := strings.Cut(text, "\t")
		if !ok {
			problems = append(problems, fmt.Errorf("line %d: missing comment", line))
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			problems = append(problems, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		s.Hints = append(s.Hints, Hint{Regex: pattern, Comment: comment, re: re})
	}
	if err := sc.Err(); err != nil {
		return nil, problems, fmt.Errorf("read hints: %w", err)
	}
	return s, problems, nil
}

// Apply returns the first hint whose pattern matches text.
func (s *Set) Apply(text string) (Hint, bool) {
	for _, h := range s.Hints {
		if h.re.MatchString(text) {
			return h, true
		}
	}
	return Hint{}, false
}

// All returns the hints, never nil.
func (s *Set) All() []Hint {
	if s.Hints == nil {
		return []Hint{}
	}
	return s.Hints
}
