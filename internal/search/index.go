package search

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DefaultMaxEntries caps the references kept per word.
const DefaultMaxEntries = 25

// Ref points at one occurrence of a word.
type Ref struct {
	Doc    string   `json:"doc"`
	SentID int      `json:"sent_id"`
	Text   []string `json:"text"`
	Trans  []string `json:"trans"`
}

// Entry is the index record of one lower-cased word.
type Entry struct {
	Count    int   `json:"count"`
	DocCount int   `json:"doc_count"`
	Refs     []Ref `json:"refs"`
}

// Result is the answer to a concordance query.
type Result struct {
	Terms []string `json:"terms"`
	Count int      `json:"count"`
	Refs  []Ref    `json:"refs"`
}

// Index is a case-insensitive inverted index over document tokens. It is
// safe for concurrent use.
type Index struct {
	mu         sync.RWMutex
	maxEntries int
	numDocs    int
	words      map[string]*Entry
}

// NewIndex creates an empty index. maxEntries <= 0 uses DefaultMaxEntries.
func NewIndex(maxEntries int) *Index {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Index{maxEntries: maxEntries, words: make(map[string]*Entry)}
}

// Add indexes one document. trans, when non-empty, runs parallel to
// sentences.
func (ix *Index) Add(filename string, sentences, trans [][]string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.numDocs++
	doc := filepath.Base(filename)
	seen := make(map[string]bool)
	for i, sentence := range sentences {
		var tr []string
		if i < len(trans) {
			tr = trans[i]
		}
		for _, word := range sentence {
			word = strings.ToLower(word)
			seen[word] = true
			e := ix.words[word]
			if e == nil {
				e = &Entry{}
				ix.words[word] = e
			}
			e.Count++
			if len(e.Refs) < ix.maxEntries {
				e.Refs = append(e.Refs, Ref{Doc: doc, SentID: i, Text: sentence, Trans: tr})
			}
		}
	}
	for word := range seen {
		ix.words[word].DocCount++
	}
}

// Clear empties the index.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.numDocs = 0
	ix.words = make(map[string]*Entry)
}

func (ix *Index) NumDocuments() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.numDocs
}

// DocCount returns the number of documents containing word.
func (ix *Index) DocCount(word string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if e := ix.words[strings.ToLower(word)]; e != nil {
		return e.DocCount
	}
	return 0
}

// Retrieve looks a term up. With wildcards the term is a shell pattern
// (*, ? and [...]) matched against every word, and the matches are merged
// in sorted order.
func (ix *Index) Retrieve(term string, wildcards bool) Result {
	term = strings.ToLower(term)
	res := Result{Terms: []string{}, Refs: []Ref{}}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if !wildcards {
		if e := ix.words[term]; e != nil {
			res.Terms = append(res.Terms, term)
			res.Count = e.Count
			res.Refs = append(res.Refs, e.Refs...)
		}
		return res
	}

	for word := range ix.words {
		if ok, err := path.Match(term, word); err == nil && ok {
			res.Terms = append(res.Terms, word)
		}
	}
	sort.Strings(res.Terms)
	for _, word := range res.Terms {
		e := ix.words[word]
		res.Count += e.Count
		res.Refs = append(res.Refs, e.Refs...)
	}
	return res
}

// StopWords returns the n most frequent words, most frequent first.
func (ix *Index) StopWords(n int) []string {
	ix.mu.RLock()
	type wc struct {
		word  string
		count int
	}
	all := make([]wc, 0, len(ix.words))
	for w, e := range ix.words {
		all = append(all, wc{w, e.Count})
	}
	ix.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].word < all[j].word
	})
	if n > len(all) {
		n = len(all)
	}
	out := make([]string, 0, n)
	for _, x := range all[:n] {
		out = append(out, x.word)
	}
	return out
}
