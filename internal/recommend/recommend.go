package recommend

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/dragonfly/internal/data"
)

// Built-in recommendations. Default lists every document in order and
// Annotated lists the documents that already have annotations.
const (
	Default   = "Default"
	Annotated = "Annotated"
)

const (
	// Ext is the extension of a saved recommendation.
	Ext        = ".rec"
	latestFile = ".latest"

	// NewsID marks news documents in a file name.
	NewsID = "_NW_"
)

var ErrInvalidName = errors.New("invalid recommendation name")

// Config describes how a recommendation scores documents.
type Config struct {
	Words         []string `yaml:"words" json:"words"`
	LengthPenalty bool     `yaml:"length_penalty" json:"length_penalty"`
	ExactMatch    bool     `yaml:"exact_match" json:"exact_match"`
	NewsOnly      bool     `yaml:"news_only" json:"news_only"`
}

// Item is one recommended document.
type Item struct {
	Doc       string  `yaml:"doc" json:"doc"`
	Path      string  `yaml:"path" json:"path"`
	Sentences int     `yaml:"sentences" json:"sentences"`
	Words     int     `yaml:"words" json:"words"`
	Score     float64 `yaml:"score" json:"score"`
}

// Recommendation is an ordered list of documents to annotate next.
type Recommendation struct {
	Name   string `yaml:"name" json:"name"`
	Config Config `yaml:"config" json:"config"`
	Items  []Item `yaml:"items" json:"items"`
}

type fileStat struct {
	modTime   time.Time
	sentences int
	words     int
	tokens    []string
}

// Recommender builds and stores recommendations for a document set.
type Recommender struct {
	files          func() []string
	annotationsDir string
	dir            string
	log            *slog.Logger

	mu    sync.Mutex
	stats map[string]fileStat
}

// New creates a recommender that keeps its recommendations in dir. files
// returns the current document paths.
func New(files func() []string, annotationsDir, dir string, log *slog.Logger) (*Recommender, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recommendations dir: %w", err)
	}
	return &Recommender{
		files:          files,
		annotationsDir: annotationsDir,
		dir:            dir,
		log:            log.With("component", "recommend"),
		stats:          make(map[string]fileStat),
	}, nil
}

// List returns the built-in names followed by the saved recommendations,
// sorted ignoring case.
func (r *Recommender) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(r.dir, "*"+Ext))
	if err != nil {
		return nil, err
	}
	var saved []string
	for _, m := range matches {
		saved = append(saved, strings.TrimSuffix(filepath.Base(m), Ext))
	}
	sort.Slice(saved, func(i, j int) bool {
		return strings.ToLower(saved[i]) < strings.ToLower(saved[j])
	})
	return append([]string{Default, Annotated}, saved...), nil
}

// Get returns a recommendation and records it as the latest one. Unknown
// names fall back to Default. Annotated documents are left out unless
// includeComplete is set or the Annotated list is asked for.
func (r *Recommender) Get(name string, includeComplete bool) (Recommendation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.load(name)
	if err != nil {
		return Recommendation{}, err
	}
	if !includeComplete && rec.Name != Annotated {
		items := rec.Items[:0:0]
		for _, it := range rec.Items {
			if !r.annotated(it.Path) {
				items = append(items, it)
			}
		}
		rec.Items = items
	}
	if err := os.WriteFile(filepath.Join(r.dir, latestFile), []byte(rec.Name), 0o644); err != nil {
		r.log.Warn("cannot record latest recommendation", "error", err)
	}
	return rec, nil
}

// Latest returns the recommendation last fetched with Get, or Default.
func (r *Recommender) Latest(includeComplete bool) (Recommendation, error) {
	name := Default
	if raw, err := os.ReadFile(filepath.Join(r.dir, latestFile)); err == nil && len(raw) > 0 {
		name = strings.TrimSpace(string(raw))
	}
	return r.Get(name, includeComplete)
}

// Build scores every document against cfg and saves the result as name.
// A document's score is the share of its tokens matching a word, with
// prefix matches counting half unless ExactMatch is set.
func (r *Recommender) Build(name string, cfg Config) (Recommendation, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == Default || name == Annotated ||
		strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return Recommendation{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	words := prepareWords(cfg.Words)
	rec := Recommendation{Name: name, Config: cfg, Items: []Item{}}
	for _, file := range r.files() {
		if cfg.NewsOnly && !strings.Contains(file, NewsID) {
			continue
		}
		st, err := r.stat(file)
		if err != nil {
			return Recommendation{}, err
		}
		score := Score(st.tokens, words, cfg.ExactMatch)
		if cfg.LengthPenalty {
			score = Penalize(score, st.sentences)
		}
		rec.Items = append(rec.Items, item(file, st, score))
	}
	sort.SliceStable(rec.Items, func(i, j int) bool {
		return rec.Items[i].Score > rec.Items[j].Score
	})

	raw, err := yaml.Marshal(rec)
	if err != nil {
		return Recommendation{}, fmt.Errorf("encode recommendation: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.dir, name+Ext), raw, 0o644); err != nil {
		return Recommendation{}, fmt.Errorf("save recommendation: %w", err)
	}
	r.log.Info("recommendation built", "name", name, "documents", len(rec.Items))
	return rec, nil
}

// Score returns 100 times the share of tokens matching one of words, which
// are shell patterns. Without exact, a prefix match adds half a point.
func Score(tokens, words []string, exact bool) float64 {
	if len(tokens) == 0 {
		return 0
	}
	var score float64
	for _, w := range words {
		score += float64(countMatches(tokens, w))
		if !exact {
			score += float64(countMatches(tokens, w+"*")) / 2
		}
	}
	return score / float64(len(tokens)) * 100
}

// Penalize lowers the score of documents over 20 sentences; at 50
// sentences the score is halved.
func Penalize(score float64, sentences int) float64 {
	if sentences <= 20 {
		return score
	}
	return score / (1 + float64(sentences-20)/30)
}

func countMatches(tokens []string, pattern string) int {
	n := 0
	for _, t := range tokens {
		ok, err := path.Match(pattern, t)
		if err != nil {
			ok = pattern == t
		}
		if ok {
			n++
		}
	}
	return n
}

func prepareWords(words []string) []string {
	var out []string
	for _, w := range words {
		for _, f := range strings.Fields(w) {
			out = append(out, strings.ToLower(f))
		}
	}
	return out
}

func item(file string, st fileStat, score float64) Item {
	return Item{
		Doc:       filepath.Base(file),
		Path:      file,
		Sentences: st.sentences,
		Words:     st.words,
		Score:     score,
	}
}

// load reads a recommendation. Callers hold r.mu.
func (r *Recommender) load(name string) (Recommendation, error) {
	switch name {
	case Default, Annotated:
		rec := Recommendation{Name: name, Config: Config{Words: []string{}}, Items: []Item{}}
		for _, file := range r.files() {
			if name == Annotated && !r.annotated(file) {
				continue
			}
			st, err := r.stat(file)
			if err != nil {
				return Recommendation{}, err
			}
			rec.Items = append(rec.Items, item(file, st, 0))
		}
		return rec, nil
	}

	raw, err := os.ReadFile(filepath.Join(r.dir, filepath.Base(name)+Ext))
	if errors.Is(err, fs.ErrNotExist) {
		r.log.Warn("recommendation not found", "name", name)
		return r.load(Default)
	}
	if err != nil {
		return Recommendation{}, fmt.Errorf("read recommendation: %w", err)
	}
	var rec Recommendation
	if err := yaml.Unmarshal(raw, &rec); err != nil {
		return Recommendation{}, fmt.Errorf("parse recommendation %s: %w", name, err)
	}
	if rec.Items == nil {
		rec.Items = []Item{}
	}
	return rec, nil
}

func (r *Recommender) annotated(file string) bool {
	return r.annotationsDir != "" && data.AnnotationPath(r.annotationsDir, file) != ""
}

// stat returns the cached counts for a document, rereading it when it has
// changed. Callers hold r.mu.
func (r *Recommender) stat(file string) (fileStat, error) {
	info, err := os.Stat(file)
	if err != nil {
		return fileStat{}, fmt.Errorf("stat %s: %w", file, err)
	}
	if st, ok := r.stats[file]; ok && st.modTime.Equal(info.ModTime()) {
		return st, nil
	}

	doc, err := data.ReadDocument(file)
	if errors.Is(err, data.ErrEmptyFile) {
		doc, err = &data.Document{}, nil
	}
	if err != nil {
		return fileStat{}, err
	}
	st := fileStat{modTime: info.ModTime(), sentences: len(doc.Sentences), words: doc.NumTokens()}
	for _, s := range doc.Sentences {
		for _, t := range s.Tokens() {
			st.tokens = append(st.tokens, strings.ToLower(t))
		}
	}
	r.stats[file] = st
	return st, nil
}
