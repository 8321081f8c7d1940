package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultTags are the entity types used when none are configured.
var DefaultTags = []string{"PER", "ORG", "GPE", "LOC"}

type Config struct {
	Port string `toml:"port"`
	Lang string `toml:"lang"`

	// Documents
	DataPath       string `toml:"data_path"`
	FileExt        string `toml:"file_ext"`
	OutputDir      string `toml:"output_dir"`
	AnnotationsDir string `toml:"annotations_dir"`
	MetadataDir    string `toml:"metadata_dir"`
	HintsFile      string `toml:"hints_file"`

	// AdjudicateDirs switches to adjudication: each directory holds one
	// annotator's files, shown beside the reference annotations.
	AdjudicateDirs []string `toml:"adjudicate_dirs"`

	// ForceTerminalBlankLine ends every saved annotation file with a blank
	// line, even when the source document has none.
	ForceTerminalBlankLine bool `toml:"force_terminal_blank_line"`

	// Tagging
	Tags         []string `toml:"tags"`
	UndoCapacity int      `toml:"undo_capacity"`

	// Sessions
	SessionTTL time.Duration `toml:"session_ttl"`

	// Import worker pool
	WorkerCount  int `toml:"worker_count"`
	MaxQueueSize int `toml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `toml:"max_upload_bytes"`

	// PDF
	PDFFallbackPdftotext bool `toml:"pdf_fallback_pdftotext"`

	// Reindex and refresh the file list when the data directory changes.
	WatchData bool `toml:"watch_data"`

	GeonamesURL string `toml:"geonames_url"`

	// Search
	SearchMaxEntries int `toml:"search_max_entries"`
	StopWordCount    int `toml:"stop_word_count"`
}

func defaults() Config {
	return Config{
		Port:                 "8090",
		Lang:                 "en",
		FileExt:              ".txt",
		OutputDir:            "output",
		MetadataDir:          ".dragonfly",
		Tags:                 append([]string(nil), DefaultTags...),
		UndoCapacity:         10,
		SessionTTL:           2 * time.Hour,
		WorkerCount:          2,
		MaxQueueSize:         100,
		MaxUploadBytes:       52428800, // 50MB
		PDFFallbackPdftotext: true,
		WatchData:            true,
		GeonamesURL:          "http://api.geonames.org",
		SearchMaxEntries:     25,
		StopWordCount:        100,
	}
}

// Load builds the configuration from defaults, then the TOML file named by
// DRAGONFLY_CONFIG if set, then the environment.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("DRAGONFLY_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.Lang = envOr("DRAGONFLY_LANG", cfg.Lang)

	cfg.DataPath = envOr("DRAGONFLY_DATA", cfg.DataPath)
	cfg.FileExt = envOr("DRAGONFLY_EXT", cfg.FileExt)
	cfg.OutputDir = envOr("DRAGONFLY_OUTPUT", cfg.OutputDir)
	cfg.AnnotationsDir = envOr("DRAGONFLY_ANNOTATIONS", cfg.AnnotationsDir)
	cfg.MetadataDir = envOr("DRAGONFLY_METADATA", cfg.MetadataDir)
	cfg.HintsFile = envOr("DRAGONFLY_HINTS", cfg.HintsFile)
	if v := os.Getenv("DRAGONFLY_ADJUDICATE"); v != "" {
		cfg.AdjudicateDirs = splitList(v)
	}
	cfg.ForceTerminalBlankLine = envBool("FORCE_TERMINAL_BLANK_LINE", cfg.ForceTerminalBlankLine)

	if v := os.Getenv("DRAGONFLY_TAGS"); v != "" {
		cfg.Tags = splitList(v)
	}
	cfg.UndoCapacity = envInt("UNDO_CAPACITY", cfg.UndoCapacity)

	cfg.SessionTTL = envDuration("SESSION_TTL", cfg.SessionTTL)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)
	cfg.WatchData = envBool("WATCH_DATA", cfg.WatchData)
	cfg.GeonamesURL = envOr("GEONAMES_URL", cfg.GeonamesURL)
	cfg.SearchMaxEntries = envInt("SEARCH_MAX_ENTRIES", cfg.SearchMaxEntries)
	cfg.StopWordCount = envInt("STOP_WORD_COUNT", cfg.StopWordCount)

	d := defaults()
	if cfg.UndoCapacity <= 0 {
		cfg.UndoCapacity = d.UndoCapacity
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = d.SessionTTL
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = d.WorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = d.MaxQueueSize
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = d.MaxUploadBytes
	}
	if cfg.SearchMaxEntries <= 0 {
		cfg.SearchMaxEntries = d.SearchMaxEntries
	}
	if cfg.StopWordCount < 0 {
		cfg.StopWordCount = d.StopWordCount
	}
	if len(cfg.Tags) == 0 {
		cfg.Tags = d.Tags
	}
	if cfg.FileExt != "" && !strings.HasPrefix(cfg.FileExt, ".") {
		cfg.FileExt = "." + cfg.FileExt
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.DataPath == "" {
		return fmt.Errorf("DRAGONFLY_DATA is required")
	}
	if _, err := os.Stat(c.DataPath); err != nil {
		return fmt.Errorf("data path: %w", err)
	}
	for _, dir := range c.AdjudicateDirs {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("adjudication dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("adjudication dir %s is not a directory", dir)
		}
	}
	seen := make(map[string]bool, len(c.Tags))
	for _, t := range c.Tags {
		if t == "" || strings.ContainsAny(t, " \t-") {
			return fmt.Errorf("invalid tag name %q", t)
		}
		if seen[t] {
			return fmt.Errorf("duplicate tag name %q", t)
		}
		seen[t] = true
	}
	return nil
}

// DataDir is the directory holding the documents. DataPath may name a
// single file.
func (c Config) DataDir() string {
	if info, err := os.Stat(c.DataPath); err == nil && !info.IsDir() {
		return filepath.Dir(c.DataPath)
	}
	return c.DataPath
}

// AnnotationsPath is where existing annotations are read from. It defaults
// to the output directory.
func (c Config) AnnotationsPath() string {
	if c.AnnotationsDir != "" {
		return c.AnnotationsDir
	}
	return c.OutputDir
}

// MetadataPath resolves the metadata directory, relative to the data
// directory unless absolute.
func (c Config) MetadataPath() string {
	if filepath.IsAbs(c.MetadataDir) {
		return c.MetadataDir
	}
	return filepath.Join(c.DataDir(), c.MetadataDir)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
