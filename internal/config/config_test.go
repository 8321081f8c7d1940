package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DRAGONFLY_CONFIG", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, DefaultTags, cfg.Tags)
	assert.Equal(t, 10, cfg.UndoCapacity)
	assert.Equal(t, 25, cfg.SearchMaxEntries)
	assert.False(t, cfg.ForceTerminalBlankLine)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dragonfly.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
port = "9000"
data_path = "/srv/data"
file_ext = "tsv"
tags = ["PER", "ORG"]
undo_capacity = -3
session_ttl = "30m"
`), 0o644))

	t.Setenv("DRAGONFLY_CONFIG", path)
	t.Setenv("PORT", "9100")
	t.Setenv("WORKER_COUNT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "/srv/data", cfg.DataPath)
	assert.Equal(t, ".tsv", cfg.FileExt)
	assert.Equal(t, []string{"PER", "ORG"}, cfg.Tags)
	assert.Equal(t, 10, cfg.UndoCapacity)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 2, cfg.WorkerCount)
}

func TestLoad_TagsFromEnv(t *testing.T) {
	t.Setenv("DRAGONFLY_CONFIG", "")
	t.Setenv("DRAGONFLY_TAGS", " PER, MISC ,,")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"PER", "MISC"}, cfg.Tags)
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = ["), 0o644))
	t.Setenv("DRAGONFLY_CONFIG", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	cfg := defaults()

	assert.Error(t, cfg.Validate())

	cfg.DataPath = filepath.Join(dir, "missing")
	assert.Error(t, cfg.Validate())

	cfg.DataPath = dir
	assert.NoError(t, cfg.Validate())

	cfg.Tags = []string{"PER", "B-ORG"}
	assert.Error(t, cfg.Validate())

	cfg.Tags = []string{"PER", "PER"}
	assert.Error(t, cfg.Validate())
}

func TestPaths(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(file, []byte("a\n"), 0o644))

	cfg := defaults()
	cfg.DataPath = file
	assert.Equal(t, dir, cfg.DataDir())
	assert.Equal(t, filepath.Join(dir, ".dragonfly"), cfg.MetadataPath())
	assert.Equal(t, "output", cfg.AnnotationsPath())

	cfg.AnnotationsDir = "anno"
	assert.Equal(t, "anno", cfg.AnnotationsPath())
}

func TestAdjudicateDirs(t *testing.T) {
	dir := t.TempDir()
	ann1 := filepath.Join(dir, "ann1")
	ann2 := filepath.Join(dir, "ann2")
	require.NoError(t, os.Mkdir(ann1, 0o755))
	require.NoError(t, os.Mkdir(ann2, 0o755))

	t.Setenv("DRAGONFLY_CONFIG", "")
	t.Setenv("DRAGONFLY_ADJUDICATE", ann1+","+ann2)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{ann1, ann2}, cfg.AdjudicateDirs)

	cfg.DataPath = dir
	assert.NoError(t, cfg.Validate())

	cfg.AdjudicateDirs = append(cfg.AdjudicateDirs, filepath.Join(dir, "missing"))
	assert.Error(t, cfg.Validate())
}
