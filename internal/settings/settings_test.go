package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFiles(t *testing.T) {
	m := NewManager(t.TempDir(), t.TempDir())
	s, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
	assert.Equal(t, 40, s.ColumnWidth)
	assert.True(t, s.AutoScrollSentences)
	assert.False(t, s.AutoSave)
}

func TestLoad_LocalOverridesGlobal(t *testing.T) {
	global, local := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(global, FileName),
		[]byte("Column Width: 60\nAuto Save: true\nGeonames Username: demo\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(local, FileName),
		[]byte("Column Width: 25\n"), 0o644))

	s, err := NewManager(global, local).Load()
	require.NoError(t, err)
	assert.Equal(t, 25, s.ColumnWidth)
	assert.True(t, s.AutoSave)
	assert.Equal(t, "demo", s.GeonamesUsername)
	assert.True(t, s.DisplayRowLabels)
}

func TestLoad_BadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("Column Width: [\n"), 0o644))
	_, err := NewManager(dir, "").Load()
	assert.Error(t, err)
}

func TestSave(t *testing.T) {
	global := t.TempDir()
	local := filepath.Join(t.TempDir(), "meta")
	m := NewManager(global, local)

	s := Defaults()
	s.AutoSave = true
	s.GeonamesCountries = "ua, pl,,"
	require.NoError(t, m.Save(s))

	_, err := os.Stat(filepath.Join(local, FileName))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(global, FileName))
	assert.True(t, os.IsNotExist(err))

	got, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, s, got)
	assert.Equal(t, []string{"UA", "PL"}, got.CountryCodes())

	assert.Error(t, NewManager("", "").Save(s))
}
