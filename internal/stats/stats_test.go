package stats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd(t *testing.T) {
	in := strings.Join([]string{
		"The\tO",
		"New\tB-GPE",
		"York\tI-GPE",
		"Times\tB-ORG",
		"said\tO",
		"",
		"new\tB-GPE",
		"york\tI-GPE",
		"",
		"Ann\tB-PER",
	}, "\n")

	s := New()
	require.NoError(t, s.Add(strings.NewReader(in)))

	assert.Equal(t, 8, s.NumTokens)
	assert.Equal(t, 6, s.NumTaggedTokens)
	assert.Equal(t, 4, s.NumEntities())
	assert.Equal(t, 3, s.NumUniqueEntities())
	assert.Equal(t, []string{"GPE", "ORG", "PER"}, s.TypeNames())
	assert.Equal(t, map[string]int{"new york": 2}, s.Types["GPE"].Entities)
	assert.InDelta(t, 75.0, s.PercentageTagged(), 0.001)
}

func TestCollectDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt.anno"), []byte("Kyiv\tB-GPE\n\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt.anno"), []byte("Kyiv\tB-LOC\nis\tO\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.txt"), []byte("ignored\tB-PER\n"), 0o644))

	s, err := CollectDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, s.NumFiles)
	assert.Equal(t, 3, s.NumTokens)
	assert.Equal(t, 2, s.NumEntities())

	sum := s.Summary()
	assert.Equal(t, 2, sum.NumUniqueEntities)
	assert.InDelta(t, 66.67, sum.PercentageTagged, 0.01)
}

func TestEmpty(t *testing.T) {
	s, err := CollectDir(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.PercentageTagged())
}
