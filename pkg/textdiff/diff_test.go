package textdiff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffWords_Substitution(t *testing.T) {
	segments := DiffWords("a b c", "a x c")

	require.Len(t, segments, 4)
	assert.Equal(t, Segment{Word: "a", Tag: TagUnchanged}, segments[0])
	assert.Equal(t, Segment{Word: "b", Tag: TagRemoved}, segments[1])
	assert.Equal(t, Segment{Word: "x", Tag: TagAdded}, segments[2])
	assert.Equal(t, Segment{Word: "c", Tag: TagUnchanged}, segments[3])
}

func TestDiffWords_Identical(t *testing.T) {
	segments := DiffWords("un deux trois", "un deux trois")

	require.Len(t, segments, 3)
	for _, s := range segments {
		assert.Equal(t, TagUnchanged, s.Tag)
	}
}

func TestDiffWords_TrailingAddition(t *testing.T) {
	segments := DiffWords("a b", "a b c d")

	require.Len(t, segments, 4)
	assert.Equal(t, Segment{Word: "c", Tag: TagAdded}, segments[2])
	assert.Equal(t, Segment{Word: "d", Tag: TagAdded}, segments[3])
}

func TestDiffWords_TrailingRemoval(t *testing.T) {
	segments := DiffWords("a b c", "a")

	require.Len(t, segments, 3)
	assert.Equal(t, Segment{Word: "b", Tag: TagRemoved}, segments[1])
	assert.Equal(t, Segment{Word: "c", Tag: TagRemoved}, segments[2])
}

// A leading insertion shifts alignment, so every later word reports as
// changed. That over-reporting is the documented behavior of the positional
// alignment, not a bug.
func TestDiffWords_ShiftedAlignmentOverReports(t *testing.T) {
	segments := DiffWords("b c", "a b c")

	var unchanged int
	for _, s := range segments {
		if s.Tag == TagUnchanged {
			unchanged++
		}
	}
	assert.Zero(t, unchanged)
}

func TestDiffWords_BothEmpty(t *testing.T) {
	assert.Empty(t, DiffWords("", ""))
	assert.Empty(t, DiffWords("   ", "\n\t"))
}

func TestCompare_Stats(t *testing.T) {
	stats := Compare("un deux", "un deux trois")

	assert.Equal(t, 2, stats.WordsBefore)
	assert.Equal(t, 3, stats.WordsAfter)
	assert.Equal(t, 1, stats.WordDelta)
	assert.Equal(t, len("un deux trois")-len("un deux"), stats.CharDelta)
	assert.Positive(t, stats.PercentChange)
}

func TestCompare_EmptyBefore(t *testing.T) {
	stats := Compare("", "texte")

	assert.Equal(t, 0, stats.PercentChange)
	assert.Equal(t, 5, stats.CharDelta)
}

func TestPretty_MarksInsertion(t *testing.T) {
	html := Pretty("le seuil est fixé à 10 mg", "le seuil est fixé à 25 mg")

	assert.True(t, strings.Contains(html, "<ins"))
	assert.True(t, strings.Contains(html, "<del"))
}
