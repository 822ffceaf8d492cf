package search

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHighlightAndPreview_ShortText(t *testing.T) {
	res := HighlightAndPreview("the quick brown fox jumps", "brown")

	assert.True(t, res.Found)
	assert.Equal(t, "the quick brown fox jumps", res.Preview)
	require.Len(t, res.Spans, 1)
	assert.Equal(t, "brown", res.Preview[res.Spans[0].Start:res.Spans[0].End])
}

func TestHighlightAndPreview_CaseInsensitive(t *testing.T) {
	res := HighlightAndPreview("Seuil maximal BROWN autorisé", "brown")

	assert.True(t, res.Found)
	require.Len(t, res.Spans, 1)
	assert.Equal(t, "BROWN", res.Preview[res.Spans[0].Start:res.Spans[0].End])
}

func TestHighlightAndPreview_WindowsLongText(t *testing.T) {
	long := strings.Repeat("x", 500) + " niveau sonore " + strings.Repeat("y", 500)

	res := HighlightAndPreview(long, "sonore")

	assert.True(t, res.Found)
	assert.True(t, strings.HasPrefix(res.Preview, "..."))
	assert.True(t, strings.HasSuffix(res.Preview, "..."))
	assert.Contains(t, res.Preview, "sonore")
	// 80 before + term + 120 after, plus the ellipsis markers
	assert.Less(t, len(res.Preview), 80+len("sonore")+120+7)
}

func TestHighlightAndPreview_MarksAllOccurrences(t *testing.T) {
	res := HighlightAndPreview("bruit et encore bruit puis du Bruit", "bruit")

	assert.True(t, res.Found)
	assert.Len(t, res.Spans, 3)
}

func TestHighlightAndPreview_NoMatch(t *testing.T) {
	res := HighlightAndPreview("texte sans rapport", "amiante")

	assert.False(t, res.Found)
	assert.Equal(t, "texte sans rapport", res.Preview)
	assert.Empty(t, res.Spans)
}

func TestHighlightAndPreview_NoMatchTruncates(t *testing.T) {
	long := strings.Repeat("a", 300)

	res := HighlightAndPreview(long, "amiante")

	assert.False(t, res.Found)
	assert.Equal(t, defaultPreviewLength+3, len(res.Preview))
	assert.True(t, strings.HasSuffix(res.Preview, "..."))
}

func TestHighlightAndPreview_WindowEdgesStayOnRuneBoundaries(t *testing.T) {
	// The window offsets land inside multibyte runes on both sides.
	long := strings.Repeat("日", 50) + "applicable" + strings.Repeat("工", 50)

	res := HighlightAndPreview(long, "applicable")

	assert.True(t, res.Found)
	assert.True(t, utf8.ValidString(res.Preview))
	assert.True(t, strings.HasPrefix(res.Preview, "..."))
	assert.True(t, strings.HasSuffix(res.Preview, "..."))
	require.Len(t, res.Spans, 1)
	assert.Equal(t, "applicable", res.Preview[res.Spans[0].Start:res.Spans[0].End])
}

func TestHighlightAndPreview_AccentedWindowing(t *testing.T) {
	long := strings.Repeat("é", 90) + " exposition à l'amiante " + strings.Repeat("à", 90)

	res := HighlightAndPreview(long, "amiante")

	assert.True(t, res.Found)
	assert.True(t, utf8.ValidString(res.Preview))
	assert.Contains(t, res.Preview, "amiante")
}

func TestHighlightAndPreview_MultibyteTruncation(t *testing.T) {
	long := strings.Repeat("日", 100)

	res := HighlightAndPreview(long, "amiante")

	assert.False(t, res.Found)
	assert.True(t, utf8.ValidString(res.Preview))
	assert.True(t, strings.HasSuffix(res.Preview, "..."))
	assert.LessOrEqual(t, len(res.Preview), defaultPreviewLength+3)
}

func TestHighlightAndPreview_FoldedMatchWithDifferentByteLength(t *testing.T) {
	// U+212A (Kelvin sign) folds to 'k' but is three bytes wide, so the
	// matched span is longer than the term.
	res := HighlightAndPreview("mesure en Kelvin du seuil", "kelvin")

	assert.True(t, res.Found)
	require.Len(t, res.Spans, 1)
	got := res.Preview[res.Spans[0].Start:res.Spans[0].End]
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.EqualFold("kelvin", got))
}

func TestHighlightAndPreview_EmptyTerm(t *testing.T) {
	res := HighlightAndPreview("contenu", "   ")

	assert.False(t, res.Found)
	assert.Equal(t, "contenu", res.Preview)
}
