// Package search provides the excerpt/highlight helpers behind article
// search results.
package search

import (
	"strings"
	"unicode/utf8"
)

// Window sizes around the first match, in bytes.
const (
	contextBefore = 80
	contextAfter  = 120

	// defaultPreviewLength bounds previews when no term matches.
	defaultPreviewLength = 200
)

// Span marks one occurrence of the search term inside Preview, as byte
// offsets [Start, End).
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Result is a windowed excerpt with every occurrence of the term marked for
// emphasis.
type Result struct {
	Preview string `json:"preview"`
	Found   bool   `json:"found"`
	Spans   []Span `json:"spans,omitempty"`
}

// HighlightAndPreview locates term in text case-insensitively and returns a
// windowed excerpt around the first match with ellipsis markers, plus spans
// for every occurrence inside the excerpt. Texts shorter than the window
// come back whole. Window edges never split a rune.
func HighlightAndPreview(text, term string) Result {
	term = strings.TrimSpace(term)
	if term == "" {
		return Result{Preview: truncate(text, defaultPreviewLength)}
	}

	first := findFold(text, term, 0)
	if first == nil {
		return Result{Preview: truncate(text, defaultPreviewLength)}
	}

	start := snapBack(text, first.Start-contextBefore)
	end := snapForward(text, first.End+contextAfter)

	preview := text[start:end]
	if start > 0 {
		preview = "..." + preview
	}
	if end < len(text) {
		preview = preview + "..."
	}

	return Result{
		Preview: preview,
		Found:   true,
		Spans:   markOccurrences(preview, term),
	}
}

// markOccurrences finds every case-insensitive occurrence of term in
// preview. Offsets are taken against preview itself, never a lowered copy,
// because lowercasing can change byte lengths for some runes.
func markOccurrences(preview, term string) []Span {
	var spans []Span
	offset := 0
	for {
		span := findFold(preview, term, offset)
		if span == nil {
			return spans
		}
		spans = append(spans, *span)
		offset = span.End
	}
}

// findFold locates the first fold-insensitive occurrence of term in
// text[from:], returned as byte offsets into text. EqualFold matches rune
// by rune, so a match always spans as many runes as the term.
func findFold(text, term string, from int) *Span {
	termRunes := utf8.RuneCountInString(term)
	for i := from; i < len(text); {
		end, ok := advance(text, i, termRunes)
		if !ok {
			return nil
		}
		if strings.EqualFold(text[i:end], term) {
			return &Span{Start: i, End: end}
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return nil
}

// advance returns the offset n runes past start, or false when the text
// runs out first.
func advance(text string, start, n int) (int, bool) {
	end := start
	for ; n > 0; n-- {
		if end >= len(text) {
			return 0, false
		}
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return end, true
}

// snapBack moves i to the start of the rune it points into.
func snapBack(text string, i int) int {
	if i < 0 {
		return 0
	}
	for i > 0 && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// snapForward moves i past any continuation bytes to the next rune start.
func snapForward(text string, i int) int {
	if i >= len(text) {
		return len(text)
	}
	for i < len(text) && !utf8.RuneStart(text[i]) {
		i++
	}
	return i
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:snapBack(text, max)] + "..."
}
