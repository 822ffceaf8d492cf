// Package textdiff compares two article content versions for side-by-side
// review.
package textdiff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Segment tags.
const (
	TagUnchanged = "unchanged"
	TagRemoved   = "removed"
	TagAdded     = "added"
)

// Segment is one word of a word-level comparison.
type Segment struct {
	Word string `json:"word"`
	Tag  string `json:"tag"`
}

// DiffWords aligns two strings by word position: index i of a against index
// i of b, with mismatches emitted as a removed+added pair. It deliberately
// does not search for a longest common subsequence, so an insertion that
// shifts alignment over-reports differences. Good enough for eyeballing
// short articles side by side; use Pretty for a real diff.
func DiffWords(a, b string) []Segment {
	wordsA := fields(a)
	wordsB := fields(b)

	var segments []Segment
	n := len(wordsA)
	if len(wordsB) > n {
		n = len(wordsB)
	}

	for i := 0; i < n; i++ {
		switch {
		case i >= len(wordsA):
			segments = append(segments, Segment{Word: wordsB[i], Tag: TagAdded})
		case i >= len(wordsB):
			segments = append(segments, Segment{Word: wordsA[i], Tag: TagRemoved})
		case wordsA[i] == wordsB[i]:
			segments = append(segments, Segment{Word: wordsA[i], Tag: TagUnchanged})
		default:
			segments = append(segments,
				Segment{Word: wordsA[i], Tag: TagRemoved},
				Segment{Word: wordsB[i], Tag: TagAdded})
		}
	}

	return segments
}

func fields(s string) []string {
	var words []string
	for _, w := range strings.Fields(s) {
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// Stats summarizes the size delta between two versions.
type Stats struct {
	CharsBefore   int `json:"chars_before"`
	CharsAfter    int `json:"chars_after"`
	CharDelta     int `json:"char_delta"`
	WordsBefore   int `json:"words_before"`
	WordsAfter    int `json:"words_after"`
	WordDelta     int `json:"word_delta"`
	PercentChange int `json:"percent_change"`
}

// Compare computes the size statistics shown in the comparison header.
func Compare(before, after string) Stats {
	charDelta := len(after) - len(before)
	percent := 0
	if len(before) > 0 {
		percent = charDelta * 100 / len(before)
	}

	return Stats{
		CharsBefore:   len(before),
		CharsAfter:    len(after),
		CharDelta:     charDelta,
		WordsBefore:   len(fields(before)),
		WordsAfter:    len(fields(after)),
		WordDelta:     len(fields(after)) - len(fields(before)),
		PercentChange: percent,
	}
}

// Pretty renders a semantic, human-readable diff of the two versions as
// HTML (<ins>/<del> spans). Unlike DiffWords this survives insertions that
// shift alignment.
func Pretty(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.DiffPrettyHtml(diffs)
}
