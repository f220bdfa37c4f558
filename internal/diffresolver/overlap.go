package diffresolver

import "strings"

// similarityWindowMax and similarityWindowMin bound the comparison window
// for tier-2 overlap detection. similarityThreshold is the minimum LCS
// ratio treated as "the same text, reworded".
const (
	similarityWindowMax = 150
	similarityWindowMin = 50
	similarityThreshold  = 0.75
)

// RemainingAfterOverlap is the exported form of removeConfirmedOverlap,
// used by the scheduler to recompute tentative text against confirmed
// text that force-finalize has just grown (post-trim recompute).
func RemainingAfterOverlap(confirmedText, newFullText string) string {
	return removeConfirmedOverlap(confirmedText, newFullText)
}

// removeConfirmedOverlap returns the portion of newFullText that is not
// already covered by confirmedText, using three-tier overlap detection:
//  1. longest exact suffix/prefix overlap
//  2. LCS-ratio similarity over a bounded tail/head window
//  3. length-based fallback
//
// If confirmedText is empty, newFullText is returned unchanged (there is
// nothing to overlap against).
func removeConfirmedOverlap(confirmedText, newFullText string) string {
	if confirmedText == "" {
		return newFullText
	}

	if k := longestExactOverlap(confirmedText, newFullText); k > 0 {
		return string([]rune(newFullText)[k:])
	}

	if tentative, ok := similarityOverlap(confirmedText, newFullText); ok {
		return tentative
	}

	confirmedLen := len([]rune(confirmedText))
	newLen := len([]rune(newFullText))
	if newLen > confirmedLen {
		return string([]rune(newFullText)[confirmedLen:])
	}
	// new_full_text is no longer than confirmed_text: treat as a fresh,
	// independent window rather than guessing at an overlap.
	return newFullText
}

// longestExactOverlap returns the longest k such that the last k runes of
// confirmedText equal the first k runes of newFullText.
func longestExactOverlap(confirmedText, newFullText string) int {
	c := []rune(confirmedText)
	n := []rune(newFullText)
	maxK := len(c)
	if len(n) < maxK {
		maxK = len(n)
	}
	for k := maxK; k > 0; k-- {
		if string(c[len(c)-k:]) == string(n[:k]) {
			return k
		}
	}
	return 0
}

// similarityOverlap implements tier 2: compare the tail window of
// confirmedText against the head window of newFullText; if their LCS ratio
// clears similarityThreshold, skip floor(window * ratio) runes from the
// head of newFullText.
func similarityOverlap(confirmedText, newFullText string) (string, bool) {
	c := []rune(confirmedText)
	n := []rune(newFullText)

	window := similarityWindowMax
	if len(c) < window {
		window = len(c)
	}
	if len(n) < window {
		window = len(n)
	}
	if window < similarityWindowMin {
		return "", false
	}

	tail := c[len(c)-window:]
	head := n[:window]
	ratio := lcsRatio(tail, head)
	if ratio < similarityThreshold {
		return "", false
	}

	skip := int(float64(window) * ratio)
	if skip > len(n) {
		skip = len(n)
	}
	return string(n[skip:]), true
}

// breakBoundary returns the index (in runes) just past the earliest
// sentence terminator or space in s, or -1 if none exists. Terminators are
// 。！？ and half-width/full-width space.
func breakBoundary(s string) int {
	best := -1
	for _, r := range []rune{'。', '！', '？', ' ', '　'} {
		if idx := strings.IndexRune(s, r); idx >= 0 {
			pos := len([]rune(s[:idx])) + 1 // cut just after the boundary rune
			if best == -1 || pos < best {
				best = pos
			}
		}
	}
	return best
}

// sentenceBoundary is like breakBoundary but only recognizes sentence
// terminators (no spaces) — used for the very first confirmation when
// there is no existing confirmed_text yet.
func sentenceBoundary(s string) int {
	best := -1
	for _, r := range []rune{'。', '！', '？'} {
		if idx := strings.IndexRune(s, r); idx >= 0 {
			pos := len([]rune(s[:idx])) + 1
			if best == -1 || pos < best {
				best = pos
			}
		}
	}
	return best
}
