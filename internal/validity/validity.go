// Package validity screens ASR output (and candidate initial prompts)
// for degenerate results before they are allowed to influence session
// state.
package validity

import (
	"strings"
	"unicode"
)

// Reason names why a string was rejected.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonNoCJK          Reason = "no_cjk"
	ReasonFiller         Reason = "filler"
	ReasonCharDominance  Reason = "char_dominance"
	ReasonNgramLoop      Reason = "ngram_loop"
)

// fillerSet is the closed set of meaningless single-mora and short
// interjections that should never count as real content on their own.
var fillerSet = map[string]bool{
	"あ": true, "い": true, "う": true, "え": true, "お": true,
	"ん": true,
	"えー": true, "あの": true, "その": true,
}

// Check reports whether text is valid, and if not, why.
func Check(text string) (bool, Reason) {
	trimmed := strings.TrimSpace(text)
	if !hasCJK(trimmed) {
		return false, ReasonNoCJK
	}
	if isFillerOnly(trimmed) {
		return false, ReasonFiller
	}
	if charDominance(trimmed) > 0.7 {
		return false, ReasonCharDominance
	}
	if ngramLoop(trimmed) {
		return false, ReasonNgramLoop
	}
	return true, ReasonNone
}

// hasCJK reports whether s contains at least one Hiragana, Katakana, or
// CJK Unified Ideograph.
func hasCJK(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return true
		}
	}
	return false
}

// isFillerOnly reports whether s is, in its entirety, a run of a single
// filler mora (vowels, ん) or one of the closed filler phrases.
func isFillerOnly(s string) bool {
	if s == "" {
		return false
	}
	if fillerSet[s] {
		return true
	}
	runes := []rune(s)
	first := runes[0]
	if !isFillerMora(first) {
		return false
	}
	for _, r := range runes {
		if r != first {
			return false
		}
	}
	return true
}

func isFillerMora(r rune) bool {
	switch r {
	case 'あ', 'い', 'う', 'え', 'お', 'ん':
		return true
	default:
		return false
	}
}

// charDominance returns the fraction of s occupied by its most frequent
// rune.
func charDominance(s string) float64 {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	counts := make(map[rune]int, len(runes))
	best := 0
	for _, r := range runes {
		counts[r]++
		if counts[r] > best {
			best = counts[r]
		}
	}
	return float64(best) / float64(len(runes))
}

// ngramLoop detects degenerate ASR loops: for any N in
// [3, min(15, floor(len/2))], if the most frequent N-gram's coverage
// (freq*N/len) exceeds 0.6, the text is treated as a repeating loop.
func ngramLoop(s string) bool {
	runes := []rune(s)
	length := len(runes)
	if length < 6 {
		return false
	}

	maxN := length / 2
	if maxN > 15 {
		maxN = 15
	}
	for n := 3; n <= maxN; n++ {
		counts := make(map[string]int)
		for i := 0; i+n <= length; i++ {
			counts[string(runes[i:i+n])]++
		}
		best := 0
		for _, c := range counts {
			if c > best {
				best = c
			}
		}
		if coverage := float64(best*n) / float64(length); coverage > 0.6 {
			return true
		}
	}
	return false
}
