// Package prompt builds the initial_prompt string handed to the ASR
// Invoker on each pass: a short tail of confirmed_text, used as textual
// context, filtered against the hallucination check so a degenerate
// prompt can never feed back into the model.
package prompt

import "strings"

const (
	maxSentences = 10
	maxRunes     = 200
)

// Build splits confirmedText into sentence units on 。！？ (terminator
// included with the preceding sentence), takes the last up-to-10 non-empty
// sentences, concatenates them, and truncates from the front to at most
// 200 characters. The candidate is then passed to isValid; if it fails,
// ok is false and the caller should invoke ASR with no prompt at all.
func Build(confirmedText string, isValid func(string) bool) (candidate string, ok bool) {
	if confirmedText == "" {
		return "", false
	}

	sentences := splitSentences(confirmedText)
	if len(sentences) > maxSentences {
		sentences = sentences[len(sentences)-maxSentences:]
	}

	joined := strings.Join(sentences, "")
	runes := []rune(joined)
	if len(runes) > maxRunes {
		runes = runes[len(runes)-maxRunes:]
	}
	candidate = string(runes)

	if candidate == "" {
		return "", false
	}
	if isValid != nil && !isValid(candidate) {
		return "", false
	}
	return candidate, true
}

// splitSentences splits s on 。！？, keeping the terminator attached to the
// sentence it ends, and drops empty segments.
func splitSentences(s string) []string {
	var out []string
	var b strings.Builder
	for _, r := range s {
		b.WriteRune(r)
		switch r {
		case '。', '！', '？':
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}

	filtered := out[:0]
	for _, s := range out {
		if strings.TrimSpace(s) != "" {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
