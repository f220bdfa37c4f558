package prompt

import (
	"strings"
	"testing"
)

func alwaysValid(string) bool { return true }

func TestBuildEmpty(t *testing.T) {
	if _, ok := Build("", alwaysValid); ok {
		t.Fatalf("Build(\"\") should be not-ok")
	}
}

func TestBuildTruncatesToMaxSentences(t *testing.T) {
	var sentences []string
	for i := 0; i < 15; i++ {
		sentences = append(sentences, "これは文です。")
	}
	confirmed := strings.Join(sentences, "")

	got, ok := Build(confirmed, alwaysValid)
	if !ok {
		t.Fatalf("Build should be ok")
	}
	gotCount := strings.Count(got, "。")
	if gotCount > maxSentences {
		t.Fatalf("got %d sentences, want <= %d", gotCount, maxSentences)
	}
}

func TestBuildTruncatesToMaxRunes(t *testing.T) {
	confirmed := strings.Repeat("あ", 500) + "。"
	got, ok := Build(confirmed, alwaysValid)
	if !ok {
		t.Fatalf("Build should be ok")
	}
	if n := len([]rune(got)); n > maxRunes {
		t.Fatalf("len(prompt) = %d runes, want <= %d", n, maxRunes)
	}
}

func TestBuildRejectsInvalidCandidate(t *testing.T) {
	confirmed := "これはテストです。"
	_, ok := Build(confirmed, func(string) bool { return false })
	if ok {
		t.Fatalf("Build should be not-ok when isValid rejects the candidate")
	}
}
