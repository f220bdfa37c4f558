package diffresolver

import "testing"

func TestResolveIsPure(t *testing.T) {
	in := Input{
		PreviousFullText: "おはよう",
		NewFullText:      "おはよう",
		ConfirmedText:    "",
		StableCount:      1,
		StableThreshold:  2,
	}
	a := Resolve(in)
	b := Resolve(in)
	if a != b {
		t.Fatalf("Resolve is not pure: %+v != %+v", a, b)
	}
}

func TestResolveFullTextInvariant(t *testing.T) {
	in := Input{
		PreviousFullText: "",
		NewFullText:      "今日は天気がいいですね。",
		ConfirmedText:    "",
		StableCount:      1,
		StableThreshold:  2,
	}
	out := Resolve(in)
	got := out.NewlyConfirmed + out.Tentative
	if got != in.NewFullText {
		t.Fatalf("newly_confirmed+tentative = %q, want new_full_text %q", got, in.NewFullText)
	}
}

func TestResolveMonotonicConfirmedText(t *testing.T) {
	confirmed := ""
	stable := 0
	// Three identical passes are required to clear a threshold of 2 (the
	// first pass establishes the baseline at stable_count=0, the next two
	// repeats land on 1 then 2), then a fourth pass extends the text.
	passes := []string{
		"これはテストです。",
		"これはテストです。",
		"これはテストです。",
		"これはテストです。続きます。",
	}
	prev := ""
	for _, text := range passes {
		out := Resolve(Input{
			PreviousFullText: prev,
			NewFullText:      text,
			ConfirmedText:    confirmed,
			StableCount:      stable,
			StableThreshold:  2,
		})
		next := confirmed + out.NewlyConfirmed
		if len(next) < len(confirmed) {
			t.Fatalf("confirmed_text shrank: %q -> %q", confirmed, next)
		}
		confirmed = next
		stable = out.StableCount
		prev = text
	}
	if confirmed == "" {
		t.Fatalf("expected some text to have been confirmed across three identical-then-extended passes")
	}
}

func TestResolveOverlapExactness(t *testing.T) {
	// When new_full_text begins with the last k runes of confirmed_text
	// exactly, tentative must be the remainder after stripping that k-rune
	// overlap — this pass is below the stability threshold, so nothing new
	// is promoted and only the overlap-stripped remainder should surface.
	confirmed := "昨日は雨でした。"
	newFullText := confirmed + "今日は晴れです"

	out := Resolve(Input{
		PreviousFullText: "",
		NewFullText:      newFullText,
		ConfirmedText:    confirmed,
		StableCount:      0,
		StableThreshold:  2,
	})

	want := "今日は晴れです"
	if out.Tentative != want {
		t.Fatalf("tentative = %q, want %q (exact suffix/prefix overlap stripped)", out.Tentative, want)
	}
	if out.NewlyConfirmed != "" {
		t.Fatalf("newly_confirmed = %q, want empty (stable_count below threshold)", out.NewlyConfirmed)
	}
}

func TestResolveBelowThresholdNeverConfirms(t *testing.T) {
	out := Resolve(Input{
		PreviousFullText: "",
		NewFullText:      "おはようございます。",
		ConfirmedText:    "",
		StableCount:      0,
		StableThreshold:  3,
	})
	if out.NewlyConfirmed != "" {
		t.Fatalf("newly_confirmed = %q, want empty when stable_count is below threshold", out.NewlyConfirmed)
	}
	if out.StableCount != 0 {
		t.Fatalf("stable_count = %d, want 0 (new_full_text != previous_full_text)", out.StableCount)
	}
}

func TestResolveEmptyTranscriptLeavesStateUntouched(t *testing.T) {
	out := Resolve(Input{
		PreviousFullText: "何か",
		NewFullText:      "",
		ConfirmedText:    "確定済み",
		StableCount:      1,
		StableThreshold:  2,
	})
	if out.NewlyConfirmed != "" || out.Tentative != "" {
		t.Fatalf("empty new_full_text must not confirm or produce tentative text, got %+v", out)
	}
}

func TestForceFinalizePromotesRemainder(t *testing.T) {
	confirmed := "こんにちは"
	last := "こんにちは世界"
	remaining, ok := ForceFinalize(confirmed, last)
	if !ok {
		t.Fatalf("expected ForceFinalize to report ok=true")
	}
	if remaining != "世界" {
		t.Fatalf("remaining = %q, want %q", remaining, "世界")
	}
}

func TestForceFinalizeNoopOnEmptyLastTranscription(t *testing.T) {
	_, ok := ForceFinalize("確定済み", "")
	if ok {
		t.Fatalf("expected ok=false when last_transcription is empty")
	}
}

func TestForceFinalizeNoopWhenFullyCovered(t *testing.T) {
	confirmed := "こんにちは世界"
	_, ok := ForceFinalize(confirmed, "こんにちは世界")
	if ok {
		t.Fatalf("expected ok=false when last_transcription is already fully covered by confirmed_text")
	}
}

func TestResolveInitialConfirmationRequiresSentenceTerminator(t *testing.T) {
	// A bare space is not enough to promote the very first confirmation.
	out := Resolve(Input{
		PreviousFullText: "今日は 天気です",
		NewFullText:      "今日は 天気です",
		ConfirmedText:    "",
		StableCount:      1,
		StableThreshold:  2,
	})
	if out.NewlyConfirmed != "" {
		t.Fatalf("newly_confirmed = %q, want empty: a space alone must not act as a break boundary on the first confirmation", out.NewlyConfirmed)
	}

	withTerminator := Resolve(Input{
		PreviousFullText: "今日は天気です。続きます",
		NewFullText:      "今日は天気です。続きます",
		ConfirmedText:    "",
		StableCount:      1,
		StableThreshold:  2,
	})
	if withTerminator.NewlyConfirmed != "今日は天気です。" {
		t.Fatalf("newly_confirmed = %q, want the sentence up to and including 。", withTerminator.NewlyConfirmed)
	}
}
