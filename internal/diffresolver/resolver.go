// Package diffresolver implements the Diff Resolver: given the previous
// pass's transcript, the new pass's transcript, and the already-confirmed
// prefix, it decides how much new text — if any — gets promoted to
// confirmed this pass, and what remains tentative.
package diffresolver

// Input is everything the resolver needs for one pass. It is pure: the
// resolver holds no state of its own, so calling Resolve twice with
// identical input yields identical output.
type Input struct {
	PreviousFullText string
	NewFullText      string
	ConfirmedText    string
	StableCount      int
	StableThreshold  int
}

// Output is what changes as a result of this pass.
type Output struct {
	NewlyConfirmed string // text to append to ConfirmedText
	Tentative      string // the unconfirmed remainder of NewFullText
	StableCount    int    // updated stability counter
}

// Resolve runs one diff pass: it updates the stability counter and, once
// the transcript has stayed identical for StableThreshold consecutive
// passes, promotes as much of it as a break boundary allows.
func Resolve(in Input) Output {
	if in.NewFullText == "" {
		return Output{StableCount: nextStableCount(in)}
	}

	stable := nextStableCount(in)

	if stable < in.StableThreshold {
		return Output{
			Tentative:   removeConfirmedOverlap(in.ConfirmedText, in.NewFullText),
			StableCount: stable,
		}
	}

	if in.ConfirmedText == "" {
		return resolveInitialConfirmation(in.NewFullText, stable)
	}
	return resolveSubsequentConfirmation(in.ConfirmedText, in.NewFullText, stable)
}

func nextStableCount(in Input) int {
	if in.NewFullText == in.PreviousFullText {
		return in.StableCount + 1
	}
	return 0
}

// resolveInitialConfirmation handles promotion when there is no prior
// confirmed text: only a sentence terminator counts as a break boundary
// (spaces alone are not sufficient for the very first confirmation).
func resolveInitialConfirmation(newFullText string, stable int) Output {
	cut := sentenceBoundary(newFullText)
	if cut < 0 {
		return Output{Tentative: newFullText, StableCount: stable}
	}
	runes := []rune(newFullText)
	return Output{
		NewlyConfirmed: string(runes[:cut]),
		Tentative:      string(runes[cut:]),
		StableCount:    stable,
	}
}

// resolveSubsequentConfirmation handles promotion when confirmed_text
// already exists: the overlap-detection tiers locate the unconfirmed
// remainder, then a break boundary (terminator or space) decides how much
// of that remainder can be promoted this pass.
func resolveSubsequentConfirmation(confirmedText, newFullText string, stable int) Output {
	remaining := removeConfirmedOverlap(confirmedText, newFullText)
	if remaining == "" {
		return Output{StableCount: stable}
	}

	cut := breakBoundary(remaining)
	if cut < 0 {
		return Output{Tentative: remaining, StableCount: stable}
	}

	runes := []rune(remaining)
	return Output{
		NewlyConfirmed: string(runes[:cut]),
		Tentative:      string(runes[cut:]),
		StableCount:    stable,
	}
}

// ForceFinalize promotes the entire unconfirmed remainder of
// lastTranscription into confirmed text, using the same overlap-detection
// logic as Resolve. It is the only way context about to fall out of the
// audio window (on trim) or left over at session end gets preserved. ok
// is false when there is nothing to promote (lastTranscription is empty,
// or it is fully covered already).
func ForceFinalize(confirmedText, lastTranscription string) (remaining string, ok bool) {
	if lastTranscription == "" {
		return "", false
	}
	remaining = removeConfirmedOverlap(confirmedText, lastTranscription)
	if remaining == "" {
		return "", false
	}
	return remaining, true
}
