package cte

import (
	"context"
	"time"

	"kotoba-engine/internal/asr"
	"kotoba-engine/internal/diffresolver"
	"kotoba-engine/internal/hiragana"
	"kotoba-engine/internal/prompt"
	"kotoba-engine/internal/translate"
	"kotoba-engine/internal/validity"
	"kotoba-engine/internal/workerpool"
)

// Scheduler implements the Transcription Scheduler: the per-chunk
// decision of whether to re-transcribe and/or trim, and the ordering
// guarantee around a buffer trim (force-finalize precedes trim precedes
// recomputation).
type Scheduler struct {
	ASR        *asr.Client
	Hiragana   hiragana.Converter
	Translator translate.Translator
	Pool       *workerpool.Pool
}

// NewScheduler wires an ASR client, optional hiragana/translation
// adapters, and a bounded worker pool into a Scheduler. Hiragana and
// Translator may be nil if those stages are never enabled by any
// session.
func NewScheduler(asrClient *asr.Client, hiraganaConv hiragana.Converter, translator translate.Translator, pool *workerpool.Pool) *Scheduler {
	return &Scheduler{ASR: asrClient, Hiragana: hiraganaConv, Translator: translator, Pool: pool}
}

func isValidText(s string) bool {
	ok, _ := validity.Check(s)
	return ok
}

// Ingest runs the scheduler's per-chunk decision for one binary audio
// frame and returns the event to emit.
func (s *Scheduler) Ingest(ctx context.Context, state *SessionState, chunkID int, raw []byte) Event {
	shouldTranscribe, shouldTrim, err := state.Accumulator.Append(raw)
	if err != nil {
		// Client protocol error: unsupported audio format. Session state
		// is untouched and the session stays open for the next frame.
		return Event{Kind: EventError, ChunkID: chunkID, Message: err.Error()}
	}
	state.ChunkCount++

	if !shouldTranscribe {
		return Event{
			Kind:                     EventAccumulating,
			ChunkID:                  chunkID,
			AccumulatedSeconds:       state.Accumulator.DurationSeconds(),
			SessionElapsedSeconds:    time.Since(state.CreatedAt).Seconds(),
			ChunksUntilTranscription: state.Accumulator.ChunksRemaining(),
		}
	}

	return s.transcribePass(ctx, state, chunkID, shouldTrim)
}

// transcribePass runs steps 3-7 of the scheduler contract: build the
// initial prompt, invoke ASR, resolve the diff, and — if a trim is due —
// force-finalize before trimming and recompute tentative against the
// post-trim confirmed text.
func (s *Scheduler) transcribePass(ctx context.Context, state *SessionState, chunkID int, shouldTrim bool) Event {
	totalStart := time.Now()

	snapshot := state.Accumulator.Snapshot()
	candidatePrompt, _ := prompt.Build(state.ConfirmedText, isValidText)

	var outcome asr.Outcome
	transcriptionTime, poolErr := measure(func() error {
		return s.Pool.Do(ctx, func() error {
			outcome = s.ASR.Transcribe(ctx, snapshot, candidatePrompt)
			return nil
		})
	})
	if poolErr != nil {
		return Event{Kind: EventError, ChunkID: chunkID, Message: poolErr.Error()}
	}

	switch outcome.Kind {
	case asr.Err:
		return Event{Kind: EventError, ChunkID: chunkID, Message: outcome.Err.Error()}
	case asr.Silent:
		return Event{Kind: EventSkipped, ChunkID: chunkID, SkipReason: SkipSilent, Message: "no speech detected"}
	}

	newFullText := outcome.Text
	if !isValidText(newFullText) {
		return Event{Kind: EventSkipped, ChunkID: chunkID, SkipReason: SkipInvalid, Message: "transcript failed validity filter"}
	}

	diffOut := diffresolver.Resolve(diffresolver.Input{
		PreviousFullText: state.PreviousFullText,
		NewFullText:      newFullText,
		ConfirmedText:    state.ConfirmedText,
		StableCount:      state.StableCount,
		StableThreshold:  state.StableThreshold,
	})

	confirmed := state.ConfirmedText + diffOut.NewlyConfirmed
	tentative := diffOut.Tentative

	if shouldTrim {
		// Force-finalize against the pre-update last_transcription: the
		// transcript about to fall out of the retained audio window once
		// trim runs, independent of whatever this pass's diff produced.
		if remaining, ok := diffresolver.ForceFinalize(confirmed, state.LastTranscription); ok {
			confirmed += remaining
		}
		state.Accumulator.Trim()
		tentative = diffresolver.RemainingAfterOverlap(confirmed, newFullText)
	}

	// previous_full_text and last_transcription both become this pass's
	// text: the next pass's stability check compares against
	// previous_full_text, which is exactly what this pass just saw.
	state.PreviousFullText = newFullText
	state.LastTranscription = newFullText

	state.StableCount = diffOut.StableCount
	state.ConfirmedText = confirmed
	state.Touch(time.Now())

	tentativeHiragana := s.runHiragana(ctx, state, diffOut.NewlyConfirmed, tentative)
	confirmedTranslation, tentativeTranslation := s.runTranslation(ctx, state, confirmed, tentative)

	ev := Event{
		Kind:    EventTranscriptionUpdate,
		ChunkID: chunkID,
		Transcription: &Transcription{
			Confirmed: confirmed,
			Tentative: tentative,
			FullText:  FullText(confirmed, tentative),
		},
		Performance: &Performance{
			TranscriptionTime:       transcriptionTime,
			TotalTime:               time.Since(totalStart),
			AccumulatedAudioSeconds: state.Accumulator.DurationSeconds(),
			SessionElapsedSeconds:   time.Since(state.CreatedAt).Seconds(),
		},
		IsFinal: false,
	}
	if state.Options.Hiragana {
		ev.Hiragana = &LangPair{Confirmed: state.ConfirmedHiragana, Tentative: tentativeHiragana}
	}
	if state.Options.Translation {
		ev.Translation = &LangPair{Confirmed: confirmedTranslation, Tentative: tentativeTranslation}
	}
	return ev
}

// runHiragana converts the newly-confirmed delta, appending it to the
// session's running ConfirmedHiragana, and converts the current
// tentative text. Tentative hiragana is never stored: it is recomputed
// fresh every pass.
func (s *Scheduler) runHiragana(ctx context.Context, state *SessionState, newlyConfirmed, tentative string) (tentativeHiragana string) {
	if !state.Options.Hiragana || s.Hiragana == nil {
		return ""
	}
	if newlyConfirmed != "" {
		s.Pool.Do(ctx, func() error {
			delta, err := s.Hiragana.ToHiragana(ctx, newlyConfirmed)
			if err == nil {
				state.ConfirmedHiragana += delta
			}
			return nil
		})
	}
	if tentative != "" {
		s.Pool.Do(ctx, func() error {
			h, err := s.Hiragana.ToHiragana(ctx, tentative)
			if err == nil {
				tentativeHiragana = h
			}
			return nil
		})
	}
	return tentativeHiragana
}

// runTranslation translates the full confirmed and tentative text fresh
// every pass: unlike hiragana, translation has no accumulated session
// field, so there is nothing to grow incrementally.
func (s *Scheduler) runTranslation(ctx context.Context, state *SessionState, confirmed, tentative string) (confirmedTranslation, tentativeTranslation string) {
	if !state.Options.Translation || s.Translator == nil {
		return "", ""
	}
	if confirmed != "" {
		s.Pool.Do(ctx, func() error {
			t, err := s.Translator.Translate(ctx, confirmed)
			if err == nil {
				confirmedTranslation = t
			}
			return nil
		})
	}
	if tentative != "" {
		s.Pool.Do(ctx, func() error {
			t, err := s.Translator.Translate(ctx, tentative)
			if err == nil {
				tentativeTranslation = t
			}
			return nil
		})
	}
	return confirmedTranslation, tentativeTranslation
}

// Finalize runs session-end semantics: if there are un-transcribed
// chunks pending, run one final ASR pass (no trim), then force-promote
// whatever remains tentative, and return a terminal event.
func (s *Scheduler) Finalize(ctx context.Context, state *SessionState) Event {
	if state.Accumulator.ChunkCount() > 0 && state.Accumulator.ChunksRemaining() > 0 {
		s.transcribePass(ctx, state, state.ChunkCount, false)
	}

	if remaining, ok := diffresolver.ForceFinalize(state.ConfirmedText, state.LastTranscription); ok {
		state.ConfirmedText += remaining
	}
	if s.Hiragana != nil && state.Options.Hiragana {
		s.Pool.Do(ctx, func() error {
			if full, err := s.Hiragana.ToHiragana(ctx, state.ConfirmedText); err == nil {
				state.ConfirmedHiragana = full
			}
			return nil
		})
	}

	confirmedTranslation := ""
	if s.Translator != nil && state.Options.Translation {
		s.Pool.Do(ctx, func() error {
			t, err := s.Translator.Translate(ctx, state.ConfirmedText)
			if err == nil {
				confirmedTranslation = t
			}
			return nil
		})
	}

	ev := Event{
		Kind: EventSessionEnd,
		Transcription: &Transcription{
			Confirmed: state.ConfirmedText,
			Tentative: "",
			FullText:  state.ConfirmedText,
		},
		Statistics: &Statistics{
			ChunkCount:           state.ChunkCount,
			AudioDurationSeconds: state.Accumulator.DurationSeconds(),
			ConfirmedTextLength:  len([]rune(state.ConfirmedText)),
		},
		IsFinal: true,
	}
	if state.Options.Hiragana {
		ev.Hiragana = &LangPair{Confirmed: state.ConfirmedHiragana, Tentative: ""}
	}
	if state.Options.Translation {
		ev.Translation = &LangPair{Confirmed: confirmedTranslation, Tentative: ""}
	}
	return ev
}
