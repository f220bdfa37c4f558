// Package cte implements the Cumulative Transcription Engine's
// Transcription Scheduler and per-session state: the per-chunk decision
// of whether to re-transcribe and/or trim, the diff-resolve-trim
// ordering around a buffer trim, and session finalize.
package cte

import (
	"time"

	"kotoba-engine/internal/audio"
)

// ProcessingOptions are the per-session toggles set via the "options"
// control message.
type ProcessingOptions struct {
	Hiragana    bool
	Translation bool
}

// Config is the per-session configuration frozen at session creation.
type Config struct {
	Audio           audio.Config
	StableThreshold int // passes of identical output required before auto-promotion
}

// SessionState is the per-session record mutated exclusively by the
// connection goroutine that owns it; nothing here is safe to touch from
// another goroutine.
type SessionState struct {
	SessionID string

	ConfirmedText     string
	ConfirmedHiragana string

	LastTranscription string
	PreviousFullText  string
	StableCount       int

	ChunkCount int

	CreatedAt   time.Time
	LastUpdated time.Time

	Options ProcessingOptions

	StableThreshold int
	Accumulator     *audio.Accumulator
}

// New returns a freshly initialized SessionState for sessionID, backed by
// an Accumulator built from cfg.Audio.
func New(sessionID string, cfg Config, now time.Time) *SessionState {
	return &SessionState{
		SessionID:       sessionID,
		CreatedAt:       now,
		LastUpdated:     now,
		StableThreshold: cfg.StableThreshold,
		Accumulator:     audio.New(cfg.Audio),
	}
}

// Touch bumps LastUpdated to now; called via the registry on every
// ingested binary frame, and directly after each transcription pass that
// updates the transcript, so the
// registry's idle-timeout sweep sees this session as alive. Control
// messages do not call it.
func (s *SessionState) Touch(now time.Time) {
	s.LastUpdated = now
}

// FullText is ConfirmedText concatenated with the current tentative
// suffix, matching the emitted wire contract's full_text field.
func FullText(confirmed, tentative string) string {
	return confirmed + tentative
}
