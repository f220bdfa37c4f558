package database

import (
	"fmt"
	"strings"
)

// UserStreamingSessionInput is one completed streaming session's audit
// summary, written once at session_end.
type UserStreamingSessionInput struct {
	SessionID            string
	SourceLang           string
	TargetLang           string
	TotalChunks          int
	TotalDurationSeconds int
	FinalTranscript      string
	FinalTranslation     string
}

// CreateUserStreamingSession inserts one finished session's audit record.
// It is write-only: nothing in this package reads these rows back to
// reconstruct a live session.
func CreateUserStreamingSession(userID int, input UserStreamingSessionInput) (int, error) {
	if strings.TrimSpace(input.SessionID) == "" {
		return 0, fmt.Errorf("session_id is required")
	}

	query := `
		INSERT INTO user_streaming_sessions (
			user_id, session_id, source_lang, target_lang, total_chunks, total_duration_seconds,
			final_transcript, final_translation
		)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, 0), NULLIF($6, 0), NULLIF($7, ''), NULLIF($8, ''))
		RETURNING id
	`

	var id int
	err := DB.QueryRow(
		query,
		userID,
		input.SessionID,
		input.SourceLang,
		input.TargetLang,
		input.TotalChunks,
		input.TotalDurationSeconds,
		input.FinalTranscript,
		input.FinalTranslation,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert streaming session: %w", err)
	}

	return id, nil
}
