// Package stats writes a session-completion audit record once a session
// reaches session_end. It is write-only: nothing here is ever read back to
// reconstruct or resume a live session, honoring the no-persistence-across-
// restarts non-goal — this is an append-only ledger of finished sessions.
package stats

import (
	"kotoba-engine/internal/database"
)

// Recorder persists finished-session summaries. A zero-value Recorder
// (UserID == 0) is a no-op: anonymous sessions are not recorded.
type Recorder struct {
	UserID int
}

// Record writes one completed session's summary. Errors are non-fatal to
// the caller (the session has already ended); callers should log and
// continue.
func (r Recorder) Record(sessionID string, totalChunks int, audioDurationSeconds float64, finalTranscript string) error {
	if r.UserID == 0 {
		return nil
	}

	_, err := database.CreateUserStreamingSession(r.UserID, database.UserStreamingSessionInput{
		SessionID:            sessionID,
		SourceLang:           "ja",
		TotalChunks:          totalChunks,
		TotalDurationSeconds: int(audioDurationSeconds),
		FinalTranscript:      finalTranscript,
	})
	return err
}
