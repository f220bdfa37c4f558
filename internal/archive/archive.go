// Package archive optionally uploads a session's final WAV snapshot and
// final transcript to object storage when a session ends. It is
// write-only and gated by MINIO_ENABLED — nothing here is read back into a
// running session, so it does not violate the no-persistence non-goal.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kotoba-engine/internal/storage"
)

// Archiver writes finished-session artifacts to object storage.
type Archiver struct {
	client *storage.MinioClient
}

// New wraps a MinioClient. A nil or disabled client makes every method a
// no-op.
func New(client *storage.MinioClient) *Archiver {
	return &Archiver{client: client}
}

// FinalTranscript is the JSON shape archived alongside the WAV snapshot.
type FinalTranscript struct {
	SessionID    string    `json:"session_id"`
	ConfirmedText string   `json:"confirmed_text"`
	ChunkCount   int       `json:"chunk_count"`
	ArchivedAt   time.Time `json:"archived_at"`
}

// Archive uploads the WAV snapshot and transcript JSON under a session-
// scoped object key prefix. It is a no-op when archiving is disabled.
func (a *Archiver) Archive(ctx context.Context, sessionID string, wav []byte, transcript FinalTranscript) error {
	if !a.client.Enabled() {
		return nil
	}

	wavKey := storage.SafeObjectKey("sessions", sessionID, "final.wav")
	if _, _, err := a.client.UploadBytes(ctx, wavKey, wav, "audio/wav"); err != nil {
		return fmt.Errorf("archive wav snapshot: %w", err)
	}

	data, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	transcriptKey := storage.SafeObjectKey("sessions", sessionID, "transcript.json")
	if _, _, err := a.client.UploadBytes(ctx, transcriptKey, data, "application/json"); err != nil {
		return fmt.Errorf("archive transcript: %w", err)
	}
	return nil
}
