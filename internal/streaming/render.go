package streaming

import "kotoba-engine/internal/cte"

// wireEnvelope is a loosely-typed JSON object for the handful of
// connection-level messages (connected, options_received, pong) that
// carry no cte.Event payload.
type wireEnvelope map[string]any

// renderEvent converts a cte.Event into the wire JSON shape for its kind,
// omitting fields the event doesn't carry.
func renderEvent(ev cte.Event) wireEnvelope {
	switch ev.Kind {
	case cte.EventAccumulating:
		return wireEnvelope{
			"type":                       string(ev.Kind),
			"chunk_id":                   ev.ChunkID,
			"accumulated_seconds":        ev.AccumulatedSeconds,
			"session_elapsed_seconds":    ev.SessionElapsedSeconds,
			"chunks_until_transcription": ev.ChunksUntilTranscription,
		}
	case cte.EventTranscriptionUpdate:
		out := wireEnvelope{
			"type":          string(ev.Kind),
			"chunk_id":      ev.ChunkID,
			"transcription": ev.Transcription,
			"is_final":      ev.IsFinal,
		}
		if ev.Hiragana != nil {
			out["hiragana"] = ev.Hiragana
		}
		if ev.Translation != nil {
			out["translation"] = ev.Translation
		}
		if ev.Performance != nil {
			out["performance"] = renderPerformance(ev.Performance)
		}
		return out
	case cte.EventSkipped:
		return wireEnvelope{
			"type":     string(ev.Kind),
			"chunk_id": ev.ChunkID,
			"reason":   string(ev.SkipReason),
			"message":  ev.Message,
		}
	case cte.EventError:
		return wireEnvelope{
			"type":    string(ev.Kind),
			"message": ev.Message,
		}
	case cte.EventSessionEnd:
		out := wireEnvelope{
			"type":          string(ev.Kind),
			"transcription": ev.Transcription,
			"statistics":    ev.Statistics,
			"is_final":      ev.IsFinal,
		}
		if ev.Hiragana != nil {
			out["hiragana"] = ev.Hiragana
		}
		if ev.Translation != nil {
			out["translation"] = ev.Translation
		}
		return out
	default:
		return wireEnvelope{"type": "error", "message": "unknown event kind"}
	}
}

func renderPerformance(p *cte.Performance) wireEnvelope {
	return wireEnvelope{
		"transcription_time":        p.TranscriptionTime.Seconds(),
		"total_time":                p.TotalTime.Seconds(),
		"accumulated_audio_seconds": p.AccumulatedAudioSeconds,
		"session_elapsed_seconds":   p.SessionElapsedSeconds,
	}
}
