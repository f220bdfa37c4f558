// Package streaming implements the Streaming Session Controller: the
// per-connection state machine (Handshaking -> Ready -> [Ingesting <->
// Configured] -> Finalizing -> Closed) that reads binary audio frames and
// JSON control messages off one WebSocket connection and drives a single
// session's cte.Scheduler.
package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"kotoba-engine/internal/archive"
	"kotoba-engine/internal/cte"
	"kotoba-engine/internal/registry"
	"kotoba-engine/internal/stats"
)

// Controller wires together the registry, the scheduler, and the optional
// audit/archival sinks behind one WebSocket entry point. A Controller is
// shared by every connection; each call to Serve owns exactly one
// SessionState for its lifetime.
type Controller struct {
	Registry  *registry.Registry
	Scheduler *cte.Scheduler
	Stats     stats.Recorder
	Archive   *archive.Archiver
}

// New wires a Controller from its collaborators. Stats and archive may be
// zero-value/nil to disable those sinks.
func New(reg *registry.Registry, sched *cte.Scheduler, rec stats.Recorder, arc *archive.Archiver) *Controller {
	return &Controller{Registry: reg, Scheduler: sched, Stats: rec, Archive: arc}
}

type controlMessage struct {
	Type        string `json:"type"`
	Hiragana    bool   `json:"hiragana"`
	Translation bool   `json:"translation"`
}

// Serve owns conn for its entire lifetime: handshake, read loop, and
// session-end or transport-close teardown. requestedSessionID is whatever
// the client passed (e.g. a query parameter); empty means "allocate one".
func (c *Controller) Serve(ctx context.Context, conn *websocket.Conn, requestedSessionID string) {
	defer conn.Close()

	state, _ := c.Registry.GetOrCreate(requestedSessionID)

	c.send(conn, wireEnvelope{"type": "connected", "session_id": state.SessionID, "message": "session ready"})

	chunkID := 0
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			// Transport close or timeout: the registry entry is retained
			// until the idle-timeout sweep reclaims it.
			return
		}

		switch mt {
		case websocket.TextMessage:
			if done := c.handleControl(ctx, conn, state, data); done {
				c.Registry.Remove(state.SessionID)
				return
			}
		case websocket.BinaryMessage:
			chunkID++
			c.Registry.Touch(state.SessionID)
			ev := c.Scheduler.Ingest(ctx, state, chunkID, data)
			c.send(conn, renderEvent(ev))
			if ev.Kind == cte.EventError {
				log.Printf("session %s: chunk %d: %s", state.SessionID, chunkID, ev.Message)
			}
		}
	}
}

// handleControl dispatches one text control frame and reports whether the
// session has reached its terminal, Finalizing->Closed transition.
func (c *Controller) handleControl(ctx context.Context, conn *websocket.Conn, state *cte.SessionState, data []byte) (done bool) {
	var msg controlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.send(conn, wireEnvelope{"type": "error", "message": "malformed control message"})
		return false
	}

	switch msg.Type {
	case "options":
		state.Options.Hiragana = msg.Hiragana
		state.Options.Translation = msg.Translation
		c.send(conn, wireEnvelope{"type": "options_received"})
	case "ping":
		c.send(conn, wireEnvelope{"type": "pong"})
	case "end":
		ev := c.Scheduler.Finalize(ctx, state)
		c.send(conn, renderEvent(ev))
		c.finish(ctx, state)
		return true
	}
	// Unknown control messages are ignored.
	return false
}

// finish runs the write-only, best-effort audit and archival sinks once a
// session has finalized. Failures here never surface to the client: the
// session has already ended from its point of view.
func (c *Controller) finish(ctx context.Context, state *cte.SessionState) {
	if err := c.Stats.Record(state.SessionID, state.ChunkCount, state.Accumulator.DurationSeconds(), state.ConfirmedText); err != nil {
		log.Printf("session %s: stats record failed: %v", state.SessionID, err)
	}
	if c.Archive == nil {
		return
	}
	snapshot := state.Accumulator.Snapshot()
	transcript := archive.FinalTranscript{
		SessionID:     state.SessionID,
		ConfirmedText: state.ConfirmedText,
		ChunkCount:    state.ChunkCount,
		ArchivedAt:    time.Now(),
	}
	if err := c.Archive.Archive(ctx, state.SessionID, snapshot, transcript); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("session %s: archive failed: %v", state.SessionID, err)
	}
}

func (c *Controller) send(conn *websocket.Conn, v any) {
	if err := conn.WriteJSON(v); err != nil {
		log.Printf("write failed: %v", err)
	}
}
