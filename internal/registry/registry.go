// Package registry implements the Session Registry: a process-wide table
// of active sessions keyed by session_id, with idle-timeout expiration and
// a per-session chunk-count cap.
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"kotoba-engine/internal/cte"
)

// Config is the registry-level configuration; Session is passed through
// unchanged to every session this registry creates (the per-session chunk
// cap lives in Session.Audio.MaxChunksPerSession, enforced by the
// Accumulator itself since the registry never touches session internals).
type Config struct {
	SessionTimeout time.Duration
	Session        cte.Config
}

// Info is a read-only snapshot of a session, returned by Info.
type Info struct {
	SessionID   string    `json:"session_id"`
	ChunkCount  int       `json:"chunk_count"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

type entry struct {
	state *cte.SessionState
}

// Registry is the process-wide session table. Every method takes a short
// lock on the map only; the SessionState it hands back remains owned
// exclusively by the caller's connection goroutine from that point on —
// the registry itself never reads or mutates a SessionState's fields.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	cfg      Config
}

// New returns an empty Registry.
func New(cfg Config) *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		cfg:      cfg,
	}
}

// GetOrCreate returns the session for id, creating it if absent. If id is
// empty, a UUID is generated. Requesting an id that already exists is
// idempotent: the existing session is returned unchanged.
func (r *Registry) GetOrCreate(id string) (*cte.SessionState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id != "" {
		if e, ok := r.sessions[id]; ok {
			return e.state, false
		}
	} else {
		id = uuid.NewString()
	}

	state := cte.New(id, r.cfg.Session, time.Now())
	r.sessions[id] = &entry{state: state}
	return state, true
}

// Lookup returns the session for id if present and not expired.
// Expiration is enforced here: a lookup of an expired session deletes it
// and reports not-found.
func (r *Registry) Lookup(id string) (*cte.SessionState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	if r.expired(e.state, time.Now()) {
		delete(r.sessions, id)
		return nil, false
	}
	return e.state, true
}

// Touch bumps a session's LastUpdated so the idle-timeout sweep sees it as
// alive. It is a no-op if id is not registered.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return
	}
	e.state.Touch(time.Now())
}

// Sweep removes all expired entries and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, e := range r.sessions {
		if r.expired(e.state, now) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Remove deletes a session unconditionally, e.g. on session_end or
// transport close.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Info returns a read-only snapshot of session id's metadata.
func (r *Registry) Info(id string) (Info, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return Info{}, false
	}
	return Info{
		SessionID:   e.state.SessionID,
		ChunkCount:  e.state.ChunkCount,
		CreatedAt:   e.state.CreatedAt,
		LastUpdated: e.state.LastUpdated,
	}, true
}

// Count returns the number of sessions currently tracked, expired or not.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) expired(state *cte.SessionState, now time.Time) bool {
	if r.cfg.SessionTimeout <= 0 {
		return false
	}
	return now.Sub(state.LastUpdated) > r.cfg.SessionTimeout
}
