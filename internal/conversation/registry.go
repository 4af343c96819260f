package conversation

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	// ErrDraining is returned for new work while the registry drains.
	ErrDraining = errors.New("registry is draining")
	// ErrUnknownSession is returned for a session ID the registry does
	// not hold.
	ErrUnknownSession = errors.New("unknown session")
)

// Registry holds the live sessions and supports graceful draining: once
// draining starts, new sessions and new turns are rejected while
// in-flight turns finish naturally.
//
// The mu mutex makes the draining check and wg.Add atomic, preventing a
// turn from slipping in between StartDraining and Wait. Each session
// carries its own lock so turns on one session are serialized without
// blocking other sessions.
type Registry struct {
	mu       sync.Mutex
	draining bool
	wg       sync.WaitGroup
	active   atomic.Int64
	sessions map[string]*sessionEntry
	diagSize int
}

type sessionEntry struct {
	mu sync.Mutex
	s  *Session
}

// NewRegistry creates an empty session registry.
func NewRegistry(diagSize int) *Registry {
	return &Registry{
		sessions: make(map[string]*sessionEntry),
		diagSize: diagSize,
	}
}

// Create makes a new session and registers it. Returns ErrDraining when
// the registry no longer accepts sessions.
func (r *Registry) Create() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.draining {
		return nil, ErrDraining
	}
	s := NewSession(uuid.NewString(), r.diagSize)
	r.sessions[s.ID] = &sessionEntry{s: s}
	return s, nil
}

// Do runs fn with the session locked, counted as one active turn for
// draining purposes. fn owns the session exclusively for its duration.
func (r *Registry) Do(id string, fn func(*Session)) error {
	r.mu.Lock()
	if r.draining {
		r.mu.Unlock()
		return ErrDraining
	}
	entry, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return ErrUnknownSession
	}
	r.wg.Add(1)
	r.active.Add(1)
	r.mu.Unlock()

	defer func() {
		r.active.Add(-1)
		r.wg.Done()
	}()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	fn(entry.s)
	return nil
}

// Get looks up a session without locking it. Callers must only touch
// internally synchronized state such as the diagnostics ring; use Do
// for anything else.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return entry.s, true
}

// Remove drops a session. Safe to call for unknown IDs.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// ActiveTurns returns the number of turns currently executing.
func (r *Registry) ActiveTurns() int64 {
	return r.active.Load()
}

// StartDraining rejects future sessions and turns. Safe to call
// concurrently with Do.
func (r *Registry) StartDraining() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draining = true
}

// IsDraining reports whether the registry is in draining mode.
func (r *Registry) IsDraining() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draining
}

// Wait blocks until all in-flight turns have completed.
func (r *Registry) Wait() {
	r.wg.Wait()
}
