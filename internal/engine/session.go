package engine

import (
	"sync"
	"time"
)

// ProcessHandle is the capture process liveness probe the reconciler and
// detector need. Declared here, at the consumer, per "accept interfaces,
// return structs" — internal/capture returns a concrete *capture.Process
// that satisfies this without either package importing the other.
type ProcessHandle interface {
	Alive() bool
}

// CaptureSession is one actively recorded stream. Process state is
// mutated only by the reconciler (via capture.Supervisor); the
// dispatched set is mutated only by the detector. Both run under the
// Table's lock.
type CaptureSession struct {
	Stream     StreamName
	Session    SessionID
	StartedAt  time.Time
	OutputDir  string
	Process    ProcessHandle

	// dispatched holds filenames already handed to the upload pipeline.
	// Append-only for the session's lifetime (I2).
	dispatched map[string]struct{}
}

// Dispatched reports whether filename has already been enqueued.
func (s *CaptureSession) Dispatched(filename string) bool {
	_, ok := s.dispatched[filename]

	return ok
}

// MarkDispatched records filename as enqueued. Must be called before the
// corresponding task enters the queue (I2).
func (s *CaptureSession) MarkDispatched(filename string) {
	s.dispatched[filename] = struct{}{}
}

// Table is the session table shared by the reconciler and detector,
// guarded by a single mutex (§5: single-writer discipline per field, one
// lock for the whole table rather than per-session locks, since both
// stages need a consistent view of the full stream set on every tick).
type Table struct {
	mu       sync.Mutex
	sessions map[StreamName]*CaptureSession
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{sessions: make(map[StreamName]*CaptureSession)}
}

// Put registers a new session. Enforces I1: a stream already present is
// left untouched and ok is false.
func (t *Table) Put(s *CaptureSession) (ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.sessions[s.Stream]; exists {
		return false
	}

	s.dispatched = make(map[string]struct{})
	t.sessions[s.Stream] = s

	return true
}

// Get returns the session for stream, if any.
func (t *Table) Get(stream StreamName) (*CaptureSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[stream]

	return s, ok
}

// Remove deletes stream's session and returns it, if any.
func (t *Table) Remove(stream StreamName) (*CaptureSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[stream]
	if ok {
		delete(t.sessions, stream)
	}

	return s, ok
}

// Len returns the number of active sessions.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.sessions)
}

// Snapshot returns a copy of the current sessions, safe to range over
// without holding the table lock.
func (t *Table) Snapshot() []*CaptureSession {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*CaptureSession, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, s)
	}

	return out
}

// WithDispatch runs fn while holding the table lock, for callers (the
// detector) that need to check-then-mark a filename atomically with
// respect to concurrent table mutation.
func (t *Table) WithDispatch(stream StreamName, fn func(s *CaptureSession)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.sessions[stream]; ok {
		fn(s)
	}
}
