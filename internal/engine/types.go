// Package engine hosts the shared session table and the two cooperating
// periodic stages that operate on it: the reconciler (starts and stops
// capture sessions to match the upstream) and the detector (scans each
// session's output directory and enqueues completed segments).
package engine

import "time"

// StreamName identifies a stream as reported by the upstream.
type StreamName string

// SessionID is a timestamp-derived identifier, unique per
// (StreamName, start-instant).
type SessionID string

// NewSessionID mints a SessionID from t in UTC, formatted YYYYMMDD_HHMMSS.
func NewSessionID(t time.Time) SessionID {
	return SessionID(t.UTC().Format("20060102_150405"))
}
