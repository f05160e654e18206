// Package mediamtx is a read-only client for the upstream streaming
// server's path-listing API.
package mediamtx

import (
	"errors"
	"fmt"
)

// Sentinel errors for poll-failure classification.
// Use errors.Is(err, mediamtx.ErrTransport) to check.
var (
	ErrTransport    = errors.New("mediamtx: transport error")
	ErrBadStatus    = errors.New("mediamtx: non-200 response")
	ErrMalformed    = errors.New("mediamtx: malformed response body")
)

// PollError wraps a sentinel error with the HTTP status code (when
// available) for debugging. A poll failure never mutates reconciler
// state; it is logged and the next tick tries again.
type PollError struct {
	StatusCode int
	Err        error
}

func (e *PollError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("mediamtx: HTTP %d: %s", e.StatusCode, e.Err)
	}

	return e.Err.Error()
}

func (e *PollError) Unwrap() error {
	return e.Err
}
