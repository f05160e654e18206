// Package upload drains a queue of finished recording segments into the
// object store with bounded retry, one bounded pool of worker goroutines
// at a time.
package upload

import "time"

// maxRetries is the number of re-enqueues a task gets at the pipeline
// layer before it is dropped as a terminal failure.
const maxRetries = 3

// retryBackoff is the sleep between a failed put and the next attempt.
const retryBackoff = 5 * time.Second

// settleDelay is a defensive sleep before the first existence check and
// put attempt: the segment file may still be closing on disk when the
// detector enqueues it.
const settleDelay = 2 * time.Second

// Task describes one segment file awaiting upload. ObjectKey and
// RecordedAt start empty and are filled in by the pool on the task's
// first processing attempt (after the settle sleep and existence check,
// before Put), then carried unchanged through any retry re-enqueues —
// this is what makes the object key's date reflect the UTC date of
// first upload attempt rather than of detection or capture.
type Task struct {
	ID         string
	LocalPath  string
	Stream     string
	Session    string
	ObjectKey  string
	RecordedAt string
	EnqueuedAt time.Time
	Retries    int
}
