package engine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/TheKhosa/vodarchiver/internal/upload"
)

// idleThreshold is how long a non-final segment file must have gone
// un-modified before the detector considers it closed.
const idleThreshold = 10 * time.Second

// Enqueuer submits a finished segment for upload. Declared here, at the
// consumer, so the detector depends only on the one method it calls;
// *upload.Queue satisfies this.
type Enqueuer interface {
	Enqueue(ctx context.Context, t upload.Task)
}

// Detector periodically scans every active session's output directory
// and enqueues segments that look finished.
type Detector struct {
	table  *Table
	queue  Enqueuer
	logger *slog.Logger
	now    func() time.Time
}

// NewDetector builds a Detector.
func NewDetector(table *Table, queue Enqueuer, logger *slog.Logger) *Detector {
	return &Detector{table: table, queue: queue, logger: logger, now: time.Now}
}

// Run blocks, scanning every interval until ctx is canceled.
func (d *Detector) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.scanAll(ctx)
		}
	}
}

func (d *Detector) scanAll(ctx context.Context) {
	for _, s := range d.table.Snapshot() {
		d.scanSession(ctx, s)
	}
}

// scanSession implements §4.4: enumerate, sort, hold back the last file,
// and enqueue anything else not yet dispatched and idle for long enough.
func (d *Detector) scanSession(ctx context.Context, s *CaptureSession) {
	names, err := d.listSegments(s.OutputDir)
	if err != nil {
		d.logger.Warn("detector: list segments failed",
			slog.String("stream", string(s.Stream)), slog.String("error", err.Error()))

		return
	}

	if len(names) <= 2 {
		return
	}

	candidates := names[:len(names)-1]

	for _, name := range candidates {
		d.maybeDispatch(ctx, s, name, idleThreshold)
	}
}

// maybeDispatch checks the filename under the table lock (so a
// concurrent Terminate can't race a double-dispatch) and enqueues it if
// it passes the idle gate and hasn't been dispatched yet.
func (d *Detector) maybeDispatch(ctx context.Context, s *CaptureSession, name string, minIdle time.Duration) {
	path := filepath.Join(s.OutputDir, name)

	info, err := os.Stat(path)
	if err != nil {
		return
	}

	if d.now().Sub(info.ModTime()) < minIdle {
		return
	}

	var task upload.Task

	d.table.WithDispatch(s.Stream, func(sess *CaptureSession) {
		if sess.Dispatched(name) {
			return
		}

		sess.MarkDispatched(name)
		task = d.buildTask(sess, path, name)
	})

	if task.ID != "" {
		d.queue.Enqueue(ctx, task)
	}
}

// Terminate enqueues every remaining file in the session's directory
// unconditionally, waiving the "hold back the last file" rule because no
// further writes will occur after a session stops.
func (d *Detector) Terminate(ctx context.Context, s *CaptureSession) {
	names, err := d.listSegments(s.OutputDir)
	if err != nil {
		d.logger.Warn("detector: terminate list segments failed",
			slog.String("stream", string(s.Stream)), slog.String("error", err.Error()))

		return
	}

	for _, name := range names {
		path := filepath.Join(s.OutputDir, name)

		var task upload.Task

		d.table.WithDispatch(s.Stream, func(sess *CaptureSession) {
			if sess.Dispatched(name) {
				return
			}

			sess.MarkDispatched(name)
			task = d.buildTask(sess, path, name)
		})

		if task.ID != "" {
			d.queue.Enqueue(ctx, task)
		}
	}
}

// buildTask fills in everything known at detection time. ObjectKey and
// RecordedAt are deliberately left blank: §4.2 computes those once the
// pipeline actually attempts the upload, not when the detector first
// notices the file, so the object key's date reflects upload-dispatch
// time rather than detection time.
func (d *Detector) buildTask(s *CaptureSession, path, _ string) upload.Task {
	return upload.Task{
		ID:         uuid.NewString(),
		LocalPath:  path,
		Stream:     string(s.Stream),
		Session:    string(s.Session),
		EnqueuedAt: d.now().UTC(),
	}
}

func (d *Detector) listSegments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		names = append(names, e.Name())
	}

	sort.Strings(names)

	return names, nil
}
