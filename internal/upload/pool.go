package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// maxRecordedErrors caps the diagnostic error slice so a long-running
// supervisor doesn't grow it unbounded. The failed counter stays
// accurate regardless of this cap.
const maxRecordedErrors = 1000

// Putter uploads one local file to the object store. Defined here, at
// the consumer, per "accept interfaces, return structs" — objectstore
// returns a concrete *Client, and this package declares only the method
// it actually calls.
type Putter interface {
	Put(ctx context.Context, localPath, objectKey string, meta Metadata) error
}

// Metadata mirrors objectstore.Metadata; declared locally so this
// package does not need to import objectstore's package for a type
// alone (Pipeline's caller constructs Tasks with the same fields).
type Metadata struct {
	Stream     string
	Session    string
	RecordedAt string
}

// Result reports the outcome of one upload attempt.
type Result struct {
	TaskID  string
	Path    string
	Success bool
	Dropped bool // true if this was the terminal failed attempt
}

// Pool is a bounded set of goroutines draining a Queue.
type Pool struct {
	queue  *Queue
	put    Putter
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time

	// onFinal, if set, is called exactly once per Task that reaches a
	// terminal outcome (uploaded, dropped, or found missing on disk) —
	// never on a retry re-enqueue. Pipeline uses this to track how many
	// tasks are still in flight for drain.
	onFinal func()

	succeeded atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64

	errorsMu sync.Mutex
	errors   []error

	results chan Result

	wg sync.WaitGroup
}

// NewPool creates a Pool. resultsBuf sizes the Results channel; callers
// that don't drain Results promptly should size it generously.
func NewPool(queue *Queue, put Putter, logger *slog.Logger, resultsBuf int) *Pool {
	if resultsBuf < 1 {
		resultsBuf = 1
	}

	return &Pool{
		queue:   queue,
		put:     put,
		logger:  logger,
		sleep:   sleepCtx,
		now:     time.Now,
		results: make(chan Result, resultsBuf),
	}
}

// Start spawns n worker goroutines, all reading from the same queue.
func (p *Pool) Start(ctx context.Context, n int) {
	if n < 1 {
		n = 1
	}

	for range n {
		p.wg.Add(1)

		go p.worker(ctx)
	}

	p.logger.Info("upload pool started", slog.Int("workers", n))
}

// Wait blocks until every started worker goroutine has returned, i.e.
// the pool has been fully drained and canceled.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Results returns a channel of per-task outcomes for logging/metrics.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Stats returns success/fail/drop counters and the diagnostic error list.
func (p *Pool) Stats() (succeeded, failed, dropped int64, errs []error) {
	p.errorsMu.Lock()
	out := make([]error, len(p.errors))
	copy(out, p.errors)
	p.errorsMu.Unlock()

	return p.succeeded.Load(), p.failed.Load(), p.dropped.Load(), out
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-p.queue.Consume():
			if !ok {
				return
			}

			p.safeProcess(ctx, t)
		}
	}
}

// safeProcess wraps process with panic recovery so one malformed task
// never brings down the whole pool.
func (p *Pool) safeProcess(ctx context.Context, t Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("upload: panic processing task",
				slog.String("task_id", t.ID),
				slog.String("path", t.LocalPath),
				slog.Any("panic", r),
			)
			p.recordFailure(fmt.Errorf("panic: %v", r))
		}
	}()

	p.process(ctx, t)
}

// process implements the per-task algorithm: settle sleep, existence
// check, put, local delete on success, retry-with-backoff on failure,
// terminal drop once retries are exhausted.
func (p *Pool) process(ctx context.Context, t Task) {
	if err := p.sleep(ctx, settleDelay); err != nil {
		return
	}

	if _, err := os.Stat(t.LocalPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			p.logger.Warn("upload: local file vanished before upload",
				slog.String("task_id", t.ID), slog.String("path", t.LocalPath))
			p.markFinal()

			return
		}

		p.recordFailure(err)
		p.retryOrDrop(ctx, t, err)

		return
	}

	// ObjectKey and RecordedAt are stamped on the first attempt only; a
	// retry re-enqueues the same Task value, so t.ObjectKey is already set
	// and this is a no-op on later attempts. This is what makes the
	// object key's date reflect the UTC date of first upload attempt
	// rather than of detection or capture (§9's cross-midnight behavior).
	if t.ObjectKey == "" {
		now := p.now().UTC()
		t.ObjectKey = fmt.Sprintf("%s/%s/%s/%s", t.Stream, now.Format("2006-01-02"), t.Session, filepath.Base(t.LocalPath))
		t.RecordedAt = now.Format(time.RFC3339)
	}

	meta := Metadata{Stream: t.Stream, Session: t.Session, RecordedAt: t.RecordedAt}

	err := p.put.Put(ctx, t.LocalPath, t.ObjectKey, meta)
	if err != nil {
		p.recordFailure(err)
		p.retryOrDrop(ctx, t, err)

		return
	}

	if rmErr := os.Remove(t.LocalPath); rmErr != nil {
		p.logger.Warn("upload: local delete failed after successful upload",
			slog.String("task_id", t.ID), slog.String("path", t.LocalPath), slog.String("error", rmErr.Error()))
	}

	p.succeeded.Add(1)
	p.logger.Info("successfully uploaded",
		slog.String("stream", t.Stream), slog.String("session", t.Session),
		slog.String("key", t.ObjectKey))
	p.markFinal()
	p.sendResult(ctx, Result{TaskID: t.ID, Path: t.LocalPath, Success: true})
}

func (p *Pool) retryOrDrop(ctx context.Context, t Task, cause error) {
	if t.Retries < maxRetries {
		t.Retries++

		p.logger.Warn("upload: retrying after failure",
			slog.String("task_id", t.ID), slog.Int("attempt", t.Retries), slog.String("error", cause.Error()))

		if err := p.sleep(ctx, retryBackoff); err != nil {
			return
		}

		p.queue.Enqueue(ctx, t)

		return
	}

	p.dropped.Add(1)
	p.logger.Error("upload: terminal failure, segment dropped",
		slog.String("task_id", t.ID), slog.String("path", t.LocalPath), slog.String("error", cause.Error()))
	p.markFinal()
	p.sendResult(ctx, Result{TaskID: t.ID, Path: t.LocalPath, Success: false, Dropped: true})
}

func (p *Pool) markFinal() {
	if p.onFinal != nil {
		p.onFinal()
	}
}

func (p *Pool) recordFailure(err error) {
	if err == nil {
		return
	}

	p.failed.Add(1)
	p.errorsMu.Lock()

	if len(p.errors) < maxRecordedErrors {
		p.errors = append(p.errors, err)
	}

	p.errorsMu.Unlock()
}

func (p *Pool) sendResult(ctx context.Context, r Result) {
	select {
	case p.results <- r:
	case <-ctx.Done():
	}
}

// NewTaskID mints a correlation ID attached to every Task so a segment's
// enqueue, retries, and terminal outcome can be traced through the logs.
func NewTaskID() string {
	return uuid.NewString()
}

// sleepCtx sleeps for d or returns ctx.Err() if ctx is canceled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
