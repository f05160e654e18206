package upload

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// drainPollInterval is how often WaitIdle rechecks the in-flight count.
const drainPollInterval = 100 * time.Millisecond

// Pipeline composes a Queue and a Pool and tracks how many tasks are
// currently in the system (queued or being processed, including
// retries), so the supervisor can know when a graceful drain is
// actually done.
type Pipeline struct {
	queue    *Queue
	pool     *Pool
	inFlight atomic.Int64
}

// NewPipeline builds a Pipeline. The returned Pipeline's Queue and Pool
// both live as long as ctx; callers typically hand in a context whose
// lifetime spans the whole drain sequence, not just normal operation.
func NewPipeline(ctx context.Context, put Putter, logger *slog.Logger, resultsBuf int) *Pipeline {
	q := NewQueue(ctx)
	p := &Pipeline{queue: q, pool: NewPool(q, put, logger, resultsBuf)}
	p.pool.onFinal = func() { p.inFlight.Add(-1) }

	return p
}

// Start spawns n worker goroutines.
func (p *Pipeline) Start(ctx context.Context, n int) {
	p.pool.Start(ctx, n)
}

// Enqueue submits a new task (not a retry re-enqueue, which the pool
// performs internally without affecting the in-flight count since the
// task was already counted).
func (p *Pipeline) Enqueue(ctx context.Context, t Task) {
	p.inFlight.Add(1)
	p.queue.Enqueue(ctx, t)
}

// Results returns the per-task outcome channel.
func (p *Pipeline) Results() <-chan Result {
	return p.pool.Results()
}

// Stats returns the pool's counters.
func (p *Pipeline) Stats() (succeeded, failed, dropped int64, errs []error) {
	return p.pool.Stats()
}

// Idle reports whether every enqueued task has reached a terminal
// outcome.
func (p *Pipeline) Idle() bool {
	return p.inFlight.Load() == 0
}

// WaitIdle blocks until Idle() or ctx is canceled. No deadline is
// enforced here; the caller (the supervisor's drain sequence) decides
// whether to impose one.
func (p *Pipeline) WaitIdle(ctx context.Context) {
	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()

	for {
		if p.Idle() {
			return
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// Wait blocks until every worker goroutine has returned. Call only after
// the pool's context has been canceled.
func (p *Pipeline) Wait() {
	p.pool.Wait()
}
