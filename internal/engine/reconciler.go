package engine

import (
	"context"
	"log/slog"
	"time"
)

// Backoff durations for consecutive start failures on one stream.
// Threshold: 3 consecutive failures before any backoff is applied, so a
// stream with a permanently broken capture command doesn't retry on
// every single tick.
const (
	backoffThreshold = 3
	backoffMaxCap    = 1 * time.Hour
)

// backoffSteps maps consecutive failure counts (starting at the
// threshold) to their backoff durations: 3->1m, 4->5m, 5->15m, 6+->1h.
var backoffSteps = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	15 * time.Minute,
	backoffMaxCap,
}

func backoffDuration(failures int) time.Duration {
	if failures < backoffThreshold {
		return 0
	}

	idx := failures - backoffThreshold
	if idx >= len(backoffSteps) {
		return backoffMaxCap
	}

	return backoffSteps[idx]
}

// Starter starts and stops capture sessions. Declared here, at the
// consumer; *capture.Supervisor does not satisfy this directly (its
// Start/Stop signatures carry capture-specific types), so Reconciler is
// wired through a small adapter in internal/supervisor that bridges
// capture.Supervisor to this interface.
type Starter interface {
	Start(ctx context.Context, stream StreamName, session SessionID) (ProcessHandle, string, error)
	Stop(ctx context.Context, handle ProcessHandle)
}

// Reconciler polls the upstream and starts/stops capture sessions to
// match, enforcing the concurrency cap (I1, P2).
type Reconciler struct {
	table          *Table
	starter        Starter
	detector       *Detector
	concurrencyCap int
	logger         *slog.Logger
	now            func() time.Time

	// poll, failures, and nextRetry are only ever touched from the single
	// goroutine running Run, so no lock is needed for them; only the
	// shared Table needs one.
	poll      func(ctx context.Context) ([]StreamName, error)
	failures  map[StreamName]int
	nextRetry map[StreamName]time.Time
}

// NewReconciler builds a Reconciler. poll is typically
// mediamtx.Client.ListActive adapted to return []StreamName.
func NewReconciler(
	table *Table,
	starter Starter,
	detector *Detector,
	concurrencyCap int,
	poll func(ctx context.Context) ([]StreamName, error),
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		table:          table,
		starter:        starter,
		detector:       detector,
		concurrencyCap: concurrencyCap,
		poll:           poll,
		logger:         logger,
		now:            time.Now,
		failures:       make(map[StreamName]int),
		nextRetry:      make(map[StreamName]time.Time),
	}
}

// Run blocks, reconciling every interval until ctx is canceled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick implements §4.5: poll, stop absent streams (running the
// termination tail), health-sweep crashed sessions, then start new ones.
// Stops run before starts so a stream that flaps off-then-on within one
// interval is not bounded by the cap against its own previous session.
func (r *Reconciler) tick(ctx context.Context) {
	active, err := r.poll(ctx)
	if err != nil {
		r.logger.Warn("reconciler: poll failed, leaving sessions unchanged", slog.String("error", err.Error()))

		return
	}

	r.logger.Info("reconciler: active streams", slog.Int("count", len(active)))

	presentSet := make(map[StreamName]struct{}, len(active))
	for _, s := range active {
		presentSet[s] = struct{}{}
	}

	r.stopAbsent(ctx, presentSet)
	r.sweepCrashed(ctx)
	r.startNew(ctx, active)
}

func (r *Reconciler) stopAbsent(ctx context.Context, present map[StreamName]struct{}) {
	for _, s := range r.table.Snapshot() {
		if _, ok := present[s.Stream]; ok {
			continue
		}

		r.stopSession(ctx, s)
	}
}

func (r *Reconciler) stopSession(ctx context.Context, s *CaptureSession) {
	r.starter.Stop(ctx, s.Process)
	r.detector.Terminate(ctx, s)
	r.table.Remove(s.Stream)
	r.logger.Info("reconciler: stopped session",
		slog.String("stream", string(s.Stream)), slog.String("session", string(s.Session)))
}

// StopAll stops every currently active session, running each one's
// termination tail. Used by the supervisor's graceful-drain sequence,
// never by the normal tick loop.
func (r *Reconciler) StopAll(ctx context.Context) {
	for _, s := range r.table.Snapshot() {
		r.stopSession(ctx, s)
	}
}

// sweepCrashed removes sessions whose child has already exited. The
// stream is not restarted inline; it becomes eligible again on the next
// tick's startNew pass, so a start-loop never runs tighter than the
// reconciler's own interval.
func (r *Reconciler) sweepCrashed(ctx context.Context) {
	for _, s := range r.table.Snapshot() {
		if s.Process.Alive() {
			continue
		}

		r.detector.Terminate(ctx, s)
		r.table.Remove(s.Stream)
		r.failures[s.Stream]++
		r.logger.Warn("reconciler: session crashed, scheduled for restart",
			slog.String("stream", string(s.Stream)), slog.Int("consecutive_failures", r.failures[s.Stream]))
	}
}

func (r *Reconciler) startNew(ctx context.Context, active []StreamName) {
	for _, stream := range active {
		if _, exists := r.table.Get(stream); exists {
			continue
		}

		if until, throttled := r.nextRetry[stream]; throttled && r.now().Before(until) {
			continue
		}

		if r.table.Len() >= r.concurrencyCap {
			r.logger.Warn("reconciler: concurrency cap reached, skipping start",
				slog.String("stream", string(stream)), slog.Int("cap", r.concurrencyCap))

			continue
		}

		r.startOne(ctx, stream)
	}
}

func (r *Reconciler) startOne(ctx context.Context, stream StreamName) {
	session := NewSessionID(r.now())

	handle, outputDir, err := r.starter.Start(ctx, stream, session)
	if err != nil {
		r.failures[stream]++
		backoff := backoffDuration(r.failures[stream])
		r.nextRetry[stream] = r.now().Add(backoff)
		r.logger.Error("reconciler: start failed",
			slog.String("stream", string(stream)), slog.String("error", err.Error()),
			slog.Int("consecutive_failures", r.failures[stream]), slog.Duration("next_attempt_in", backoff))

		return
	}

	s := &CaptureSession{
		Stream:    stream,
		Session:   session,
		StartedAt: r.now(),
		OutputDir: outputDir,
		Process:   handle,
	}

	if !r.table.Put(s) {
		// I1: another goroutine has already registered this stream.
		// Unreachable under the single-reconciler-goroutine model, but
		// stop the just-started child rather than leak it.
		r.starter.Stop(ctx, handle)

		return
	}

	delete(r.failures, stream)
	delete(r.nextRetry, stream)
	r.logger.Info("reconciler: started session",
		slog.String("stream", string(stream)), slog.String("session", string(session)))
}
