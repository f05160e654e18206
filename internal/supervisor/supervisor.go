// Package supervisor wires C1-C5 together and owns the process lifecycle:
// startup validation, the reconciler/detector/upload-pool run loop, and
// graceful drain on shutdown.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/TheKhosa/vodarchiver/internal/capture"
	"github.com/TheKhosa/vodarchiver/internal/config"
	"github.com/TheKhosa/vodarchiver/internal/engine"
	"github.com/TheKhosa/vodarchiver/internal/mediamtx"
	"github.com/TheKhosa/vodarchiver/internal/objectstore"
	"github.com/TheKhosa/vodarchiver/internal/upload"
)

// Supervisor is the assembled, runnable system: C1 (objectstore) through
// C5 (reconciler/detector), plus the upstream and config collaborators.
type Supervisor struct {
	cfg    *config.Settings
	logger *slog.Logger

	table      *engine.Table
	reconciler *engine.Reconciler
	detector   *engine.Detector
	pipeline   *upload.Pipeline

	// bgCtx/bgCancel is the upload pipeline's own context, outliving the
	// reconciler/detector run loop so the drain sequence can still enqueue
	// and process the session-termination tail, and the pool's workers can
	// keep draining, after the run loop has already returned. Worker
	// goroutines are started against bgCtx, not the signal-canceled ctx
	// passed to Run, or they would exit the instant a shutdown signal
	// arrives, before drain ever gets a chance to wait for them.
	bgCtx    context.Context
	bgCancel context.CancelFunc
}

// New validates cfg, ensures the recordings root exists, and builds the
// full component graph. It does not start any goroutines; call Run for
// that.
func New(cfg *config.Settings, logger *slog.Logger) (*Supervisor, error) {
	if err := os.MkdirAll(cfg.RecordingsRoot, 0o755); err != nil {
		return nil, fmt.Errorf("supervisor: recordings root: %w", err)
	}

	objStore, err := objectstore.New(objectstore.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		UseTLS:    cfg.S3UseTLS,
		VerifyTLS: cfg.S3VerifyTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("supervisor: object store: %w", err)
	}

	mediaClient := mediamtx.NewClient(cfg.MediaMTXAPIBase, &http.Client{})

	captureSup := capture.NewSupervisor(capture.FFmpegLauncher{
		StreamURLBase:   cfg.MediaMTXStreamBase,
		SegmentDuration: cfg.SegmentDuration,
		OutputExtension: cfg.OutputExtension,
	})

	table := engine.NewTable()

	bgCtx, bgCancel := context.WithCancel(context.Background())
	pipeline := upload.NewPipeline(bgCtx, &storeAdapter{store: objStore}, logger, cfg.UploadWorkers*4)

	detector := engine.NewDetector(table, pipeline, logger)

	starter := &captureAdapter{sup: captureSup, recordingsRoot: cfg.RecordingsRoot}

	poll := func(ctx context.Context) ([]engine.StreamName, error) {
		active, err := mediaClient.ListActive(ctx)
		if err != nil {
			return nil, err
		}

		out := make([]engine.StreamName, len(active))
		for i, s := range active {
			out[i] = engine.StreamName(s)
		}

		return out, nil
	}

	reconciler := engine.NewReconciler(table, starter, detector, cfg.ConcurrencyCap, poll, logger)

	return &Supervisor{
		cfg:        cfg,
		logger:     logger,
		table:      table,
		reconciler: reconciler,
		detector:   detector,
		pipeline:   pipeline,
		bgCtx:      bgCtx,
		bgCancel:   bgCancel,
	}, nil
}

// Run starts the upload pool and the reconciler/detector tick loops,
// blocking until ctx is canceled, then performs a graceful drain: stop
// every active session (running its termination tail), then wait until
// the upload pipeline is idle. No drain deadline is enforced here;
// callers that need one should derive ctx's parent with a timeout after
// cancellation (outside the scope of this type).
func (s *Supervisor) Run(ctx context.Context) error {
	s.pipeline.Start(s.bgCtx, s.cfg.UploadWorkers)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		s.reconciler.Run(groupCtx, s.cfg.PollInterval)

		return nil
	})

	group.Go(func() error {
		s.detector.Run(groupCtx, s.cfg.ScanInterval)

		return nil
	})

	_ = group.Wait()

	s.logger.Info("supervisor: draining")
	s.drain(context.Background())
	s.logger.Info("supervisor: drain complete")

	return nil
}

func (s *Supervisor) drain(ctx context.Context) {
	s.reconciler.StopAll(ctx)
	s.pipeline.WaitIdle(ctx)
	s.bgCancel()
	s.pipeline.Wait()
}
