package supervisor

import (
	"context"

	"github.com/TheKhosa/vodarchiver/internal/capture"
	"github.com/TheKhosa/vodarchiver/internal/engine"
)

// captureAdapter bridges capture.Supervisor to engine.Starter. The two
// packages don't know about each other; this is the one place that
// wires concrete capture-domain types into the engine's consumer-defined
// interface.
type captureAdapter struct {
	sup            *capture.Supervisor
	recordingsRoot string
}

func (a *captureAdapter) Start(
	ctx context.Context, stream engine.StreamName, session engine.SessionID,
) (engine.ProcessHandle, string, error) {
	p, err := a.sup.Start(ctx, a.recordingsRoot, string(stream), string(session))
	if err != nil {
		return nil, "", err
	}

	return p, p.OutputDir, nil
}

func (a *captureAdapter) Stop(_ context.Context, handle engine.ProcessHandle) {
	p, ok := handle.(*capture.Process)
	if !ok || p == nil {
		return
	}

	a.sup.Stop(p)
}
