// Package capture supervises the lifecycle of one child process per live
// stream: a segmenting writer that reads an input URL and emits numbered
// files into an output directory.
package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// livenessProbeDelay is how long Start waits before checking whether the
// child is still alive. The writer has no "ready" signal of its own, so
// this is a best-effort check against an immediate crash (bad input URL,
// missing binary, malformed arguments).
const livenessProbeDelay = 2 * time.Second

// stopGrace is how long Stop waits after sending the quit byte before
// escalating to a kill signal.
const stopGrace = 5 * time.Second

// quitByte is written to the child's stdin to request a graceful stop.
const quitByte = 'q'

// Process is a handle to one running (or exited) capture child.
type Process struct {
	Stream    string
	Session   string
	OutputDir string
	PID       int

	cmd   *exec.Cmd
	stdin io.WriteCloser
	done  chan struct{}
}

// Alive reports whether the child has not yet exited.
func (p *Process) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Launcher starts the actual child command. It is a consumer-defined
// interface so tests can substitute a fake process without spawning a
// real one.
type Launcher interface {
	Launch(stream, session, outputDir string) (*exec.Cmd, error)
}

// Supervisor starts and stops capture processes.
type Supervisor struct {
	launcher Launcher
}

// NewSupervisor builds a Supervisor around the given Launcher. A nil
// Launcher defaults to FFmpegLauncher with the given segment duration and
// output extension.
func NewSupervisor(launcher Launcher) *Supervisor {
	return &Supervisor{launcher: launcher}
}

// Start creates the session's output directory, spawns the capture
// child, and probes liveness after livenessProbeDelay. If the child has
// already exited by the time of the probe, Start returns an error and
// the caller must not register the session.
func (s *Supervisor) Start(ctx context.Context, recordingsRoot, stream, session string) (*Process, error) {
	outputDir := filepath.Join(recordingsRoot, fmt.Sprintf("%s_%s", stream, session))
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("capture: mkdir %s: %w", outputDir, err)
	}

	cmd, err := s.launcher.Launch(stream, session, outputDir)
	if err != nil {
		return nil, fmt.Errorf("capture: launch %s: %w", stream, err)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("capture: stdin pipe %s: %w", stream, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("capture: start %s: %w", stream, err)
	}

	p := &Process{
		Stream:    stream,
		Session:   session,
		OutputDir: outputDir,
		PID:       cmd.Process.Pid,
		cmd:       cmd,
		stdin:     stdin,
		done:      make(chan struct{}),
	}

	go func() {
		_ = cmd.Wait()
		close(p.done)
	}()

	select {
	case <-time.After(livenessProbeDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if !p.Alive() {
		return nil, fmt.Errorf("capture: %s exited immediately after start (pid %d)", stream, p.PID)
	}

	return p, nil
}

// Stop requests a graceful stop via the quit byte, waiting up to
// stopGrace before escalating to Kill. It is idempotent: stopping an
// already-exited process is a no-op.
func (s *Supervisor) Stop(p *Process) {
	if !p.Alive() {
		return
	}

	_, _ = p.stdin.Write([]byte{quitByte})
	_ = p.stdin.Close()

	select {
	case <-p.done:
		return
	case <-time.After(stopGrace):
	}

	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}

	<-p.done
}
