package upload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	mu       sync.Mutex
	calls    int
	failN    int // fail this many times before succeeding
	fn       func(ctx context.Context, localPath, objectKey string, meta Metadata) error
	gotKeys  []string
}

func (f *fakePutter) Put(ctx context.Context, localPath, objectKey string, meta Metadata) error {
	f.mu.Lock()
	f.calls++
	f.gotKeys = append(f.gotKeys, objectKey)
	call := f.calls
	f.mu.Unlock()

	if f.fn != nil {
		return f.fn(ctx, localPath, objectKey, meta)
	}

	if call <= f.failN {
		return errors.New("put failed")
	}

	return nil
}

func testPoolLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noSleep(_ context.Context, _ time.Duration) error { return nil }

func TestPool_SuccessDeletesLocalFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "segment_000.mp4")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewQueue(ctx)
	put := &fakePutter{}
	p := NewPool(q, put, testPoolLogger(), 8)
	p.sleep = noSleep
	p.Start(ctx, 2)

	q.Enqueue(ctx, Task{ID: "t1", LocalPath: path, Stream: "cam1", Session: "s1", ObjectKey: "cam1/2026-07-31/s1/segment_000.mp4"})

	select {
	case r := <-p.Results():
		assert.True(t, r.Success)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
	}

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestPool_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "segment_000.mp4")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewQueue(ctx)
	put := &fakePutter{failN: 2}
	p := NewPool(q, put, testPoolLogger(), 8)
	p.sleep = noSleep
	p.Start(ctx, 1)

	q.Enqueue(ctx, Task{ID: "t1", LocalPath: path, Stream: "cam1", Session: "s1", ObjectKey: "key"})

	select {
	case r := <-p.Results():
		assert.True(t, r.Success)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
	}

	put.mu.Lock()
	assert.Equal(t, 3, put.calls)
	put.mu.Unlock()
}

func TestPool_DropsAfterMaxRetries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "segment_000.mp4")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewQueue(ctx)
	put := &fakePutter{failN: 1 << 20}
	p := NewPool(q, put, testPoolLogger(), 8)
	p.sleep = noSleep
	p.Start(ctx, 1)

	q.Enqueue(ctx, Task{ID: "t1", LocalPath: path, Stream: "cam1", Session: "s1", ObjectKey: "key"})

	select {
	case r := <-p.Results():
		assert.False(t, r.Success)
		assert.True(t, r.Dropped)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for result")
	}

	_, _, dropped, _ := p.Stats()
	assert.Equal(t, int64(1), dropped)
}

func TestPool_StampsObjectKeyOnFirstAttemptAndCarriesThroughRetries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "segment_000.mp4")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewQueue(ctx)
	put := &fakePutter{failN: 1}
	p := NewPool(q, put, testPoolLogger(), 8)
	p.sleep = noSleep

	// now() would report a different (later) date on a second call; if the
	// pool recomputed the object key on retry instead of reusing the first
	// attempt's value, the key observed by Put would change across the
	// retry and this test would catch it.
	var calls int32

	p.now = func() time.Time {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return time.Date(2026, 7, 31, 23, 59, 59, 0, time.UTC)
		}

		return time.Date(2026, 8, 1, 0, 0, 5, 0, time.UTC)
	}
	p.Start(ctx, 1)

	q.Enqueue(ctx, Task{ID: "t1", LocalPath: path, Stream: "cam1", Session: "20260731_235900"})

	select {
	case r := <-p.Results():
		assert.True(t, r.Success)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
	}

	put.mu.Lock()
	defer put.mu.Unlock()
	require.Len(t, put.gotKeys, 2)
	assert.Equal(t, "cam1/2026-07-31/20260731_235900/segment_000.mp4", put.gotKeys[0])
	assert.Equal(t, put.gotKeys[0], put.gotKeys[1])
}

func TestPool_SkipsVanishedLocalFile(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewQueue(ctx)
	put := &fakePutter{}
	p := NewPool(q, put, testPoolLogger(), 8)
	p.sleep = noSleep
	p.Start(ctx, 1)

	q.Enqueue(ctx, Task{ID: "t1", LocalPath: filepath.Join(t.TempDir(), "missing.mp4"), ObjectKey: "key"})

	var calls int32

	require.Eventually(t, func() bool {
		put.mu.Lock()
		calls = int32(put.calls)
		put.mu.Unlock()

		return atomic.LoadInt32(&calls) == 0
	}, time.Second, 10*time.Millisecond)
}
