package upload

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFOOrder(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewQueue(ctx)

	q.Enqueue(ctx, Task{ID: "1"})
	q.Enqueue(ctx, Task{ID: "2"})
	q.Enqueue(ctx, Task{ID: "3"})

	for _, want := range []string{"1", "2", "3"} {
		select {
		case got := <-q.Consume():
			assert.Equal(t, want, got.ID)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for task")
		}
	}
}

func TestQueue_ProducersNeverBlock(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewQueue(ctx)

	done := make(chan struct{})

	go func() {
		for range 1000 {
			q.Enqueue(ctx, Task{ID: "x"})
		}

		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer blocked on an unbounded queue")
	}
}

func TestQueue_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	q := NewQueue(ctx)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case q.in <- Task{ID: "dropped"}:
			return false
		default:
			return true
		}
	}, time.Second, 10*time.Millisecond)
}
