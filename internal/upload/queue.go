package upload

import "context"

// Queue is an unbounded, multi-producer multi-consumer FIFO of upload
// Tasks. It is unbounded in design: producers (the detector, and the
// drain path) never block on submission; a feeder goroutine absorbs
// whatever arrives into an internal slice and forwards to consumers as
// they become ready.
type Queue struct {
	in  chan Task
	out chan Task
}

// NewQueue starts the feeder goroutine and returns a ready Queue. The
// feeder exits when ctx is canceled; Enqueue after that point is a
// silent no-op (matches the supervisor's drain-then-shutdown sequence,
// where the queue is only ever canceled after producers have stopped).
func NewQueue(ctx context.Context) *Queue {
	q := &Queue{
		in:  make(chan Task),
		out: make(chan Task),
	}

	go q.feed(ctx)

	return q
}

// Enqueue submits a task. It never blocks the caller on queue depth,
// only (briefly) on handing off to the feeder goroutine.
func (q *Queue) Enqueue(ctx context.Context, t Task) {
	select {
	case q.in <- t:
	case <-ctx.Done():
	}
}

// Consume returns the channel workers read tasks from.
func (q *Queue) Consume() <-chan Task {
	return q.out
}

// feed is the classic unbounded-channel pump: buffer everything that
// arrives on in, and offer the oldest buffered item to out whenever
// there is one, without ever blocking the producer side on consumer
// speed.
func (q *Queue) feed(ctx context.Context) {
	var buf []Task

	for {
		if len(buf) == 0 {
			select {
			case t := <-q.in:
				buf = append(buf, t)
			case <-ctx.Done():
				return
			}

			continue
		}

		select {
		case t := <-q.in:
			buf = append(buf, t)
		case q.out <- buf[0]:
			buf = buf[1:]
		case <-ctx.Done():
			return
		}
	}
}
