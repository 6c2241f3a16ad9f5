package sink

import (
	"context"
	"sync"

	"github.com/louisbranch/skirmish/internal/aggregate"
)

// DefaultQueueSize bounds the number of snapshots waiting for the consumer.
const DefaultQueueSize = 64

type request struct {
	ctx      context.Context
	snapshot aggregate.Snapshot
	done     chan error
}

// Queue serializes writes from many producers onto one consumer goroutine
// that owns the wrapped sink.
//
// Backpressure: the request channel holds at most size snapshots. A producer
// blocks while it is full and then until its own snapshot has been written,
// so the wrapped sink's error is returned to the producer that flushed.
// Requests are written in arrival order and none are dropped.
type Queue struct {
	target   aggregate.Sink
	requests chan request
	stopped  chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// NewQueue starts the consumer goroutine. size <= 0 uses DefaultQueueSize.
func NewQueue(target aggregate.Sink, size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	q := &Queue{
		target:   target,
		requests: make(chan request, size),
		stopped:  make(chan struct{}),
	}
	go q.consume()
	return q
}

func (q *Queue) consume() {
	defer close(q.stopped)
	for req := range q.requests {
		if err := req.ctx.Err(); err != nil {
			req.done <- err
			continue
		}
		req.done <- q.target.Write(req.ctx, req.snapshot)
	}
}

// Write enqueues snapshot and waits for the consumer to write it.
func (q *Queue) Write(ctx context.Context, snapshot aggregate.Snapshot) error {
	done := make(chan error, 1)

	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrClosed
	}
	select {
	case q.requests <- request{ctx: ctx, snapshot: snapshot, done: done}:
		q.mu.RUnlock()
	case <-ctx.Done():
		q.mu.RUnlock()
		return ctx.Err()
	}

	return <-done
}

// Close stops accepting writes, drains queued snapshots, and waits for the
// consumer to exit.
func (q *Queue) Close() error {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.requests)
		q.mu.Unlock()
	})
	<-q.stopped
	return nil
}

var _ aggregate.Sink = (*Queue)(nil)
