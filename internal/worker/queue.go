package worker

import (
	"context"
	"sync"

	"github.com/amankumarsingh77/ffserve/internal/jobs"
	"github.com/google/uuid"
)

// Queue is a bounded FIFO of job ids with a single consumer. Push blocks
// while the buffer is full.
type Queue struct {
	ch        chan uuid.UUID
	closed    chan struct{}
	closeOnce sync.Once
}

func NewQueue(size int) *Queue {
	return &Queue{
		ch:     make(chan uuid.UUID, size),
		closed: make(chan struct{}),
	}
}

func (q *Queue) Push(ctx context.Context, id uuid.UUID) error {
	select {
	case <-q.closed:
		return jobs.ErrQueueClosed
	default:
	}
	select {
	case q.ch <- id:
		return nil
	case <-q.closed:
		return jobs.ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) Jobs() <-chan uuid.UUID {
	return q.ch
}

// Close marks the consumer as gone. Pending and future pushes fail.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.closed) })
}

func (q *Queue) Len() int {
	return len(q.ch)
}
