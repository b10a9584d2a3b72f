// Package queue holds pipeline tasks between ingestion and the worker pool.
//
// The queue is in-memory and bounded. Tasks reference persisted efforts, so
// anything lost on restart is recovered by re-scanning unscored efforts.
package queue

import (
	"context"
	"sync"

	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a task. It never blocks: ErrFull is returned when the
	// queue is at capacity and ErrClosed after Close.
	Enqueue(ctx context.Context, t model.Task) error

	// Dequeue returns the channel tasks are delivered on. Every caller shares
	// the same channel; it is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan model.Task

	// Len returns the current number of queued tasks.
	Len(ctx context.Context) int

	// Close stops accepting tasks. Queued tasks are still delivered.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	tasks    chan model.Task
	out      chan model.Task
	capacity int
	once     sync.Once
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.tasks = make(chan model.Task, q.capacity)
	q.out = make(chan model.Task)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a task to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t model.Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.tasks <- t:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.tasks))
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns the shared delivery channel. The forwarder starts on the
// first call and runs until the queue is closed and drained.
func (q *InMemoryQueue) Dequeue(context.Context) <-chan model.Task {
	q.once.Do(func() {
		go func() {
			defer close(q.out)
			for t := range q.tasks {
				q.out <- t
				metrics.RecordQueueDequeue()
				metrics.UpdateQueueSize(len(q.tasks))
			}
		}()
	})
	return q.out
}

// Len returns the current number of queued tasks.
func (q *InMemoryQueue) Len(context.Context) int {
	size := len(q.tasks)
	metrics.UpdateQueueSize(size)
	return size
}

// Capacity returns the configured bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops the queue. It is safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.tasks)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
