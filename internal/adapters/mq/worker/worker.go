// Package worker runs pipeline tasks off the queue on a fixed pool of
// goroutines and reports one Result per task.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/pkg/logger"
	"github.com/okian/kudosly/pkg/metrics"
)

const defaultResultBuffer = 1024

// Processor runs the pipeline for one task.
type Processor interface {
	Process(ctx context.Context, t model.Task) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, t model.Task) error

func (f ProcessorFunc) Process(ctx context.Context, t model.Task) error { return f(ctx, t) }

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Task
}

// Result is the outcome of one task. Err is nil on success.
type Result struct {
	Task     model.Task
	Worker   string
	Err      error
	Duration time.Duration
}

// InMemoryWorker processes tasks from a queue.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	name      string
	results   chan<- Result
	active    *atomic.Int64
	dropped   *atomic.Int64

	done   chan struct{}
	logger logger.Logger
}

// NewInMemoryWorker creates a worker. Results are discarded unless a sink is
// configured with WithResults.
func NewInMemoryWorker(queue Queue, processor Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		processor: processor,
		name:      "worker",
		active:    &atomic.Int64{},
		dropped:   &atomic.Int64{},
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes tasks until the queue channel closes or ctx is cancelled.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-tasks:
			if !ok {
				return
			}
			w.handle(ctx, t)
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) handle(ctx context.Context, t model.Task) {
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	start := time.Now()
	err := w.process(ctx, t)
	elapsed := time.Since(start)
	metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
	metrics.RecordWorkerProcessingLatency(float64(elapsed.Microseconds()) / 1000)

	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "process_error")
		w.logger.Error(ctx, "task failed", logger.String("effort_id", t.EffortID), logger.Error(err))
	}

	if w.results == nil {
		return
	}
	select {
	case w.results <- Result{Task: t, Worker: w.name, Err: err, Duration: elapsed}:
	default:
		w.dropped.Add(1)
		w.logger.Warn(ctx, "result dropped, sink full", logger.String("effort_id", t.EffortID))
	}
}

// process isolates the pool from a panicking processor.
func (w *InMemoryWorker) process(ctx context.Context, t model.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return w.processor.Process(ctx, t)
}

// Pool manages a fixed set of workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	results chan Result
	dropped atomic.Int64
	active  atomic.Int64

	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
	logger    logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one uses the
// number of CPUs.
func NewPool(workerCount int, queue Queue, processor Processor, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{queue: queue}
	cfg := poolConfig{resultBuffer: defaultResultBuffer}
	for _, opt := range opts {
		opt(&cfg)
	}
	p.results = make(chan Result, cfg.resultBuffer)
	p.logger = cfg.logger
	if p.logger == nil {
		p.logger = logger.Get().Named("worker-pool")
	}

	p.workers = make([]*InMemoryWorker, workerCount)
	for i := range workerCount {
		w := NewInMemoryWorker(queue, processor, WithName("worker-"+strconv.Itoa(i)))
		w.results = p.results
		w.active = &p.active
		w.dropped = &p.dropped
		p.workers[i] = w
	}
	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Start launches every worker. Later calls are no-ops.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.started.Store(true)
		for _, w := range p.workers {
			go w.Run(ctx)
		}
		p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
	})
}

// Results delivers one Result per processed task. It is closed by Shutdown
// once every worker has stopped.
func (p *Pool) Results() <-chan Result { return p.results }

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Active returns the number of tasks being processed right now.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Dropped returns the number of results discarded because the sink was full.
func (p *Pool) Dropped() int64 { return p.dropped.Load() }

// Shutdown closes the queue, lets workers drain it and waits for them until
// ctx expires. Results is closed once the last worker returns, even when that
// happens after Shutdown gave up waiting.
func (p *Pool) Shutdown(ctx context.Context) error {
	var err error
	p.stopOnce.Do(func() {
		if closer, ok := p.queue.(interface{ Close() error }); ok {
			if cerr := closer.Close(); cerr != nil {
				p.logger.Error(ctx, "error closing queue", logger.Error(cerr))
			}
		}
		if !p.started.Load() {
			close(p.results)
			return
		}

		stopped := make(chan struct{})
		go func() {
			for _, w := range p.workers {
				<-w.done
			}
			close(p.results)
			close(stopped)
		}()

		select {
		case <-stopped:
			p.logger.Info(ctx, "worker pool stopped")
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("active", p.Active()))
			err = fmt.Errorf("%w: %w", ErrStopped, ctx.Err())
		}
	})
	return err
}
