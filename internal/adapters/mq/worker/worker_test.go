package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/kudosly/internal/adapters/mq/queue"
	"github.com/okian/kudosly/internal/adapters/mq/worker"
	"github.com/okian/kudosly/internal/domain/model"
	logging "github.com/okian/kudosly/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
)

func init() {
	_ = logging.Init()
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu   sync.Mutex
	seen []string
	fail map[string]error
}

func (r *recorder) Process(_ context.Context, t model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, t.EffortID)
	if t.EffortID == "panic" {
		panic("boom")
	}
	return r.fail[t.EffortID]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over a queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(testCapacity())
		rec := &recorder{fail: map[string]error{"bad": errors.New("stage failed")}}
		pool := worker.NewPool(3, q, rec)
		pool.Start(ctx)

		convey.Convey("When tasks are enqueued and the pool shuts down", func() {
			ids := []string{"e1", "e2", "bad", "panic", "e3"}
			for _, id := range ids {
				convey.So(q.Enqueue(ctx, model.Task{EffortID: id}), convey.ShouldBeNil)
			}

			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			convey.So(pool.Shutdown(shutdownCtx), convey.ShouldBeNil)

			convey.Convey("Then every queued task is processed and reported", func() {
				convey.So(rec.count(), convey.ShouldEqual, len(ids))

				failed := map[string]error{}
				total := 0
				for res := range pool.Results() {
					total++
					convey.So(res.Worker, convey.ShouldStartWith, "worker-")
					if res.Err != nil {
						failed[res.Task.EffortID] = res.Err
					}
				}
				convey.So(total, convey.ShouldEqual, len(ids))
				convey.So(failed, convey.ShouldHaveLength, 2)
				convey.So(errors.Is(failed["panic"], worker.ErrPanic), convey.ShouldBeTrue)
				convey.So(failed["bad"].Error(), convey.ShouldEqual, "stage failed")
			})
		})

		convey.Convey("When shutdown is called twice", func() {
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
			convey.So(q.IsClosed(), convey.ShouldBeTrue)
			convey.So(pool.Size(), convey.ShouldEqual, 3)
		})
	})
}

func testCapacity() queue.Option { return queue.WithCapacity(64) }

func TestPoolResultOverflow(t *testing.T) {
	convey.Convey("Given a pool with a tiny result buffer", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(32))
		pool := worker.NewPool(1, q, worker.ProcessorFunc(func(context.Context, model.Task) error { return nil }),
			worker.WithResultBuffer(2))
		pool.Start(ctx)

		for i := range 5 {
			convey.So(q.Enqueue(ctx, model.Task{EffortID: fmt.Sprintf("e%d", i)}), convey.ShouldBeNil)
		}
		convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)

		convey.Convey("Then extra results are dropped, not blocking workers", func() {
			n := 0
			for range pool.Results() {
				n++
			}
			convey.So(n, convey.ShouldEqual, 2)
			convey.So(pool.Dropped(), convey.ShouldEqual, 3)
		})
	})
}

func TestPoolContextCancel(t *testing.T) {
	convey.Convey("Given a started pool whose context is cancelled", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		q := queue.NewInMemoryQueue()
		pool := worker.NewPool(2, q, worker.ProcessorFunc(func(context.Context, model.Task) error { return nil }))
		pool.Start(ctx)
		cancel()

		convey.Convey("Then shutdown still completes", func() {
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
		})
	})
}

func TestPoolShutdownTimeout(t *testing.T) {
	convey.Convey("Given a pool whose only task blocks past the shutdown deadline", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(testCapacity())
		release := make(chan struct{})
		started := make(chan struct{})
		pool := worker.NewPool(1, q, worker.ProcessorFunc(func(context.Context, model.Task) error {
			close(started)
			<-release
			return nil
		}))
		pool.Start(ctx)
		convey.So(q.Enqueue(ctx, model.Task{EffortID: "slow"}), convey.ShouldBeNil)
		<-started

		shutdownCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		err := pool.Shutdown(shutdownCtx)

		convey.Convey("Then shutdown reports the timeout", func() {
			convey.So(errors.Is(err, worker.ErrStopped), convey.ShouldBeTrue)
			convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
		})

		convey.Convey("Then results close once the worker finally returns", func() {
			close(release)
			n := 0
			closed := false
			timeout := time.After(2 * time.Second)
			for !closed {
				select {
				case _, ok := <-pool.Results():
					if !ok {
						closed = true
						continue
					}
					n++
				case <-timeout:
					convey.So(closed, convey.ShouldBeTrue)
					return
				}
			}
			convey.So(n, convey.ShouldEqual, 1)
		})

		// release a still blocked worker so goleak sees no stragglers
		select {
		case <-release:
		default:
			close(release)
			for range pool.Results() {
			}
		}
	})
}

func TestPoolShutdownWithoutStart(t *testing.T) {
	convey.Convey("Given a pool that was never started", t, func() {
		q := queue.NewInMemoryQueue()
		pool := worker.NewPool(2, q, worker.ProcessorFunc(func(context.Context, model.Task) error { return nil }))

		convey.Convey("Then shutdown closes results right away", func() {
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
			_, ok := <-pool.Results()
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}

func TestSingleWorker(t *testing.T) {
	convey.Convey("Given a standalone worker with a results sink", t, func() {
		q := queue.NewInMemoryQueue()
		sink := make(chan worker.Result, 1)
		w := worker.NewInMemoryWorker(q, worker.ProcessorFunc(func(context.Context, model.Task) error { return nil }),
			worker.WithName("solo"), worker.WithResults(sink))
		go w.Run(context.Background())

		convey.So(q.Enqueue(context.Background(), model.Task{EffortID: "e1"}), convey.ShouldBeNil)
		res := <-sink
		convey.So(res.Worker, convey.ShouldEqual, "solo")
		convey.So(res.Err, convey.ShouldBeNil)

		_ = q.Close()
		<-w.Done()
	})
}
