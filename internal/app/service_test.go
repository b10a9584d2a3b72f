package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/okian/kudosly/internal/adapters/repository"
	service "github.com/okian/kudosly/internal/app"
	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

type firstPicker struct{}

func (firstPicker) Intn(int) int { return 0 }

func newService(opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithDatabasePath(repository.MemoryPath),
		service.WithWorkerCount(2),
		service.WithQueueSize(100),
		service.WithTestSource(true),
		service.WithPickers(firstPicker{}, firstPicker{}),
	}
	return service.New(append(base, opts...)...)
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it reports sensible defaults before start", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats(context.Background())
			So(stats["started"], ShouldBeFalse)
			So(stats["queueSize"], ShouldEqual, 10_000)
			So(stats["dedupeSize"], ShouldEqual, 100_000)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithDedupe(25_000, time.Hour),
		)

		Convey("Then the options are applied", func() {
			stats := svc.GetStats(context.Background())
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 50_000)
			So(stats["dedupeSize"], ShouldEqual, 25_000)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := newService()
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)

			Convey("Then it starts and seeds the badge catalog", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats(ctx)["started"], ShouldBeTrue)
				So(svc.Ping(ctx), ShouldBeNil)

				badges, err := svc.Badges(ctx)
				So(err, ShouldBeNil)
				So(badges, ShouldHaveLength, len(model.BadgeIDs))
			})

			Convey("And starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_NotStarted(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := newService()
		ctx := context.Background()

		Convey("Then every operation reports ErrNotStarted", func() {
			_, err := svc.Ingest(ctx, model.SourceTest, model.Payload{})
			So(err, ShouldEqual, service.ErrNotStarted)
			So(svc.Reprocess(ctx, "x", false), ShouldEqual, service.ErrNotStarted)
			_, err = svc.Effort(ctx, "x")
			So(err, ShouldEqual, service.ErrNotStarted)
			_, err = svc.Feed(ctx, 10)
			So(err, ShouldEqual, service.ErrNotStarted)
			_, err = svc.Badges(ctx)
			So(err, ShouldEqual, service.ErrNotStarted)
			_, err = svc.LatestDigest(ctx, "x")
			So(err, ShouldEqual, service.ErrNotStarted)
			So(svc.Ping(ctx), ShouldEqual, service.ErrNotStarted)
		})

		Convey("And Stop is safe", func() {
			So(func() { svc.Stop() }, ShouldNotPanic)
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newService()
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When it is stopped twice", func() {
			svc.Stop()
			svc.Stop()

			Convey("Then it is no longer started", func() {
				So(svc.GetStats(ctx)["started"], ShouldBeFalse)
				So(svc.Ping(ctx), ShouldEqual, service.ErrNotStarted)
			})
		})
	})
}

// stallingStore blocks FindEffort until released.
type stallingStore struct {
	*repository.Store
	entered chan struct{}
	once    sync.Once
	release chan struct{}
}

func (s *stallingStore) FindEffort(ctx context.Context, id string) (model.Effort, error) {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return s.Store.FindEffort(ctx, id)
}

func TestService_StopWithStuckWorker(t *testing.T) {
	Convey("Given a started service whose worker is stuck in the store", t, func() {
		ctx := context.Background()
		st, err := repository.Open(ctx, repository.MemoryPath)
		So(err, ShouldBeNil)
		defer st.Close()
		store := &stallingStore{Store: st, entered: make(chan struct{}), release: make(chan struct{})}
		defer close(store.release)

		svc := newService(service.WithStore(store), service.WithStopTimeout(50*time.Millisecond))
		So(svc.Start(ctx), ShouldBeNil)
		_, err = svc.Ingest(ctx, model.SourceTest, model.Payload{"employeeId": "emp-1", "description": "fix crash"})
		So(err, ShouldBeNil)

		select {
		case <-store.entered:
		case <-time.After(5 * time.Second):
		}

		Convey("When the service is stopped", func() {
			stopped := make(chan struct{})
			go func() {
				svc.Stop()
				close(stopped)
			}()

			Convey("Then Stop returns after its timeout instead of waiting for the worker", func() {
				returned := false
				select {
				case <-stopped:
					returned = true
				case <-time.After(5 * time.Second):
				}
				So(returned, ShouldBeTrue)
				So(svc.GetStats(ctx)["started"], ShouldBeFalse)
			})
		})
	})
}
