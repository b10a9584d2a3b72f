// Package service wires the effort pipeline together and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/kudosly/internal/adapters/mq/queue"
	"github.com/okian/kudosly/internal/adapters/mq/worker"
	"github.com/okian/kudosly/internal/adapters/repository"
	"github.com/okian/kudosly/internal/domain/badge"
	"github.com/okian/kudosly/internal/domain/classify"
	"github.com/okian/kudosly/internal/domain/dedupe"
	"github.com/okian/kudosly/internal/domain/digest"
	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/internal/domain/normalize"
	"github.com/okian/kudosly/internal/domain/recognition"
	"github.com/okian/kudosly/internal/domain/scoring"
	"github.com/okian/kudosly/pkg/logger"
	"github.com/okian/kudosly/pkg/metrics"
)

const (
	failureLogSize        = 100
	systemMetricsInterval = 15 * time.Second
	defaultStopTimeout    = 30 * time.Second
)

// Store is the persistence the service needs. *repository.Store implements it.
type Store interface {
	badge.Store
	digest.Store
	normalize.Directory

	CreateEffort(ctx context.Context, e *model.Effort) error
	UpdateEffort(ctx context.Context, e *model.Effort) error
	FindEffort(ctx context.Context, id string) (model.Effort, error)
	ListEfforts(ctx context.Context, f repository.EffortFilter) ([]model.Effort, error)
	UnscoredEffortIDs(ctx context.Context) ([]string, error)
	EffortStats(ctx context.Context, employeeID string) (repository.EffortStats, error)

	CreateRecognition(ctx context.Context, r *model.Recognition) error
	FindRecognition(ctx context.Context, id string) (model.Recognition, error)
	FindRecognitionByEffort(ctx context.Context, effortID string) (model.Recognition, bool, error)
	RecognitionsByEmployee(ctx context.Context, employeeID string, limit int) ([]model.Recognition, error)
	RecentRecognitions(ctx context.Context, limit int) ([]model.Recognition, error)
	CountRecognitions(ctx context.Context) (int64, error)

	SeedBadges(ctx context.Context, badges []model.Badge) error
	AwardsByEmployee(ctx context.Context, employeeID string) ([]model.BadgeAward, error)

	CreateEmployee(ctx context.Context, e *model.Employee) error
	FindEmployee(ctx context.Context, id string) (model.Employee, error)

	LatestDigest(ctx context.Context, employeeID string) (model.WeeklyDigest, error)
	ListDigests(ctx context.Context, limit int) ([]model.WeeklyDigest, error)

	Ping(ctx context.Context) error
	Close() error
}

// Service runs the effort-to-recognition pipeline.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      Store
	ownsStore  bool
	deduper    dedupe.Deduper
	queue      queue.Queue
	pool       *worker.Pool
	normalizer *normalize.Normalizer
	classifier *classify.Classifier
	scorer     scoring.Scorer
	generator  *recognition.Generator
	evaluator  *badge.Evaluator
	digests    *digest.Service
	failures   *failureLog

	// Configuration
	databasePath         string
	workerCount          int
	queueSize            int
	dedupeSize           int
	dedupeTTL            time.Duration
	directoryCacheTTL    time.Duration
	allowTestSource      bool
	recognitionThreshold int
	badgeThreshold       int
	fullBadgeEvaluation  bool
	assistant            classify.Assistant
	digestConcurrency    int
	schedule             *Schedule
	recognitionPicker    recognition.Picker
	digestPicker         digest.Picker
	stopTimeout          time.Duration
	now                  func() time.Time

	// State
	started   bool
	startedAt time.Time
	stopCh    chan struct{}
	bg        sync.WaitGroup

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		databasePath:         repository.MemoryPath,
		workerCount:          runtime.NumCPU(),
		queueSize:            10_000,
		dedupeSize:           100_000,
		dedupeTTL:            24 * time.Hour,
		directoryCacheTTL:    5 * time.Minute,
		recognitionThreshold: 5,
		badgeThreshold:       7,
		digestConcurrency:    4,
		stopTimeout:          defaultStopTimeout,
		now:                  time.Now,
		stopCh:               make(chan struct{}),
		failures:             newFailureLog(failureLogSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store, seeds badges, starts the worker pool and re-queues
// efforts left unscored by a previous run.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting kudosly service...")

	if s.store == nil {
		st, err := repository.Open(ctx, s.databasePath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store, s.ownsStore = st, true
	}

	catalog, err := badge.Catalog()
	if err != nil {
		return fmt.Errorf("load badge catalog: %w", err)
	}
	if err := s.store.SeedBadges(ctx, catalog); err != nil {
		return err
	}

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
		dedupe.WithTTL(s.dedupeTTL),
	)
	s.normalizer = normalize.New(
		normalize.WithDirectory(repository.NewCachedDirectory(s.store, s.directoryCacheTTL)),
		normalize.WithTestSource(s.allowTestSource),
		normalize.WithClock(s.now),
	)
	classifierOpts := []classify.Option{}
	if s.assistant != nil {
		classifierOpts = append(classifierOpts, classify.WithAssistant(s.assistant))
	}
	s.classifier = classify.New(classifierOpts...)
	s.scorer = scoring.New()
	genOpts := []recognition.Option{recognition.WithClock(s.now)}
	if s.recognitionPicker != nil {
		genOpts = append(genOpts, recognition.WithPicker(s.recognitionPicker))
	}
	s.generator = recognition.New(genOpts...)
	s.evaluator = badge.NewEvaluator(s.store, badge.WithClock(s.now))
	s.digests = digest.NewService(s.store,
		digest.WithConcurrency(s.digestConcurrency),
		digest.WithNarrator(digest.NewNarrator(s.digestPicker)),
		digest.WithServiceClock(s.now),
	)

	q := queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.queue = q
	s.pool = worker.NewPool(s.workerCount, q, worker.ProcessorFunc(s.Process))
	s.pool.Start(context.WithoutCancel(ctx))

	s.stopCh = make(chan struct{})
	s.bg.Add(2)
	go s.drainResults()
	go s.updateSystemMetrics()
	if s.schedule != nil {
		s.bg.Add(1)
		go s.runSchedule(*s.schedule)
	}

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "kudosly service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("assistant", s.assistant != nil),
	)

	s.resume(ctx)
	return nil
}

// resume queues unscored efforts. Overflow is logged; those efforts stay
// unscored until the next start or a manual reprocess.
func (s *Service) resume(ctx context.Context) {
	ids, err := s.store.UnscoredEffortIDs(ctx)
	if err != nil {
		s.logger.Error(ctx, "resume scan failed", logger.Error(err))
		return
	}
	queued := 0
	for _, id := range ids {
		if err := s.queue.Enqueue(ctx, model.Task{EffortID: id, EnqueuedAt: s.now()}); err != nil {
			s.logger.Warn(ctx, "resume stopped early", logger.Int("queued", queued), logger.Int("pending", len(ids)), logger.Error(err))
			return
		}
		queued++
	}
	if queued > 0 {
		s.logger.Info(ctx, "resumed unscored efforts", logger.Int("queued", queued))
	}
}

// Stop drains the queue, stops background loops and closes an owned store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.stopTimeout)
	defer cancel()
	s.logger.Info(ctx, "stopping kudosly service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "worker pool shutdown", logger.Error(err))
	}
	close(s.stopCh)
	s.bg.Wait()

	if s.ownsStore {
		if err := s.store.Close(); err != nil {
			s.logger.Error(ctx, "close store", logger.Error(err))
		}
		s.store = nil
	}
	s.started = false
	s.logger.Info(ctx, "kudosly service stopped")
}

// drainResults turns pool results into failure log entries and metrics. It
// returns when the pool closes Results or, after Stop, once the buffered
// results are consumed, so a stuck worker cannot hold up Stop.
func (s *Service) drainResults() {
	defer s.bg.Done()
	ctx := context.Background()
	results := s.pool.Results()
	for {
		select {
		case res, ok := <-results:
			if !ok {
				return
			}
			s.recordResult(ctx, res)
		case <-s.stopCh:
			for {
				select {
				case res, ok := <-results:
					if !ok {
						return
					}
					s.recordResult(ctx, res)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) recordResult(ctx context.Context, res worker.Result) {
	if res.Err == nil {
		return
	}
	stage := Stage("unknown")
	var se *StageError
	if errors.As(res.Err, &se) {
		stage = se.Stage
	}
	s.failures.add(Failure{
		EffortID: res.Task.EffortID,
		Stage:    stage,
		Worker:   res.Worker,
		Error:    res.Err.Error(),
		At:       s.now().UTC(),
	})
	s.logger.Debug(ctx, "pipeline failure recorded", logger.String("effort_id", res.Task.EffortID), logger.String("stage", string(stage)))
}

func (s *Service) updateSystemMetrics() {
	defer s.bg.Done()
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	var last uint32
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
			if m.NumGC > last {
				metrics.RecordSystemGCPauseTime(float64(m.PauseNs[(m.NumGC+255)%256]) / 1e6)
				last = m.NumGC
			}
		}
	}
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}
