package service

import (
	"time"

	"github.com/okian/kudosly/internal/domain/classify"
	"github.com/okian/kudosly/internal/domain/digest"
	"github.com/okian/kudosly/internal/domain/recognition"
	"github.com/okian/kudosly/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore uses an already opened store. The service does not close it.
func WithStore(st Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithDatabasePath sets the SQLite file opened by Start when no store is given.
func WithDatabasePath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.databasePath = path
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the task queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupe configures webhook delivery dedupe.
func WithDedupe(size int, ttl time.Duration) Option {
	return func(s *Service) {
		s.dedupeSize = size
		if ttl > 0 {
			s.dedupeTTL = ttl
		}
	}
}

// WithDirectoryCacheTTL sets how long email lookups are cached.
func WithDirectoryCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.directoryCacheTTL = ttl
		}
	}
}

// WithTestSource enables the "test" webhook source.
func WithTestSource(enabled bool) Option {
	return func(s *Service) {
		s.allowTestSource = enabled
	}
}

// WithThresholds sets the minimum scores for recognition and the badge shortcut.
func WithThresholds(recognitionMin, badgeMin int) Option {
	return func(s *Service) {
		if recognitionMin > 0 {
			s.recognitionThreshold = recognitionMin
		}
		if badgeMin > 0 {
			s.badgeThreshold = badgeMin
		}
	}
}

// WithFullBadgeEvaluation re-evaluates every badge rule after each effort.
func WithFullBadgeEvaluation(enabled bool) Option {
	return func(s *Service) {
		s.fullBadgeEvaluation = enabled
	}
}

// WithAssistant enables a classification assistant.
func WithAssistant(a classify.Assistant) Option {
	return func(s *Service) {
		s.assistant = a
	}
}

// WithDigestConcurrency bounds parallel digest generation.
func WithDigestConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.digestConcurrency = n
		}
	}
}

// WithDigestSchedule runs the weekly digest at weekday and hour, UTC.
func WithDigestSchedule(weekday time.Weekday, hour int) Option {
	return func(s *Service) {
		s.schedule = &Schedule{Weekday: weekday, Hour: hour}
	}
}

// WithPickers injects the random sources of message and narrative selection.
func WithPickers(r recognition.Picker, d digest.Picker) Option {
	return func(s *Service) {
		s.recognitionPicker = r
		s.digestPicker = d
	}
}

// WithStopTimeout bounds how long Stop waits for in-flight tasks.
func WithStopTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.stopTimeout = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
