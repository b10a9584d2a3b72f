package service

import (
	"context"
	"time"

	"github.com/okian/kudosly/pkg/logger"
	"github.com/okian/kudosly/pkg/metrics"
)

// Schedule is the weekly slot for automatic digest generation, in UTC.
type Schedule struct {
	Weekday time.Weekday
	Hour    int
}

// nextRun returns the first slot strictly after now.
func nextRun(now time.Time, sched Schedule) time.Time {
	now = now.UTC()
	days := (int(sched.Weekday) - int(now.Weekday()) + 7) % 7
	next := time.Date(now.Year(), now.Month(), now.Day()+days, sched.Hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// runSchedule generates the weekly digests at every slot until Stop.
func (s *Service) runSchedule(sched Schedule) {
	defer s.bg.Done()
	ctx := context.Background()

	for {
		at := nextRun(s.now(), sched)
		s.logger.Info(ctx, "next digest run scheduled", logger.Time("at", at))
		timer := time.NewTimer(at.Sub(s.now()))
		select {
		case <-s.stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}

		start := time.Now()
		done, err := s.digests.RunWeekly(ctx, s.now())
		if err != nil {
			metrics.RecordErrorByComponent("scheduler", "digest")
			s.logger.Error(ctx, "weekly digest run incomplete", logger.Int("generated", done), logger.Error(err))
			continue
		}
		s.logger.Info(ctx, "weekly digest run finished",
			logger.Int("generated", done),
			logger.Duration("took", time.Since(start)),
		)
	}
}
