package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/kudosly/internal/adapters/repository"
	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/pkg/logger"
	"github.com/okian/kudosly/pkg/metrics"
)

// SeenAndRecord reports whether a webhook delivery id was already accepted,
// recording it when it was not.
func (s *Service) SeenAndRecord(ctx context.Context, source model.Source, deliveryID string) bool {
	if s.ready() != nil {
		return false
	}
	seen := s.deduper.SeenAndRecord(ctx, string(source)+":"+deliveryID)
	if seen {
		metrics.RecordWebhookDuplicate(sourceLabel(source))
	}
	return seen
}

// Unrecord forgets a delivery id so the sender's retry is accepted.
func (s *Service) Unrecord(ctx context.Context, source model.Source, deliveryID string) {
	if s.ready() != nil {
		return
	}
	s.deduper.Unrecord(ctx, string(source)+":"+deliveryID)
}

// Ingest normalizes payload, persists the draft effort and queues it. Once the
// effort is stored the call succeeds even if the queue is full; the effort is
// picked up again by the resume scan or a reprocess request.
func (s *Service) Ingest(ctx context.Context, source model.Source, payload model.Payload) (model.Effort, error) {
	if err := s.ready(); err != nil {
		return model.Effort{}, err
	}
	label := sourceLabel(source)
	e, err := s.normalizer.Normalize(ctx, source, payload)
	if err != nil {
		metrics.RecordWebhook(label, "rejected")
		return model.Effort{}, err
	}
	if err := s.store.CreateEffort(ctx, &e); err != nil {
		metrics.RecordWebhook(label, "failed")
		return model.Effort{}, fmt.Errorf("persist effort: %w", err)
	}
	metrics.RecordWebhook(label, "accepted")
	metrics.RecordEffortIngested(label)

	if err := s.queue.Enqueue(ctx, model.Task{EffortID: e.ID, EnqueuedAt: s.now()}); err != nil {
		metrics.RecordStageFailure("enqueue")
		s.logger.Warn(ctx, "effort stored but not queued",
			logger.String("effort_id", e.ID), logger.Error(err))
	}
	s.logger.Debug(ctx, "effort ingested",
		logger.String("effort_id", e.ID),
		logger.String("source", string(source)),
		logger.String("employee_id", e.EmployeeID))
	return e, nil
}

// Reprocess queues a stored effort again. With reclassify the stored category
// is dropped so keyword rules decide afresh.
func (s *Service) Reprocess(ctx context.Context, effortID string, reclassify bool) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.store.FindEffort(ctx, effortID); err != nil {
		return mapNotFound(err)
	}
	err := s.queue.Enqueue(ctx, model.Task{EffortID: effortID, Reclassify: reclassify, EnqueuedAt: s.now()})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrQueueFull, err)
	}
	return nil
}

// Process runs classification, scoring, recognition and badge evaluation for
// one task. Classification and scoring never fail; later stages are attempted
// independently and their failures joined.
func (s *Service) Process(ctx context.Context, t model.Task) error {
	start := time.Now()
	defer func() {
		metrics.RecordPipelineLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	e, err := s.store.FindEffort(ctx, t.EffortID)
	if err != nil {
		metrics.RecordStageFailure(string(StageLoad))
		return stageErr(StageLoad, t.EffortID, err)
	}
	if t.Reclassify {
		e.Category = ""
	}

	category, method := s.classifier.Classify(ctx, e)
	e.Category = category
	metrics.RecordClassification(string(category), string(method))

	e.ImpactScore = s.scorer.Score(e)
	metrics.RecordImpactScore(e.ImpactScore)

	if err := s.store.UpdateEffort(ctx, &e); err != nil {
		metrics.RecordStageFailure(string(StagePersist))
		return stageErr(StagePersist, e.ID, err)
	}
	metrics.RecordEffortProcessed()

	var errs []error
	if e.ImpactScore >= s.recognitionThreshold {
		if err := s.recognize(ctx, e); err != nil {
			metrics.RecordStageFailure(string(StageRecognize))
			errs = append(errs, stageErr(StageRecognize, e.ID, err))
		}
	}
	if e.EmployeeID != "" && e.ImpactScore >= s.badgeThreshold {
		award, created, err := s.evaluator.AwardForEffort(ctx, e)
		switch {
		case err != nil:
			metrics.RecordStageFailure(string(StageBadge))
			errs = append(errs, stageErr(StageBadge, e.ID, err))
		case award != nil:
			metrics.RecordBadgeAward(string(award.BadgeID), created)
		}
	}
	if s.fullBadgeEvaluation && e.EmployeeID != "" {
		awarded, err := s.evaluator.Evaluate(ctx, e.EmployeeID)
		for _, a := range awarded {
			metrics.RecordBadgeAward(string(a.BadgeID), true)
		}
		if err != nil {
			metrics.RecordStageFailure(string(StageEvaluate))
			errs = append(errs, stageErr(StageEvaluate, e.ID, err))
		}
	}

	s.logger.Debug(ctx, "effort processed",
		logger.String("effort_id", e.ID),
		logger.String("category", string(e.Category)),
		logger.String("method", string(method)),
		logger.Int("impact_score", e.ImpactScore))
	return errors.Join(errs...)
}

// recognize stores a recognition unless the effort already has one.
func (s *Service) recognize(ctx context.Context, e model.Effort) error {
	if _, found, err := s.store.FindRecognitionByEffort(ctx, e.ID); err != nil {
		return err
	} else if found {
		return nil
	}
	r, err := s.generator.Generate(ctx, e)
	if err != nil {
		return err
	}
	if err := s.store.CreateRecognition(ctx, &r); err != nil {
		return err
	}
	metrics.RecordRecognition(string(r.Category))
	return nil
}

// sourceLabel bounds the source metric label to the known tags.
func sourceLabel(source model.Source) string {
	return string(model.ParseSource(string(source)))
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
