package service

import (
	"errors"
	"fmt"
)

// Sentinel kinds returned to the HTTP layer.
var (
	ErrNotStarted = errors.New("service not started")
	ErrQueueFull  = errors.New("pipeline queue full")
	ErrNotFound   = errors.New("not found")
)

// Stage names a step of the effort pipeline.
type Stage string

const (
	StageLoad      Stage = "load"
	StageClassify  Stage = "classify"
	StageScore     Stage = "score"
	StagePersist   Stage = "persist"
	StageRecognize Stage = "recognize"
	StageBadge     Stage = "badge"
	StageEvaluate  Stage = "evaluate"
)

// StageError reports the pipeline step that failed for an effort.
type StageError struct {
	Stage    Stage
	EffortID string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed for effort %s: %v", e.Stage, e.EffortID, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage Stage, effortID string, err error) error {
	return &StageError{Stage: stage, EffortID: effortID, Err: err}
}
