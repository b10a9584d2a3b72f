package model

import "time"

// Task asks a worker to run the pipeline for one persisted effort.
type Task struct {
	EffortID string
	// Reclassify drops the stored category before classification.
	Reclassify bool
	EnqueuedAt time.Time
}
