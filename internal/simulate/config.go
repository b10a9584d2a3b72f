// Package simulate generates signed synthetic webhooks and submits them to a
// running Kudosly server.
package simulate

import (
	"encoding/json"
	"time"

	"github.com/okian/kudosly/internal/domain/model"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL        string                  // Base URL of the service
	Deliveries     int                     // Number of webhooks to generate
	Employees      int                     // Size of the synthetic team
	Workers        int                     // Concurrent submitters
	DuplicateRatio float64                 // Share of deliveries sent twice
	Timeout        time.Duration           // HTTP request timeout
	Seed           uint64                  // Generator seed; equal seeds give equal runs
	Secrets        map[model.Source]string // Signing secrets per source
	OutputFile     string                  // Optional JSON dump of the deliveries
	SkipDirectory  bool                    // Do not register the team before submitting
}

// Delivery is one webhook as it goes over the wire.
type Delivery struct {
	ID      string          `json:"id"`
	Source  model.Source    `json:"source"`
	Payload json.RawMessage `json:"payload"`
}

// Stats summarizes a run.
type Stats struct {
	Generated  int           `json:"generated"`
	Submitted  int           `json:"submitted"`
	Accepted   int           `json:"accepted"`
	Duplicate  int           `json:"duplicate"`
	Rejected   int           `json:"rejected"`
	Failed     int           `json:"failed"`
	Registered int           `json:"registered"`
	Duration   time.Duration `json:"duration"`
}
