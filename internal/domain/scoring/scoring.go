// Package scoring rates the impact of a classified effort on a 1-10 scale.
package scoring

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okian/kudosly/internal/domain/model"
)

// NeutralScore is returned when analysis fails.
const NeutralScore = 5

// Bonus caps.
const (
	maxComplexity = 3
	maxScope      = 2
	maxQuality    = 2
)

// PR metadata thresholds.
const (
	largeAdditions    = 500
	largeDeletions    = 200
	wideChangedFiles  = 5
	busyReviewComment = 3
)

var baseScores = map[model.Category]int{
	model.BugFix:        5,
	model.FeatureWork:   7,
	model.CodeReview:    4,
	model.Collaboration: 3,
	model.Mentoring:     6,
	model.Learning:      2,
}

func init() { //nolint:gochecknoinits // table completeness check
	for _, c := range model.Categories {
		if _, ok := baseScores[c]; !ok {
			panic(fmt.Sprintf("scoring: no base score for category %q", c))
		}
	}
}

// BaseScore returns the base score of c, NeutralScore for unknown categories.
func BaseScore(c model.Category) int {
	if s, ok := baseScores[c]; ok {
		return s
	}
	return NeutralScore
}

// Breakdown exposes how a score was composed.
type Breakdown struct {
	Category   model.Category `json:"effortType"`
	Base       int            `json:"baseScore"`
	Complexity int            `json:"complexityBonus"`
	Scope      int            `json:"scopeBonus"`
	Quality    int            `json:"qualityBonus"`
	Total      int            `json:"totalScore"`
}

// Scorer computes impact scores.
type Scorer interface {
	Score(e model.Effort) int
	Breakdown(e model.Effort) (Breakdown, error)
}

// ImpactScorer is the heuristic Scorer. The zero value is ready to use.
type ImpactScorer struct{}

// New returns an ImpactScorer.
func New() *ImpactScorer { return &ImpactScorer{} }

// Score returns clamp(base+bonuses, 1, 10), or NeutralScore if the payload
// cannot be analysed.
func (s *ImpactScorer) Score(e model.Effort) int {
	b, err := s.Breakdown(e)
	if err != nil {
		return NeutralScore
	}
	return b.Total
}

// Breakdown scores e and reports each component.
func (s *ImpactScorer) Breakdown(e model.Effort) (Breakdown, error) {
	raw, err := json.Marshal(e.Payload)
	if err != nil {
		return Breakdown{}, fmt.Errorf("serialize payload: %w", err)
	}
	sig := signals{text: strings.ToLower(string(raw))}
	if err := sig.readPR(e.Payload); err != nil {
		return Breakdown{}, err
	}

	b := Breakdown{
		Category:   e.Category,
		Base:       BaseScore(e.Category),
		Complexity: min(sig.complexity(), maxComplexity),
		Scope:      min(sig.scope(), maxScope),
		Quality:    min(sig.quality(), maxQuality),
	}
	b.Total = clamp(b.Base+b.Complexity+b.Scope+b.Quality, model.MinImpactScore, model.MaxImpactScore)
	return b, nil
}

type signals struct {
	text           string
	additions      float64
	deletions      float64
	changedFiles   float64
	reviewComments float64
	merged         bool
}

func (s *signals) readPR(p model.Payload) error {
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"additions", &s.additions},
		{"deletions", &s.deletions},
		{"changed_files", &s.changedFiles},
		{"review_comments", &s.reviewComments},
	} {
		n, _, err := p.Number("pull_request", f.key)
		if err != nil {
			return fmt.Errorf("pull request %s: %w", f.key, err)
		}
		*f.dst = n
	}
	merged, _, err := p.Bool("pull_request", "merged")
	if err != nil {
		return fmt.Errorf("pull request merged: %w", err)
	}
	s.merged = merged
	return nil
}

func (s *signals) has(words ...string) bool {
	for _, w := range words {
		if strings.Contains(s.text, w) {
			return true
		}
	}
	return false
}

func (s *signals) complexity() int {
	n := 0
	for _, group := range [][]string{
		{"refactor", "architecture"},
		{"performance", "optimization"},
		{"security", "vulnerability"},
		{"database", "migration"},
	} {
		if s.has(group...) {
			n += 2
		}
	}
	if s.additions > largeAdditions {
		n++
	}
	if s.deletions > largeDeletions {
		n++
	}
	return n
}

func (s *signals) scope() int {
	n := 0
	if s.has("api", "endpoint") {
		n++
	}
	if s.has("multiple", "several") {
		n++
	}
	if s.has("cross-", "team") {
		n++
	}
	if s.has("breaking", "migration") {
		n += 2
	}
	if s.changedFiles > wideChangedFiles {
		n++
	}
	return n
}

func (s *signals) quality() int {
	n := 0
	if s.has("test", "testing") {
		n++
	}
	if s.has("documentation", "doc") {
		n++
	}
	if s.has("approved") {
		n++
	}
	if s.has("merged") {
		n++
	}
	if s.reviewComments > busyReviewComment {
		n++
	}
	if s.merged {
		n++
	}
	return n
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
