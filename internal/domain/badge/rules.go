package badge

import (
	"fmt"
	"math"

	"github.com/okian/kudosly/internal/domain/model"
)

// requirement is one countable condition of a badge.
type requirement struct {
	have int
	need int
}

func (r requirement) met() bool { return r.have >= r.need }

// percent is have/need as an integer percentage. Thresholds of zero or less
// are always satisfied.
func (r requirement) percent() int {
	if r.need <= 0 || r.met() {
		return 100
	}
	return r.have * 100 / r.need
}

type rule func(efforts []model.Effort, c model.Criteria) []requirement

var rules = map[model.BadgeID]rule{
	model.CollaborationHero: func(efforts []model.Effort, c model.Criteria) []requirement {
		return []requirement{{count(efforts, model.Collaboration, 0), threshold(c, "minCollaborationEfforts", 10)}}
	},
	model.ProblemSolver: func(efforts []model.Effort, c model.Criteria) []requirement {
		minScore := c.Get("minImpactScore", 8)
		return []requirement{{count(efforts, model.BugFix, minScore), threshold(c, "minBugFixes", 5)}}
	},
	model.KnowledgeSharer: func(efforts []model.Effort, c model.Criteria) []requirement {
		return []requirement{
			{count(efforts, model.Mentoring, 0), threshold(c, "minMentoringEfforts", 5)},
			{count(efforts, model.CodeReview, 0), threshold(c, "minCodeReviews", 10)},
		}
	},
	model.ConsistencyChampion: func(efforts []model.Effort, c model.Criteria) []requirement {
		return []requirement{{len(efforts), threshold(c, "minDailyEfforts", 3) * 30}}
	},
	model.InnovationSpark: func(efforts []model.Effort, c model.Criteria) []requirement {
		minScore := c.Get("minImpactScore", 9)
		return []requirement{{count(efforts, model.FeatureWork, minScore), threshold(c, "minInnovativeFeatures", 3)}}
	},
	model.TeamPlayer: func(efforts []model.Effort, c model.Criteria) []requirement {
		return []requirement{{count(efforts, model.Collaboration, 0), threshold(c, "minTeamEfforts", 20)}}
	},
}

func init() { //nolint:gochecknoinits // every badge id needs a rule
	for _, id := range model.BadgeIDs {
		if _, ok := rules[id]; !ok {
			panic(fmt.Sprintf("badge: no rule for %q", id))
		}
	}
}

// HasRule reports whether id can be evaluated.
func HasRule(id model.BadgeID) bool {
	_, ok := rules[id]
	return ok
}

func count(efforts []model.Effort, c model.Category, minScore float64) int {
	n := 0
	for _, e := range efforts {
		if e.Category == c && float64(e.ImpactScore) >= minScore {
			n++
		}
	}
	return n
}

func threshold(c model.Criteria, name string, def float64) int {
	return int(math.Ceil(c.Get(name, def)))
}

// Check reports whether efforts satisfy b's criteria and the progress towards
// it: 100 when earned, otherwise at most 99. With several requirements the
// least advanced one sets the progress.
func Check(b model.Badge, efforts []model.Effort) (earned bool, progress int, err error) {
	r, ok := rules[b.ID]
	if !ok {
		return false, 0, fmt.Errorf("%w: %q", ErrUnknownBadge, b.ID)
	}
	reqs := r(efforts, b.Criteria)
	earned, progress = true, 100
	for _, req := range reqs {
		earned = earned && req.met()
		progress = min(progress, req.percent())
	}
	if earned {
		return true, model.EarnedProgress, nil
	}
	return false, min(progress, model.EarnedProgress-1), nil
}
