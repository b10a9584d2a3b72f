package digest

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/okian/kudosly/internal/domain/model"
)

const (
	quietWeekSummary   = "This week was quiet. Looking forward to your contributions next week!"
	defaultLearningWin = "Completed learning activity"
	highImpactScore    = 8
	maxTopRecognitions = 5
)

// WeekOf returns the Monday-to-Monday window containing t, in t's location.
func WeekOf(t time.Time) (start, end time.Time) {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	start = day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}

// Summary is the one-paragraph recap shown above the narrative.
func Summary(efforts []model.Effort, recognitions []model.Recognition) string {
	if len(efforts) == 0 {
		return quietWeekSummary
	}
	high := 0
	counts := map[model.Category]int{}
	for _, e := range efforts {
		if e.ImpactScore >= highImpactScore {
			high++
		}
		counts[categoryOf(e)]++
	}
	return fmt.Sprintf("This week you made %d contributions with %d high-impact efforts! "+
		"Your focus on %s demonstrates strong technical skills and dedication. "+
		"You earned %d recognitions for your outstanding work. Keep up the excellent momentum!",
		len(efforts), high, dominant(efforts, counts), len(recognitions))
}

// dominant picks the most frequent category; ties go to the first seen in
// taxonomy order, then input order.
func dominant(efforts []model.Effort, counts map[model.Category]int) model.Category {
	var best model.Category
	for _, g := range groupByCategory(efforts) {
		if best == "" || counts[g.category] > counts[best] {
			best = g.category
		}
	}
	return best
}

// TopRecognitions returns up to five recognition ids by descending score.
func TopRecognitions(recognitions []model.Recognition) []string {
	sorted := slices.Clone(recognitions)
	slices.SortStableFunc(sorted, func(a, b model.Recognition) int { return cmp.Compare(b.ImpactScore, a.ImpactScore) })
	out := make([]string, 0, min(len(sorted), maxTopRecognitions))
	for _, r := range sorted[:min(len(sorted), maxTopRecognitions)] {
		out = append(out, r.ID)
	}
	return out
}

// LearningWins lists the descriptions of learning efforts.
func LearningWins(efforts []model.Effort) []string {
	out := []string{}
	for _, e := range efforts {
		if e.Category != model.Learning {
			continue
		}
		if s, ok := e.Payload.Text("description"); ok {
			out = append(out, s)
		} else {
			out = append(out, defaultLearningWin)
		}
	}
	return out
}

// Build assembles the digest of one employee for [start, end).
func (n *Narrator) Build(employeeID string, start, end time.Time, efforts []model.Effort, recognitions []model.Recognition) (model.WeeklyDigest, error) {
	if !end.After(start) {
		return model.WeeklyDigest{}, fmt.Errorf("%w: %s..%s", ErrInvalidWindow, start, end)
	}
	nar, err := n.Narrate(efforts, recognitions)
	if err != nil {
		return model.WeeklyDigest{}, err
	}
	return model.WeeklyDigest{
		EmployeeID:         employeeID,
		WeekStart:          start.UTC(),
		WeekEnd:            end.UTC(),
		Summary:            Summary(efforts, recognitions),
		Narrative:          nar.Text,
		Metrics:            nar.Metrics,
		Highlights:         nar.Highlights,
		TopContributors:    nar.TopContributors,
		TopRecognitions:    TopRecognitions(recognitions),
		LearningWins:       LearningWins(efforts),
		CollaborationScore: CollaborationScore(efforts),
		TotalEfforts:       len(efforts),
		TotalRecognitions:  len(recognitions),
	}, nil
}
