// Package digest aggregates a window of efforts and recognitions into a
// narrative weekly summary.
package digest

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/okian/kudosly/internal/domain/model"
)

// Narrative limits.
const (
	examplesPerGroup   = 3
	maxRecognitions    = 5
	maxHighlights      = 5
	maxTopContributors = 5
	highlightScore     = 8
)

// unclassified groups efforts the pipeline has not categorised yet.
const unclassified model.Category = "unclassified"

// Picker chooses an index in [0, n).
type Picker interface {
	Intn(n int) int
}

type globalPicker struct{}

func (globalPicker) Intn(n int) int { return rand.IntN(n) }

// Narrative is the rendered digest body.
type Narrative struct {
	Text            string
	Highlights      []string
	Metrics         model.DigestMetrics
	TopContributors []string
}

// Narrator renders narratives.
type Narrator struct {
	picker Picker
}

// NewNarrator returns a Narrator; a nil picker uses the global source.
func NewNarrator(p Picker) *Narrator {
	if p == nil {
		p = globalPicker{}
	}
	return &Narrator{picker: p}
}

// Narrate renders efforts and recognitions. Any corrupt input fails the whole
// narrative; nothing partial is returned.
func (n *Narrator) Narrate(efforts []model.Effort, recognitions []model.Recognition) (*Narrative, error) {
	for _, e := range efforts {
		if e.ImpactScore < 0 || e.ImpactScore > model.MaxImpactScore {
			return nil, fmt.Errorf("%w: effort %s has score %d", ErrCorruptEffort, e.ID, e.ImpactScore)
		}
	}

	opener, err := n.pick(openers)
	if err != nil {
		return nil, err
	}
	closer, err := n.pick(closers)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(opener)
	b.WriteString("\n\n")

	for _, g := range groupByCategory(efforts) {
		intro, err := n.pick(Intros(g.category))
		if err != nil {
			return nil, err
		}
		b.WriteString("**" + intro + "**\n")
		for _, e := range g.efforts[:min(len(g.efforts), examplesPerGroup)] {
			b.WriteString("- " + e.Payload.Describe() + "\n")
		}
		if extra := len(g.efforts) - examplesPerGroup; extra > 0 {
			b.WriteString("- Plus " + strconv.Itoa(extra) + " more\n")
		}
		b.WriteString("\n")
	}

	if len(recognitions) > 0 {
		b.WriteString("**Recognition highlights:**\n")
		for _, r := range recognitions[:min(len(recognitions), maxRecognitions)] {
			b.WriteString("- " + r.Message + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(closer)

	return &Narrative{
		Text:            b.String(),
		Highlights:      Highlights(recognitions),
		Metrics:         Metrics(efforts, recognitions),
		TopContributors: TopContributors(efforts),
	}, nil
}

func (n *Narrator) pick(pool []string) (string, error) {
	i := n.picker.Intn(len(pool))
	if i < 0 || i >= len(pool) {
		return "", fmt.Errorf("digest: picker returned %d of %d", i, len(pool))
	}
	return pool[i], nil
}

type group struct {
	category model.Category
	efforts  []model.Effort
}

// groupByCategory orders taxonomy groups first, then other categories in
// first-seen order.
func groupByCategory(efforts []model.Effort) []group {
	byCat := map[model.Category][]model.Effort{}
	var extra []model.Category
	for _, e := range efforts {
		c := categoryOf(e)
		if _, seen := byCat[c]; !seen && !c.Valid() {
			extra = append(extra, c)
		}
		byCat[c] = append(byCat[c], e)
	}

	var out []group
	for _, c := range append(slices.Clone(model.Categories), extra...) {
		if list, ok := byCat[c]; ok {
			out = append(out, group{category: c, efforts: list})
		}
	}
	return out
}

func categoryOf(e model.Effort) model.Category {
	if e.Category == "" {
		return unclassified
	}
	return e.Category
}

// Highlights returns messages of recognitions scored 8 or more, at most five.
func Highlights(recognitions []model.Recognition) []string {
	out := []string{}
	for _, r := range recognitions {
		if len(out) == maxHighlights {
			break
		}
		if r.ImpactScore >= highlightScore {
			out = append(out, r.Message)
		}
	}
	return out
}

// Metrics computes the digest numbers. Unscored efforts are left out of the
// average; unresolved identities are not counted as contributors.
func Metrics(efforts []model.Effort, recognitions []model.Recognition) model.DigestMetrics {
	m := model.DigestMetrics{EffortTypeBreakdown: map[model.Category]int{}}
	var sum, scored int
	people := map[string]struct{}{}
	for _, e := range efforts {
		m.EffortTypeBreakdown[categoryOf(e)]++
		if e.Scored() {
			sum += e.ImpactScore
			scored++
		}
		if e.EmployeeID != "" {
			people[e.EmployeeID] = struct{}{}
		}
	}
	if scored > 0 {
		m.AverageImpactScore = round1(float64(sum) / float64(scored))
	}
	m.RecognitionRate = round1(float64(len(recognitions)) * 100 / float64(max(1, len(efforts))))
	m.ActiveContributors = len(people)
	return m
}

// TopContributors returns up to five employees by effort count, ties kept in
// first-appearance order.
func TopContributors(efforts []model.Effort) []string {
	counts := map[string]int{}
	var order []string
	for _, e := range efforts {
		if e.EmployeeID == "" {
			continue
		}
		if _, ok := counts[e.EmployeeID]; !ok {
			order = append(order, e.EmployeeID)
		}
		counts[e.EmployeeID]++
	}
	slices.SortStableFunc(order, func(a, b string) int { return cmp.Compare(counts[b], counts[a]) })
	if order == nil {
		return []string{}
	}
	return order[:min(len(order), maxTopContributors)]
}

// CollaborationScore is the share of collaboration, code-review and mentoring
// efforts scaled to 0-10.
func CollaborationScore(efforts []model.Effort) float64 {
	if len(efforts) == 0 {
		return 0
	}
	n := 0
	for _, e := range efforts {
		switch e.Category {
		case model.Collaboration, model.CodeReview, model.Mentoring:
			n++
		}
	}
	return math.Min(10, float64(n)/float64(len(efforts))*20)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// PersonalizedIntro renders a team greeting with the week's totals.
func PersonalizedIntro(team string, efforts, recognitions int) string {
	return fmt.Sprintf("Hi %s team! 🎉\n\nThis week was awesome! Here's what happened:\n- %d efforts logged\n- %d recognitions given\n\nLet's dive in!\n\n",
		team, efforts, recognitions)
}

// CategorySection renders every effort of one category with its impact.
func (n *Narrator) CategorySection(c model.Category, efforts []model.Effort) (string, error) {
	intro, err := n.pick(Intros(c))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("**" + intro + "**\n")
	for _, e := range efforts {
		b.WriteString("- " + e.Payload.Describe())
		if e.Scored() {
			fmt.Fprintf(&b, " (Impact: %d/10)", e.ImpactScore)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// MetricsSummary renders metrics as a markdown block.
func MetricsSummary(m model.DigestMetrics) string {
	return fmt.Sprintf("\n**Weekly Metrics:**\n- Average Impact Score: %.1f/10\n- Recognition Rate: %.1f%%\n- Active Contributors: %d\n",
		m.AverageImpactScore, m.RecognitionRate, m.ActiveContributors)
}
