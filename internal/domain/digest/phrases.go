package digest

import "github.com/okian/kudosly/internal/domain/model"

var openers = []string{
	"Here's a snapshot of what made this week amazing:",
	"Check out the incredible work from your team this week:",
	"This week, your team accomplished some great things:",
	"Let's celebrate the wins from this week:",
	"Here's what your team has been up to:",
}

var closers = []string{
	"Great work this week! Keep the momentum going.",
	"Your team is doing amazing work. Keep it up!",
	"Another fantastic week of teamwork and innovation.",
	"Excellent progress toward our goals this week.",
	"Keep celebrating these wins - you've earned it!",
}

// genericIntro introduces groups outside the taxonomy.
const genericIntro = "Notable contributions:"

var intros = map[model.Category][]string{
	model.BugFix:        {"Bug fixes that kept our product stable:", "Quality improvements and bug fixes:", "Issues resolved this week:"},
	model.FeatureWork:   {"New features shipped:", "Feature development highlights:", "Exciting new capabilities released:"},
	model.CodeReview:    {"Code review contributions:", "Quality assurance through peer review:", "Feedback that improved our codebase:"},
	model.Collaboration: {"Great teamwork moments:", "Collaboration highlights:", "Team support and partnership:"},
	model.Learning:      {"Growth and learning achievements:", "Skill development this week:", "Learning milestones:"},
	model.Mentoring:     {"Knowledge sharing and mentoring:", "Team development contributions:", "Guidance and support provided:"},
}

// Openers, Closers and Intros expose the phrase tables for callers that
// validate rendered output.
func Openers() []string { return append([]string(nil), openers...) }

func Closers() []string { return append([]string(nil), closers...) }

func Intros(c model.Category) []string {
	if pool, ok := intros[c]; ok {
		return append([]string(nil), pool...)
	}
	return []string{genericIntro}
}
