package recognition

import (
	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/internal/domain/scoring"
)

// Placeholder is replaced by the effort description in templates.
const Placeholder = "{effort}"

// Fallback messages.
const (
	FallbackMessage  = "Thank you for your outstanding contribution to the team!"
	EmptyPoolMessage = "Great work on your contribution!"
)

// Templates maps a category to its message pool.
type Templates map[model.Category][]string

// DefaultTemplates is the built-in message table.
var DefaultTemplates = Templates{
	model.BugFix: {
		"Outstanding debugging! Your fix on {effort} addresses the root cause effectively. Your problem-solving skills are invaluable.",
		"Excellent troubleshooting on {effort}! You identified and resolved this critical issue with precision.",
		"Amazing bug fix on {effort}! Your technical expertise prevented customer impact and improved system stability.",
		"Brilliant diagnostics on {effort}! Your quick resolution kept our product running smoothly.",
		"Great debugging work on {effort}! Your attention to detail caught subtle issues others might have missed.",
	},
	model.FeatureWork: {
		"Fantastic feature on {effort}! Your implementation is solid, well-architected, and ready for production.",
		"Outstanding work on {effort}! Your code quality and technical vision move the product forward significantly.",
		"Excellent delivery on {effort}! Your feature enhances user experience and adds real business value.",
		"Impressive development on {effort}! Your execution shows mastery of the technology and thoughtful design.",
		"Great work building {effort}! Your contributions demonstrate strong technical skills and team impact.",
	},
	model.CodeReview: {
		"Fantastic code review on {effort}! Your detailed feedback strengthens our codebase and mentors team members.",
		"Excellent review work on {effort}! Your insights caught potential issues and improved code quality.",
		"Outstanding peer review on {effort}! Your constructive comments help maintain our technical standards.",
		"Great code review on {effort}! Your expertise and guidance improve the entire team's work.",
		"Impressive review on {effort}! Your thorough analysis and feedback raise the bar for code quality.",
	},
	model.Collaboration: {
		"Amazing teamwork on {effort}! Your collaborative spirit and support strengthen the entire team.",
		"Excellent collaboration on {effort}! Your willingness to help others succeed is truly appreciated.",
		"Outstanding partnership on {effort}! Great job working across boundaries to achieve shared goals.",
		"Great teamwork on {effort}! Your ability to work effectively with others drives better outcomes.",
		"Impressive collaboration on {effort}! Your support and communication make everyone more productive.",
	},
	model.Learning: {
		"Congratulations on learning {effort}! Your growth mindset and commitment to improvement are inspiring.",
		"Excellent skill development on {effort}! Your dedication to learning strengthens our team capabilities.",
		"Outstanding effort on {effort}! Continuous learning and skill expansion are hallmarks of great engineers.",
		"Great progress on {effort}! Your initiative to expand your knowledge demonstrates leadership.",
		"Impressive learning on {effort}! Your commitment to development positions you for greater impact.",
	},
	model.Mentoring: {
		"Outstanding mentoring on {effort}! Thank you for investing time in helping others succeed and grow.",
		"Excellent guidance on {effort}! Your mentorship shapes talent and strengthens the entire organization.",
		"Fantastic mentoring on {effort}! Your knowledge transfer and patience are invaluable to our team.",
		"Great job mentoring on {effort}! Your willingness to help others develop is truly appreciated.",
		"Impressive mentoring on {effort}! Your investment in others' growth builds a stronger team.",
	},
}

// ImpactPhrases holds the closing sentences per tier. Only transformational
// and significant phrases are appended to recognitions.
var ImpactPhrases = map[scoring.Tier][]string{
	scoring.Transformational: {
		"This makes a transformational impact on our product and strategy.",
		"This is truly game-changing work that will reshape how we operate.",
		"This fundamentally improves our competitive position and capability.",
		"This has strategic significance and will drive long-term success.",
		"This breakthrough work sets a new standard for our team.",
	},
	scoring.Significant: {
		"This has significant impact on our product quality and reliability.",
		"This meaningfully improves our development velocity and efficiency.",
		"This strengthens our technical foundation for future growth.",
		"This creates lasting value that benefits the entire organization.",
		"This substantially advances our engineering capabilities.",
	},
	scoring.Moderate: {
		"This contributes positively to our codebase and product evolution.",
		"This helps move our projects forward with quality and care.",
		"This adds value to our product and improves user experience.",
		"This improves our team's capabilities and knowledge base.",
		"This supports our goals and strengthens our technical assets.",
	},
	scoring.Small: {
		"Thank you for your consistent contributions to our team's success.",
		"We appreciate your effort and commitment to quality work.",
		"Great work on this task - it helps us keep moving forward.",
		"Thanks for being a reliable team member and contributor.",
		"Your steady effort contributes to our collective progress.",
	},
	scoring.Minimal: {
		"Thanks for your participation and effort on this task.",
		"We appreciate you being part of the team and contributing.",
		"Good work - every contribution counts toward our success.",
		"Thank you for your engagement and team spirit.",
		"Keep up the good work as we grow together.",
	},
}

// DefaultGlyph is used for categories outside the glyph table.
const DefaultGlyph = "⭐"

var glyphs = map[model.Category]string{
	model.FeatureWork:   "🚀",
	model.BugFix:        "🔧",
	model.CodeReview:    "👀",
	model.Collaboration: "🤝",
	model.Learning:      "📚",
	model.Mentoring:     "👨‍🏫",
}

// Glyph returns the badge glyph of c.
func Glyph(c model.Category) string {
	if g, ok := glyphs[c]; ok {
		return g
	}
	return DefaultGlyph
}
