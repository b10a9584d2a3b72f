package classify

import (
	"fmt"
	"regexp"

	"github.com/okian/kudosly/internal/domain/model"
)

// keywordWeight is the evidence contributed by one matched keyword.
const keywordWeight = 10

var keywords = map[model.Category][]string{
	model.BugFix:        {"bug", "fix", "issue", "error", "crash", "defect", "patch"},
	model.FeatureWork:   {"feature", "enhancement", "epic", "story", "implement", "build", "develop"},
	model.CodeReview:    {"review", "approved", "requested changes", "comment", "cr", "peer review"},
	model.Collaboration: {"discuss", "meeting", "sync", "pair", "together", "help", "support"},
	model.Mentoring:     {"mentor", "guide", "teach", "onboard", "junior", "training", "guidance"},
	model.Learning:      {"learn", "study", "course", "training", "skill", "development", "education"},
}

// matchers holds one whole-word pattern per keyword, in taxonomy order.
var matchers = compileMatchers()

func compileMatchers() map[model.Category][]*regexp.Regexp {
	out := make(map[model.Category][]*regexp.Regexp, len(model.Categories))
	for _, c := range model.Categories {
		words, ok := keywords[c]
		if !ok || len(words) == 0 {
			panic(fmt.Sprintf("classify: no keywords for category %q", c))
		}
		for _, w := range words {
			out[c] = append(out[c], regexp.MustCompile(`\b`+regexp.QuoteMeta(w)+`\b`))
		}
	}
	return out
}

// Keywords returns a copy of the keyword list for c.
func Keywords(c model.Category) []string {
	return append([]string(nil), keywords[c]...)
}

// matches counts the keywords of c present in text. Each keyword counts once.
func matches(c model.Category, text string) int {
	n := 0
	for _, re := range matchers[c] {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}
