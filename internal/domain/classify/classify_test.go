package classify_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/okian/kudosly/internal/domain/classify"
	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type stubAssistant struct {
	cat   model.Category
	err   error
	calls int
}

func (s *stubAssistant) Suggest(context.Context, string) (model.Category, error) {
	s.calls++
	return s.cat, s.err
}

func TestClassifyByKeywords(t *testing.T) {
	Convey("Given the rule-based classifier", t, func() {
		c := classify.New()
		ctx := context.Background()

		Convey("Text made of one category's keywords yields that category", func() {
			for _, cat := range model.Categories {
				text := strings.Join(classify.Keywords(cat), " ")
				got, method := c.Classify(ctx, model.Effort{Payload: model.Payload{"text": text}})
				So(got, ShouldEqual, cat)
				So(method, ShouldEqual, classify.MethodRules)
			}
		})

		Convey("A bug title is a bug fix", func() {
			got, _ := c.Classify(ctx, model.Effort{Payload: model.Payload{"title": "Fix critical bug in authentication module"}})
			So(got, ShouldEqual, model.BugFix)
		})

		Convey("Matching is whole-word and case-insensitive", func() {
			So(classify.ByKeywords("prefix debugging"), ShouldEqual, model.Collaboration)
			got, _ := c.Classify(ctx, model.Effort{Payload: model.Payload{"title": "MENTOR the new hire"}})
			So(got, ShouldEqual, model.Mentoring)
		})

		Convey("Repeated keywords count once", func() {
			So(classify.ByKeywords("bug bug bug feature enhancement"), ShouldEqual, model.FeatureWork)
		})

		Convey("Ties go to the earlier category", func() {
			So(classify.ByKeywords("bug feature"), ShouldEqual, model.BugFix)
			So(classify.ByKeywords("review mentor"), ShouldEqual, model.CodeReview)
		})

		Convey("No evidence defaults to collaboration", func() {
			So(classify.ByKeywords(""), ShouldEqual, model.Collaboration)
			got, _ := c.Classify(ctx, model.Effort{})
			So(got, ShouldEqual, model.Collaboration)
		})

		Convey("Nested fields contribute", func() {
			got, _ := c.Classify(ctx, model.Effort{Payload: model.Payload{
				"pull_request": map[string]any{"title": "Peer review notes", "body": "approved with one comment"},
			}})
			So(got, ShouldEqual, model.CodeReview)
		})

		Convey("Classification is deterministic", func() {
			e := model.Effort{Payload: model.Payload{"issue": map[string]any{"summary": "Study course on Go", "description": "learn generics"}}}
			first, _ := c.Classify(ctx, e)
			second, _ := c.Classify(ctx, e)
			So(first, ShouldEqual, second)
			So(first, ShouldEqual, model.Learning)
		})
	})
}

func TestClassifyExplicitAndErrors(t *testing.T) {
	Convey("Given efforts with explicit categories or broken payloads", t, func() {
		c := classify.New()
		ctx := context.Background()

		Convey("A valid explicit category wins over keyword evidence", func() {
			got, method := c.Classify(ctx, model.Effort{Category: model.Learning, Payload: model.Payload{"title": "fix bug crash"}})
			So(got, ShouldEqual, model.Learning)
			So(method, ShouldEqual, classify.MethodExplicit)
		})

		Convey("An invalid explicit category is ignored", func() {
			got, method := c.Classify(ctx, model.Effort{Category: "chores", Payload: model.Payload{"title": "fix bug crash"}})
			So(got, ShouldEqual, model.BugFix)
			So(method, ShouldEqual, classify.MethodRules)
		})

		Convey("A malformed nested structure degrades to collaboration", func() {
			got, method := c.Classify(ctx, model.Effort{Payload: model.Payload{"issue": "fix bug", "title": "fix bug"}})
			So(got, ShouldEqual, model.Collaboration)
			So(method, ShouldEqual, classify.MethodFallback)
		})
	})
}

func TestAssistant(t *testing.T) {
	Convey("Given a classifier with an assistant", t, func() {
		ctx := context.Background()
		e := model.Effort{Payload: model.Payload{"title": "fix bug"}}

		Convey("A valid suggestion is used", func() {
			a := &stubAssistant{cat: model.Mentoring}
			got, method := classify.New(classify.WithAssistant(a)).Classify(ctx, e)
			So(got, ShouldEqual, model.Mentoring)
			So(method, ShouldEqual, classify.MethodAssistant)
		})

		Convey("Failures fall back to the rules", func() {
			a := &stubAssistant{err: classify.ErrAssistantUnavailable}
			got, method := classify.New(classify.WithAssistant(a)).Classify(ctx, e)
			So(got, ShouldEqual, model.BugFix)
			So(method, ShouldEqual, classify.MethodRules)
			So(a.calls, ShouldEqual, 1)
		})

		Convey("Out-of-taxonomy answers fall back to the rules", func() {
			a := &stubAssistant{cat: "vibes"}
			got, _ := classify.New(classify.WithAssistant(a)).Classify(ctx, e)
			So(got, ShouldEqual, model.BugFix)
		})

		Convey("Explicit categories never reach the assistant", func() {
			a := &stubAssistant{cat: model.Mentoring}
			got, _ := classify.New(classify.WithAssistant(a)).Classify(ctx, model.Effort{Category: model.BugFix})
			So(got, ShouldEqual, model.BugFix)
			So(a.calls, ShouldEqual, 0)
		})
	})
}

func TestConfidence(t *testing.T) {
	Convey("Given confidence queries", t, func() {
		c := classify.New()

		Convey("It is the matched share of the keyword list", func() {
			e := model.Effort{Payload: model.Payload{"title": "fix bug crash"}}
			So(c.Confidence(e, model.BugFix), ShouldEqual, 3*100/7)
			So(c.Confidence(e, model.Learning), ShouldEqual, 0)

			all := model.Effort{Payload: model.Payload{"text": strings.Join(classify.Keywords(model.CodeReview), " ")}}
			So(c.Confidence(all, model.CodeReview), ShouldEqual, 100)
		})

		Convey("Unknown categories get low confidence", func() {
			So(c.Confidence(model.Effort{}, "chores"), ShouldEqual, classify.ConfidenceUntracked)
		})

		Convey("Extraction errors get neutral confidence", func() {
			So(c.Confidence(model.Effort{Payload: model.Payload{"event": 1}}, model.BugFix), ShouldEqual, classify.ConfidenceOnError)
		})

		Convey("Extraction reports broken shapes", func() {
			_, err := classify.ExtractText(model.Payload{"commit": []any{"x"}})
			So(errors.Is(err, model.ErrPayloadShape), ShouldBeTrue)
		})
	})
}
