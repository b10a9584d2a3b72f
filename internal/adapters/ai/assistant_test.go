package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/kudosly/internal/adapters/ai"
	"github.com/okian/kudosly/internal/domain/classify"
	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type fakeCompleter struct {
	answer string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.answer, f.err
}

func TestAssistant(t *testing.T) {
	Convey("Given an assistant over a fake model", t, func() {
		ctx := context.Background()
		fake := &fakeCompleter{answer: " Bug Fix.\n"}
		a := ai.NewAssistant(fake, ai.WithRateLimit(100, 100))

		Convey("A clean answer maps to a category", func() {
			c, err := a.Suggest(ctx, "fix crash on login")
			So(err, ShouldBeNil)
			So(c, ShouldEqual, model.BugFix)
			So(fake.prompt, ShouldContainSubstring, "fix crash on login")
			So(fake.prompt, ShouldContainSubstring, "code-review")
		})

		Convey("An unknown answer is outside the taxonomy", func() {
			fake.answer = "refactoring"
			_, err := a.Suggest(ctx, "x")
			So(errors.Is(err, classify.ErrOutsideTaxonomy), ShouldBeTrue)
		})

		Convey("A model error marks the assistant unavailable", func() {
			fake.err = errors.New("quota")
			_, err := a.Suggest(ctx, "x")
			So(errors.Is(err, classify.ErrAssistantUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given an exhausted rate limit", t, func() {
		a := ai.NewAssistant(&fakeCompleter{answer: "learning"}, ai.WithRateLimit(0.001, 1))
		_, err := a.Suggest(context.Background(), "x")
		So(err, ShouldBeNil)
		_, err = a.Suggest(context.Background(), "x")
		So(errors.Is(err, classify.ErrAssistantUnavailable), ShouldBeTrue)
	})

	Convey("Given no model at all", t, func() {
		_, err := ai.NewAssistant(nil).Suggest(context.Background(), "x")
		So(errors.Is(err, classify.ErrAssistantUnavailable), ShouldBeTrue)
	})

	Convey("Given a classifier using the assistant", t, func() {
		c := classify.New(classify.WithAssistant(ai.NewAssistant(&fakeCompleter{answer: "mentoring"})))
		cat, method := c.Classify(context.Background(), model.Effort{Payload: model.Payload{"title": "fix bug"}})
		So(cat, ShouldEqual, model.Mentoring)
		So(method, ShouldEqual, classify.MethodAssistant)
	})

	Convey("Given no api key", t, func() {
		_, err := ai.NewGemini(context.Background(), "", "")
		So(err, ShouldNotBeNil)
	})
}

func TestParseAnswer(t *testing.T) {
	Convey("Answers are normalised", t, func() {
		for in, want := range map[string]model.Category{
			"feature-work":   model.FeatureWork,
			"`collaboration`": model.Collaboration,
			"Code Review":     model.CodeReview,
		} {
			got, err := ai.ParseAnswer(in)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}
	})
}
