package digest_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/kudosly/internal/domain/digest"
	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type firstPicker struct{}

func (firstPicker) Intn(int) int { return 0 }

func eff(emp string, c model.Category, score int, title string) model.Effort {
	return model.Effort{ID: emp + title, EmployeeID: emp, Category: c, ImpactScore: score, Payload: model.Payload{"title": title}}
}

func TestNarrate(t *testing.T) {
	Convey("Given a window of efforts and recognitions", t, func() {
		n := digest.NewNarrator(firstPicker{})
		efforts := []model.Effort{
			eff("ann", model.FeatureWork, 8, "Export"),
			eff("bob", model.BugFix, 6, "Crash"),
			eff("ann", model.FeatureWork, 7, "Import"),
			eff("ann", model.FeatureWork, 9, "Search"),
			eff("cid", model.FeatureWork, 7, "Filters"),
		}
		recs := []model.Recognition{{ID: "r1", Message: "Nice export", ImpactScore: 8}, {ID: "r2", Message: "Nice fix", ImpactScore: 6}}

		out, err := n.Narrate(efforts, recs)
		So(err, ShouldBeNil)

		Convey("The text follows the fixed layout", func() {
			want := digest.Openers()[0] + "\n\n" +
				"**" + digest.Intros(model.BugFix)[0] + "**\n- Crash\n\n" +
				"**" + digest.Intros(model.FeatureWork)[0] + "**\n- Export\n- Import\n- Search\n- Plus 1 more\n\n" +
				"**Recognition highlights:**\n- Nice export\n- Nice fix\n\n" +
				digest.Closers()[0]
			So(out.Text, ShouldEqual, want)
		})

		Convey("Metrics summarise the window", func() {
			So(out.Metrics.EffortTypeBreakdown, ShouldResemble, map[model.Category]int{model.FeatureWork: 4, model.BugFix: 1})
			So(out.Metrics.AverageImpactScore, ShouldEqual, 7.4)
			So(out.Metrics.RecognitionRate, ShouldEqual, 40.0)
			So(out.Metrics.ActiveContributors, ShouldEqual, 3)
		})

		Convey("Highlights keep high impact recognitions", func() {
			So(out.Highlights, ShouldResemble, []string{"Nice export"})
		})

		Convey("Top contributors are ordered by count then appearance", func() {
			So(out.TopContributors, ShouldResemble, []string{"ann", "bob", "cid"})
		})
	})

	Convey("Given random phrase selection", t, func() {
		out, err := digest.NewNarrator(nil).Narrate([]model.Effort{eff("a", model.Learning, 2, "Go course")}, nil)
		So(err, ShouldBeNil)

		opener, _, _ := strings.Cut(out.Text, "\n")
		So(digest.Openers(), ShouldContain, opener)
		lines := strings.Split(out.Text, "\n")
		So(digest.Closers(), ShouldContain, lines[len(lines)-1])
		So(out.Text, ShouldNotContainSubstring, "Recognition highlights")
	})

	Convey("Given edge cases", t, func() {
		n := digest.NewNarrator(firstPicker{})

		Convey("An empty window still renders", func() {
			out, err := n.Narrate(nil, nil)
			So(err, ShouldBeNil)
			So(out.Metrics.AverageImpactScore, ShouldEqual, 0)
			So(out.Metrics.RecognitionRate, ShouldEqual, 0)
			So(out.TopContributors, ShouldBeEmpty)
		})

		Convey("Categories outside the taxonomy get the generic intro after known ones", func() {
			out, err := n.Narrate([]model.Effort{eff("a", "", 0, "Raw"), eff("a", model.Mentoring, 6, "Pairing")}, nil)
			So(err, ShouldBeNil)
			So(strings.Index(out.Text, "Notable contributions:"), ShouldBeGreaterThan, strings.Index(out.Text, digest.Intros(model.Mentoring)[0]))
			So(out.Metrics.AverageImpactScore, ShouldEqual, 6)
		})

		Convey("Unscored efforts and unresolved identities stay out of the averages", func() {
			m := digest.Metrics([]model.Effort{
				eff("ann", model.BugFix, 8, "a"),
				eff("ann", model.BugFix, 0, "b"),
				eff("", model.BugFix, 4, "c"),
			}, nil)
			So(m.AverageImpactScore, ShouldEqual, 6)
			So(m.ActiveContributors, ShouldEqual, 1)
			So(m.EffortTypeBreakdown[model.BugFix], ShouldEqual, 3)
			So(digest.TopContributors([]model.Effort{eff("", model.BugFix, 4, "c"), eff("bob", model.BugFix, 4, "d")}), ShouldResemble, []string{"bob"})
		})

		Convey("A corrupt score yields no narrative", func() {
			out, err := n.Narrate([]model.Effort{eff("a", model.BugFix, 42, "x")}, nil)
			So(errors.Is(err, digest.ErrCorruptEffort), ShouldBeTrue)
			So(out, ShouldBeNil)
		})

		Convey("Only five recognitions are listed", func() {
			var recs []model.Recognition
			for i := range 7 {
				recs = append(recs, model.Recognition{Message: fmt.Sprintf("m%d", i), ImpactScore: 9})
			}
			out, _ := n.Narrate(nil, recs)
			So(out.Text, ShouldContainSubstring, "- m4\n")
			So(out.Text, ShouldNotContainSubstring, "- m5\n")
			So(out.Highlights, ShouldHaveLength, 5)
		})
	})
}

func TestWeeklyParts(t *testing.T) {
	Convey("Given weekly digest parts", t, func() {
		Convey("Collaboration score scales and caps", func() {
			So(digest.CollaborationScore(nil), ShouldEqual, 0)
			So(digest.CollaborationScore([]model.Effort{{Category: model.CodeReview}, {Category: model.BugFix}, {Category: model.BugFix}, {Category: model.BugFix}}), ShouldEqual, 5)
			So(digest.CollaborationScore([]model.Effort{{Category: model.Mentoring}, {Category: model.BugFix}}), ShouldEqual, 10)
		})

		Convey("Summary reports the quiet week", func() {
			So(digest.Summary(nil, nil), ShouldContainSubstring, "This week was quiet")
		})

		Convey("Summary names the dominant category", func() {
			s := digest.Summary([]model.Effort{{Category: model.BugFix, ImpactScore: 9}, {Category: model.Learning, ImpactScore: 2}, {Category: model.Learning, ImpactScore: 3}}, []model.Recognition{{}})
			So(s, ShouldStartWith, "This week you made 3 contributions with 1 high-impact efforts!")
			So(s, ShouldContainSubstring, "Your focus on learning")
			So(s, ShouldContainSubstring, "You earned 1 recognitions")
		})

		Convey("Top recognitions sort by score", func() {
			So(digest.TopRecognitions([]model.Recognition{{ID: "a", ImpactScore: 5}, {ID: "b", ImpactScore: 9}, {ID: "c", ImpactScore: 5}}), ShouldResemble, []string{"b", "a", "c"})
		})

		Convey("Learning wins use the description", func() {
			wins := digest.LearningWins([]model.Effort{
				{Category: model.Learning, Payload: model.Payload{"description": "Finished Rust book"}},
				{Category: model.Learning},
				{Category: model.BugFix, Payload: model.Payload{"description": "ignored"}},
			})
			So(wins, ShouldResemble, []string{"Finished Rust book", "Completed learning activity"})
		})

		Convey("Weeks start on Monday", func() {
			start, end := digest.WeekOf(time.Date(2025, 6, 13, 18, 0, 0, 0, time.UTC)) // Friday
			So(start, ShouldEqual, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC))
			So(end, ShouldEqual, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC))

			start, _ = digest.WeekOf(time.Date(2025, 6, 15, 1, 0, 0, 0, time.UTC)) // Sunday
			So(start, ShouldEqual, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC))
		})

		Convey("Markdown helpers render", func() {
			So(digest.PersonalizedIntro("Core", 4, 2), ShouldContainSubstring, "- 4 efforts logged\n- 2 recognitions given\n")
			So(digest.MetricsSummary(model.DigestMetrics{AverageImpactScore: 7.5, RecognitionRate: 50, ActiveContributors: 3}), ShouldEqual,
				"\n**Weekly Metrics:**\n- Average Impact Score: 7.5/10\n- Recognition Rate: 50.0%\n- Active Contributors: 3\n")
			sec, err := digest.NewNarrator(firstPicker{}).CategorySection(model.BugFix, []model.Effort{eff("a", model.BugFix, 6, "Crash"), eff("a", model.BugFix, 0, "Leak")})
			So(err, ShouldBeNil)
			So(sec, ShouldEqual, "**Bug fixes that kept our product stable:**\n- Crash (Impact: 6/10)\n- Leak\n")
		})
	})
}

type memStore struct {
	mu      sync.Mutex
	efforts map[string][]model.Effort
	saved   map[string]model.WeeklyDigest
	failFor string
}

func (s *memStore) FindEffortsInRange(_ context.Context, emp string, _, _ time.Time) ([]model.Effort, error) {
	if emp == s.failFor {
		return nil, errors.New("boom")
	}
	return s.efforts[emp], nil
}

func (s *memStore) FindRecognitionsInRange(context.Context, string, time.Time, time.Time) ([]model.Recognition, error) {
	return nil, nil
}

func (s *memStore) ActiveEmployees(context.Context, time.Time, time.Time) ([]string, error) {
	return []string{"ann", "bob", "cid"}, nil
}

func (s *memStore) SaveDigest(_ context.Context, d *model.WeeklyDigest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[d.EmployeeID+d.WeekStart.String()] = *d
	return nil
}

func TestService(t *testing.T) {
	Convey("Given a digest service", t, func() {
		ctx := context.Background()
		store := &memStore{
			efforts: map[string][]model.Effort{"ann": {eff("ann", model.Learning, 3, "Course")}},
			saved:   map[string]model.WeeklyDigest{},
			failFor: "cid",
		}
		svc := digest.NewService(store, digest.WithConcurrency(2), digest.WithNarrator(digest.NewNarrator(firstPicker{})))
		start, end := digest.WeekOf(time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC))

		Convey("Generate stores one digest per window", func() {
			d, err := svc.Generate(ctx, "ann", start, end)
			So(err, ShouldBeNil)
			So(d.ID, ShouldNotBeEmpty)
			So(d.TotalEfforts, ShouldEqual, 1)
			So(d.LearningWins, ShouldResemble, model.StringList{"Completed learning activity"})

			_, err = svc.Generate(ctx, "ann", start, end)
			So(err, ShouldBeNil)
			So(store.saved, ShouldHaveLength, 1)
		})

		Convey("An inverted window is rejected", func() {
			_, err := svc.Generate(ctx, "ann", end, start)
			So(errors.Is(err, digest.ErrInvalidWindow), ShouldBeTrue)
		})

		Convey("RunWeekly continues past failures", func() {
			done, err := svc.RunWeekly(ctx, start.Add(time.Hour))
			So(done, ShouldEqual, 2)
			So(err, ShouldNotBeNil)
			So(store.saved, ShouldHaveLength, 2)
		})
	})
}
