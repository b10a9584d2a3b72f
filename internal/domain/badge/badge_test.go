package badge_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/kudosly/internal/domain/badge"
	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type memStore struct {
	mu      sync.Mutex
	badges  []model.Badge
	efforts map[string][]model.Effort
	awards  map[[2]string]model.BadgeAward
	creates int
}

func newMemStore(t *testing.T) *memStore {
	t.Helper()
	badges, err := badge.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	return &memStore{badges: badges, efforts: map[string][]model.Effort{}, awards: map[[2]string]model.BadgeAward{}}
}

func (s *memStore) ListBadges(context.Context) ([]model.Badge, error) { return s.badges, nil }

func (s *memStore) FindBadge(_ context.Context, id model.BadgeID) (model.Badge, bool, error) {
	for _, b := range s.badges {
		if b.ID == id {
			return b, true, nil
		}
	}
	return model.Badge{}, false, nil
}

func (s *memStore) FindEffortsByEmployee(_ context.Context, id string) ([]model.Effort, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Effort(nil), s.efforts[id]...), nil
}

func (s *memStore) FindAward(_ context.Context, emp string, id model.BadgeID) (model.BadgeAward, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.awards[[2]string{emp, string(id)}]
	return a, ok, nil
}

func (s *memStore) CreateAward(_ context.Context, a model.BadgeAward) (model.BadgeAward, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]string{a.EmployeeID, string(a.BadgeID)}
	if existing, ok := s.awards[key]; ok {
		return existing, false, nil
	}
	s.creates++
	s.awards[key] = a
	return a, true, nil
}

func (s *memStore) add(emp string, c model.Category, score, n int) {
	for range n {
		s.efforts[emp] = append(s.efforts[emp], model.Effort{ID: "x", EmployeeID: emp, Category: c, ImpactScore: score})
	}
}

func efforts(c model.Category, score, n int) []model.Effort {
	out := make([]model.Effort, n)
	for i := range out {
		out[i] = model.Effort{Category: c, ImpactScore: score}
	}
	return out
}

func TestCatalog(t *testing.T) {
	Convey("Given the built-in catalog", t, func() {
		badges, err := badge.Catalog()
		So(err, ShouldBeNil)
		So(badges, ShouldHaveLength, len(model.BadgeIDs))

		Convey("Every badge id has a rule and a definition", func() {
			for i, id := range model.BadgeIDs {
				So(badge.HasRule(id), ShouldBeTrue)
				So(badges[i].ID, ShouldEqual, id)
				So(badges[i].Name, ShouldNotBeEmpty)
				So(badges[i].Icon, ShouldNotBeEmpty)
			}
		})

		Convey("Criteria are decoded as numbers", func() {
			So(badges[1].Criteria["minBugFixes"], ShouldEqual, 5)
			So(badges[1].Criteria["minImpactScore"], ShouldEqual, 8)
		})

		Convey("Badges without rules are rejected", func() {
			_, err := badge.ParseCatalog([]byte("- id: night-owl\n  name: Night Owl\n"))
			So(errors.Is(err, badge.ErrUnknownBadge), ShouldBeTrue)
		})
	})
}

func TestCheck(t *testing.T) {
	Convey("Given badge rules", t, func() {
		solver := model.Badge{ID: model.ProblemSolver, Criteria: model.Criteria{"minBugFixes": 5, "minImpactScore": 8}}

		Convey("Problem solver needs five high impact bug fixes", func() {
			earned, progress, err := badge.Check(solver, efforts(model.BugFix, 8, 5))
			So(err, ShouldBeNil)
			So(earned, ShouldBeTrue)
			So(progress, ShouldEqual, 100)

			earned, progress, _ = badge.Check(solver, efforts(model.BugFix, 9, 4))
			So(earned, ShouldBeFalse)
			So(progress, ShouldEqual, 80)

			earned, _, _ = badge.Check(solver, efforts(model.BugFix, 7, 10))
			So(earned, ShouldBeFalse)
		})

		Convey("Knowledge sharer needs both conditions", func() {
			sharer := model.Badge{ID: model.KnowledgeSharer}
			history := append(efforts(model.Mentoring, 5, 5), efforts(model.CodeReview, 5, 9)...)
			earned, progress, _ := badge.Check(sharer, history)
			So(earned, ShouldBeFalse)
			So(progress, ShouldEqual, 90)

			history = append(history, efforts(model.CodeReview, 5, 1)...)
			earned, _, _ = badge.Check(sharer, history)
			So(earned, ShouldBeTrue)
		})

		Convey("Defaults apply when criteria are missing", func() {
			earned, progress, _ := badge.Check(model.Badge{ID: model.CollaborationHero}, efforts(model.Collaboration, 3, 9))
			So(earned, ShouldBeFalse)
			So(progress, ShouldEqual, 90)

			earned, _, _ = badge.Check(model.Badge{ID: model.TeamPlayer}, efforts(model.Collaboration, 3, 20))
			So(earned, ShouldBeTrue)

			earned, _, _ = badge.Check(model.Badge{ID: model.InnovationSpark}, efforts(model.FeatureWork, 9, 3))
			So(earned, ShouldBeTrue)
		})

		Convey("Consistency counts every effort against thirty days", func() {
			champion := model.Badge{ID: model.ConsistencyChampion, Criteria: model.Criteria{"minDailyEfforts": 1}}
			earned, progress, _ := badge.Check(champion, efforts(model.Learning, 2, 15))
			So(earned, ShouldBeFalse)
			So(progress, ShouldEqual, 50)
		})

		Convey("Progress never reaches 100 before the badge is earned", func() {
			_, progress, _ := badge.Check(model.Badge{ID: model.CollaborationHero, Criteria: model.Criteria{"minCollaborationEfforts": 1000}}, efforts(model.Collaboration, 3, 999))
			So(progress, ShouldEqual, 99)
		})

		Convey("Unknown badges are errors", func() {
			_, _, err := badge.Check(model.Badge{ID: "night-owl"}, nil)
			So(errors.Is(err, badge.ErrUnknownBadge), ShouldBeTrue)
		})
	})
}

func TestAward(t *testing.T) {
	Convey("Given an evaluator", t, func() {
		ctx := context.Background()
		store := newMemStore(t)
		ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		ev := badge.NewEvaluator(store, badge.WithClock(func() time.Time { return ts }))

		Convey("Awarding twice yields one award", func() {
			first, created, err := ev.Award(ctx, "emp-1", model.TeamPlayer)
			So(err, ShouldBeNil)
			So(created, ShouldBeTrue)
			So(first.Progress, ShouldEqual, 100)
			So(first.EarnedAt, ShouldEqual, ts)

			second, created, err := ev.Award(ctx, "emp-1", model.TeamPlayer)
			So(err, ShouldBeNil)
			So(created, ShouldBeFalse)
			So(second, ShouldResemble, first)
			So(store.creates, ShouldEqual, 1)
		})

		Convey("Concurrent awards of the same pair create one record", func() {
			var wg sync.WaitGroup
			for range 16 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _, _ = ev.Award(ctx, "emp-2", model.ProblemSolver)
				}()
			}
			wg.Wait()
			So(store.creates, ShouldEqual, 1)
		})

		Convey("Unknown badges and identities are rejected", func() {
			_, _, err := ev.Award(ctx, "emp-1", "night-owl")
			So(errors.Is(err, badge.ErrUnknownBadge), ShouldBeTrue)
			_, _, err = ev.Award(ctx, "", model.TeamPlayer)
			So(errors.Is(err, badge.ErrNoEmployee), ShouldBeTrue)
		})
	})
}

func TestAwardForEffort(t *testing.T) {
	Convey("Given scored efforts", t, func() {
		ctx := context.Background()
		store := newMemStore(t)
		ev := badge.NewEvaluator(store)

		cases := []struct {
			c     model.Category
			score int
			want  model.BadgeID
		}{
			{model.BugFix, 8, model.ProblemSolver},
			{model.FeatureWork, 9, model.InnovationSpark},
			{model.CodeReview, 7, model.KnowledgeSharer},
			{model.Collaboration, 7, model.CollaborationHero},
			{model.Mentoring, 8, model.KnowledgeSharer},
		}
		for _, c := range cases {
			a, _, err := ev.AwardForEffort(ctx, model.Effort{ID: "e", EmployeeID: "emp-" + string(c.c), Category: c.c, ImpactScore: c.score})
			So(err, ShouldBeNil)
			So(a, ShouldNotBeNil)
			So(a.BadgeID, ShouldEqual, c.want)

			a, _, err = ev.AwardForEffort(ctx, model.Effort{ID: "e", EmployeeID: "low", Category: c.c, ImpactScore: c.score - 1})
			So(err, ShouldBeNil)
			So(a, ShouldBeNil)
		}

		Convey("Learning never qualifies and unresolved identities are skipped", func() {
			a, _, _ := ev.AwardForEffort(ctx, model.Effort{EmployeeID: "emp", Category: model.Learning, ImpactScore: 10})
			So(a, ShouldBeNil)
			a, _, _ = ev.AwardForEffort(ctx, model.Effort{Category: model.BugFix, ImpactScore: 10})
			So(a, ShouldBeNil)
		})

		Convey("ShortcutBadge mirrors the gate", func() {
			id, ok := badge.ShortcutBadge(model.BugFix, 9)
			So(ok, ShouldBeTrue)
			So(id, ShouldEqual, model.ProblemSolver)
			_, ok = badge.ShortcutBadge(model.FeatureWork, 8)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestEvaluateAndProgress(t *testing.T) {
	Convey("Given an employee history", t, func() {
		ctx := context.Background()
		store := newMemStore(t)
		ev := badge.NewEvaluator(store)
		store.add("emp", model.BugFix, 8, 5)
		store.add("emp", model.Collaboration, 3, 4)

		Convey("Evaluate awards newly satisfied badges once", func() {
			awarded, err := ev.Evaluate(ctx, "emp")
			So(err, ShouldBeNil)
			So(awarded, ShouldHaveLength, 1)
			So(awarded[0].BadgeID, ShouldEqual, model.ProblemSolver)

			awarded, err = ev.Evaluate(ctx, "emp")
			So(err, ShouldBeNil)
			So(awarded, ShouldBeEmpty)
		})

		Convey("Progress reports ratios and earned state", func() {
			p, err := ev.Progress(ctx, "emp", model.CollaborationHero)
			So(err, ShouldBeNil)
			So(p.Earned, ShouldBeFalse)
			So(p.Progress, ShouldEqual, 40)

			p, _ = ev.Progress(ctx, "emp", model.ProblemSolver)
			So(p.Earned, ShouldBeFalse)
			So(p.Progress, ShouldEqual, 99)

			_, _ = ev.Evaluate(ctx, "emp")
			p, _ = ev.Progress(ctx, "emp", model.ProblemSolver)
			So(p.Earned, ShouldBeTrue)
			So(p.EarnedAt, ShouldNotBeNil)
			So(p.Progress, ShouldEqual, 100)

			p, _ = ev.Progress(ctx, "emp", model.TeamPlayer)
			So(p.Progress, ShouldEqual, 20)
		})

		Convey("Evaluating without identity fails", func() {
			_, err := ev.Evaluate(ctx, "")
			So(errors.Is(err, badge.ErrNoEmployee), ShouldBeTrue)
		})
	})
}
