package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/kudosly/internal/adapters/repository"
	"github.com/okian/kudosly/internal/domain/badge"
	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	_ = logger.Init()
}

func openStore(t *testing.T) *repository.Store {
	t.Helper()
	s, err := repository.Open(context.Background(), repository.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var day = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func effort(id, emp string, c model.Category, score int, at time.Time) *model.Effort {
	return &model.Effort{
		ID: id, EmployeeID: emp, Source: model.SourceGitHub, Category: c, ImpactScore: score,
		Payload: model.Payload{"title": id}, Timestamp: at,
	}
}

func TestEffortRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	e := effort("e1", "ann", "", 0, day)
	e.Payload = model.Payload{"pull_request": map[string]any{"title": "Add export", "merged": true}}
	require.NoError(t, s.CreateEffort(ctx, e))

	got, err := s.FindEffort(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "ann", got.EmployeeID)
	assert.Equal(t, "Add export", got.Payload.Describe())
	assert.True(t, got.Timestamp.Equal(day))
	assert.False(t, got.Scored())

	got.Category, got.ImpactScore = model.FeatureWork, 7
	require.NoError(t, s.UpdateEffort(ctx, &got))
	got, err = s.FindEffort(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, model.FeatureWork, got.Category)
	assert.Equal(t, 7, got.ImpactScore)

	_, err = s.FindEffort(ctx, "missing")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
	assert.ErrorIs(t, s.UpdateEffort(ctx, &model.Effort{ID: "missing"}), repository.ErrNotFound)
}

func TestEffortQueries(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateEffort(ctx, effort("a1", "ann", model.BugFix, 8, day)))
	require.NoError(t, s.CreateEffort(ctx, effort("a2", "ann", model.Learning, 3, day.Add(48*time.Hour))))
	require.NoError(t, s.CreateEffort(ctx, effort("a3", "ann", "", 0, day.AddDate(0, 0, 7))))
	require.NoError(t, s.CreateEffort(ctx, effort("b1", "bob", model.BugFix, 6, day.Add(time.Hour))))
	require.NoError(t, s.CreateEffort(ctx, effort("x1", "", model.Collaboration, 5, day.Add(2*time.Hour))))

	all, err := s.FindEffortsByEmployee(ctx, "ann")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a1", all[0].ID)

	start := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	week, err := s.FindEffortsInRange(ctx, "ann", start, end)
	require.NoError(t, err)
	assert.Len(t, week, 2)

	active, err := s.ActiveEmployees(ctx, start, end)
	require.NoError(t, err)
	assert.Equal(t, []string{"ann", "bob"}, active)

	listed, err := s.ListEfforts(ctx, repository.EffortFilter{EmployeeID: "ann", Limit: 2})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "a3", listed[0].ID)

	_, err = s.ListEfforts(ctx, repository.EffortFilter{Limit: -1})
	assert.ErrorIs(t, err, repository.ErrInvalidLimit)

	pending, err := s.UnscoredEffortIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a3"}, pending)

	st, err := s.EffortStats(ctx, "")
	require.NoError(t, err)
	assert.EqualValues(t, 5, st.Total)
	assert.EqualValues(t, 4, st.Scored)
	assert.EqualValues(t, 1, st.Unresolved)
	assert.InDelta(t, 5.5, st.AverageImpactScore, 0.001)
	assert.EqualValues(t, 2, st.ByCategory[model.BugFix])
	assert.EqualValues(t, 5, st.BySource[model.SourceGitHub])

	st, err = s.EffortStats(ctx, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 1, st.Total)
	assert.InDelta(t, 6, st.AverageImpactScore, 0.001)
}

func TestRecognitions(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, found, err := s.FindRecognitionByEffort(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, found)

	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, s.CreateRecognition(ctx, &model.Recognition{
			ID: id, EffortID: "e" + id, EmployeeID: "ann", Message: "thanks", ImpactScore: 6,
			Timestamp: day.Add(time.Duration(i) * time.Hour),
		}))
	}

	r, found, err := s.FindRecognitionByEffort(ctx, "er2")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "r2", r.ID)

	recent, err := s.RecognitionsByEmployee(ctx, "ann", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "r3", recent[0].ID)

	feed, err := s.RecentRecognitions(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, feed, 3)

	inRange, err := s.FindRecognitionsInRange(ctx, "ann", day, day.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Len(t, inRange, 2)

	n, err := s.CountRecognitions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	_, err = s.FindRecognition(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBadgesAndAwards(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	catalog, err := badge.Catalog()
	require.NoError(t, err)
	require.NoError(t, s.SeedBadges(ctx, catalog))
	require.NoError(t, s.SeedBadges(ctx, catalog))

	badges, err := s.ListBadges(ctx)
	require.NoError(t, err)
	require.Len(t, badges, len(model.BadgeIDs))
	assert.Equal(t, model.CollaborationHero, badges[0].ID)
	assert.NotEmpty(t, badges[0].Criteria)

	_, ok, err := s.FindBadge(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	award := model.BadgeAward{EmployeeID: "ann", BadgeID: model.ProblemSolver, EarnedAt: day, Progress: model.EarnedProgress}
	stored, created, err := s.CreateAward(ctx, award)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, stored.EarnedAt.Equal(day))

	award.EarnedAt = day.Add(time.Hour)
	stored, created, err = s.CreateAward(ctx, award)
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, stored.EarnedAt.Equal(day), "first award wins")

	awards, err := s.AwardsByEmployee(ctx, "ann")
	require.NoError(t, err)
	assert.Len(t, awards, 1)
}

func TestConcurrentAwards(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := s.CreateAward(ctx, model.BadgeAward{
				EmployeeID: "ann", BadgeID: model.TeamPlayer,
				EarnedAt: day.Add(time.Duration(i) * time.Second), Progress: model.EarnedProgress,
			})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}

func TestEmployeesAndDirectory(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateEmployee(ctx, &model.Employee{ID: "ann", Name: "Ann", Email: " Ann@Example.com"}))
	err := s.CreateEmployee(ctx, &model.Employee{ID: "ann2", Name: "Ann", Email: "ann@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := s.FindByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ann", got.ID)

	_, err = s.FindEmployee(ctx, "zed")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	dir := repository.NewCachedDirectory(s, time.Minute)
	_, err = dir.FindByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.CreateEmployee(ctx, &model.Employee{ID: "bob", Name: "Bob", Email: "bob@example.com"}))
	emp, err := dir.FindByEmail(ctx, "Bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "bob", emp.ID)
}

func TestDigestUpsert(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	start := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	first := &model.WeeklyDigest{
		ID: "d1", EmployeeID: "ann", WeekStart: start, WeekEnd: start.AddDate(0, 0, 7),
		Narrative: "v1", Metrics: model.DigestMetrics{EffortTypeBreakdown: map[model.Category]int{model.BugFix: 2}},
		Highlights: model.StringList{"nice"}, GeneratedAt: day,
	}
	require.NoError(t, s.SaveDigest(ctx, first))

	second := *first
	second.ID, second.Narrative = "d2", "v2"
	require.NoError(t, s.SaveDigest(ctx, &second))
	assert.Equal(t, "d1", second.ID)

	latest, err := s.LatestDigest(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, "v2", latest.Narrative)
	assert.Equal(t, 2, latest.Metrics.EffortTypeBreakdown[model.BugFix])
	assert.Equal(t, model.StringList{"nice"}, latest.Highlights)

	list, err := s.ListDigests(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.LatestDigest(ctx, "bob")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
