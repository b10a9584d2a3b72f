package simulate

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/kudosly/internal/domain/model"
)

// simulationNamespace keeps delivery ids stable for a given seed.
var simulationNamespace = uuid.MustParse("7b0f8f0e-3c1a-4f55-9a57-6f1d3b8c2e10")

var sources = []model.Source{model.SourceJira, model.SourceGitHub, model.SourceBitbucket, model.SourceSlack}

var titles = []string{
	"Fix crash when saving drafts",
	"Patch null pointer error in billing",
	"Implement export feature for reports",
	"Build onboarding story for new accounts",
	"Review payment service refactor",
	"Pair on database migration plan",
	"Mentor junior engineer on testing",
	"Study course on distributed systems",
	"Refactor architecture of the api gateway",
	"Improve performance of search endpoint",
	"Security patch for session handling",
	"Sync with design team about release",
}

var jiraTypes = []string{"Bug", "Story", "Task", "Epic", "New Feature"}

var githubActions = []string{"opened", "closed", "reopened", "synchronize"}

// Member is one synthetic employee.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Login string `json:"login"`
}

// Team returns n synthetic employees.
func Team(n int) []Member {
	team := make([]Member, 0, n)
	for i := 1; i <= n; i++ {
		team = append(team, Member{
			ID:    fmt.Sprintf("sim-%03d", i),
			Name:  fmt.Sprintf("Sim Developer %d", i),
			Email: fmt.Sprintf("dev%03d@kudosly.example", i),
			Login: fmt.Sprintf("dev%03d", i),
		})
	}
	return team
}

// Generator produces deterministic deliveries for a seed.
type Generator struct {
	rnd  *rand.Rand
	team []Member
	seq  int
	seed uint64
}

// NewGenerator creates a generator over team.
func NewGenerator(seed uint64, team []Member) *Generator {
	return &Generator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), team: team, seed: seed}
}

// Next returns the next delivery, cycling through the sources.
func (g *Generator) Next() (Delivery, error) {
	src := sources[g.seq%len(sources)]
	g.seq++
	m := g.team[g.rnd.IntN(len(g.team))]
	title := titles[g.rnd.IntN(len(titles))]

	var payload map[string]any
	switch src {
	case model.SourceJira:
		payload = map[string]any{
			"webhookEvent": "jira:issue_updated",
			"issue": map[string]any{
				"key":         fmt.Sprintf("KUD-%d", 100+g.seq),
				"summary":     title,
				"description": "Follow-up across multiple services with tests and documentation.",
				"assignee":    map[string]any{"emailAddress": m.Email},
				"issuetype":   map[string]any{"name": jiraTypes[g.rnd.IntN(len(jiraTypes))]},
			},
		}
	case model.SourceGitHub:
		payload = map[string]any{
			"action": githubActions[g.rnd.IntN(len(githubActions))],
			"pull_request": map[string]any{
				"title":           title,
				"body":            "Approved after review.",
				"user":            map[string]any{"login": m.Login},
				"merged":          g.rnd.IntN(2) == 0,
				"additions":       g.rnd.IntN(800),
				"deletions":       g.rnd.IntN(300),
				"changed_files":   1 + g.rnd.IntN(12),
				"review_comments": g.rnd.IntN(6),
			},
		}
	case model.SourceBitbucket:
		payload = map[string]any{
			"pullrequest": map[string]any{
				"title":       title,
				"description": "Ready for review.",
				"author":      map[string]any{"user": map[string]any{"username": m.Login}},
			},
		}
	default:
		payload = map[string]any{
			"event": map[string]any{
				"type": "message",
				"user": "U" + m.Login,
				"text": "Thanks for the help! " + title,
			},
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return Delivery{}, fmt.Errorf("marshal %s payload: %w", src, err)
	}
	id := uuid.NewSHA1(simulationNamespace, fmt.Appendf(nil, "%d/%d", g.seed, g.seq)).String()
	return Delivery{ID: id, Source: src, Payload: raw}, nil
}

// Generate returns n deliveries.
func (g *Generator) Generate(n int) ([]Delivery, error) {
	out := make([]Delivery, 0, n)
	for range n {
		d, err := g.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// withDuplicates appends redeliveries of the first ratio share of deliveries.
func withDuplicates(deliveries []Delivery, ratio float64) []Delivery {
	n := int(float64(len(deliveries)) * ratio)
	n = max(0, min(n, len(deliveries)))
	out := make([]Delivery, 0, len(deliveries)+n)
	out = append(out, deliveries...)
	return append(out, deliveries[:n]...)
}
