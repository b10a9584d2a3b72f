// Package recognition composes appreciation messages for scored efforts.
package recognition

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/internal/domain/scoring"
	"github.com/okian/kudosly/pkg/logger"
)

// Picker chooses an index in [0, n). Tests substitute a deterministic one.
type Picker interface {
	Intn(n int) int
}

type globalPicker struct{}

func (globalPicker) Intn(n int) int { return rand.IntN(n) }

// Generator builds recognitions. It is safe for concurrent use as long as the
// Picker is.
type Generator struct {
	templates Templates
	picker    Picker
	now       func() time.Time
	newID     func() string
	log       logger.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithTemplates replaces the template table.
func WithTemplates(t Templates) Option {
	return func(g *Generator) {
		if t != nil {
			g.templates = t
		}
	}
}

// WithPicker sets the randomness source.
func WithPicker(p Picker) Option {
	return func(g *Generator) {
		if p != nil {
			g.picker = p
		}
	}
}

// WithClock overrides the recognition timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// New constructs a Generator with the default tables.
func New(opts ...Option) *Generator {
	g := &Generator{
		templates: DefaultTemplates,
		picker:    globalPicker{},
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = logger.Get().Named("recognition")
	}
	return g
}

// Generate builds the recognition for e. Message composition problems fall
// back to FallbackMessage; only an effort without identity is an error.
func (g *Generator) Generate(ctx context.Context, e model.Effort) (model.Recognition, error) {
	if err := e.Validate(); err != nil {
		return model.Recognition{}, fmt.Errorf("%w: %w", ErrMalformedEffort, err)
	}

	msg, err := g.Message(e)
	if err != nil {
		g.log.Warn(ctx, "recognition message fell back", logger.String("effort_id", e.ID), logger.Error(err))
		msg = FallbackMessage
	}

	return model.Recognition{
		ID:          g.newID(),
		EffortID:    e.ID,
		EmployeeID:  e.EmployeeID,
		Message:     msg,
		Badge:       Glyph(e.Category),
		Category:    e.Category,
		ImpactScore: e.ImpactScore,
		Timestamp:   g.now().UTC(),
	}, nil
}

// GenerateBulk builds one recognition per effort, skipping and logging the
// ones that fail.
func (g *Generator) GenerateBulk(ctx context.Context, efforts []model.Effort) []model.Recognition {
	out := make([]model.Recognition, 0, len(efforts))
	for _, e := range efforts {
		r, err := g.Generate(ctx, e)
		if err != nil {
			g.log.Warn(ctx, "skipping effort in bulk recognition", logger.String("effort_id", e.ID), logger.Error(err))
			continue
		}
		out = append(out, r)
	}
	return out
}

// Message composes the recognition text for e.
func (g *Generator) Message(e model.Effort) (string, error) {
	score := e.ImpactScore
	if score == 0 {
		score = scoring.NeutralScore
	}
	tier := scoring.ImpactTier(score)

	pool, ok := g.templates[e.Category]
	if !ok {
		pool = g.templates[model.Collaboration]
	}
	tmpl, err := g.pick(pool, EmptyPoolMessage)
	if err != nil {
		return "", err
	}
	msg := strings.ReplaceAll(tmpl, Placeholder, e.Payload.Describe())

	if tier == scoring.Transformational || tier == scoring.Significant {
		phrase, err := g.pick(ImpactPhrases[tier], "")
		if err != nil {
			return "", err
		}
		if phrase != "" {
			msg += " " + phrase
		}
	}
	return msg, nil
}

// Personalize addresses the message of e to a recipient and lists earned badges.
func (g *Generator) Personalize(e model.Effort, recipient string, badges []string) string {
	msg, err := g.Message(e)
	if err != nil {
		msg = FallbackMessage
	}
	var b strings.Builder
	b.WriteString("Hey ")
	b.WriteString(recipient)
	b.WriteString("! ")
	b.WriteString(msg)
	if len(badges) > 0 {
		b.WriteString("\n\nYou've earned: ")
		b.WriteString(strings.Join(badges, ", "))
	}
	return b.String()
}

func (g *Generator) pick(pool []string, empty string) (string, error) {
	if len(pool) == 0 {
		return empty, nil
	}
	i := g.picker.Intn(len(pool))
	if i < 0 || i >= len(pool) {
		return "", fmt.Errorf("%w: %d of %d", errPick, i, len(pool))
	}
	return pool[i], nil
}
