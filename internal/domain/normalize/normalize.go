// Package normalize turns source-specific webhook payloads into effort drafts.
package normalize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/kudosly/internal/domain/model"
	"github.com/okian/kudosly/pkg/logger"
)

// Directory resolves employees by email. Only the jira path uses it.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (model.Employee, error)
}

// Normalizer is stateless apart from its collaborators.
type Normalizer struct {
	directory Directory
	allowTest bool
	now       func() time.Time
	newID     func() string
	log       logger.Logger
}

// New constructs a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.log == nil {
		n.log = logger.Get().Named("normalize")
	}
	return n
}

type rule func(n *Normalizer, ctx context.Context, p model.Payload) (employeeID string, hint model.Category, err error)

var rules = map[model.Source]rule{
	model.SourceJira:      (*Normalizer).jira,
	model.SourceGitHub:    (*Normalizer).github,
	model.SourceBitbucket: (*Normalizer).bitbucket,
	model.SourceSlack:     (*Normalizer).slack,
}

// Normalize converts payload from source into an unclassified effort draft.
// The category of the draft holds the source's effort type hint.
func (n *Normalizer) Normalize(ctx context.Context, source model.Source, payload model.Payload) (model.Effort, error) {
	r, ok := rules[source]
	if source == model.SourceTest && n.allowTest {
		r, ok = (*Normalizer).test, true
	}
	if !ok {
		return model.Effort{}, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}

	employeeID, hint, err := r(n, ctx, payload)
	if err != nil {
		return model.Effort{}, fmt.Errorf("normalize %s: %w", source, err)
	}

	return model.Effort{
		ID:         n.newID(),
		EmployeeID: employeeID,
		Source:     source,
		Category:   hint,
		Payload:    payload,
		Timestamp:  n.now().UTC(),
	}, nil
}

func (n *Normalizer) jira(ctx context.Context, p model.Payload) (string, model.Category, error) {
	email, err := required(p, "issue", "assignee", "emailAddress")
	if err != nil {
		return "", "", err
	}
	issueType, err := required(p, "issue", "issuetype", "name")
	if err != nil {
		return "", "", err
	}

	var employeeID string
	if n.directory != nil {
		emp, lerr := n.directory.FindByEmail(ctx, email)
		if lerr != nil {
			n.log.Debug(ctx, "jira assignee not resolved", logger.String("email", email), logger.Error(lerr))
		} else {
			employeeID = emp.ID
		}
	}
	return employeeID, jiraHint(issueType), nil
}

func jiraHint(issueType string) model.Category {
	switch {
	case strings.Contains(issueType, "Bug"):
		return model.BugFix
	case strings.Contains(issueType, "Feature"), strings.Contains(issueType, "Epic"):
		return model.FeatureWork
	default:
		// "Task" and anything else
		return model.Collaboration
	}
}

func (n *Normalizer) github(_ context.Context, p model.Payload) (string, model.Category, error) {
	login, err := required(p, "pull_request", "user", "login")
	if err != nil {
		return "", "", err
	}
	action, err := required(p, "action")
	if err != nil {
		return "", "", err
	}

	hint := model.Collaboration
	switch action {
	case "opened", "reopened":
		hint = model.FeatureWork
	case "closed":
		// a missing or non-boolean merged flag counts as not merged
		if merged, _, _ := p.Bool("pull_request", "merged"); merged {
			hint = model.FeatureWork
		}
	}
	return HandleIdentity(model.SourceGitHub, login), hint, nil
}

func (n *Normalizer) bitbucket(_ context.Context, p model.Payload) (string, model.Category, error) {
	username, err := required(p, "pullrequest", "author", "user", "username")
	if err != nil {
		return "", "", err
	}
	return HandleIdentity(model.SourceBitbucket, username), model.FeatureWork, nil
}

func (n *Normalizer) slack(_ context.Context, p model.Payload) (string, model.Category, error) {
	user, err := required(p, "event", "user")
	if err != nil {
		return "", "", err
	}
	return HandleIdentity(model.SourceSlack, user), model.Collaboration, nil
}

func required(p model.Payload, keys ...string) (string, error) {
	s, err := p.String(keys...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if s == "" {
		return "", fmt.Errorf("%w: %s is required", ErrMalformedPayload, strings.Join(keys, "."))
	}
	return s, nil
}
