package classify

import "errors"

var (
	// ErrAssistantUnavailable is returned by assistants that cannot answer.
	ErrAssistantUnavailable = errors.New("classification assistant unavailable")
	// ErrOutsideTaxonomy is returned when a suggestion is not a known category.
	ErrOutsideTaxonomy = errors.New("category outside taxonomy")
)
