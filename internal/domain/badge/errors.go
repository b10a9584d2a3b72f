package badge

import "errors"

var (
	// ErrUnknownBadge is returned for badge ids without a definition or rule.
	ErrUnknownBadge = errors.New("unknown badge")
	// ErrNoEmployee is returned when evaluating an unresolved identity.
	ErrNoEmployee = errors.New("employee identity required")
)
