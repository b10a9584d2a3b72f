package digest

import "errors"

var (
	// ErrCorruptEffort is returned when an input effort breaks the score range.
	ErrCorruptEffort = errors.New("corrupt effort in digest window")
	// ErrInvalidWindow is returned when the window end is not after its start.
	ErrInvalidWindow = errors.New("invalid digest window")
)
