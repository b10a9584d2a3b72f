package config

import "errors"

// Sentinel errors; schedule errors also match ErrInvalidConfig.
var (
	ErrInvalidConfig   = errors.New("invalid config")
	ErrInvalidSchedule = errors.New("invalid digest schedule")
	ErrLoadConfig      = errors.New("load config failed")
)
