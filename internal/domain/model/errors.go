package model

import "errors"

var (
	ErrInvalidEffort = errors.New("invalid effort")
	ErrPayloadShape  = errors.New("payload field has unexpected shape")
)
