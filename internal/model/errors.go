package model

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrInvalidAudio       = errors.New("invalid audio format")
	ErrTransientStorage   = errors.New("transient storage failure")
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	ErrUnavailable        = errors.New("capability unavailable")
)
