package models

import "errors"

var (
	// ErrDataUnavailable means the artifacts are missing, malformed or not loaded yet.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInvalidArgument means client input could not be parsed.
	ErrInvalidArgument = errors.New("invalid argument")
)
