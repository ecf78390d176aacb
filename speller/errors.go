package speller

import "errors"

var (
	// ErrSpellerUnavailable is returned when the service answers with an
	// error status.
	ErrSpellerUnavailable = errors.New("spell-check service unavailable")

	// ErrInvalidResponse is returned when the service body cannot be decoded.
	ErrInvalidResponse = errors.New("invalid spell-check response")
)
