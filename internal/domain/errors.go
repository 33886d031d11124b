package domain

import "errors"

var (
	// ErrInvalidInput marks text that cannot be scored: empty, or shorter than
	// the minimum word count after cleaning.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCollaboratorUnavailable marks a failed call to an optional external
	// collaborator (neural scorer, generator, geocoder). Callers recover with a
	// deterministic fallback.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrConfiguration marks invalid thresholds, weights, or lexicon files.
	ErrConfiguration = errors.New("invalid configuration")
)
