package model

import "errors"

// Sentinel errors shared across pipeline boundaries. Matched with
// errors.Is; packages wrap them with local context.
var (
	// ErrInvalidOptions is returned when a request's option combination
	// is rejected at the boundary, before any processing.
	ErrInvalidOptions = errors.New("invalid options")

	// ErrInsufficientInput is returned when fewer signals than the
	// minimum cluster size are available.
	ErrInsufficientInput = errors.New("insufficient input")

	// ErrProviderMismatch is returned when a clustering run would mix
	// feature vectors produced by different embedding providers.
	ErrProviderMismatch = errors.New("embedding provider mismatch")

	// ErrBudgetExceeded is returned when a run exceeds its wall-clock
	// budget with no completed stage to fall back on.
	ErrBudgetExceeded = errors.New("wall-clock budget exceeded")
)
