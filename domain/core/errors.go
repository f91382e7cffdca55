package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Ingestion errors
	ErrParse         = errors.New("malformed source")
	ErrNoHeader      = fmt.Errorf("%w: missing header row", ErrParse)
	ErrNoDataRows    = fmt.Errorf("%w: zero valid data rows", ErrParse)
	ErrCancelled     = errors.New("operation cancelled")
	ErrFieldNotFound = errors.New("field not found")

	// Analysis errors
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrDegenerate       = errors.New("degenerate input")
	ErrNonFinite        = errors.New("non-finite value in feature data")
	ErrSingularMatrix   = errors.New("singular design matrix")

	// Infrastructure errors
	ErrCacheUnavailable = errors.New("cache backend unavailable")
	ErrWorkerFailed     = errors.New("background worker failed")
)

// NewFieldNotFoundError reports a missing field by name.
func NewFieldNotFoundError(name string) error {
	return fmt.Errorf("%w: %q", ErrFieldNotFound, name)
}

// NewInsufficientDataError reports how many valid rows were available versus required.
func NewInsufficientDataError(have, need int) error {
	return fmt.Errorf("%w: have %d valid rows, need %d", ErrInsufficientData, have, need)
}

// Error checking helpers
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}

func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}
