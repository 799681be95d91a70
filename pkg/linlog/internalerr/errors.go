package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrParse            = errors.New("parse error")

	// Capacity errors are reported to the caller, never dropped silently.
	ErrSubstitutionCapacity = errors.New("substitution capacity exceeded")
	ErrRuleCapacity         = errors.New("rule table capacity exceeded")
	ErrDepthExceeded        = errors.New("resolution depth exceeded")
)
