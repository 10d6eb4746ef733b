package directory

import "errors"

// Sentinel errors for stream resolution.
// Use errors.Is to check for these errors as they may be wrapped.
var (
	// ErrLookupFailed is returned when the radio directory is
	// unreachable or answers with a non-2xx status.
	ErrLookupFailed = errors.New("directory: lookup failed")

	// ErrResolutionFailed is returned when an external lookup was
	// required but did not complete. Transient; safe for the caller to
	// retry with backoff.
	ErrResolutionFailed = errors.New("directory: resolution failed")

	// ErrResolutionIncomplete is returned when the directory answered
	// with another identifier instead of a stream URL. Resolving it
	// would need a second round trip, which is not performed.
	ErrResolutionIncomplete = errors.New("directory: resolution incomplete")

	// ErrUnresolvableReference is returned when a content reference
	// offers no path to a playable location.
	ErrUnresolvableReference = errors.New("directory: unresolvable reference")
)
