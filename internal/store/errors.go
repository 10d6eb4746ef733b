package store

import "errors"

// Sentinel errors for persistence operations.
// Use errors.Is to check for these errors as they may be wrapped.
var (
	// ErrRecordNotFound is returned when no record exists for the
	// requested (kind, account, device) key.
	ErrRecordNotFound = errors.New("store: record not found")

	// ErrPersistenceFailed wraps database failures on the write path.
	// Callers treat it as the durable commit having not happened.
	ErrPersistenceFailed = errors.New("store: persistence failed")

	// ErrInvalidKind is returned for a record kind outside the known set.
	ErrInvalidKind = errors.New("store: invalid record kind")
)
