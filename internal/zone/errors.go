package zone

import "errors"

// Sentinel errors for zone operations.
// Use errors.Is to check for these errors as they may be wrapped.
var (
	// ErrZoneNotFound is returned when no zone exists for the master id.
	ErrZoneNotFound = errors.New("zone: zone not found")

	// ErrZoneInvalid is returned when a zone request is structurally
	// invalid, e.g. the master is already a slave elsewhere.
	ErrZoneInvalid = errors.New("zone: invalid zone")

	// ErrSlaveInZone is returned when a slave already belongs to a
	// different zone or masters one of its own.
	ErrSlaveInZone = errors.New("zone: device already grouped")
)
