package device

import "errors"

// Sentinel errors for device operations.
// Use errors.Is to check for these errors as they may be wrapped.
var (
	// ErrDeviceNotFound is returned when a device lookup fails and no
	// fallback applies.
	ErrDeviceNotFound = errors.New("device: device not found")

	// ErrInvalidSlot is returned when a preset slot id is not an integer
	// in [1,6].
	ErrInvalidSlot = errors.New("device: invalid preset slot")

	// ErrMalformedContent is returned when a content reference is
	// structurally invalid.
	ErrMalformedContent = errors.New("device: malformed content reference")

	// ErrInvalidName is returned when a device name fails validation.
	ErrInvalidName = errors.New("device: invalid device name")
)
