package device

import "context"

// Repository defines the persistence interface for devices.
// Implementations must return ErrDeviceNotFound (or wrap it) when a
// device does not exist.
//
// The Registry is the only caller; it layers caching, validation, and
// event emission on top.
type Repository interface {
	// Save persists the full device record, replacing any existing one.
	Save(ctx context.Context, d *Device) error

	// Load retrieves a device by account and id.
	Load(ctx context.Context, accountID, deviceID string) (*Device, error)

	// Delete removes a device record. Deleting an absent record is not
	// an error.
	Delete(ctx context.Context, accountID, deviceID string) error

	// LoadAll retrieves every persisted device across all accounts,
	// ordered by creation time.
	LoadAll(ctx context.Context) ([]Device, error)
}
