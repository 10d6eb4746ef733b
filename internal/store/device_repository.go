package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wavetable-labs/soundbridge/internal/device"
)

// DeviceRepository adapts the blob store to the registry's persistence
// interface. Devices are serialized as JSON under kind DeviceInfo.
type DeviceRepository struct {
	repo   Repository
	logger device.Logger
}

// NewDeviceRepository creates the registry-facing adapter.
func NewDeviceRepository(repo Repository, logger device.Logger) *DeviceRepository {
	if logger == nil {
		logger = noopLogger{}
	}
	return &DeviceRepository{repo: repo, logger: logger}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Save persists the full device record.
func (r *DeviceRepository) Save(ctx context.Context, d *device.Device) error {
	blob, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding device %s: %w", d.ID, err)
	}
	return r.repo.Save(ctx, KindDeviceInfo, d.AccountID, d.ID, blob)
}

// Load retrieves a device by account and id.
func (r *DeviceRepository) Load(ctx context.Context, accountID, deviceID string) (*device.Device, error) {
	blob, err := r.repo.Load(ctx, KindDeviceInfo, accountID, deviceID)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", device.ErrDeviceNotFound, deviceID)
	}
	if err != nil {
		return nil, err
	}

	var d device.Device
	if err := json.Unmarshal(blob, &d); err != nil {
		return nil, fmt.Errorf("decoding device %s: %w", deviceID, err)
	}
	return &d, nil
}

// Delete removes a device record.
func (r *DeviceRepository) Delete(ctx context.Context, accountID, deviceID string) error {
	return r.repo.Delete(ctx, KindDeviceInfo, accountID, deviceID)
}

// LoadAll retrieves every persisted device in creation order.
// Malformed records are logged and skipped so one corrupt row cannot
// keep the registry from starting.
func (r *DeviceRepository) LoadAll(ctx context.Context) ([]device.Device, error) {
	entries, err := r.repo.LoadKind(ctx, KindDeviceInfo)
	if err != nil {
		return nil, err
	}

	devices := make([]device.Device, 0, len(entries))
	for _, entry := range entries {
		var d device.Device
		if err := json.Unmarshal(entry.Blob, &d); err != nil {
			r.logger.Warn("skipping malformed device record",
				"account_id", entry.AccountID, "device_id", entry.DeviceID, "error", err)
			continue
		}
		devices = append(devices, d)
	}
	return devices, nil
}
