package device

import (
	"context"
	"fmt"
	"sync"
)

// MemoryRepository is an in-memory Repository. It backs tests and
// ephemeral deployments that opt out of durable storage.
type MemoryRepository struct {
	mu      sync.Mutex
	devices map[string]*Device
	order   []string
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{devices: make(map[string]*Device)}
}

// Save stores a deep copy of the device.
func (m *MemoryRepository) Save(_ context.Context, d *Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.devices[d.ID]; !ok {
		m.order = append(m.order, d.ID)
	}
	m.devices[d.ID] = d.DeepCopy()
	return nil
}

// Load retrieves a device by id.
func (m *MemoryRepository) Load(_ context.Context, _, deviceID string) (*Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[deviceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	return d.DeepCopy(), nil
}

// Delete removes a device. Absent ids are a no-op.
func (m *MemoryRepository) Delete(_ context.Context, _, deviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.devices[deviceID]; !ok {
		return nil
	}
	delete(m.devices, deviceID)
	for i, id := range m.order {
		if id == deviceID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// LoadAll returns every device in creation order.
func (m *MemoryRepository) LoadAll(_ context.Context) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Device, 0, len(m.order))
	for _, id := range m.order {
		if d, ok := m.devices[id]; ok {
			out = append(out, *d.DeepCopy())
		}
	}
	return out, nil
}
