package zone

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wavetable-labs/soundbridge/internal/device"
	"github.com/wavetable-labs/soundbridge/internal/events"
)

// Logger defines the logging interface used by the Coordinator.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher receives change notifications after a zone transition.
type Publisher interface {
	Publish(event events.Event)
}

// Zone is a multiroom group: one master, an ordered set of slaves.
type Zone struct {
	Master    string    `json:"master"`
	Slaves    []string  `json:"slaves"`
	CreatedAt time.Time `json:"created_at"`
}

func (z *Zone) copy() *Zone {
	clone := *z
	clone.Slaves = make([]string, len(z.Slaves))
	copy(clone.Slaves, z.Slaves)
	return &clone
}

func (z *Zone) hasSlave(id string) bool {
	for _, s := range z.Slaves {
		if s == id {
			return true
		}
	}
	return false
}

// Member is a zone participant resolved to its current network address.
type Member struct {
	DeviceID string `json:"device_id"`
	Name     string `json:"name,omitempty"`
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
}

// View is a zone snapshot with members resolved through the registry at
// read time, so a zone survives a slave's address change.
type View struct {
	Master    Member    `json:"master"`
	Slaves    []Member  `json:"slaves"`
	CreatedAt time.Time `json:"created_at"`
}

// Coordinator maintains the multiroom group topology, keyed by master
// device id. Zones are in-memory only; speakers re-establish their
// groups after a restart.
//
// All public methods are thread-safe.
type Coordinator struct {
	registry *device.Registry

	mu    sync.RWMutex
	zones map[string]*Zone

	logger Logger
	events Publisher
}

// NewCoordinator creates an empty coordinator over the registry.
func NewCoordinator(registry *device.Registry) *Coordinator {
	return &Coordinator{
		registry: registry,
		zones:    make(map[string]*Zone),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the coordinator.
func (c *Coordinator) SetLogger(logger Logger) {
	c.logger = logger
}

// SetEvents sets the notification sink.
func (c *Coordinator) SetEvents(events Publisher) {
	c.events = events
}

// CreateZone creates or wholesale-replaces the zone mastered by
// masterID.
//
// An unknown master fails with ErrDeviceNotFound. Unknown slave ids are
// silently dropped, matching permissive speaker behaviour. A slave that
// already belongs to a different zone, or masters one of its own, is
// rejected; likewise a master that is a slave elsewhere.
func (c *Coordinator) CreateZone(ctx context.Context, masterID string, slaveIDs []string) (*Zone, error) {
	master, err := c.registry.Get(ctx, masterID)
	if err != nil {
		return nil, fmt.Errorf("resolving zone master: %w", err)
	}
	masterID = master.ID // Fallback may have resolved to a different device

	// Keep only known slaves, deduplicated, excluding the master itself
	slaves := make([]string, 0, len(slaveIDs))
	seen := map[string]bool{masterID: true}
	for _, id := range slaveIDs {
		if seen[id] {
			continue
		}
		if _, err := c.registry.Get(ctx, id); err != nil {
			c.logger.Debug("dropping unknown zone slave", "device_id", id)
			continue
		}
		seen[id] = true
		slaves = append(slaves, id)
	}

	c.mu.Lock()
	if other := c.masterOrSlaveLocked(masterID); other != "" && other != masterID {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: master %s is a slave of %s", ErrZoneInvalid, masterID, other)
	}
	for _, id := range slaves {
		if other := c.masterOrSlaveLocked(id); other != "" && other != masterID {
			c.mu.Unlock()
			return nil, fmt.Errorf("%w: %s belongs to zone %s", ErrSlaveInZone, id, other)
		}
	}

	replacing := c.zones[masterID] != nil
	z := &Zone{Master: masterID, Slaves: slaves, CreatedAt: time.Now()}
	c.zones[masterID] = z
	snapshot := z.copy()
	c.mu.Unlock()

	c.logger.Info("zone created", "master", masterID, "slaves", len(slaves), "replaced", replacing)
	if replacing {
		c.publish(events.TypeZoneUpdated, snapshot)
	} else {
		c.publish(events.TypeZoneCreated, snapshot)
	}
	return snapshot, nil
}

// AddSlave joins a device to an existing zone. Adding an already-present
// slave is a no-op; an unknown device id is silently ignored.
func (c *Coordinator) AddSlave(ctx context.Context, masterID, slaveID string) (*Zone, error) {
	if _, err := c.registry.Get(ctx, slaveID); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			return c.Zone(ctx, masterID)
		}
		return nil, err
	}

	c.mu.Lock()
	z, ok := c.zones[masterID]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrZoneNotFound, masterID)
	}
	if z.hasSlave(slaveID) || slaveID == masterID {
		snapshot := z.copy()
		c.mu.Unlock()
		return snapshot, nil
	}
	if other := c.masterOrSlaveLocked(slaveID); other != "" && other != masterID {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s belongs to zone %s", ErrSlaveInZone, slaveID, other)
	}

	z.Slaves = append(z.Slaves, slaveID)
	snapshot := z.copy()
	c.mu.Unlock()

	c.logger.Info("zone slave added", "master", masterID, "slave", slaveID)
	c.publish(events.TypeZoneUpdated, snapshot)
	return snapshot, nil
}

// RemoveSlave detaches a device from a zone. Removing an absent slave
// is a no-op.
func (c *Coordinator) RemoveSlave(ctx context.Context, masterID, slaveID string) (*Zone, error) {
	c.mu.Lock()
	z, ok := c.zones[masterID]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrZoneNotFound, masterID)
	}
	if !z.hasSlave(slaveID) {
		snapshot := z.copy()
		c.mu.Unlock()
		return snapshot, nil
	}

	kept := z.Slaves[:0]
	for _, s := range z.Slaves {
		if s != slaveID {
			kept = append(kept, s)
		}
	}
	z.Slaves = kept
	snapshot := z.copy()
	c.mu.Unlock()

	c.logger.Info("zone slave removed", "master", masterID, "slave", slaveID)
	c.publish(events.TypeZoneUpdated, snapshot)
	return snapshot, nil
}

// RemoveZone dissolves the zone mastered by masterID. No-op if absent.
func (c *Coordinator) RemoveZone(ctx context.Context, masterID string) error {
	c.mu.Lock()
	z, ok := c.zones[masterID]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	delete(c.zones, masterID)
	snapshot := z.copy()
	c.mu.Unlock()

	c.logger.Info("zone removed", "master", masterID)
	c.publish(events.TypeZoneDissolved, snapshot)
	return nil
}

// Zone returns the zone mastered by masterID with members resolved to
// their current hosts.
func (c *Coordinator) Zone(ctx context.Context, masterID string) (*Zone, error) {
	c.mu.RLock()
	z, ok := c.zones[masterID]
	if !ok {
		c.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s", ErrZoneNotFound, masterID)
	}
	snapshot := z.copy()
	c.mu.RUnlock()
	return snapshot, nil
}

// ZoneFor returns the zone a device participates in, as master or
// slave. Used by the control app, which queries by whatever device it
// happens to be looking at.
func (c *Coordinator) ZoneFor(ctx context.Context, deviceID string) (*Zone, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if z, ok := c.zones[deviceID]; ok {
		return z.copy(), nil
	}
	for _, z := range c.zones {
		if z.hasSlave(deviceID) {
			return z.copy(), nil
		}
	}
	return nil, fmt.Errorf("%w: no zone for %s", ErrZoneNotFound, deviceID)
}

// List returns all zones.
func (c *Coordinator) List(ctx context.Context) []Zone {
	c.mu.RLock()
	defer c.mu.RUnlock()

	zones := make([]Zone, 0, len(c.zones))
	for _, z := range c.zones {
		zones = append(zones, *z.copy())
	}
	return zones
}

// Resolve expands a zone into a member view, resolving each id to its
// current host through the registry at read time. Members that are no
// longer registered keep their id with empty network fields.
func (c *Coordinator) Resolve(ctx context.Context, z *Zone) View {
	view := View{
		Master:    c.member(ctx, z.Master),
		Slaves:    make([]Member, 0, len(z.Slaves)),
		CreatedAt: z.CreatedAt,
	}
	for _, id := range z.Slaves {
		view.Slaves = append(view.Slaves, c.member(ctx, id))
	}
	return view
}

// HandleDeviceUnregistered drops zones mastered by the device and
// detaches it from any zone it slaves in. Called after the registry
// removes a device.
func (c *Coordinator) HandleDeviceUnregistered(ctx context.Context, deviceID string) {
	var dissolved, updated []*Zone

	c.mu.Lock()
	if z, ok := c.zones[deviceID]; ok {
		delete(c.zones, deviceID)
		dissolved = append(dissolved, z.copy())
	}
	for _, z := range c.zones {
		if !z.hasSlave(deviceID) {
			continue
		}
		kept := z.Slaves[:0]
		for _, s := range z.Slaves {
			if s != deviceID {
				kept = append(kept, s)
			}
		}
		z.Slaves = kept
		updated = append(updated, z.copy())
	}
	c.mu.Unlock()

	for _, z := range dissolved {
		c.logger.Info("zone dissolved with master", "master", z.Master)
		c.publish(events.TypeZoneDissolved, z)
	}
	for _, z := range updated {
		c.publish(events.TypeZoneUpdated, z)
	}
}

// masterOrSlaveLocked reports which zone (by master id) a device
// participates in, or empty when ungrouped. Caller holds mu.
func (c *Coordinator) masterOrSlaveLocked(deviceID string) string {
	if _, ok := c.zones[deviceID]; ok {
		return deviceID
	}
	for master, z := range c.zones {
		if z.hasSlave(deviceID) {
			return master
		}
	}
	return ""
}

func (c *Coordinator) member(ctx context.Context, deviceID string) Member {
	d, err := c.registry.Get(ctx, deviceID)
	if err != nil {
		return Member{DeviceID: deviceID}
	}
	return Member{DeviceID: deviceID, Name: d.Name, Host: d.Host, Port: d.Port}
}

func (c *Coordinator) publish(eventType string, z *Zone) {
	if c.events == nil {
		return
	}
	c.events.Publish(events.Event{
		Type:     eventType,
		DeviceID: z.Master,
		Payload:  z,
	})
}
