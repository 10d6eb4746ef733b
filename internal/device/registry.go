package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wavetable-labs/soundbridge/internal/events"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher receives change notifications after a mutation commits.
type Publisher interface {
	Publish(event events.Event)
}

// Registry is the authoritative set of known devices and the single
// mutation point for their control state. It wraps a Repository and
// adds an in-memory cache for fast lookups.
//
// Reads hand out deep copies; no caller ever holds a mutable reference
// into the cache. All public methods are thread-safe.
type Registry struct {
	repo          Repository
	allowFallback bool

	cacheMu sync.RWMutex
	cache   map[string]*Device
	order   []string // Device ids in registration order

	logger Logger
	events Publisher
}

// NewRegistry creates a new device registry.
//
// allowFallback preserves the legacy single-speaker behaviour where a
// lookup for an unknown id returns the first registered device instead
// of failing. Multi-device deployments should leave it off.
func NewRegistry(repo Repository, allowFallback bool) *Registry {
	return &Registry{
		repo:          repo,
		allowFallback: allowFallback,
		cache:         make(map[string]*Device),
		logger:        noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetEvents sets the notification sink. Events are published after the
// triggering mutation commits; a nil sink disables notifications.
func (r *Registry) SetEvents(events Publisher) {
	r.events = events
}

// RefreshCache reloads all devices from the repository into the cache.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	devices, err := r.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]*Device, len(devices))
	r.order = make([]string, 0, len(devices))
	for i := range devices {
		d := devices[i]
		r.cache[d.ID] = d.DeepCopy()
		r.order = append(r.order, d.ID)
	}

	r.logger.Info("device cache refreshed", "count", len(devices))
	return nil
}

// Register creates or replaces the device with the descriptor's id.
// Replacing an existing device updates its descriptor fields but keeps
// accumulated state (presets, recents, now playing, creation time).
// Emits a device_registered event.
func (r *Registry) Register(ctx context.Context, descriptor Device) (*Device, error) {
	if descriptor.ID == "" {
		return nil, fmt.Errorf("%w: empty device id", ErrDeviceNotFound)
	}
	if descriptor.Name != "" {
		if err := ValidateName(descriptor.Name); err != nil {
			return nil, err
		}
	}

	now := time.Now()

	r.cacheMu.Lock()

	d := descriptor
	if existing, ok := r.cache[d.ID]; ok {
		d.Presets = existing.Presets
		d.Recents = existing.Recents
		d.NowPlaying = existing.NowPlaying
		d.CreatedAt = existing.CreatedAt
		if d.Name == "" {
			d.Name = existing.Name
		}
		if d.Volume == 0 {
			d.Volume = existing.Volume
		}
		d.Bass = existing.Bass
		d.Balance = existing.Balance
	} else {
		d.CreatedAt = now
		if d.Volume == 0 {
			d.Volume = DefaultVolume
		}
		r.order = append(r.order, d.ID)
	}
	if d.Port == 0 {
		d.Port = DefaultPort
	}
	d.Volume = ClampVolume(d.Volume)
	d.Bass = ClampBass(d.Bass)
	d.Balance = ClampBalance(d.Balance)
	d.UpdatedAt = now

	r.cache[d.ID] = d.DeepCopy()
	r.cacheMu.Unlock()

	if err := r.repo.Save(ctx, &d); err != nil {
		r.logger.Warn("persisting device failed", "device_id", d.ID, "error", err)
	}

	r.logger.Info("device registered", "device_id", d.ID, "name", d.Name)
	r.publish(events.TypeDeviceRegistered, &d, nil)

	return d.DeepCopy(), nil
}

// Unregister removes a device. No-op if the device is unknown.
// Emits a device_unregistered event when a device was removed.
func (r *Registry) Unregister(ctx context.Context, id string) error {
	r.cacheMu.Lock()
	d, ok := r.cache[id]
	if !ok {
		r.cacheMu.Unlock()
		return nil
	}
	accountID := d.AccountID
	delete(r.cache, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.cacheMu.Unlock()

	if err := r.repo.Delete(ctx, accountID, id); err != nil {
		r.logger.Warn("deleting device record failed", "device_id", id, "error", err)
	}

	r.logger.Info("device unregistered", "device_id", id)
	r.publish(events.TypeDeviceUnregistered, &Device{ID: id, AccountID: accountID}, nil)

	return nil
}

// Get retrieves a device by id.
//
// When the id is unknown and fallback is enabled, the first registered
// device is returned instead. An empty registry always yields
// ErrDeviceNotFound. The returned device is a deep copy.
func (r *Registry) Get(ctx context.Context, id string) (*Device, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	d, ok := r.resolveLocked(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return d.DeepCopy(), nil
}

// List retrieves all devices in registration order.
// The returned devices are deep copies.
func (r *Registry) List(ctx context.Context) []Device {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	devices := make([]Device, 0, len(r.order))
	for _, id := range r.order {
		if d, ok := r.cache[id]; ok {
			devices = append(devices, *d.DeepCopy())
		}
	}
	return devices
}

// SetVolume updates a device's volume, clamped to [0,100].
func (r *Registry) SetVolume(ctx context.Context, id string, volume int) (*Device, error) {
	d, err := r.mutate(ctx, id, func(d *Device) {
		d.Volume = ClampVolume(volume)
	})
	if err != nil {
		return nil, err
	}
	r.publish(events.TypeVolumeChanged, d, map[string]int{"volume": d.Volume})
	return d, nil
}

// SetBass updates a device's bass level, clamped to [-9,0].
func (r *Registry) SetBass(ctx context.Context, id string, bass int) (*Device, error) {
	d, err := r.mutate(ctx, id, func(d *Device) {
		d.Bass = ClampBass(bass)
	})
	if err != nil {
		return nil, err
	}
	r.publish(events.TypeBassChanged, d, map[string]int{"bass": d.Bass})
	return d, nil
}

// SetBalance updates a device's stereo balance, clamped to [-10,10].
func (r *Registry) SetBalance(ctx context.Context, id string, balance int) (*Device, error) {
	d, err := r.mutate(ctx, id, func(d *Device) {
		d.Balance = ClampBalance(balance)
	})
	if err != nil {
		return nil, err
	}
	r.publish(events.TypeBalanceChanged, d, map[string]int{"balance": d.Balance})
	return d, nil
}

// SetName renames a device. Returns ErrInvalidName for empty or
// oversized names.
func (r *Registry) SetName(ctx context.Context, id, name string) (*Device, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	d, err := r.mutate(ctx, id, func(d *Device) {
		d.Name = name
	})
	if err != nil {
		return nil, err
	}
	r.publish(events.TypeNameChanged, d, map[string]string{"name": d.Name})
	return d, nil
}

// SetNowPlaying replaces a device's current content. A change of
// content (not merely play status) appends a Recent entry, evicting the
// oldest beyond the cap. Emits now_playing, plus recents_updated when a
// recent was captured.
func (r *Registry) SetNowPlaying(ctx context.Context, id string, np *NowPlaying) (*Device, error) {
	var captured bool
	d, err := r.mutate(ctx, id, func(d *Device) {
		if np != nil && contentChanged(d.NowPlaying, np) {
			recent := Recent{
				ContentItem: np.ContentItem(),
				UTCTime:     time.Now().UnixMilli(),
			}
			d.Recents = append([]Recent{recent}, d.Recents...)
			if len(d.Recents) > MaxRecents {
				d.Recents = d.Recents[:MaxRecents]
			}
			captured = true
		}
		d.NowPlaying = np
	})
	if err != nil {
		return nil, err
	}

	r.publish(events.TypeNowPlaying, d, d.NowPlaying)
	if captured {
		r.publish(events.TypeRecentsUpdated, d, nil)
	}
	return d, nil
}

// Standby clears a device's current content, returning it to standby.
// This is the only path that clears now playing.
func (r *Registry) Standby(ctx context.Context, id string) (*Device, error) {
	d, err := r.mutate(ctx, id, func(d *Device) {
		d.NowPlaying = nil
	})
	if err != nil {
		return nil, err
	}
	r.publish(events.TypeNowPlaying, d, nil)
	return d, nil
}

// UpdatePresets replaces a device's in-memory preset cache. Called by
// the preset store after the durable copy has committed; no event is
// emitted here, the preset store owns that notification.
func (r *Registry) UpdatePresets(ctx context.Context, id string, presets []Preset) (*Device, error) {
	return r.mutate(ctx, id, func(d *Device) {
		d.Presets = make([]Preset, len(presets))
		copy(d.Presets, presets)
	})
}

// UpdateRecents replaces a device's recents list, truncated to the cap.
// Used when a speaker pushes its own history.
func (r *Registry) UpdateRecents(ctx context.Context, id string, recents []Recent) (*Device, error) {
	if len(recents) > MaxRecents {
		recents = recents[:MaxRecents]
	}
	d, err := r.mutate(ctx, id, func(d *Device) {
		d.Recents = make([]Recent, len(recents))
		copy(d.Recents, recents)
	})
	if err != nil {
		return nil, err
	}
	r.publish(events.TypeRecentsUpdated, d, nil)
	return d, nil
}

// mutate resolves a device (honouring fallback), applies fn, persists,
// and returns a deep copy. Persistence failures are logged; the cache
// update stands, the durable copy catches up on the next write.
func (r *Registry) mutate(ctx context.Context, id string, fn func(*Device)) (*Device, error) {
	r.cacheMu.Lock()
	d, ok := r.resolveLocked(id)
	if !ok {
		r.cacheMu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}

	fn(d)
	d.UpdatedAt = time.Now()
	snapshot := d.DeepCopy()
	r.cacheMu.Unlock()

	if err := r.repo.Save(ctx, snapshot); err != nil {
		r.logger.Warn("persisting device failed", "device_id", snapshot.ID, "error", err)
	}

	return snapshot, nil
}

// resolveLocked looks up a device by id, falling back to the first
// registered device when enabled. Caller holds cacheMu.
func (r *Registry) resolveLocked(id string) (*Device, bool) {
	if d, ok := r.cache[id]; ok {
		return d, true
	}
	if r.allowFallback && len(r.order) > 0 {
		if d, ok := r.cache[r.order[0]]; ok {
			r.logger.Debug("device lookup fell back to first device",
				"requested", id, "resolved", d.ID)
			return d, true
		}
	}
	return nil, false
}

func (r *Registry) publish(eventType string, d *Device, payload any) {
	if r.events == nil {
		return
	}
	r.events.Publish(events.Event{
		Type:      eventType,
		AccountID: d.AccountID,
		DeviceID:  d.ID,
		Payload:   payload,
	})
}

// contentChanged reports whether the new content refers to something
// different from the current content. Play status changes alone do not
// count.
func contentChanged(current, next *NowPlaying) bool {
	if current == nil {
		return true
	}
	return current.Source != next.Source ||
		current.Location != next.Location ||
		current.StationID != next.StationID
}
