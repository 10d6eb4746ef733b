package playback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wavetable-labs/soundbridge/internal/device"
)

// Key is an abstract control key event, matching the key names speakers
// and remotes send.
type Key string

// Supported key events. PRESET_1 through PRESET_6 trigger preset
// selection.
const (
	KeyPlay      Key = "PLAY"
	KeyPause     Key = "PAUSE"
	KeyPlayPause Key = "PLAY_PAUSE"
	KeyStop      Key = "STOP"
)

const presetKeyPrefix = "PRESET_"

// ErrUnknownKey is returned for key names outside the supported set.
var ErrUnknownKey = errors.New("playback: unknown key")

// Logger defines the logging interface used by the Machine.
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

// Resolver materializes a playable location for a content reference.
// Satisfied by the directory resolver.
type Resolver interface {
	Resolve(ctx context.Context, item device.ContentItem) (device.ContentItem, error)
}

// RecentsSaver persists a device's recently-played history after a
// content change. Satisfied by the preset store.
type RecentsSaver interface {
	SaveRecents(ctx context.Context, accountID, deviceID string, recents []device.Recent) error
}

// Machine drives per-device play state transitions from key events.
//
// The state is derived from the device's NowPlaying: nil is STANDBY,
// otherwise the play status decides. The machine never holds registry
// locks across resolver lookups; it re-reads device state through the
// registry when applying results, tolerating benign staleness.
type Machine struct {
	registry *device.Registry
	resolver Resolver
	recents  RecentsSaver
	logger   Logger
}

// NewMachine creates a playback state machine.
func NewMachine(registry *device.Registry, resolver Resolver, recents RecentsSaver) *Machine {
	return &Machine{
		registry: registry,
		resolver: resolver,
		recents:  recents,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the machine.
func (m *Machine) SetLogger(logger Logger) {
	m.logger = logger
}

// ParseKey validates a wire key name.
func ParseKey(name string) (Key, error) {
	key := Key(strings.ToUpper(strings.TrimSpace(name)))
	switch key {
	case KeyPlay, KeyPause, KeyPlayPause, KeyStop:
		return key, nil
	}
	if slot, ok := presetSlot(key); ok {
		if _, err := device.ParseSlot(slot); err == nil {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, name)
}

// HandleKey applies a key event to a device and returns its new state.
//
// PLAY, PAUSE, and STOP on a standby device are no-ops, as is selecting
// an empty preset slot; lenient firmware never errors on those.
// PLAY_PAUSE from STOPPED or STANDBY acts as PLAY. STOP keeps the
// current content, distinguishing STOPPED from STANDBY.
func (m *Machine) HandleKey(ctx context.Context, accountID, deviceID string, key Key) (*device.Device, error) {
	if slot, ok := presetSlot(key); ok {
		return m.selectPreset(ctx, accountID, deviceID, slot)
	}

	d, err := m.registry.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if d.NowPlaying == nil {
		// Standby: transport keys have nothing to act on
		return d, nil
	}

	status := d.NowPlaying.PlayStatus
	switch key {
	case KeyPlay:
		status = device.PlayStatePlaying
	case KeyPause:
		status = device.PlayStatePaused
	case KeyPlayPause:
		if status == device.PlayStatePlaying {
			status = device.PlayStatePaused
		} else {
			status = device.PlayStatePlaying
		}
	case KeyStop:
		status = device.PlayStateStopped
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	np := *d.NowPlaying
	np.PlayStatus = status
	return m.registry.SetNowPlaying(ctx, d.ID, &np)
}

// SelectContent plays a content reference directly, resolving it first.
func (m *Machine) SelectContent(ctx context.Context, accountID, deviceID string, item device.ContentItem) (*device.Device, error) {
	if err := device.ValidateContentItem(item); err != nil {
		return nil, err
	}

	d, err := m.registry.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return m.play(ctx, accountID, d.ID, item)
}

// selectPreset looks up the slot and plays its content. An empty slot
// is a silent no-op.
func (m *Machine) selectPreset(ctx context.Context, accountID, deviceID, slot string) (*device.Device, error) {
	d, err := m.registry.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	for _, p := range d.Presets {
		if p.SlotID == slot {
			return m.play(ctx, accountID, d.ID, p.ContentItem())
		}
	}

	m.logger.Debug("preset slot empty, ignoring", "device_id", d.ID, "slot", slot)
	return d, nil
}

// play resolves the reference and commits it as the playing content.
// The resolver call happens with no registry lock held.
func (m *Machine) play(ctx context.Context, accountID, deviceID string, item device.ContentItem) (*device.Device, error) {
	resolved, err := m.resolver.Resolve(ctx, item)
	if err != nil {
		return nil, err
	}

	np := &device.NowPlaying{
		Source:        resolved.Source,
		SourceAccount: resolved.SourceAccount,
		Type:          resolved.Type,
		Location:      resolved.Location,
		StationID:     resolved.StationID,
		Name:          resolved.Name,
		Art:           resolved.Art,
		StationName:   resolved.Name,
		PlayStatus:    device.PlayStatePlaying,
	}

	d, err := m.registry.SetNowPlaying(ctx, deviceID, np)
	if err != nil {
		return nil, err
	}

	// Durable recents catch up best effort; the in-memory history is
	// already current
	if m.recents != nil {
		if err := m.recents.SaveRecents(ctx, accountID, d.ID, d.Recents); err != nil {
			m.logger.Warn("persisting recents failed", "device_id", d.ID, "error", err)
		}
	}

	return d, nil
}

// presetSlot maps PRESET_n keys to their slot id.
func presetSlot(key Key) (string, bool) {
	s := string(key)
	if !strings.HasPrefix(s, presetKeyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(s, presetKeyPrefix), true
}
