package preset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wavetable-labs/soundbridge/internal/device"
	"github.com/wavetable-labs/soundbridge/internal/events"
	"github.com/wavetable-labs/soundbridge/internal/store"
)

// Logger defines the logging interface used by the Store.
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

// Publisher receives change notifications after the durable write commits.
type Publisher interface {
	Publish(event events.Event)
}

// Store reconciles the registry's in-memory preset cache with the
// durable copy. The durable store is the commit point: every mutation
// loads the durable list, applies the change, persists, and only then
// refreshes the registry cache. A failed write leaves the cache
// untouched.
type Store struct {
	repo     store.Repository
	registry *device.Registry
	logger   Logger
	events   Publisher

	// now is replaceable in tests to control timestamps.
	now func() time.Time
}

// NewStore creates a preset store over the blob repository and the
// device registry.
func NewStore(repo store.Repository, registry *device.Registry) *Store {
	return &Store{
		repo:     repo,
		registry: registry,
		logger:   noopLogger{},
		now:      time.Now,
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// SetEvents sets the notification sink.
func (s *Store) SetEvents(events Publisher) {
	s.events = events
}

// StorePreset writes a content reference into a slot.
//
// Existing entries for the slot are replaced in place, keeping their
// original creation timestamp. The list is re-sorted by numeric slot id
// and truncated to six entries before persisting; a just-written preset
// that sorts beyond the cap is discarded with the rest, matching the
// speakers' own truncation behaviour.
func (s *Store) StorePreset(ctx context.Context, accountID, deviceID, slotID string, item device.ContentItem) ([]device.Preset, error) {
	if _, err := device.ParseSlot(slotID); err != nil {
		return nil, err
	}
	if err := device.ValidateContentItem(item); err != nil {
		return nil, err
	}

	presets, err := s.loadPresets(ctx, accountID, deviceID)
	if err != nil {
		return nil, err
	}

	nowMillis := s.now().UnixMilli()
	entry := device.Preset{
		SlotID:        slotID,
		Name:          item.Name,
		Source:        item.Source,
		SourceAccount: item.SourceAccount,
		Type:          item.Type,
		Location:      item.Location,
		StationID:     item.StationID,
		Art:           item.Art,
		CreatedOn:     nowMillis,
		UpdatedOn:     nowMillis,
	}

	replaced := false
	for i := range presets {
		if presets[i].SlotID == slotID {
			entry.CreatedOn = presets[i].CreatedOn
			presets[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		presets = append(presets, entry)
	}

	presets = normalize(presets)

	if err := s.persist(ctx, accountID, deviceID, presets); err != nil {
		return nil, err
	}
	s.refreshCache(ctx, accountID, deviceID, presets)

	return presets, nil
}

// RemovePreset clears a slot. Removing an empty slot is a no-op.
func (s *Store) RemovePreset(ctx context.Context, accountID, deviceID, slotID string) ([]device.Preset, error) {
	if _, err := device.ParseSlot(slotID); err != nil {
		return nil, err
	}

	presets, err := s.loadPresets(ctx, accountID, deviceID)
	if err != nil {
		return nil, err
	}

	kept := presets[:0]
	for _, p := range presets {
		if p.SlotID != slotID {
			kept = append(kept, p)
		}
	}
	presets = normalize(kept)

	if err := s.persist(ctx, accountID, deviceID, presets); err != nil {
		return nil, err
	}
	s.refreshCache(ctx, accountID, deviceID, presets)

	return presets, nil
}

// RemoveAllPresets empties the preset list, durably.
func (s *Store) RemoveAllPresets(ctx context.Context, accountID, deviceID string) error {
	if err := s.persist(ctx, accountID, deviceID, []device.Preset{}); err != nil {
		return err
	}
	s.refreshCache(ctx, accountID, deviceID, []device.Preset{})
	return nil
}

// Presets returns the durable preset list and refreshes the registry
// cache to match it.
func (s *Store) Presets(ctx context.Context, accountID, deviceID string) ([]device.Preset, error) {
	presets, err := s.loadPresets(ctx, accountID, deviceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.registry.UpdatePresets(ctx, deviceID, presets); err != nil && !errors.Is(err, device.ErrDeviceNotFound) {
		s.logger.Warn("refreshing preset cache failed", "device_id", deviceID, "error", err)
	}
	return presets, nil
}

// SyncPresets replaces the whole preset list, as pushed by a speaker.
func (s *Store) SyncPresets(ctx context.Context, accountID, deviceID string, presets []device.Preset) ([]device.Preset, error) {
	presets = normalize(presets)
	if err := s.persist(ctx, accountID, deviceID, presets); err != nil {
		return nil, err
	}
	s.refreshCache(ctx, accountID, deviceID, presets)
	return presets, nil
}

// Seed stores the default presets for a device that has none yet.
// Used for devices declared in the config file on first run.
func (s *Store) Seed(ctx context.Context, accountID, deviceID string) error {
	existing, err := s.loadPresets(ctx, accountID, deviceID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	defaults := DefaultPresets(s.now().UnixMilli())
	if err := s.persist(ctx, accountID, deviceID, defaults); err != nil {
		return err
	}
	s.refreshCache(ctx, accountID, deviceID, defaults)
	s.logger.Info("seeded default presets", "device_id", deviceID, "count", len(defaults))
	return nil
}

// SaveRecents persists a device's recently-played history. Callers on
// the playback path treat failures as best effort.
func (s *Store) SaveRecents(ctx context.Context, accountID, deviceID string, recents []device.Recent) error {
	blob, err := json.Marshal(recents)
	if err != nil {
		return fmt.Errorf("encoding recents: %w", err)
	}
	if err := s.repo.Save(ctx, store.KindRecents, accountID, deviceID, blob); err != nil {
		return err
	}
	s.publish(events.TypeRecentsUpdated, accountID, deviceID, nil)
	return nil
}

// Recents returns the durable recently-played history.
func (s *Store) Recents(ctx context.Context, accountID, deviceID string) ([]device.Recent, error) {
	blob, err := s.repo.Load(ctx, store.KindRecents, accountID, deviceID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return []device.Recent{}, nil
	}
	if err != nil {
		return nil, err
	}

	var recents []device.Recent
	if err := json.Unmarshal(blob, &recents); err != nil {
		s.logger.Warn("malformed recents record, treating as empty",
			"device_id", deviceID, "error", err)
		return []device.Recent{}, nil
	}
	if len(recents) > device.MaxRecents {
		recents = recents[:device.MaxRecents]
	}
	return recents, nil
}

// Sources returns a device's source catalogue, falling back to the
// defaults when it never pushed one.
func (s *Store) Sources(ctx context.Context, accountID, deviceID string) ([]device.Source, error) {
	blob, err := s.repo.Load(ctx, store.KindSources, accountID, deviceID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return device.DefaultSources(), nil
	}
	if err != nil {
		return nil, err
	}

	var sources []device.Source
	if err := json.Unmarshal(blob, &sources); err != nil {
		s.logger.Warn("malformed sources record, using defaults",
			"device_id", deviceID, "error", err)
		return device.DefaultSources(), nil
	}
	return sources, nil
}

// SyncSources replaces a device's source catalogue, as pushed by the
// speaker.
func (s *Store) SyncSources(ctx context.Context, accountID, deviceID string, sources []device.Source) error {
	blob, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("encoding sources: %w", err)
	}
	return s.repo.Save(ctx, store.KindSources, accountID, deviceID, blob)
}

// loadPresets reads the durable list, treating absence as empty and a
// malformed blob as empty after logging.
func (s *Store) loadPresets(ctx context.Context, accountID, deviceID string) ([]device.Preset, error) {
	blob, err := s.repo.Load(ctx, store.KindPresets, accountID, deviceID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return []device.Preset{}, nil
	}
	if err != nil {
		return nil, err
	}

	var presets []device.Preset
	if err := json.Unmarshal(blob, &presets); err != nil {
		s.logger.Warn("malformed presets record, treating as empty",
			"device_id", deviceID, "error", err)
		return []device.Preset{}, nil
	}
	return presets, nil
}

func (s *Store) persist(ctx context.Context, accountID, deviceID string, presets []device.Preset) error {
	blob, err := json.Marshal(presets)
	if err != nil {
		return fmt.Errorf("encoding presets: %w", err)
	}
	return s.repo.Save(ctx, store.KindPresets, accountID, deviceID, blob)
}

// refreshCache syncs the registry's in-memory copy after a durable
// commit and emits presets_updated. A device that is not live (stored
// but never registered this run) is skipped silently.
func (s *Store) refreshCache(ctx context.Context, accountID, deviceID string, presets []device.Preset) {
	if _, err := s.registry.UpdatePresets(ctx, deviceID, presets); err != nil {
		if !errors.Is(err, device.ErrDeviceNotFound) {
			s.logger.Warn("refreshing preset cache failed", "device_id", deviceID, "error", err)
		}
	}
	s.publish(events.TypePresetsUpdated, accountID, deviceID, presets)
}

func (s *Store) publish(eventType, accountID, deviceID string, payload any) {
	if s.events == nil {
		return
	}
	s.events.Publish(events.Event{
		Type:      eventType,
		AccountID: accountID,
		DeviceID:  deviceID,
		Payload:   payload,
	})
}

// normalize sorts by numeric slot id ascending and truncates to the
// slot capacity. Unparseable slot ids sort last.
func normalize(presets []device.Preset) []device.Preset {
	sort.SliceStable(presets, func(i, j int) bool {
		a, errA := device.ParseSlot(presets[i].SlotID)
		b, errB := device.ParseSlot(presets[j].SlotID)
		if errA != nil {
			return false
		}
		if errB != nil {
			return true
		}
		return a < b
	})
	if len(presets) > device.MaxPresets {
		presets = presets[:device.MaxPresets]
	}
	return presets
}
