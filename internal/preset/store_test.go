package preset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wavetable-labs/soundbridge/internal/device"
	"github.com/wavetable-labs/soundbridge/internal/store"
)

// fakeRepo is an in-memory blob repository with write failure injection.
type fakeRepo struct {
	mu      sync.Mutex
	records map[string][]byte
	saveErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[string][]byte)}
}

func key(kind, accountID, deviceID string) string {
	return kind + "/" + accountID + "/" + deviceID
}

func (f *fakeRepo) Save(_ context.Context, kind, accountID, deviceID string, blob []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return fmt.Errorf("%w: %w", store.ErrPersistenceFailed, f.saveErr)
	}
	f.records[key(kind, accountID, deviceID)] = blob
	return nil
}

func (f *fakeRepo) Load(_ context.Context, kind, accountID, deviceID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	blob, ok := f.records[key(kind, accountID, deviceID)]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return blob, nil
}

func (f *fakeRepo) Delete(_ context.Context, kind, accountID, deviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, key(kind, accountID, deviceID))
	return nil
}

func (f *fakeRepo) ListDevices(_ context.Context, _, _ string) ([]string, error) {
	return nil, nil
}

func (f *fakeRepo) LoadKind(_ context.Context, _ string) ([]store.RecordEntry, error) {
	return nil, nil
}

func newTestStore(t *testing.T) (*Store, *fakeRepo, *device.Registry) {
	t.Helper()

	repo := newFakeRepo()
	registry := device.NewRegistry(store.NewDeviceRepository(repo, nil), false)
	s := NewStore(repo, registry)
	return s, repo, registry
}

func radioItem(name, stationID string) device.ContentItem {
	return device.ContentItem{
		Source:    device.SourceInternetRadio,
		Type:      "stationurl",
		Name:      name,
		StationID: stationID,
	}
}

func TestStorePreset_RoundTrip(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	presets, err := s.StorePreset(ctx, "acct-1", "d1", "3", radioItem("Jazz FM", "s45"))
	if err != nil {
		t.Fatalf("StorePreset() error = %v", err)
	}
	if len(presets) != 1 {
		t.Fatalf("presets count = %d, want 1", len(presets))
	}

	loaded, err := s.Presets(ctx, "acct-1", "d1")
	if err != nil {
		t.Fatalf("Presets() error = %v", err)
	}
	got := loaded[0]
	if got.SlotID != "3" || got.Name != "Jazz FM" || got.StationID != "s45" {
		t.Errorf("round trip = %+v", got)
	}
	if got.CreatedOn == 0 || got.UpdatedOn == 0 {
		t.Error("timestamps not stamped")
	}
}

func TestStorePreset_ReplacePreservesCreatedOn(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	first, err := s.StorePreset(ctx, "acct-1", "d1", "2", radioItem("Jazz FM", "s45"))
	if err != nil {
		t.Fatalf("StorePreset() error = %v", err)
	}

	s.now = func() time.Time { return base.Add(time.Minute) }

	second, err := s.StorePreset(ctx, "acct-1", "d1", "2", radioItem("Soul FM", "s46"))
	if err != nil {
		t.Fatalf("second StorePreset() error = %v", err)
	}

	if second[0].CreatedOn != first[0].CreatedOn {
		t.Errorf("CreatedOn changed: %d -> %d", first[0].CreatedOn, second[0].CreatedOn)
	}
	if second[0].UpdatedOn <= first[0].UpdatedOn {
		t.Errorf("UpdatedOn did not advance: %d -> %d", first[0].UpdatedOn, second[0].UpdatedOn)
	}
	if second[0].Name != "Soul FM" {
		t.Errorf("Name = %q, want replacement", second[0].Name)
	}
}

func TestStorePreset_InvalidSlot(t *testing.T) {
	s, _, _ := newTestStore(t)

	for _, slot := range []string{"0", "7", "x", ""} {
		_, err := s.StorePreset(context.Background(), "acct-1", "d1", slot, radioItem("Jazz", "s1"))
		if !errors.Is(err, device.ErrInvalidSlot) {
			t.Errorf("StorePreset(slot %q) error = %v, want ErrInvalidSlot", slot, err)
		}
	}
}

func TestStorePreset_MalformedContent(t *testing.T) {
	s, _, _ := newTestStore(t)

	_, err := s.StorePreset(context.Background(), "acct-1", "d1", "1", device.ContentItem{})
	if !errors.Is(err, device.ErrMalformedContent) {
		t.Errorf("StorePreset() error = %v, want ErrMalformedContent", err)
	}
}

func TestStorePreset_SortsAndTruncates(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	// Fill all six slots in reverse order
	for slot := 6; slot >= 1; slot-- {
		id := fmt.Sprintf("%d", slot)
		if _, err := s.StorePreset(ctx, "acct-1", "d1", id, radioItem("Station "+id, "s"+id)); err != nil {
			t.Fatalf("StorePreset(%s) error = %v", id, err)
		}
	}

	presets, err := s.Presets(ctx, "acct-1", "d1")
	if err != nil {
		t.Fatalf("Presets() error = %v", err)
	}
	if len(presets) != device.MaxPresets {
		t.Fatalf("presets count = %d, want %d", len(presets), device.MaxPresets)
	}
	for i, p := range presets {
		want := fmt.Sprintf("%d", i+1)
		if p.SlotID != want {
			t.Errorf("presets[%d].SlotID = %q, want %q", i, p.SlotID, want)
		}
	}

	// Rewriting slot 6 on a full set must not grow the list
	if _, err := s.StorePreset(ctx, "acct-1", "d1", "6", radioItem("Replacement", "s99")); err != nil {
		t.Fatalf("StorePreset(6) error = %v", err)
	}
	presets, _ = s.Presets(ctx, "acct-1", "d1")
	if len(presets) != device.MaxPresets {
		t.Errorf("presets count after rewrite = %d, want %d", len(presets), device.MaxPresets)
	}
	if presets[5].Name != "Replacement" {
		t.Errorf("slot 6 = %q, want Replacement", presets[5].Name)
	}
}

func TestStorePreset_PersistFailureLeavesCacheUntouched(t *testing.T) {
	s, repo, registry := newTestStore(t)
	ctx := context.Background()

	if _, err := registry.Register(ctx, device.Device{ID: "d1", Name: "Kitchen", AccountID: "acct-1"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := s.StorePreset(ctx, "acct-1", "d1", "1", radioItem("Jazz", "s1")); err != nil {
		t.Fatalf("StorePreset() error = %v", err)
	}

	repo.saveErr = errors.New("disk full")

	_, err := s.StorePreset(ctx, "acct-1", "d1", "2", radioItem("Soul", "s2"))
	if !errors.Is(err, store.ErrPersistenceFailed) {
		t.Fatalf("StorePreset() error = %v, want ErrPersistenceFailed", err)
	}

	d, err := registry.Get(ctx, "d1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(d.Presets) != 1 || d.Presets[0].SlotID != "1" {
		t.Errorf("cache = %+v, want untouched single slot 1", d.Presets)
	}
}

func TestRemovePreset(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	for _, slot := range []string{"1", "2"} {
		if _, err := s.StorePreset(ctx, "acct-1", "d1", slot, radioItem("Station "+slot, "s"+slot)); err != nil {
			t.Fatalf("StorePreset(%s) error = %v", slot, err)
		}
	}

	presets, err := s.RemovePreset(ctx, "acct-1", "d1", "1")
	if err != nil {
		t.Fatalf("RemovePreset() error = %v", err)
	}
	if len(presets) != 1 || presets[0].SlotID != "2" {
		t.Errorf("presets = %+v, want just slot 2", presets)
	}

	// Removing an empty slot is a no-op
	if _, err := s.RemovePreset(ctx, "acct-1", "d1", "5"); err != nil {
		t.Errorf("RemovePreset(empty slot) error = %v", err)
	}
}

func TestRemoveAllPresets_DurablyEmpty(t *testing.T) {
	s, repo, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := s.StorePreset(ctx, "acct-1", "d1", "1", radioItem("Jazz", "s1")); err != nil {
		t.Fatalf("StorePreset() error = %v", err)
	}
	if err := s.RemoveAllPresets(ctx, "acct-1", "d1"); err != nil {
		t.Fatalf("RemoveAllPresets() error = %v", err)
	}

	presets, err := s.Presets(ctx, "acct-1", "d1")
	if err != nil {
		t.Fatalf("Presets() error = %v", err)
	}
	if len(presets) != 0 {
		t.Errorf("presets = %+v, want empty", presets)
	}

	// The durable blob itself must be the empty list, not just the cache
	blob, err := repo.Load(ctx, store.KindPresets, "acct-1", "d1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(blob) != "[]" {
		t.Errorf("durable blob = %s, want []", blob)
	}
}

func TestSources_DefaultsWhenAbsent(t *testing.T) {
	s, _, _ := newTestStore(t)

	sources, err := s.Sources(context.Background(), "acct-1", "d1")
	if err != nil {
		t.Fatalf("Sources() error = %v", err)
	}
	if len(sources) == 0 {
		t.Fatal("expected default sources")
	}
	if sources[0].Name != device.SourceInternetRadio {
		t.Errorf("sources[0].Name = %q", sources[0].Name)
	}
}

func TestSyncSources_RoundTrip(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	pushed := []device.Source{{Name: device.SourceBluetooth, Status: "READY", Local: true}}
	if err := s.SyncSources(ctx, "acct-1", "d1", pushed); err != nil {
		t.Fatalf("SyncSources() error = %v", err)
	}

	sources, err := s.Sources(ctx, "acct-1", "d1")
	if err != nil {
		t.Fatalf("Sources() error = %v", err)
	}
	if len(sources) != 1 || sources[0].Name != device.SourceBluetooth {
		t.Errorf("sources = %+v", sources)
	}
}

func TestSeed_OnlyWhenEmpty(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Seed(ctx, "acct-1", "d1"); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	seeded, err := s.Presets(ctx, "acct-1", "d1")
	if err != nil {
		t.Fatalf("Presets() error = %v", err)
	}
	if len(seeded) == 0 {
		t.Fatal("expected seeded presets")
	}

	// A device with presets must not be re-seeded
	if _, err := s.StorePreset(ctx, "acct-1", "d2", "4", radioItem("Jazz", "s1")); err != nil {
		t.Fatalf("StorePreset() error = %v", err)
	}
	if err := s.Seed(ctx, "acct-1", "d2"); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	presets, _ := s.Presets(ctx, "acct-1", "d2")
	if len(presets) != 1 {
		t.Errorf("presets count = %d, want 1 (unseeded)", len(presets))
	}
}

func TestSaveRecents_RoundTrip(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	recents := []device.Recent{{
		ContentItem: device.ContentItem{Source: device.SourceInternetRadio, Location: "http://stream.example/a", Name: "A"},
		UTCTime:     time.Now().UnixMilli(),
	}}
	if err := s.SaveRecents(ctx, "acct-1", "d1", recents); err != nil {
		t.Fatalf("SaveRecents() error = %v", err)
	}

	loaded, err := s.Recents(ctx, "acct-1", "d1")
	if err != nil {
		t.Fatalf("Recents() error = %v", err)
	}
	if len(loaded) != 1 || loaded[0].Name != "A" {
		t.Errorf("recents = %+v", loaded)
	}
}
