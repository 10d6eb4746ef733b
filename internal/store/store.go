package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wavetable-labs/soundbridge/internal/infrastructure/database"
)

// Record kinds. Every durable record is addressed by
// (kind, accountID, deviceID); the payload is an opaque blob written and
// read whole, never patched.
const (
	KindDeviceInfo = "DeviceInfo"
	KindPresets    = "Presets"
	KindRecents    = "Recents"
	KindSources    = "Sources"
)

// validKinds guards against typo'd kinds reaching the database.
var validKinds = map[string]bool{
	KindDeviceInfo: true,
	KindPresets:    true,
	KindRecents:    true,
	KindSources:    true,
}

// Repository is the blob-level persistence interface. The SQLite Store
// is the production implementation; tests substitute in-memory fakes.
type Repository interface {
	Save(ctx context.Context, kind, accountID, deviceID string, blob []byte) error
	Load(ctx context.Context, kind, accountID, deviceID string) ([]byte, error)
	Delete(ctx context.Context, kind, accountID, deviceID string) error

	// ListDevices returns the device ids that have records of the given
	// kind under an account, in creation order.
	ListDevices(ctx context.Context, kind, accountID string) ([]string, error)

	// LoadKind returns every record of a kind across all accounts, in
	// creation order.
	LoadKind(ctx context.Context, kind string) ([]RecordEntry, error)
}

// RecordEntry pairs a record's key with its payload.
type RecordEntry struct {
	AccountID string
	DeviceID  string
	Blob      []byte
}

// Store persists opaque records in the SQLite records table.
type Store struct {
	db *database.DB
}

// New creates a store backed by the given database.
func New(db *database.DB) *Store {
	return &Store{db: db}
}

// Save writes a record, replacing any existing one with the same key.
// The creation timestamp of an existing record is preserved.
func (s *Store) Save(ctx context.Context, kind, accountID, deviceID string, blob []byte) error {
	if !validKinds[kind] {
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	now := time.Now().Unix()
	query := `
		INSERT INTO records (kind, account_id, device_id, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, account_id, device_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, kind, accountID, deviceID, blob, now, now); err != nil {
		return fmt.Errorf("%w: saving %s record: %w", ErrPersistenceFailed, kind, err)
	}
	return nil
}

// Load reads a record's payload. Returns ErrRecordNotFound when absent.
func (s *Store) Load(ctx context.Context, kind, accountID, deviceID string) ([]byte, error) {
	if !validKinds[kind] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	var blob []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM records WHERE kind = ? AND account_id = ? AND device_id = ?",
		kind, accountID, deviceID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s/%s", ErrRecordNotFound, kind, accountID, deviceID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s record: %w", kind, err)
	}
	return blob, nil
}

// Delete removes a record. Deleting an absent record is not an error.
func (s *Store) Delete(ctx context.Context, kind, accountID, deviceID string) error {
	if !validKinds[kind] {
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM records WHERE kind = ? AND account_id = ? AND device_id = ?",
		kind, accountID, deviceID)
	if err != nil {
		return fmt.Errorf("%w: deleting %s record: %w", ErrPersistenceFailed, kind, err)
	}
	return nil
}

// ListDevices returns device ids holding records of a kind under an
// account, in creation order.
func (s *Store) ListDevices(ctx context.Context, kind, accountID string) ([]string, error) {
	if !validKinds[kind] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT device_id FROM records WHERE kind = ? AND account_id = ? ORDER BY created_at, device_id",
		kind, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing %s records: %w", kind, err)
	}
	defer rows.Close() //nolint:errcheck // Read-only query cleanup

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning record id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LoadKind returns every record of a kind across all accounts, in
// creation order.
func (s *Store) LoadKind(ctx context.Context, kind string) ([]RecordEntry, error) {
	if !validKinds[kind] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT account_id, device_id, payload FROM records WHERE kind = ? ORDER BY created_at, device_id",
		kind)
	if err != nil {
		return nil, fmt.Errorf("loading %s records: %w", kind, err)
	}
	defer rows.Close() //nolint:errcheck // Read-only query cleanup

	var entries []RecordEntry
	for rows.Next() {
		var entry RecordEntry
		if err := rows.Scan(&entry.AccountID, &entry.DeviceID, &entry.Blob); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
