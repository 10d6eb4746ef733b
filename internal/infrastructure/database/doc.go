// Package database provides SQLite connection management and schema
// migrations for SoundBridge's persistent state.
//
// The database holds account-scoped records (device info, presets,
// recents, source catalogues) written by the store package. SQLite is
// opened with WAL mode and a single writer connection; the busy timeout
// covers the rare concurrent-writer case during shutdown.
//
// Migrations are embedded SQL files registered via SetMigrations and
// applied in version order, each inside its own transaction.
package database
