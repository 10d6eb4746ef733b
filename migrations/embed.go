// Package migrations embeds the SQL schema migrations shipped with
// SoundBridge. The embedded filesystem is registered with the database
// package at startup so Migrate can locate the files.
package migrations

import (
	"embed"

	"github.com/wavetable-labs/soundbridge/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

// Register wires the embedded migration files into the database package.
// Call once before database.DB.Migrate.
func Register() {
	database.SetMigrations(files, ".")
}
