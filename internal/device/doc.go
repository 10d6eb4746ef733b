// Package device implements the device registry, the authoritative set
// of known speakers and their mutable control state.
//
// The Registry is the single mutation point for device attributes
// (volume, bass, balance, name, now playing, presets, recents). Other
// packages hold an id, never a mutable Device reference; every read
// returns a deep copy.
//
// Persistence is delegated to a Repository. Writes update the cache
// first and persist best effort; presets follow a stricter durable-first
// protocol owned by the preset package.
package device
