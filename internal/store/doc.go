// Package store implements durable per-account, per-device persistence.
//
// Every record is an opaque JSON blob addressed by
// (kind, accountID, deviceID) and written whole on each change. Kinds
// cover the device descriptor, presets, recents, and the source
// catalogue. The durable copy is authoritative across restarts; the
// registry's in-memory state is a cache rebuilt from it.
package store
