// Package preset reconciles the dual-layer preset state: the durable
// copy in the blob store and the read cache held by the device registry.
//
// The durable copy is authoritative. Every mutation follows the same
// sequence: load durable list, apply the change, sort and truncate,
// persist, and only on a successful write refresh the registry cache
// and notify observers. The package also owns the durable recents and
// source-catalogue records, which share the same account-and-device
// addressing.
package preset
