// Package zone implements the multiroom group coordinator.
//
// A zone is one master and an ordered set of slaves, keyed by the
// master's device id. A device participates in at most one zone at a
// time. Topology lives in memory; member addresses are resolved through
// the device registry at read time so groups survive address changes.
package zone
