// Package events provides the in-process notification bus that decouples
// state changes from their consumers.
//
// Core packages (device, preset, zone, playback) publish events as state
// changes commit; the API websocket hub and the optional MQTT relay
// subscribe and forward them to clients. Delivery is best effort, a
// consumer that falls behind misses events rather than blocking the
// publisher.
package events
