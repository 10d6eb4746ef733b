// Package mqtt provides the optional event relay onto an MQTT broker.
//
// When enabled, every core change notification is mirrored to
// soundbridge/event/{type} as JSON, giving home-automation systems a
// second subscription surface alongside the websocket feed.
package mqtt
