package events

import (
	"sync"
	"time"
)

// Event types published on the bus. Consumers match on Type to decide
// how to render or route a notification.
const (
	TypeDeviceRegistered   = "device_registered"
	TypeDeviceUnregistered = "device_unregistered"
	TypeDeviceUpdated      = "device_updated"
	TypeVolumeChanged      = "volume_changed"
	TypeBassChanged        = "bass_changed"
	TypeBalanceChanged     = "balance_changed"
	TypeNameChanged        = "name_changed"
	TypeNowPlaying         = "now_playing"
	TypePresetsUpdated     = "presets_updated"
	TypeRecentsUpdated     = "recents_updated"
	TypeZoneCreated        = "zone_created"
	TypeZoneUpdated        = "zone_updated"
	TypeZoneDissolved      = "zone_dissolved"
)

// subscriberBuffer is the channel depth per subscriber. Slow consumers
// lose events rather than blocking publishers.
const subscriberBuffer = 64

// Event is a single notification emitted by the registry, preset store,
// zone coordinator, or playback state machine.
type Event struct {
	Type      string    `json:"type"`
	AccountID string    `json:"account_id,omitempty"`
	DeviceID  string    `json:"device_id,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Bus is an in-process publish/subscribe fan-out. The API websocket hub
// and the MQTT relay each hold a subscription and drain it on their own
// goroutine.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	closed      bool
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Publish delivers an event to every subscriber. Delivery is best
// effort: a subscriber whose buffer is full misses the event. The
// timestamp is stamped here if the caller left it zero.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is not keeping up, drop
		}
	}
}

// Subscribe registers a new consumer and returns its event channel plus
// an unsubscribe function. The channel is closed on unsubscribe or when
// the bus shuts down.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subscribers[ch] = struct{}{}

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subscribers[ch]; ok {
				delete(b.subscribers, ch)
				close(ch)
			}
		})
	}

	return ch, unsubscribe
}

// Close shuts the bus down and closes all subscriber channels.
// Publish becomes a no-op afterwards.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}
}
