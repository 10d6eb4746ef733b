package mqtt

import (
	"context"
	"encoding/json"

	"github.com/wavetable-labs/soundbridge/internal/events"
	"github.com/wavetable-labs/soundbridge/internal/infrastructure/logging"
)

// topicPrefix roots all relay topics: soundbridge/event/{type}.
const topicPrefix = "soundbridge/event/"

// Relay drains the core event bus onto the MQTT broker so
// home-automation systems can react to playback and zone changes.
type Relay struct {
	client *Client
	bus    *events.Bus
	logger *logging.Logger
	done   chan struct{}
}

// NewRelay creates a relay between the bus and the broker.
func NewRelay(client *Client, bus *events.Bus, logger *logging.Logger) *Relay {
	return &Relay{
		client: client,
		bus:    bus,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start consumes events until the context is cancelled. Publish
// failures are logged and dropped; the relay is an observer, never a
// participant in the mutation path.
func (r *Relay) Start(ctx context.Context) {
	ch, unsubscribe := r.bus.Subscribe()

	go func() {
		defer close(r.done)
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-ch:
				if !ok {
					return
				}
				r.forward(event)
			}
		}
	}()
}

// Wait blocks until the relay goroutine has exited.
func (r *Relay) Wait() {
	<-r.done
}

func (r *Relay) forward(event events.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		r.logger.Warn("encoding event failed", "type", event.Type, "error", err)
		return
	}
	if err := r.client.Publish(topicPrefix+event.Type, payload); err != nil {
		r.logger.Warn("relaying event failed", "type", event.Type, "error", err)
	}
}
