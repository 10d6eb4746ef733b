package events

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	bus.Publish(Event{Type: TypeVolumeChanged, DeviceID: "AA11BB22CC33"})

	select {
	case event := <-ch:
		if event.Type != TypeVolumeChanged {
			t.Errorf("event.Type = %q, want %q", event.Type, TypeVolumeChanged)
		}
		if event.DeviceID != "AA11BB22CC33" {
			t.Errorf("event.DeviceID = %q, want AA11BB22CC33", event.DeviceID)
		}
		if event.Timestamp.IsZero() {
			t.Error("event.Timestamp not stamped")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch1, unsub1 := bus.Subscribe()
	defer unsub1()
	ch2, unsub2 := bus.Subscribe()
	defer unsub2()

	bus.Publish(Event{Type: TypeNowPlaying})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case event := <-ch:
			if event.Type != TypeNowPlaying {
				t.Errorf("subscriber %d: event.Type = %q, want %q", i, event.Type, TypeNowPlaying)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: timed out", i)
		}
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, unsubscribe := bus.Subscribe()
	unsubscribe()

	// Channel must be closed
	if _, ok := <-ch; ok {
		t.Error("channel still open after unsubscribe")
	}

	// Publishing after unsubscribe must not panic
	bus.Publish(Event{Type: TypeZoneCreated})
}

func TestBus_UnsubscribeIdempotent(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	_, unsubscribe := bus.Subscribe()
	unsubscribe()
	unsubscribe()
}

func TestBus_SlowSubscriberDropsEvents(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	// Overfill the buffer; the excess must be dropped without blocking
	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Publish(Event{Type: TypeRecentsUpdated})
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			if received != subscriberBuffer {
				t.Errorf("received = %d, want %d", received, subscriberBuffer)
			}
			return
		}
	}
}

func TestBus_CloseClosesSubscribers(t *testing.T) {
	bus := NewBus()

	ch, _ := bus.Subscribe()
	bus.Close()

	if _, ok := <-ch; ok {
		t.Error("channel still open after bus close")
	}

	// Both must be no-ops after close
	bus.Publish(Event{Type: TypeDeviceUpdated})
	bus.Close()
}
