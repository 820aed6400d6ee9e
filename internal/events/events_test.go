package events

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan StreamStateChangedEvent, 1)

	unsub := bus.Subscribe(func(e StreamStateChangedEvent) {
		received <- e
	})
	defer unsub()

	bus.Publish(StreamStateChangedEvent{Streaming: true, Width: 9152, Height: 6944})

	select {
	case got := <-received:
		if !got.Streaming || got.Width != 9152 {
			t.Errorf("got %+v, want streaming 9152x6944", got)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSubscribeSelectsByType(t *testing.T) {
	bus := New()
	power := make(chan PowerChangedEvent, 1)

	unsub := bus.Subscribe(func(e PowerChangedEvent) {
		power <- e
	})
	defer unsub()

	// A different event type must not reach the power subscriber.
	bus.Publish(ControlChangedEvent{ID: "exposure", Value: 1000})
	bus.Publish(PowerChangedEvent{Powered: true})

	select {
	case got := <-power:
		if !got.Powered {
			t.Errorf("got %+v, want powered", got)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	select {
	case extra := <-power:
		t.Errorf("unexpected extra event: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := New()
	received := make(chan ModeChangedEvent, 1)

	unsub := bus.Subscribe(func(e ModeChangedEvent) {
		received <- e
	})
	unsub()

	bus.Publish(ModeChangedEvent{Width: 1920, Height: 1080})

	select {
	case got := <-received:
		t.Errorf("received event after unsubscribe: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnknownHandlerIsNoop(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(int) {})
	unsub()
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 4)

	unsub := SubscribeToChannel[LogEntryEvent](bus, ch)
	defer unsub()

	bus.Publish(LogEntryEvent{Level: "info", Module: "sensor", Message: "powered on"})

	select {
	case got := <-ch:
		entry, ok := got.(LogEntryEvent)
		if !ok {
			t.Fatalf("got %T, want LogEntryEvent", got)
		}
		if entry.Module != "sensor" || entry.Message != "powered on" {
			t.Errorf("got %+v", entry)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestAdapterChangedDelivery(t *testing.T) {
	bus := New()
	received := make(chan AdapterChangedEvent, 1)

	unsub := bus.Subscribe(func(e AdapterChangedEvent) {
		received <- e
	})
	defer unsub()

	bus.Publish(AdapterChangedEvent{Action: "add", Path: "/dev/i2c-11", Name: "mux channel"})

	select {
	case got := <-received:
		if got.Action != "add" || got.Path != "/dev/i2c-11" {
			t.Errorf("got %+v, want add /dev/i2c-11", got)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSubscribeToChannelDropsWhenFull(t *testing.T) {
	bus := New()
	ch := make(chan any) // unbuffered with no reader: every send must be dropped

	unsub := SubscribeToChannel[PowerChangedEvent](bus, ch)
	defer unsub()

	// Must not block the dispatcher.
	bus.Publish(PowerChangedEvent{Powered: true})
	bus.Publish(PowerChangedEvent{Powered: false})
	time.Sleep(50 * time.Millisecond)
}
