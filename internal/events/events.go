// Package events provides in-process event broadcasting for device state
// changes, built on the kelindar/event dispatcher.
package events

import (
	"github.com/kelindar/event"
)

// Event type constants for kelindar/event.
const (
	TypePowerChanged uint32 = iota + 1
	TypeStreamStateChanged
	TypeModeChanged
	TypeControlChanged
	TypeLogEntry
	TypeAdapterChanged
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// PowerChangedEvent fires when the device is energized or shut down.
type PowerChangedEvent struct {
	Powered   bool   `json:"powered"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Transition timestamp"`
}

// Type returns the event type identifier for PowerChangedEvent.
func (e PowerChangedEvent) Type() uint32 { return TypePowerChanged }

// StreamStateChangedEvent fires on stream start and stop.
type StreamStateChangedEvent struct {
	Streaming bool   `json:"streaming"`
	Width     int    `json:"width" doc:"Active mode width"`
	Height    int    `json:"height" doc:"Active mode height"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for StreamStateChangedEvent.
func (e StreamStateChangedEvent) Type() uint32 { return TypeStreamStateChanged }

// ModeChangedEvent fires when the active capture mode is swapped.
type ModeChangedEvent struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for ModeChangedEvent.
func (e ModeChangedEvent) Type() uint32 { return TypeModeChanged }

// ControlChangedEvent fires when a control value is accepted.
type ControlChangedEvent struct {
	ID        string `json:"id" example:"exposure" doc:"Control identifier"`
	Value     int64  `json:"value"`
	Applied   bool   `json:"applied" doc:"Written to hardware rather than cached"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for ControlChangedEvent.
func (e ControlChangedEvent) Type() uint32 { return TypeControlChanged }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"sensor" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }

// AdapterChangedEvent fires when an I²C adapter appears or disappears.
type AdapterChangedEvent struct {
	Action    string `json:"action" example:"add" doc:"Hotplug action, add or remove"`
	Path      string `json:"path" example:"/dev/i2c-1" doc:"Adapter device node"`
	Name      string `json:"name,omitempty" doc:"Adapter description from sysfs"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for AdapterChangedEvent.
func (e AdapterChangedEvent) Type() uint32 { return TypeAdapterChanged }

// Bus wraps the kelindar/event dispatcher for typed publish/subscribe.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Publish broadcasts an event to all subscribers of its type.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case PowerChangedEvent:
		event.Publish(b.dispatcher, e)
	case StreamStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case ModeChangedEvent:
		event.Publish(b.dispatcher, e)
	case ControlChangedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	case AdapterChangedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers a handler; the handler's parameter type selects
// which events it receives. Returns an unsubscribe function.
// Usage: unsub := bus.Subscribe(func(e StreamStateChangedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(PowerChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(StreamStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ModeChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ControlChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(AdapterChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
