package events

import (
	"sync"
	"time"

	"github.com/kelindar/event"

	"github.com/smazurov/camsnap/internal/capture"
	"github.com/smazurov/camsnap/internal/devices"
)

// Bus wraps kelindar/event dispatcher for event broadcasting.
// Delivery is asynchronous; Wait blocks until every published event has
// been handled by the subscribers registered at publish time.
type Bus struct {
	dispatcher *event.Dispatcher

	mu          sync.Mutex
	subscribers map[uint32]int
	pending     sync.WaitGroup
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher:  event.NewDispatcher(),
		subscribers: make(map[uint32]int),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(CaptureCompletedEvent{...})
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	b.pending.Add(b.subscribers[ev.Type()])
	b.mu.Unlock()

	switch e := ev.(type) {
	case DeviceDiscoveryEvent:
		event.Publish(b.dispatcher, e)
	case SelectionRejectedEvent:
		event.Publish(b.dispatcher, e)
	case CaptureCompletedEvent:
		event.Publish(b.dispatcher, e)
	case CaptureInvocationFailedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function
// The handler type determines which events it receives
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e CaptureCompletedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(DeviceDiscoveryEvent):
		return subscribe(b, h)
	case func(SelectionRejectedEvent):
		return subscribe(b, h)
	case func(CaptureCompletedEvent):
		return subscribe(b, h)
	case func(CaptureInvocationFailedEvent):
		return subscribe(b, h)
	default:
		// Return a no-op function if handler type is not recognized
		return func() {}
	}
}

// Wait blocks until all published events have been delivered.
// Do not unsubscribe concurrently with Wait.
func (b *Bus) Wait() {
	b.pending.Wait()
}

// BroadcastDeviceDiscovery implements devices.EventBroadcaster.
func (b *Bus) BroadcastDeviceDiscovery(action string, record devices.Record, timestamp string) {
	b.Publish(DeviceDiscoveryEvent{
		Action:     action,
		Index:      record.Index,
		Label:      record.Label,
		Identifier: record.Identifier,
		Timestamp:  timestamp,
	})
}

// BroadcastCaptureCompleted implements capture.EventBroadcaster.
func (b *Bus) BroadcastCaptureCompleted(outcome capture.Outcome, timestamp string) {
	b.Publish(CaptureCompletedEvent{
		CaptureID:     outcome.CaptureID,
		Provider:      outcome.Provider,
		Identifier:    outcome.Identifier,
		ResultCode:    outcome.ResultCode,
		ErrorMessage:  outcome.ErrorMessage,
		ArtifactFound: outcome.ArtifactFound,
		Artifacts:     outcome.Artifacts,
		Duration:      outcome.Duration,
		Timestamp:     timestamp,
	})
}

// BroadcastCaptureFailed implements capture.EventBroadcaster.
func (b *Bus) BroadcastCaptureFailed(err *capture.InvocationError, duration time.Duration, timestamp string) {
	b.Publish(CaptureInvocationFailedEvent{
		CaptureID:  err.CaptureID,
		Provider:   err.Provider,
		Identifier: err.Identifier,
		Error:      err.Err.Error(),
		Duration:   duration,
		Timestamp:  timestamp,
	})
}

func subscribe[T Event](b *Bus, h func(T)) func() {
	var zero T
	typ := zero.Type()

	b.mu.Lock()
	b.subscribers[typ]++
	b.mu.Unlock()

	cancel := event.Subscribe(b.dispatcher, func(e T) {
		defer b.pending.Done()
		h(e)
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.subscribers[typ]--
			b.mu.Unlock()
			cancel()
		})
	}
}

// Now formats the current time the way event timestamps are written.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
