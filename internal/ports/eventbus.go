// Package ports defines the EventBus interface for event-driven communication.
// The event bus replaces callbacks and enables loose coupling between components.
package ports

import (
	"github.com/tonearm-player/tonearm/internal/domain"
)

// EventBus is the interface for publishing and subscribing to events.
// This is the core of the event-driven architecture: the scheduler publishes
// state transitions and any number of display surfaces consume them without
// knowing about each other.
//
// Thread-safety: Implementations must be thread-safe as events may be published
// and subscribed from multiple goroutines simultaneously.
//
// Example usage:
//
//	// In the scheduler: publish an event
//	bus.Publish(domain.NewTrackChangedEvent(track))
//
//	// In a display surface: subscribe to events
//	subID := bus.Subscribe(domain.EventTrackChanged, func(event domain.Event) {
//	    e := event.(domain.TrackChangedEvent)
//	    display.SetNowPlaying(e.Track)
//	})
//
//	// Later: unsubscribe
//	bus.Unsubscribe(subID)
type EventBus interface {
	// Publish publishes an event to all subscribers of that event type.
	// Handlers are called synchronously in subscription order; they must
	// process events quickly or dispatch to a background goroutine.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the specified type.
	// The same handler can be registered multiple times, resulting in
	// multiple calls. Each subscription gets a unique SubscriptionID.
	//
	// Returns a SubscriptionID that can be used to unsubscribe later.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a previously registered event handler.
	// If the subscription ID is invalid or already unsubscribed, this is a no-op.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler that receives all events regardless of type.
	// This is useful for logging, debugging, or analytics.
	//
	// Returns a SubscriptionID that can be used to unsubscribe later.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// Close shuts down the event bus and cleans up resources.
	// After calling Close, no more events should be published or subscribed.
	Close() error
}
