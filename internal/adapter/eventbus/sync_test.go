package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tonearm-player/tonearm/internal/domain"
)

// TestNewSyncEventBus tests event bus creation.
func TestNewSyncEventBus(t *testing.T) {
	bus := NewSyncEventBus()

	if bus == nil {
		t.Fatal("NewSyncEventBus returned nil")
	}

	if bus.SubscriberCount() != 0 {
		t.Errorf("Expected 0 subscribers, got %d", bus.SubscriberCount())
	}

	if bus.closed {
		t.Error("New event bus should not be closed")
	}
}

// TestPublishSubscribe tests basic publish/subscribe functionality.
func TestPublishSubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var received domain.Event
	var callCount int

	handler := func(event domain.Event) {
		received = event
		callCount++
	}

	// Subscribe to track changed events
	subID := bus.Subscribe(domain.EventTrackChanged, handler)

	if subID == "" {
		t.Fatal("Subscribe returned empty subscription ID")
	}

	// Publish a track changed event
	track := domain.Track{ID: "test123", Title: "Test Track"}
	event := domain.NewTrackChangedEvent(track)
	bus.Publish(event)

	// Verify handler was called
	if callCount != 1 {
		t.Errorf("Expected handler to be called once, got %d", callCount)
	}

	if received == nil {
		t.Fatal("Handler did not receive event")
	}

	if received.Type() != domain.EventTrackChanged {
		t.Errorf("Expected EventTrackChanged, got %s", received.Type())
	}

	// Verify event data
	receivedEvent := received.(domain.TrackChangedEvent)
	if receivedEvent.Track.ID != "test123" {
		t.Errorf("Expected track ID test123, got %s", receivedEvent.Track.ID)
	}
}

// TestMultipleSubscribers tests multiple handlers for the same event type.
func TestMultipleSubscribers(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var callCount1, callCount2, callCount3 int32

	handler1 := func(event domain.Event) {
		atomic.AddInt32(&callCount1, 1)
	}

	handler2 := func(event domain.Event) {
		atomic.AddInt32(&callCount2, 1)
	}

	handler3 := func(event domain.Event) {
		atomic.AddInt32(&callCount3, 1)
	}

	// Subscribe multiple handlers
	bus.Subscribe(domain.EventTrackChanged, handler1)
	bus.Subscribe(domain.EventTrackChanged, handler2)
	bus.Subscribe(domain.EventTrackChanged, handler3)

	// Publish event
	track := domain.Track{ID: "test", Title: "Test"}
	bus.Publish(domain.NewTrackChangedEvent(track))

	// All handlers should be called
	if atomic.LoadInt32(&callCount1) != 1 {
		t.Errorf("Handler 1: expected 1 call, got %d", callCount1)
	}
	if atomic.LoadInt32(&callCount2) != 1 {
		t.Errorf("Handler 2: expected 1 call, got %d", callCount2)
	}
	if atomic.LoadInt32(&callCount3) != 1 {
		t.Errorf("Handler 3: expected 1 call, got %d", callCount3)
	}
}

// TestUnsubscribe tests unsubscribing handlers.
func TestUnsubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var callCount int32

	handler := func(event domain.Event) {
		atomic.AddInt32(&callCount, 1)
	}

	// Subscribe
	subID := bus.Subscribe(domain.EventTrackChanged, handler)

	// Publish - handler should be called
	track := domain.Track{ID: "test", Title: "Test"}
	bus.Publish(domain.NewTrackChangedEvent(track))

	if atomic.LoadInt32(&callCount) != 1 {
		t.Errorf("Expected 1 call before unsubscribe, got %d", callCount)
	}

	// Unsubscribe
	bus.Unsubscribe(subID)

	// Publish again - handler should NOT be called
	bus.Publish(domain.NewTrackChangedEvent(track))

	if atomic.LoadInt32(&callCount) != 1 {
		t.Errorf("Expected 1 call after unsubscribe, got %d", callCount)
	}
}

// TestUnsubscribeInvalidID tests unsubscribing with invalid ID (should be no-op).
func TestUnsubscribeInvalidID(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	// Should not panic
	bus.Unsubscribe("invalid-id")
	bus.Unsubscribe("")
}

// TestSubscribeAll tests wildcard subscriptions.
func TestSubscribeAll(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var receivedEvents []domain.Event
	var mu sync.Mutex

	handler := func(event domain.Event) {
		mu.Lock()
		defer mu.Unlock()
		receivedEvents = append(receivedEvents, event)
	}

	// Subscribe to all events
	bus.SubscribeAll(handler)

	// Publish different event types
	track := domain.Track{ID: "test", Title: "Test"}
	bus.Publish(domain.NewTrackChangedEvent(track))
	bus.Publish(domain.NewPositionChangedEvent(10*time.Second, 3*time.Minute))
	bus.Publish(domain.NewStateChangedEvent(false, 0.5, domain.RepeatOff, false, 3*time.Minute))

	// Handler should receive all events
	mu.Lock()
	defer mu.Unlock()

	if len(receivedEvents) != 3 {
		t.Errorf("Expected 3 events, got %d", len(receivedEvents))
	}
}

// TestHandlerPanic tests that panicking handlers don't crash the bus.
func TestHandlerPanic(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var callCount int32

	panicHandler := func(event domain.Event) {
		panic("test panic")
	}

	normalHandler := func(event domain.Event) {
		atomic.AddInt32(&callCount, 1)
	}

	// Subscribe both handlers
	bus.Subscribe(domain.EventTrackChanged, panicHandler)
	bus.Subscribe(domain.EventTrackChanged, normalHandler)

	// Publish event - should not crash, normal handler should still be called
	track := domain.Track{ID: "test", Title: "Test"}
	bus.Publish(domain.NewTrackChangedEvent(track))

	if atomic.LoadInt32(&callCount) != 1 {
		t.Errorf("Expected normal handler to be called despite panic, got %d calls", callCount)
	}
}

// TestClose tests closing the event bus.
func TestClose(t *testing.T) {
	bus := NewSyncEventBus()

	// Add some subscribers
	handler := func(event domain.Event) {}
	bus.Subscribe(domain.EventTrackChanged, handler)
	bus.SubscribeAll(handler)

	if bus.SubscriberCount() == 0 {
		t.Error("Expected subscribers before close")
	}

	// Close the bus
	err := bus.Close()
	if err != nil {
		t.Errorf("Close returned error: %v", err)
	}

	// All subscribers should be cleared
	if bus.SubscriberCount() != 0 {
		t.Errorf("Expected 0 subscribers after close, got %d", bus.SubscriberCount())
	}

	// Publishing should be a no-op (shouldn't panic)
	track := domain.Track{ID: "test", Title: "Test"}
	bus.Publish(domain.NewTrackChangedEvent(track))

	// Closing again should return error
	err = bus.Close()
	if err == nil {
		t.Error("Expected error when closing already closed bus")
	}
}

// TestConcurrentPublish tests concurrent event publishing (race condition test).
func TestConcurrentPublish(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var eventCount int32

	handler := func(event domain.Event) {
		atomic.AddInt32(&eventCount, 1)
	}

	bus.Subscribe(domain.EventTrackChanged, handler)

	// Publish events from multiple goroutines
	const numGoroutines = 10
	const eventsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	track := domain.Track{ID: "test", Title: "Test"}

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				bus.Publish(domain.NewTrackChangedEvent(track))
			}
		}()
	}

	wg.Wait()

	expectedCount := int32(numGoroutines * eventsPerGoroutine)
	if atomic.LoadInt32(&eventCount) != expectedCount {
		t.Errorf("Expected %d events, got %d", expectedCount, eventCount)
	}
}

// TestConcurrentSubscribe tests concurrent subscriptions (race condition test).
func TestConcurrentSubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	const numGoroutines = 10
	const subscriptionsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	handler := func(event domain.Event) {}

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < subscriptionsPerGoroutine; j++ {
				bus.Subscribe(domain.EventTrackChanged, handler)
			}
		}()
	}

	wg.Wait()

	expectedCount := numGoroutines * subscriptionsPerGoroutine
	if bus.SubscriberCount() != expectedCount {
		t.Errorf("Expected %d subscribers, got %d", expectedCount, bus.SubscriberCount())
	}
}

// TestNilEvent tests publishing nil event (should be no-op).
func TestNilEvent(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var callCount int32

	handler := func(event domain.Event) {
		atomic.AddInt32(&callCount, 1)
	}

	bus.Subscribe(domain.EventTrackChanged, handler)

	// Publishing nil should be a no-op
	bus.Publish(nil)

	if atomic.LoadInt32(&callCount) != 0 {
		t.Errorf("Handler should not be called for nil event, got %d calls", callCount)
	}
}

// TestNilHandler tests that subscribing with nil handler panics.
func TestNilHandler(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when subscribing with nil handler")
		}
	}()

	bus.Subscribe(domain.EventTrackChanged, nil)
}

// TestDifferentEventTypes tests that subscribers only receive their event type.
func TestDifferentEventTypes(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var trackCount, positionCount int32

	trackHandler := func(event domain.Event) {
		atomic.AddInt32(&trackCount, 1)
	}

	positionHandler := func(event domain.Event) {
		atomic.AddInt32(&positionCount, 1)
	}

	bus.Subscribe(domain.EventTrackChanged, trackHandler)
	bus.Subscribe(domain.EventPositionChanged, positionHandler)

	track := domain.Track{ID: "test", Title: "Test"}

	// Publish track changed event
	bus.Publish(domain.NewTrackChangedEvent(track))

	if atomic.LoadInt32(&trackCount) != 1 {
		t.Errorf("Expected 1 track event, got %d", trackCount)
	}
	if atomic.LoadInt32(&positionCount) != 0 {
		t.Errorf("Expected 0 position events, got %d", positionCount)
	}

	// Publish position changed event
	bus.Publish(domain.NewPositionChangedEvent(5*time.Second, 3*time.Minute))

	if atomic.LoadInt32(&trackCount) != 1 {
		t.Errorf("Expected 1 track event after position update, got %d", trackCount)
	}
	if atomic.LoadInt32(&positionCount) != 1 {
		t.Errorf("Expected 1 position event, got %d", positionCount)
	}
}
