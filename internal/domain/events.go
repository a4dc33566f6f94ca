// Package domain defines events for the event-driven architecture.
// Events replace the callback system and enable loose coupling between components.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Scheduler events
	EventTrackChanged    EventType = "track.changed"
	EventStateChanged    EventType = "player.state"
	EventPositionChanged EventType = "player.position"
	EventPlayCounted     EventType = "track.play_counted"
	EventAdapterError    EventType = "adapter.error"

	// Library events
	EventLibraryUpdated EventType = "library.updated"
	EventScanStarted    EventType = "scan.started"
	EventScanProgress   EventType = "scan.progress"
	EventScanCompleted  EventType = "scan.completed"
	EventScanCancelled  EventType = "scan.cancelled"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackChangedEvent is published when the current track changes.
// Consumers include the media-session display and the last-played recorder;
// delivery is at-least-once and consumers must be idempotent.
type TrackChangedEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e TrackChangedEvent) Type() EventType {
	return EventTrackChanged
}

// NewTrackChangedEvent creates a new TrackChangedEvent.
func NewTrackChangedEvent(track Track) TrackChangedEvent {
	return TrackChangedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
	}
}

// StateChangedEvent is published when the scheduler's mode/pause/volume state changes.
type StateChangedEvent struct {
	baseEvent
	Paused   bool
	Volume   float64
	Repeat   RepeatMode
	Shuffle  bool
	Duration time.Duration
}

// Type returns the event type.
func (e StateChangedEvent) Type() EventType {
	return EventStateChanged
}

// NewStateChangedEvent creates a new StateChangedEvent.
func NewStateChangedEvent(paused bool, volume float64, repeat RepeatMode, shuffle bool, duration time.Duration) StateChangedEvent {
	return StateChangedEvent{
		baseEvent: newBaseEvent(),
		Paused:    paused,
		Volume:    volume,
		Repeat:    repeat,
		Shuffle:   shuffle,
		Duration:  duration,
	}
}

// PositionChangedEvent is published on accepted position updates.
type PositionChangedEvent struct {
	baseEvent
	Position time.Duration
	Duration time.Duration
}

// Type returns the event type.
func (e PositionChangedEvent) Type() EventType {
	return EventPositionChanged
}

// NewPositionChangedEvent creates a new PositionChangedEvent.
func NewPositionChangedEvent(position, duration time.Duration) PositionChangedEvent {
	return PositionChangedEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
		Duration:  duration,
	}
}

// PlayCountedEvent is published exactly once per 30-second threshold crossing.
type PlayCountedEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e PlayCountedEvent) Type() EventType {
	return EventPlayCounted
}

// NewPlayCountedEvent creates a new PlayCountedEvent.
func NewPlayCountedEvent(track Track) PlayCountedEvent {
	return PlayCountedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
	}
}

// AdapterErrorEvent is published when the audio engine reports a playback error.
type AdapterErrorEvent struct {
	baseEvent
	Message string
}

// Type returns the event type.
func (e AdapterErrorEvent) Type() EventType {
	return EventAdapterError
}

// NewAdapterErrorEvent creates a new AdapterErrorEvent.
func NewAdapterErrorEvent(message string) AdapterErrorEvent {
	return AdapterErrorEvent{
		baseEvent: newBaseEvent(),
		Message:   message,
	}
}

// LibraryUpdatedEvent is published when the catalog's track set changes.
type LibraryUpdatedEvent struct {
	baseEvent
	TrackCount int
}

// Type returns the event type.
func (e LibraryUpdatedEvent) Type() EventType {
	return EventLibraryUpdated
}

// NewLibraryUpdatedEvent creates a new LibraryUpdatedEvent.
func NewLibraryUpdatedEvent(trackCount int) LibraryUpdatedEvent {
	return LibraryUpdatedEvent{
		baseEvent:  newBaseEvent(),
		TrackCount: trackCount,
	}
}

// ScanStartedEvent is published when a library scan starts.
type ScanStartedEvent struct {
	baseEvent
	Path string
}

// Type returns the event type.
func (e ScanStartedEvent) Type() EventType {
	return EventScanStarted
}

// NewScanStartedEvent creates a new ScanStartedEvent.
func NewScanStartedEvent(path string) ScanStartedEvent {
	return ScanStartedEvent{
		baseEvent: newBaseEvent(),
		Path:      path,
	}
}

// ScanProgressEvent is published periodically during a library scan.
type ScanProgressEvent struct {
	baseEvent
	Progress ScanProgress
}

// Type returns the event type.
func (e ScanProgressEvent) Type() EventType {
	return EventScanProgress
}

// NewScanProgressEvent creates a new ScanProgressEvent.
func NewScanProgressEvent(progress ScanProgress) ScanProgressEvent {
	return ScanProgressEvent{
		baseEvent: newBaseEvent(),
		Progress:  progress,
	}
}

// ScanCompletedEvent is published when a library scan completes.
type ScanCompletedEvent struct {
	baseEvent
	TracksFound []Track
}

// Type returns the event type.
func (e ScanCompletedEvent) Type() EventType {
	return EventScanCompleted
}

// NewScanCompletedEvent creates a new ScanCompletedEvent.
func NewScanCompletedEvent(tracks []Track) ScanCompletedEvent {
	return ScanCompletedEvent{
		baseEvent:   newBaseEvent(),
		TracksFound: tracks,
	}
}

// ScanCancelledEvent is published when a library scan is canceled.
type ScanCancelledEvent struct {
	baseEvent
	Reason string
}

// Type returns the event type.
func (e ScanCancelledEvent) Type() EventType {
	return EventScanCancelled
}

// NewScanCancelledEvent creates a new ScanCancelledEvent.
func NewScanCancelledEvent(reason string) ScanCancelledEvent {
	return ScanCancelledEvent{
		baseEvent: newBaseEvent(),
		Reason:    reason,
	}
}
