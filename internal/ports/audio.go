// Package ports defines interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external frameworks.
package ports

import (
	"time"
)

// AudioEngine is the adapter contract for gapless audio playback engines.
// The engine exposes a two-slot queue: slot 0 holds the audible track and
// slot 1 holds the pre-loaded lookahead that plays next without a gap.
//
// The scheduler treats the engine as the source of truth for what is
// currently audible; queue references are opaque strings (file paths).
//
// Implementations must be thread-safe as they may be called from multiple goroutines.
type AudioEngine interface {
	// ClearQueue drops every queued track and stops decoding.
	ClearQueue()

	// Enqueue appends a track reference to the queue. The engine may begin
	// pre-loading the reference immediately; "accepted" is all the scheduler
	// requires before returning.
	//
	// Returns an error if the reference cannot be accepted.
	Enqueue(ref string) error

	// Play starts or resumes playback of slot 0.
	//
	// Returns an error if playback cannot be started.
	Play() error

	// Pause pauses playback, preserving the position.
	//
	// Returns an error if pausing fails.
	Pause() error

	// SetPosition moves the playback position within the audible track.
	//
	// Returns an error if seeking fails.
	SetPosition(pos time.Duration) error

	// SetVolume sets the playback volume (0.0 to 1.0).
	//
	// Returns an error if the volume is out of range.
	SetVolume(volume float64) error

	// QueueSnapshot returns the current queue contents, audible track first.
	QueueSnapshot() []string

	// CurrentIndex returns the index of the audible slot within the
	// snapshot, or -1 when nothing is queued.
	CurrentIndex() int

	// SetEvents wires the sink that receives playback callbacks.
	// Must be called before playback starts.
	SetEvents(events EngineEvents)

	// Close releases engine resources.
	Close() error
}

// EngineEvents is the callback sink the engine drives during playback.
// The scheduler implements this interface.
type EngineEvents interface {
	// OnTimeUpdate reports the elapsed time within the audible track.
	// Emitted periodically; consumers are expected to throttle.
	OnTimeUpdate(elapsed time.Duration)

	// OnTrackFinished reports that the audible slot naturally exhausted.
	// By the time this fires the engine has already begun playing the
	// lookahead slot, if one was queued.
	OnTrackFinished()

	// OnEngineError reports a playback failure.
	OnEngineError(message string)
}

// MetadataProber extracts the playable duration of an audio file without
// playing it. Used by the library scanner; the tag reader alone cannot
// provide durations.
type MetadataProber interface {
	// Probe returns the duration of the referenced file.
	//
	// Returns an error if the file cannot be decoded.
	Probe(ref string) (time.Duration, error)
}
