// Package ports defines interfaces for dependency inversion.
package ports

import (
	"time"
)

// PlayCountStore is the outbound persistence sink for listening statistics.
// Calls are fire-and-forget from the scheduler's perspective: failures are
// logged, never propagated as faults across the core boundary.
//
// Thread-safety: implementations must be thread-safe.
type PlayCountStore interface {
	// IncrementPlayCount records one qualified listen for the track.
	// Invoked exactly once per 30-second threshold crossing.
	//
	// Returns an error if persistence fails.
	IncrementPlayCount(trackID string, at time.Time) error

	// SetLastPlayed records when the track last became current.
	//
	// Returns an error if persistence fails.
	SetLastPlayed(trackID string, at time.Time) error

	// PlayCounts returns the persisted play count per track ID.
	// Used to seed the catalog at startup.
	//
	// Returns an error if loading fails.
	PlayCounts() (map[string]int, error)

	// Close releases store resources.
	Close() error
}
