// Package ports defines interfaces for dependency inversion.
package ports

import (
	"github.com/tonearm-player/tonearm/internal/domain"
)

// Catalog is the read-side contract the scheduler uses to resolve track order.
// The catalog owns the track collection, playlist membership, and the
// per-source view state (filter/sort) mutated independently by the UI.
//
// The scheduler only ever reads the latest snapshot at resolution time, so
// scheduling decisions always reflect the current view even if it changed
// since the last tick.
//
// Thread-safety: implementations must be safe for concurrent reads and writes.
type Catalog interface {
	// Tracks returns all library tracks. The returned slice is a copy.
	Tracks() []domain.Track

	// TrackByID looks up a track by its identifier.
	TrackByID(id string) (domain.Track, bool)

	// TrackByRef looks up a track by its engine queue reference (file path).
	// Used to reconcile the adapter's audible slot back to a catalog track.
	TrackByRef(ref string) (domain.Track, bool)

	// Playlist looks up a playlist by ID.
	Playlist(id string) (domain.Playlist, bool)

	// ViewState returns the current filter/sort state for a source kind.
	ViewState(kind domain.SourceKind) domain.ViewState
}

// LibraryWriter is the write-side contract used by the scanner to publish
// scan results into the catalog.
type LibraryWriter interface {
	// ReplaceTracks swaps the catalog's track set for the given one,
	// preserving play counts for tracks whose file paths survive.
	ReplaceTracks(tracks []domain.Track)
}
