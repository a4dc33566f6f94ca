// Package scheduler implements the playback scheduling engine: the state
// machine that decides which track is audible, what plays next, and how
// listening time turns into play counts.
package scheduler

import (
	"github.com/tonearm-player/tonearm/internal/domain"
)

// historyCapacity bounds the shuffle history. Oldest entries are evicted first.
const historyCapacity = 100

// History is a bounded append-only sequence of previously played tracks,
// used to retrace actual playback when navigating backward under shuffle.
// Not safe for concurrent use; the scheduler owns it behind its own lock.
type History struct {
	entries  []domain.Track
	capacity int
}

// NewHistory creates a history bounded to the given capacity.
func NewHistory(capacity int) *History {
	return &History{
		entries:  make([]domain.Track, 0, capacity),
		capacity: capacity,
	}
}

// Push appends a track, evicting the oldest entry when full.
func (h *History) Push(track domain.Track) {
	if len(h.entries) >= h.capacity {
		h.entries = h.entries[1:]
	}
	h.entries = append(h.entries, track)
}

// Pop removes and returns the most recently pushed track.
// The boolean is false when the history is empty.
func (h *History) Pop() (domain.Track, bool) {
	if len(h.entries) == 0 {
		return domain.Track{}, false
	}
	last := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]
	return last, true
}

// Len returns the number of stored tracks.
func (h *History) Len() int {
	return len(h.entries)
}

// Clear drops all stored tracks.
func (h *History) Clear() {
	h.entries = h.entries[:0]
}
