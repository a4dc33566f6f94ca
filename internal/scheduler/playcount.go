package scheduler

// playedThresholdSeconds is the cumulative listening time that qualifies a
// play-count increment.
const playedThresholdSeconds = 30

// Tracker accumulates cumulative listened seconds per track ID and reports
// the one-time crossing of the play-count threshold.
//
// Accumulated time is keyed by track ID and survives the track losing and
// regaining focus: two partial listens of the same track sum toward the
// threshold until an explicit reset. Only the currently tracked track can
// accrue, and each tracked run commits at most once.
//
// Not safe for concurrent use; the scheduler owns it behind its own lock.
type Tracker struct {
	accumulated map[string]int
	tracking    string
	committed   bool
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		accumulated: make(map[string]int),
	}
}

// StartTracking switches accrual to the given track.
// Pre-existing accumulated time for the track is retained.
func (t *Tracker) StartTracking(trackID string) {
	t.tracking = trackID
	t.committed = false
}

// Accrue adds listened seconds for the track. It returns true exactly once:
// the instant cumulative time first reaches the threshold for the tracked
// track. Accrual for any other track, or after the commit, is a no-op.
func (t *Tracker) Accrue(trackID string, seconds int) bool {
	if trackID == "" || trackID != t.tracking || t.committed || seconds <= 0 {
		return false
	}

	t.accumulated[trackID] += seconds
	if t.accumulated[trackID] >= playedThresholdSeconds {
		t.committed = true
		return true
	}
	return false
}

// Reset zeroes accumulated time for the track and, if it is the tracked
// track, clears the committed flag. Used on explicit restarts: a repeat-track
// loop or a "restart current song" navigation begins a fresh listen.
func (t *Tracker) Reset(trackID string) {
	delete(t.accumulated, trackID)
	if trackID == t.tracking {
		t.committed = false
	}
}

// Accumulated returns the seconds accrued so far for the track.
func (t *Tracker) Accumulated(trackID string) int {
	return t.accumulated[trackID]
}

// Tracking returns the ID of the track currently accruing, if any.
func (t *Tracker) Tracking() string {
	return t.tracking
}
