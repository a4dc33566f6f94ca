package scheduler

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/tonearm-player/tonearm/internal/domain"
	"github.com/tonearm-player/tonearm/internal/order"
	"github.com/tonearm-player/tonearm/internal/ports"
)

const (
	// tickThrottle is the minimum wall-clock gap between accepted time ticks.
	tickThrottle = time.Second

	// restartCutoff is how far into a track "previous" still means
	// "previous track". Beyond it (strictly), previous restarts the
	// current track instead, mirroring CD-player ergonomics.
	restartCutoff = 3 * time.Second

	defaultVolume = 0.8
)

// Scheduler is the playback scheduling engine. It holds the current track,
// pause state, position, repeat and shuffle modes; computes next/previous via
// the catalog; keeps the audio engine's two-slot lookahead queue populated
// for gapless transitions; and turns listening time into play counts.
//
// Each operation is a full state transition or none. All operations are
// thread-safe via sync.Mutex.
type Scheduler struct {
	// Dependencies (injected)
	logger  *slog.Logger
	catalog ports.Catalog
	engine  ports.AudioEngine
	store   ports.PlayCountStore
	bus     ports.EventBus

	// State
	mu       sync.Mutex
	current  *domain.Track
	paused   bool
	position time.Duration
	duration time.Duration
	volume   float64
	source   domain.PlaybackSource
	repeat   domain.RepeatMode
	shuffle  bool
	history  *History
	tracker  *Tracker

	// Timing checkpoints
	lastTickAt        time.Time     // throttles incoming time ticks
	lastAccrualAt     time.Time     // wall-clock base for listening-time flushes
	lastKnownPosition time.Duration // high-water mark of credited position

	// Injected for determinism in tests
	now func() time.Time
	rng *rand.Rand
}

// New creates a scheduler wired to its collaborators. The scheduler starts
// empty and paused; it lives for the process lifetime and is only ever reset
// to defaults via Clear.
func New(
	logger *slog.Logger,
	catalog ports.Catalog,
	engine ports.AudioEngine,
	store ports.PlayCountStore,
	bus ports.EventBus,
) *Scheduler {
	return &Scheduler{
		logger:  logger,
		catalog: catalog,
		engine:  engine,
		store:   store,
		bus:     bus,
		paused:  true,
		volume:  defaultVolume,
		source:  domain.LibrarySource(),
		history: NewHistory(historyCapacity),
		tracker: NewTracker(),
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SelectTrack makes the identified track current and starts playing it from
// the top, repopulating the engine queue with the track and its lookahead.
func (s *Scheduler) SelectTrack(trackID string, source domain.PlaybackSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	selected, ok := s.catalog.TrackByID(trackID)
	if !ok {
		s.logger.Warn("selected track missing from catalog", slog.String("track_id", trackID))
		return domain.ErrTrackNotFound
	}

	now := s.now()
	s.flushAccrualLocked(now)

	if s.shuffle && s.current != nil {
		s.history.Push(*s.current)
	}

	s.source = source
	seq := s.resolveLocked()
	next, hasNext := order.FindNext(seq, selected.ID, s.repeat, s.shuffle, s.rng)

	s.engine.ClearQueue()
	if err := s.engine.Enqueue(selected.FilePath); err != nil {
		return s.adapterFailureLocked("enqueue", err)
	}
	if hasNext {
		if err := s.engine.Enqueue(next.FilePath); err != nil {
			s.logger.Warn("failed to enqueue lookahead", slog.Any("error", err))
		}
	}

	s.setCurrentLocked(selected, now)
	s.paused = false
	if err := s.engine.Play(); err != nil {
		return s.adapterFailureLocked("play", err)
	}

	s.bus.Publish(domain.NewTrackChangedEvent(selected))
	s.publishStateLocked()
	return nil
}

// SkipToNext advances to the next track under the current repeat/shuffle
// modes. With RepeatTrack it restarts the current track. At the end of the
// sequence without RepeatAll it is a no-op: playback stops naturally.
// The paused flag is preserved; skipping does not force resume.
func (s *Scheduler) SkipToNext() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.ErrInvalidState
	}

	now := s.now()

	if s.repeat == domain.RepeatTrack {
		return s.restartCurrentLocked(now)
	}

	seq := s.resolveLocked()
	next, ok := order.FindNext(seq, s.current.ID, s.repeat, s.shuffle, s.rng)
	if !ok {
		return nil
	}

	s.flushAccrualLocked(now)
	if s.shuffle {
		s.history.Push(*s.current)
	}

	second, hasSecond := order.FindNext(seq, next.ID, s.repeat, s.shuffle, s.rng)

	s.engine.ClearQueue()
	if err := s.engine.Enqueue(next.FilePath); err != nil {
		return s.adapterFailureLocked("enqueue", err)
	}
	if hasSecond {
		if err := s.engine.Enqueue(second.FilePath); err != nil {
			s.logger.Warn("failed to enqueue lookahead", slog.Any("error", err))
		}
	}

	s.setCurrentLocked(next, now)
	if !s.paused {
		if err := s.engine.Play(); err != nil {
			return s.adapterFailureLocked("play", err)
		}
	}

	s.bus.Publish(domain.NewTrackChangedEvent(next))
	s.publishStateLocked()
	return nil
}

// SkipToPrevious goes back one track. More than three seconds into playback
// it restarts the current track instead. Under shuffle it retraces the
// history; otherwise it walks to the catalog-order predecessor. With no
// previous track available it restarts the current track rather than failing.
// The about-to-be-left track becomes the new lookahead, preserving gapless
// continuity backward.
func (s *Scheduler) SkipToPrevious() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.ErrInvalidState
	}

	now := s.now()

	if s.position > restartCutoff {
		return s.restartCurrentLocked(now)
	}

	var prev domain.Track
	var ok, fromHistory bool
	if s.shuffle {
		prev, ok = s.history.Pop()
		fromHistory = ok
	}
	if !ok {
		prev, ok = order.FindPrevious(s.resolveLocked(), s.current.ID)
	}
	if !ok {
		return s.restartCurrentLocked(now)
	}

	s.flushAccrualLocked(now)
	leaving := *s.current

	s.engine.ClearQueue()
	if err := s.engine.Enqueue(prev.FilePath); err != nil {
		// A failed transition consumes nothing: the history entry goes back.
		if fromHistory {
			s.history.Push(prev)
		}
		return s.adapterFailureLocked("enqueue", err)
	}
	if err := s.engine.Enqueue(leaving.FilePath); err != nil {
		s.logger.Warn("failed to enqueue lookahead", slog.Any("error", err))
	}

	s.setCurrentLocked(prev, now)
	if !s.paused {
		if err := s.engine.Play(); err != nil {
			return s.adapterFailureLocked("play", err)
		}
	}

	s.bus.Publish(domain.NewTrackChangedEvent(prev))
	s.publishStateLocked()
	return nil
}

// TogglePause flips the pause state.
func (s *Scheduler) TogglePause() error {
	s.mu.Lock()
	paused := s.paused
	s.mu.Unlock()
	return s.SetPaused(!paused)
}

// SetPaused pauses or resumes playback. The playing-to-paused transition
// flushes accrued listening time first, so a threshold crossing lands before
// the pause takes effect; resuming resets the accrual checkpoint.
func (s *Scheduler) SetPaused(paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || paused == s.paused {
		return nil
	}

	now := s.now()
	if paused {
		s.flushAccrualLocked(now)
		if err := s.engine.Pause(); err != nil {
			return s.adapterFailureLocked("pause", err)
		}
	} else {
		s.lastAccrualAt = now
		if err := s.engine.Play(); err != nil {
			return s.adapterFailureLocked("play", err)
		}
	}

	s.paused = paused
	s.publishStateLocked()
	return nil
}

// SeekTo moves the playback position, clamped to [0, duration]. Listening
// time accrued so far is flushed only when the position had moved strictly
// forward since the last checkpoint; scrubbing backward or replaying an
// already-credited range never double counts. Seeking to zero from near the
// start counts as an explicit restart and resets the threshold tracker.
func (s *Scheduler) SeekTo(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.ErrInvalidState
	}

	if pos < 0 {
		pos = 0
	}
	if s.duration > 0 && pos > s.duration {
		pos = s.duration
	}

	now := s.now()
	if pos > s.lastKnownPosition {
		s.flushAccrualLocked(now)
		s.lastKnownPosition = pos
	}

	if pos == 0 && s.position <= restartCutoff {
		// Explicit restart: the next pass over the track is a fresh listen.
		s.tracker.Reset(s.current.ID)
		s.lastKnownPosition = 0
	}

	if err := s.engine.SetPosition(pos); err != nil {
		return s.adapterFailureLocked("seek", err)
	}

	s.position = pos
	s.lastAccrualAt = now
	s.bus.Publish(domain.NewPositionChangedEvent(s.position, s.duration))
	return nil
}

// SetRepeatMode sets the repeat mode. No audio side effect.
func (s *Scheduler) SetRepeatMode(mode domain.RepeatMode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repeat == mode {
		return
	}
	s.repeat = mode
	s.publishStateLocked()
}

// CycleRepeatMode advances Off -> Track -> All -> Off and returns the new mode.
func (s *Scheduler) CycleRepeatMode() domain.RepeatMode {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.repeat = s.repeat.Next()
	s.publishStateLocked()
	return s.repeat
}

// SetShuffleMode enables or disables shuffle. Toggling in either direction
// clears the shuffle history.
func (s *Scheduler) SetShuffleMode(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shuffle == enabled {
		return
	}
	s.shuffle = enabled
	s.history.Clear()
	s.publishStateLocked()
}

// SetVolume clamps the volume to [0, 1] and forwards it to the engine.
func (s *Scheduler) SetVolume(volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}

	if err := s.engine.SetVolume(volume); err != nil {
		return s.adapterFailureLocked("volume", err)
	}

	s.volume = volume
	s.publishStateLocked()
	return nil
}

// Clear resets the scheduler to its initial empty, paused state.
// Volume is a device property and survives the reset.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.ClearQueue()
	s.current = nil
	s.paused = true
	s.position = 0
	s.duration = 0
	s.source = domain.LibrarySource()
	s.repeat = domain.RepeatOff
	s.shuffle = false
	s.history.Clear()
	s.tracker = NewTracker()
	s.lastTickAt = time.Time{}
	s.lastKnownPosition = 0
	s.publishStateLocked()
}

// Snapshot returns the current aggregate playback state.
func (s *Scheduler) Snapshot() domain.PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := domain.PlayerState{
		Paused:     s.paused,
		Position:   s.position,
		Duration:   s.duration,
		Volume:     s.volume,
		Source:     s.source,
		Repeat:     s.repeat,
		Shuffle:    s.shuffle,
		HistoryLen: s.history.Len(),
	}
	if s.current != nil {
		track := *s.current
		state.CurrentTrack = &track
	}
	return state
}

// OnTimeUpdate handles a periodic time callback from the audio engine.
// Ticks arriving less than a second after the last accepted one are ignored.
// Position deltas beyond the credited high-water mark accrue listening time;
// backward or repeated positions never do.
func (s *Scheduler) OnTimeUpdate(elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}

	now := s.now()
	if !s.lastTickAt.IsZero() && now.Sub(s.lastTickAt) < tickThrottle {
		return
	}
	s.lastTickAt = now

	pos := elapsed.Truncate(time.Second)
	if s.duration > 0 && pos > s.duration {
		pos = s.duration
	}

	if pos > s.lastKnownPosition {
		delta := int((pos - s.lastKnownPosition) / time.Second)
		if delta > 0 && !s.paused {
			if s.tracker.Accrue(s.current.ID, delta) {
				s.commitPlayCountLocked(now)
			}
		}
		s.lastKnownPosition = pos
	}

	s.position = pos
	s.lastAccrualAt = now
	s.bus.Publish(domain.NewPositionChangedEvent(s.position, s.duration))
}

// OnTrackFinished handles the audible slot naturally exhausting. With
// RepeatTrack the engine is rewound and the loop counts as a fresh listen.
// Otherwise the engine has already begun playing what was the lookahead slot,
// so the scheduler reconciles its own current track against what is actually
// audible and enqueues the next lookahead. The adapter is the source of truth
// for what is playing; the scheduler only decides what plays after.
func (s *Scheduler) OnTrackFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}

	now := s.now()

	if s.repeat == domain.RepeatTrack {
		// The engine already dropped the finished slot, so the loop is a
		// fresh enqueue of the same track.
		s.engine.ClearQueue()
		if err := s.engine.Enqueue(s.current.FilePath); err != nil {
			s.logger.Warn("failed to re-enqueue repeating track", slog.Any("error", err))
		} else if err := s.engine.Play(); err != nil {
			s.logger.Warn("failed to resume repeat loop", slog.Any("error", err))
		}
		s.position = 0
		s.lastKnownPosition = 0
		s.lastAccrualAt = now
		s.tracker.Reset(s.current.ID)
		s.bus.Publish(domain.NewPositionChangedEvent(0, s.duration))
		return
	}

	s.flushAccrualLocked(now)

	snapshot := s.engine.QueueSnapshot()
	idx := s.engine.CurrentIndex()
	if idx < 0 || idx >= len(snapshot) {
		// Queue exhausted. The repeat mode may have changed after the
		// lookahead was last computed, so ask once more before stopping.
		s.continueAfterExhaustionLocked(now)
		return
	}

	audible, ok := s.catalog.TrackByRef(snapshot[idx])
	if !ok {
		s.logger.Warn("audible track missing from catalog", slog.String("ref", snapshot[idx]))
		return
	}

	if s.shuffle {
		s.history.Push(*s.current)
	}

	s.setCurrentLocked(audible, now)

	next, hasNext := order.FindNext(s.resolveLocked(), audible.ID, s.repeat, s.shuffle, s.rng)
	if hasNext {
		if err := s.engine.Enqueue(next.FilePath); err != nil {
			s.logger.Warn("failed to enqueue lookahead", slog.Any("error", err))
		}
	}

	s.bus.Publish(domain.NewTrackChangedEvent(audible))
	s.publishStateLocked()
}

// OnEngineError handles a playback failure reported by the engine.
// The scheduler surfaces it and stays where it is, paused; it never silently
// advances past a failed track.
func (s *Scheduler) OnEngineError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Error("audio engine reported error", slog.String("message", message))
	s.paused = true
	s.bus.Publish(domain.NewAdapterErrorEvent(message))
	s.publishStateLocked()
}

// continueAfterExhaustionLocked decides what happens when the engine queue
// runs dry: continue into the next schedulable track if one exists, otherwise
// stop naturally with the last track still current.
func (s *Scheduler) continueAfterExhaustionLocked(now time.Time) {
	seq := s.resolveLocked()
	next, ok := order.FindNext(seq, s.current.ID, s.repeat, s.shuffle, s.rng)
	if !ok {
		s.paused = true
		s.publishStateLocked()
		return
	}

	if s.shuffle {
		s.history.Push(*s.current)
	}

	s.engine.ClearQueue()
	if err := s.engine.Enqueue(next.FilePath); err != nil {
		s.logger.Warn("failed to enqueue continuation", slog.Any("error", err))
		s.paused = true
		s.publishStateLocked()
		return
	}
	if second, hasSecond := order.FindNext(seq, next.ID, s.repeat, s.shuffle, s.rng); hasSecond {
		if err := s.engine.Enqueue(second.FilePath); err != nil {
			s.logger.Warn("failed to enqueue lookahead", slog.Any("error", err))
		}
	}

	s.setCurrentLocked(next, now)
	if err := s.engine.Play(); err != nil {
		s.logger.Warn("failed to continue playback", slog.Any("error", err))
		s.paused = true
	}

	s.bus.Publish(domain.NewTrackChangedEvent(next))
	s.publishStateLocked()
}

// restartCurrentLocked rewinds the current track to position zero without a
// track change. Explicit restarts reset the threshold tracker: leaving for
// the top of the song is a fresh listen, not a departure.
func (s *Scheduler) restartCurrentLocked(now time.Time) error {
	if err := s.engine.SetPosition(0); err != nil {
		return s.adapterFailureLocked("seek", err)
	}

	s.position = 0
	s.lastKnownPosition = 0
	s.lastAccrualAt = now
	s.tracker.Reset(s.current.ID)
	s.bus.Publish(domain.NewPositionChangedEvent(0, s.duration))
	return nil
}

// setCurrentLocked installs a new current track and resets timing state and
// threshold tracking for it. Accrued time for the outgoing track must already
// have been flushed.
func (s *Scheduler) setCurrentLocked(track domain.Track, now time.Time) {
	s.current = &track
	s.position = 0
	s.duration = track.Duration
	s.lastKnownPosition = 0
	s.lastAccrualAt = now
	s.lastTickAt = time.Time{}
	s.tracker.StartTracking(track.ID)

	if err := s.store.SetLastPlayed(track.ID, now); err != nil {
		s.logger.Warn("failed to persist last played", slog.Any("error", err))
	}
}

// flushAccrualLocked credits wall-clock listening time since the last
// checkpoint, rounded down to whole seconds, and advances the checkpoint.
// Nothing is credited while paused or with no current track.
func (s *Scheduler) flushAccrualLocked(now time.Time) {
	defer func() { s.lastAccrualAt = now }()

	if s.current == nil || s.paused || s.lastAccrualAt.IsZero() {
		return
	}

	seconds := int(now.Sub(s.lastAccrualAt) / time.Second)
	if seconds <= 0 {
		return
	}
	if s.tracker.Accrue(s.current.ID, seconds) {
		s.commitPlayCountLocked(now)
	}
}

// commitPlayCountLocked persists a play-count increment for the current track.
// Persistence is fire-and-forget; failures are logged, never propagated.
func (s *Scheduler) commitPlayCountLocked(now time.Time) {
	if s.current == nil {
		return
	}
	if err := s.store.IncrementPlayCount(s.current.ID, now); err != nil {
		s.logger.Warn("failed to persist play count",
			slog.String("track_id", s.current.ID),
			slog.Any("error", err))
	}
	s.bus.Publish(domain.NewPlayCountedEvent(*s.current))
}

// adapterFailureLocked converts an engine error into an AdapterError,
// surfaces it through the notification sink, and leaves playback paused with
// the current track unchanged.
func (s *Scheduler) adapterFailureLocked(op string, err error) error {
	s.logger.Error("audio adapter failure", slog.String("op", op), slog.Any("error", err))
	s.paused = true
	wrapped := domain.NewAdapterError(op, "", err.Error(), err)
	s.bus.Publish(domain.NewAdapterErrorEvent(wrapped.Error()))
	s.publishStateLocked()
	return wrapped
}

// resolveLocked produces the ordered sequence for the active source using the
// catalog's current view state snapshot.
func (s *Scheduler) resolveLocked() []domain.Track {
	view := s.catalog.ViewState(s.source.Kind)

	var tracks []domain.Track
	switch s.source.Kind {
	case domain.SourcePlaylist:
		playlist, ok := s.catalog.Playlist(s.source.PlaylistID)
		if !ok {
			s.logger.Warn("playlist missing from catalog", slog.String("playlist_id", s.source.PlaylistID))
			return nil
		}
		tracks = make([]domain.Track, 0, len(playlist.TrackIDs))
		for _, id := range playlist.TrackIDs {
			if t, found := s.catalog.TrackByID(id); found {
				tracks = append(tracks, t)
			}
		}
	default:
		tracks = s.catalog.Tracks()
	}

	return order.Resolve(tracks, view)
}

// publishStateLocked republishes the mode/pause/volume aggregate.
func (s *Scheduler) publishStateLocked() {
	s.bus.Publish(domain.NewStateChangedEvent(s.paused, s.volume, s.repeat, s.shuffle, s.duration))
}

// Verify that Scheduler implements the engine callback sink
var _ ports.EngineEvents = (*Scheduler)(nil)
