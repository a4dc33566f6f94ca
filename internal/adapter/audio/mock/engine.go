// Package mock provides a mock implementation of the AudioEngine interface.
// It simulates the two-slot gapless queue in memory without producing audio,
// so the scheduler can be tested without an audio device.
package mock

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tonearm-player/tonearm/internal/domain"
	"github.com/tonearm-player/tonearm/internal/ports"
)

// defaultProbeDuration is reported by Probe for every ref.
const defaultProbeDuration = 3 * time.Minute

// Engine is a mock implementation of the AudioEngine interface.
//
// The queue holds at most two refs: index 0 is the audible slot, index 1 the
// lookahead. FinishCurrent simulates the audible slot exhausting naturally
// and the lookahead taking over, exactly as a gapless engine would.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	// Dependencies
	logger *slog.Logger

	// Playback state
	queue    []string
	playing  bool
	position time.Duration
	volume   float64
	events   ports.EngineEvents
	closed   bool
	mu       sync.RWMutex

	// Behavior configuration (for testing error scenarios)
	failEnqueue bool
	failPlay    bool
	failSeek    bool
}

// NewEngine creates a new mock audio engine.
func NewEngine() *Engine {
	return &Engine{
		queue:  make([]string, 0, 2),
		volume: 1.0,
	}
}

// SetLogger sets the logger for this engine.
// This should be called after construction before using the engine.
func (m *Engine) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// SetFailEnqueue configures the mock to fail Enqueue calls (for testing).
func (m *Engine) SetFailEnqueue(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failEnqueue = fail
}

// SetFailPlay configures the mock to fail Play calls (for testing).
func (m *Engine) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// SetFailSeek configures the mock to fail SetPosition calls (for testing).
func (m *Engine) SetFailSeek(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSeek = fail
}

// SetEvents installs the callback sink for engine notifications.
func (m *Engine) SetEvents(events ports.EngineEvents) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = events
}

// ClearQueue drops both queue slots and stops playback.
func (m *Engine) ClearQueue() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queue = m.queue[:0]
	m.playing = false
	m.position = 0
}

// Enqueue appends a ref to the queue.
func (m *Engine) Enqueue(ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failEnqueue {
		return domain.NewAdapterError("enqueue", ref, "mock enqueue failure", nil)
	}

	m.queue = append(m.queue, ref)
	return nil
}

// Play starts or resumes playback of the audible slot.
func (m *Engine) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failPlay {
		return domain.NewAdapterError("play", "", "mock playback failure", nil)
	}
	if len(m.queue) == 0 {
		return domain.ErrEmptyQueue
	}

	m.playing = true
	return nil
}

// Pause halts playback without touching the queue or position.
func (m *Engine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.playing = false
	return nil
}

// SetPosition moves the playback position of the audible slot.
func (m *Engine) SetPosition(pos time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSeek {
		return domain.NewAdapterError("seek", "", "mock seek failure", nil)
	}

	m.position = pos
	return nil
}

// SetVolume stores the volume.
func (m *Engine) SetVolume(volume float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.volume = volume
	return nil
}

// QueueSnapshot returns a copy of the queue contents.
func (m *Engine) QueueSnapshot() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.queue))
	copy(out, m.queue)
	return out
}

// CurrentIndex returns the index of the audible slot, or -1 when the
// queue is empty.
func (m *Engine) CurrentIndex() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.queue) == 0 {
		return -1
	}
	return 0
}

// Probe reports a fixed duration for any ref.
func (m *Engine) Probe(ref string) (time.Duration, error) {
	return defaultProbeDuration, nil
}

// Close shuts down the mock engine.
func (m *Engine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.playing = false
	m.queue = m.queue[:0]
	return nil
}

// FinishCurrent simulates the audible slot playing to its natural end: the
// slot is dropped, the lookahead (if any) becomes audible, and the
// track-finished callback fires. Test helper.
func (m *Engine) FinishCurrent() {
	m.mu.Lock()
	if len(m.queue) > 0 {
		m.queue = m.queue[1:]
	}
	m.position = 0
	if len(m.queue) == 0 {
		m.playing = false
	}
	events := m.events
	m.mu.Unlock()

	// Callback runs outside the lock so the sink can query the engine.
	if events != nil {
		events.OnTrackFinished()
	}
}

// EmitTick fires a time-update callback with the given elapsed position.
// Test helper.
func (m *Engine) EmitTick(elapsed time.Duration) {
	m.mu.Lock()
	m.position = elapsed
	events := m.events
	m.mu.Unlock()

	if events != nil {
		events.OnTimeUpdate(elapsed)
	}
}

// EmitError fires an engine-error callback. Test helper.
func (m *Engine) EmitError(message string) {
	m.mu.Lock()
	m.playing = false
	events := m.events
	m.mu.Unlock()

	if events != nil {
		events.OnEngineError(message)
	}
}

// IsPlaying reports whether playback is running. Test helper.
func (m *Engine) IsPlaying() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.playing
}

// Position returns the simulated playback position. Test helper.
func (m *Engine) Position() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.position
}

// Volume returns the stored volume. Test helper.
func (m *Engine) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

// Verify that Engine implements the required interfaces
var (
	_ ports.AudioEngine    = (*Engine)(nil)
	_ ports.MetadataProber = (*Engine)(nil)
)
