// Package beep implements the AudioEngine interface on top of the gopxl/beep
// speaker. It keeps the two-slot gapless queue decoded and ready so the
// lookahead slot starts the instant the audible one ends.
package beep

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/tonearm-player/tonearm/internal/domain"
	"github.com/tonearm-player/tonearm/internal/ports"
)

// tickInterval is how often the engine reports its playback position.
const tickInterval = 500 * time.Millisecond

// entry is a decoded queue slot.
type entry struct {
	ref      string
	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
}

func (e *entry) close() {
	if e.streamer != nil {
		_ = e.streamer.Close()
	}
	if e.file != nil {
		_ = e.file.Close()
	}
}

// Engine plays local audio files through the beep speaker.
//
// Queue slot 0 is audible, slot 1 the lookahead. Both are decoded at enqueue
// time; the handover between them happens inside the speaker callback without
// touching the disk.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	// Dependencies
	logger *slog.Logger

	mu          sync.Mutex
	initialized bool
	sampleRate  beep.SampleRate
	entries     []*entry
	ctrl        *beep.Ctrl
	volumeFx    *effects.Volume
	gain        float64
	paused      bool
	events      ports.EngineEvents
	generation  uint64
	stopTicker  chan struct{}
	closed      bool
}

// New creates a beep-backed engine. The speaker is initialized lazily on the
// first Play so construction never touches the audio device.
func New(logger *slog.Logger, sampleRate int) *Engine {
	e := &Engine{
		logger:     logger,
		sampleRate: beep.SampleRate(sampleRate),
		entries:    make([]*entry, 0, 2),
		gain:       1.0,
		stopTicker: make(chan struct{}),
	}
	go e.tickLoop()
	return e
}

// SetEvents installs the callback sink for engine notifications.
func (e *Engine) SetEvents(events ports.EngineEvents) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = events
}

// ClearQueue stops playback and drops both queue slots.
func (e *Engine) ClearQueue() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearLocked()
}

func (e *Engine) clearLocked() {
	if e.initialized {
		speaker.Clear()
	}
	for _, ent := range e.entries {
		ent.close()
	}
	e.entries = e.entries[:0]
	e.ctrl = nil
	e.volumeFx = nil
	e.paused = false
	e.generation++
}

// Enqueue decodes the file and appends it to the queue.
func (e *Engine) Enqueue(ref string) error {
	ent, err := decode(ref)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.entries = append(e.entries, ent)
	return nil
}

// Play starts the audible slot, or resumes it when paused.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.entries) == 0 {
		return domain.ErrEmptyQueue
	}

	if err := e.initSpeakerLocked(); err != nil {
		return err
	}

	if e.ctrl != nil {
		speaker.Lock()
		e.ctrl.Paused = false
		speaker.Unlock()
		e.paused = false
		return nil
	}

	e.startLocked()
	return nil
}

// Pause halts playback without losing position or queue state.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl != nil {
		speaker.Lock()
		e.ctrl.Paused = true
		speaker.Unlock()
	}
	e.paused = true
	return nil
}

// SetPosition seeks the audible slot.
func (e *Engine) SetPosition(pos time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.entries) == 0 {
		return domain.ErrEmptyQueue
	}

	ent := e.entries[0]
	samples := ent.format.SampleRate.N(pos)

	if e.initialized {
		speaker.Lock()
		defer speaker.Unlock()
	}
	if err := ent.streamer.Seek(samples); err != nil {
		return domain.NewAdapterError("seek", ent.ref, "seek failed", err)
	}
	return nil
}

// SetVolume applies a linear gain in [0, 1] to the output.
func (e *Engine) SetVolume(volume float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.gain = volume
	if e.volumeFx != nil {
		speaker.Lock()
		applyGain(e.volumeFx, volume)
		speaker.Unlock()
	}
	return nil
}

// QueueSnapshot returns the refs currently queued, audible slot first.
func (e *Engine) QueueSnapshot() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, len(e.entries))
	for i, ent := range e.entries {
		out[i] = ent.ref
	}
	return out
}

// CurrentIndex returns the index of the audible slot, or -1 when the queue
// is empty.
func (e *Engine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.entries) == 0 {
		return -1
	}
	return 0
}

// Probe decodes the file just far enough to report its duration.
func (e *Engine) Probe(ref string) (time.Duration, error) {
	ent, err := decode(ref)
	if err != nil {
		return 0, err
	}
	defer ent.close()

	return ent.format.SampleRate.D(ent.streamer.Len()), nil
}

// Close stops playback, the position ticker, and releases decoded streams.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	close(e.stopTicker)
	e.clearLocked()
	return nil
}

// initSpeakerLocked initializes the speaker once.
func (e *Engine) initSpeakerLocked() error {
	if e.initialized {
		return nil
	}
	if err := speaker.Init(e.sampleRate, e.sampleRate.N(time.Second/10)); err != nil {
		return domain.NewAdapterError("init", "", "speaker init failed", err)
	}
	e.initialized = true
	return nil
}

// startLocked begins playback of the audible slot. The completion callback
// advances into the lookahead slot on the speaker's goroutine; the handover
// is sample-accurate because the next stream is already decoded.
func (e *Engine) startLocked() {
	ent := e.entries[0]
	gen := e.generation

	resampled := beep.Resample(4, ent.format.SampleRate, e.sampleRate, ent.streamer)
	e.volumeFx = &effects.Volume{Streamer: resampled, Base: 2}
	applyGain(e.volumeFx, e.gain)
	e.ctrl = &beep.Ctrl{Streamer: e.volumeFx}
	e.paused = false

	speaker.Play(beep.Seq(e.ctrl, beep.Callback(func() {
		// Separate goroutine: the advance path re-enters speaker.Play.
		go e.advance(gen)
	})))
}

// advance handles the audible slot finishing naturally. A stale generation
// means the queue was cleared or restarted while the callback was in flight.
func (e *Engine) advance(gen uint64) {
	e.mu.Lock()
	if e.closed || gen != e.generation {
		e.mu.Unlock()
		return
	}

	if len(e.entries) > 0 {
		e.entries[0].close()
		e.entries = e.entries[1:]
	}
	e.ctrl = nil
	e.volumeFx = nil
	e.generation++

	if len(e.entries) > 0 {
		e.startLocked()
	}
	events := e.events
	e.mu.Unlock()

	if events != nil {
		events.OnTrackFinished()
	}
}

// tickLoop periodically reports the audible slot's position.
func (e *Engine) tickLoop() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopTicker:
			return
		case <-ticker.C:
			e.mu.Lock()
			if e.ctrl == nil || e.paused || len(e.entries) == 0 {
				e.mu.Unlock()
				continue
			}
			ent := e.entries[0]
			speaker.Lock()
			pos := ent.format.SampleRate.D(ent.streamer.Position())
			speaker.Unlock()
			events := e.events
			e.mu.Unlock()

			if events != nil {
				events.OnTimeUpdate(pos)
			}
		}
	}
}

// decode opens and decodes a local audio file by extension.
func decode(ref string) (*entry, error) {
	f, err := os.Open(ref)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, ref)
		}
		return nil, domain.NewAdapterError("open", ref, "cannot open file", err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)

	switch strings.ToLower(filepath.Ext(ref)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(ref))
	}
	if err != nil {
		_ = f.Close()
		return nil, domain.NewAdapterError("decode", ref, "cannot decode file", err)
	}

	return &entry{ref: ref, file: f, streamer: streamer, format: format}, nil
}

// applyGain maps a linear [0, 1] gain onto the exponential volume effect.
func applyGain(fx *effects.Volume, gain float64) {
	if gain <= 0 {
		fx.Silent = true
		return
	}
	fx.Silent = false
	fx.Volume = math.Log2(gain)
}

// Verify that Engine implements the required interfaces
var (
	_ ports.AudioEngine    = (*Engine)(nil)
	_ ports.MetadataProber = (*Engine)(nil)
)
