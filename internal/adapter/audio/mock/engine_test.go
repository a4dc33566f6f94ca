package mock

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tonearm-player/tonearm/internal/domain"
	"github.com/tonearm-player/tonearm/internal/ports"
)

// TestNewEngine tests creating a new mock engine.
func TestNewEngine(t *testing.T) {
	engine := NewEngine()

	if engine == nil {
		t.Fatal("NewEngine returned nil")
	}

	if engine.IsPlaying() {
		t.Error("New engine should not be playing")
	}

	if len(engine.QueueSnapshot()) != 0 {
		t.Errorf("Expected empty queue, got %v", engine.QueueSnapshot())
	}

	if engine.CurrentIndex() != -1 {
		t.Errorf("Expected current index -1 for empty queue, got %d", engine.CurrentIndex())
	}
}

// TestEnqueueAndPlay tests the basic enqueue/play cycle.
func TestEnqueueAndPlay(t *testing.T) {
	engine := NewEngine()

	if err := engine.Enqueue("/music/a.mp3"); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := engine.Enqueue("/music/b.mp3"); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	snapshot := engine.QueueSnapshot()
	if len(snapshot) != 2 {
		t.Fatalf("Expected 2 queued refs, got %d", len(snapshot))
	}
	if snapshot[0] != "/music/a.mp3" || snapshot[1] != "/music/b.mp3" {
		t.Errorf("Unexpected queue contents: %v", snapshot)
	}

	if err := engine.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !engine.IsPlaying() {
		t.Error("Engine should be playing after Play")
	}

	if engine.CurrentIndex() != 0 {
		t.Errorf("Expected audible slot index 0, got %d", engine.CurrentIndex())
	}
}

// TestPlayEmptyQueue tests that playing an empty queue fails.
func TestPlayEmptyQueue(t *testing.T) {
	engine := NewEngine()

	err := engine.Play()
	if !errors.Is(err, domain.ErrEmptyQueue) {
		t.Errorf("Expected ErrEmptyQueue, got %v", err)
	}
}

// TestClearQueue tests that clearing drops both slots and stops playback.
func TestClearQueue(t *testing.T) {
	engine := NewEngine()

	_ = engine.Enqueue("/music/a.mp3")
	_ = engine.Enqueue("/music/b.mp3")
	_ = engine.Play()

	engine.ClearQueue()

	if len(engine.QueueSnapshot()) != 0 {
		t.Error("Queue should be empty after ClearQueue")
	}
	if engine.IsPlaying() {
		t.Error("Engine should not be playing after ClearQueue")
	}
	if engine.CurrentIndex() != -1 {
		t.Errorf("Expected index -1 after clear, got %d", engine.CurrentIndex())
	}
}

// TestPauseResume tests pause preserving queue and position.
func TestPauseResume(t *testing.T) {
	engine := NewEngine()

	_ = engine.Enqueue("/music/a.mp3")
	_ = engine.Play()
	_ = engine.SetPosition(42 * time.Second)

	if err := engine.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if engine.IsPlaying() {
		t.Error("Engine should not be playing after Pause")
	}
	if engine.Position() != 42*time.Second {
		t.Errorf("Pause should not move position, got %v", engine.Position())
	}
	if len(engine.QueueSnapshot()) != 1 {
		t.Error("Pause should not touch the queue")
	}

	if err := engine.Play(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if !engine.IsPlaying() {
		t.Error("Engine should be playing after resume")
	}
}

// TestFinishCurrent tests the gapless slot handover.
func TestFinishCurrent(t *testing.T) {
	engine := NewEngine()
	sink := &recordingSink{}
	engine.SetEvents(sink)

	_ = engine.Enqueue("/music/a.mp3")
	_ = engine.Enqueue("/music/b.mp3")
	_ = engine.Play()

	engine.FinishCurrent()

	if sink.finished() != 1 {
		t.Fatalf("Expected 1 track-finished callback, got %d", sink.finished())
	}

	// The lookahead takes over slot 0.
	snapshot := engine.QueueSnapshot()
	if len(snapshot) != 1 || snapshot[0] != "/music/b.mp3" {
		t.Errorf("Expected lookahead to become audible, got %v", snapshot)
	}
	if engine.CurrentIndex() != 0 {
		t.Errorf("Expected audible slot index 0, got %d", engine.CurrentIndex())
	}
	if !engine.IsPlaying() {
		t.Error("Playback should continue into the lookahead")
	}

	// Finishing the last track stops playback entirely.
	engine.FinishCurrent()
	if engine.CurrentIndex() != -1 {
		t.Errorf("Expected index -1 after queue exhausts, got %d", engine.CurrentIndex())
	}
	if engine.IsPlaying() {
		t.Error("Playback should stop when the queue exhausts")
	}
}

// TestEmitTick tests the time-update callback path.
func TestEmitTick(t *testing.T) {
	engine := NewEngine()
	sink := &recordingSink{}
	engine.SetEvents(sink)

	engine.EmitTick(7 * time.Second)

	if len(sink.ticks()) != 1 || sink.ticks()[0] != 7*time.Second {
		t.Errorf("Expected a single 7s tick, got %v", sink.ticks())
	}
	if engine.Position() != 7*time.Second {
		t.Errorf("Expected position 7s, got %v", engine.Position())
	}
}

// TestEmitError tests the engine-error callback path.
func TestEmitError(t *testing.T) {
	engine := NewEngine()
	sink := &recordingSink{}
	engine.SetEvents(sink)

	_ = engine.Enqueue("/music/a.mp3")
	_ = engine.Play()

	engine.EmitError("decoder blew up")

	if engine.IsPlaying() {
		t.Error("Engine should stop playing on error")
	}
	if len(sink.errs()) != 1 || sink.errs()[0] != "decoder blew up" {
		t.Errorf("Expected error callback, got %v", sink.errs())
	}
}

// TestFailureSwitches tests the configurable failure modes.
func TestFailureSwitches(t *testing.T) {
	engine := NewEngine()

	engine.SetFailEnqueue(true)
	err := engine.Enqueue("/music/a.mp3")
	var adapterErr *domain.AdapterError
	if !errors.As(err, &adapterErr) {
		t.Errorf("Expected AdapterError from Enqueue, got %v", err)
	}
	engine.SetFailEnqueue(false)

	_ = engine.Enqueue("/music/a.mp3")

	engine.SetFailPlay(true)
	if err := engine.Play(); !errors.As(err, &adapterErr) {
		t.Errorf("Expected AdapterError from Play, got %v", err)
	}
	engine.SetFailPlay(false)

	engine.SetFailSeek(true)
	if err := engine.SetPosition(time.Second); !errors.As(err, &adapterErr) {
		t.Errorf("Expected AdapterError from SetPosition, got %v", err)
	}
}

// TestSetVolume tests volume storage.
func TestSetVolume(t *testing.T) {
	engine := NewEngine()

	if err := engine.SetVolume(0.3); err != nil {
		t.Fatalf("SetVolume failed: %v", err)
	}
	if engine.Volume() != 0.3 {
		t.Errorf("Expected volume 0.3, got %f", engine.Volume())
	}
}

// TestProbe tests the fixed probe duration.
func TestProbe(t *testing.T) {
	engine := NewEngine()

	d, err := engine.Probe("/music/anything.flac")
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if d != defaultProbeDuration {
		t.Errorf("Expected %v, got %v", defaultProbeDuration, d)
	}
}

// TestClose tests shutdown.
func TestClose(t *testing.T) {
	engine := NewEngine()

	_ = engine.Enqueue("/music/a.mp3")
	_ = engine.Play()

	if err := engine.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if engine.IsPlaying() {
		t.Error("Engine should not be playing after Close")
	}
	if len(engine.QueueSnapshot()) != 0 {
		t.Error("Queue should be empty after Close")
	}
}

// recordingSink records engine callbacks for assertions.
type recordingSink struct {
	mu            sync.Mutex
	tickValues    []time.Duration
	finishedCount int
	errMessages   []string
}

func (s *recordingSink) OnTimeUpdate(elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickValues = append(s.tickValues, elapsed)
}

func (s *recordingSink) OnTrackFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishedCount++
}

func (s *recordingSink) OnEngineError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMessages = append(s.errMessages, message)
}

func (s *recordingSink) ticks() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.tickValues...)
}

func (s *recordingSink) finished() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishedCount
}

func (s *recordingSink) errs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.errMessages...)
}

var _ ports.EngineEvents = (*recordingSink)(nil)
