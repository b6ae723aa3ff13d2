package capture

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/voicegate/audio"
	"github.com/kbukum/voicegate/errors"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// memSource replays blocks from memory, advancing a fake clock by one block
// period before each delivery.
type memSource struct {
	blocks    []audio.Block
	clock     *fakeClock
	endOnDone bool
	openErr   error
	delivered chan struct{}

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	opened chan struct{}
	closes int
}

func newMemSource(clock *fakeClock, blocks []audio.Block) *memSource {
	return &memSource{
		blocks:    blocks,
		clock:     clock,
		delivered: make(chan struct{}),
		done:      make(chan struct{}),
		opened:    make(chan struct{}),
	}
}

func (s *memSource) Open(ctx context.Context, handler BlockHandler) error {
	if s.openErr != nil {
		return s.openErr
	}
	close(s.opened)
	go func() {
		defer close(s.delivered)
		for _, b := range s.blocks {
			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				return
			}
			s.clock.Advance(testPeriod)
			handler(b)
			s.mu.Unlock()
		}
		if s.endOnDone {
			close(s.done)
		}
	}()
	return nil
}

func (s *memSource) Done() <-chan struct{} { return s.done }

func (s *memSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.closes++
	return nil
}

func (s *memSource) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

func scenarioBlocks(speech, silence int) []audio.Block {
	blocks := make([]audio.Block, 0, speech+silence)
	for range speech {
		blocks = append(blocks, speechBlock())
	}
	for range silence {
		blocks = append(blocks, silenceBlock())
	}
	return blocks
}

func newTestRecorder(src Source, clock *fakeClock, mutate ...func(*Config)) *Recorder {
	cfg := testConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	return NewRecorder(src, cfg, WithClock(clock.Now))
}

func TestRecorderScenarioA(t *testing.T) {
	clock := &fakeClock{now: epoch}
	src := newMemSource(clock, scenarioBlocks(10, 40))
	rec, err := newTestRecorder(src, clock).Record(context.Background())
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if rec.StopReason != StopSilence {
		t.Errorf("expected stop reason silence, got %s", rec.StopReason)
	}
	if rec.Blocks != 43 {
		t.Errorf("expected 43 blocks, got %d", rec.Blocks)
	}
	if len(rec.Utterance) != 43*testBlockSize {
		t.Fatalf("expected %d samples, got %d", 43*testBlockSize, len(rec.Utterance))
	}
	// Order is preserved: speech first, then the trailing silence.
	if rec.Utterance[0] != 0.2 || rec.Utterance[10*testBlockSize] != 0.001 {
		t.Error("expected speech blocks before silence blocks")
	}
	if rec.Dropped != 0 {
		t.Errorf("expected no drops, got %d", rec.Dropped)
	}
	if rec.ID == "" {
		t.Error("expected recording id")
	}
	if src.closeCount() == 0 {
		t.Error("expected source to be closed")
	}
}

func TestRecorderScenarioBCancelWithoutSpeech(t *testing.T) {
	clock := &fakeClock{now: epoch}
	src := newMemSource(clock, scenarioBlocks(0, 60))
	r := newTestRecorder(src, clock)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-src.delivered
		cancel()
	}()

	rec, err := r.Record(ctx)
	if err != nil {
		t.Fatalf("expected graceful cancel, got %v", err)
	}
	if rec.StopReason != StopCanceled {
		t.Errorf("expected canceled, got %s", rec.StopReason)
	}
	if rec.Utterance != nil || rec.HasSpeech() {
		t.Errorf("expected nil utterance, got %d samples", len(rec.Utterance))
	}
	if src.closeCount() == 0 {
		t.Error("expected source to be closed")
	}
}

func TestRecorderCancelKeepsPartialSpeech(t *testing.T) {
	clock := &fakeClock{now: epoch}
	src := newMemSource(clock, scenarioBlocks(5, 3))
	r := newTestRecorder(src, clock)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-src.delivered
		cancel()
	}()

	rec, err := r.Record(ctx)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if rec.StopReason != StopCanceled {
		t.Errorf("expected canceled, got %s", rec.StopReason)
	}
	if rec.Blocks != 8 {
		t.Errorf("expected 8 drained blocks, got %d", rec.Blocks)
	}
}

func TestRecorderSourceEnded(t *testing.T) {
	clock := &fakeClock{now: epoch}
	src := newMemSource(clock, scenarioBlocks(6, 2))
	src.endOnDone = true

	rec, err := newTestRecorder(src, clock).Record(context.Background())
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if rec.StopReason != StopSourceEnded {
		t.Errorf("expected source_ended, got %s", rec.StopReason)
	}
	if rec.Blocks != 8 {
		t.Errorf("expected all 8 blocks drained, got %d", rec.Blocks)
	}
	if rec.SpeechBlocks != 6 || rec.SilenceBlocks != 2 {
		t.Errorf("expected 6 speech and 2 silence, got %d and %d", rec.SpeechBlocks, rec.SilenceBlocks)
	}
}

func TestRecorderSourceEndedAfterSilenceStop(t *testing.T) {
	clock := &fakeClock{now: epoch}
	src := newMemSource(clock, scenarioBlocks(10, 40))
	src.endOnDone = true

	rec, err := newTestRecorder(src, clock, func(c *Config) {
		c.PollInterval = time.Hour
	}).Record(context.Background())
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if rec.StopReason != StopSilence {
		t.Errorf("expected silence to win over end of stream, got %s", rec.StopReason)
	}
	if rec.Blocks != 43 {
		t.Errorf("expected 43 blocks, got %d", rec.Blocks)
	}
}

func TestRecorderMaxDuration(t *testing.T) {
	clock := &fakeClock{now: epoch}
	src := newMemSource(clock, scenarioBlocks(3, 0))

	rec, err := newTestRecorder(src, clock, func(c *Config) {
		c.MaxDuration = 20 * time.Millisecond
	}).Record(context.Background())
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if rec.StopReason != StopMaxDuration {
		t.Errorf("expected max_duration, got %s", rec.StopReason)
	}
	if !rec.HasSpeech() {
		t.Error("expected buffered speech")
	}
}

func TestRecorderOpenFailureClosesSource(t *testing.T) {
	clock := &fakeClock{now: epoch}
	src := newMemSource(clock, nil)
	src.openErr = errors.DeviceUnavailable("default", stderrors.New("no device"))

	rec, err := newTestRecorder(src, clock).Record(context.Background())
	if err == nil {
		t.Fatal("expected open error")
	}
	if rec != nil {
		t.Error("expected nil recording on open failure")
	}
	if !errors.HasCode(err, errors.ErrCodeDeviceUnavailable) {
		t.Errorf("expected DEVICE_UNAVAILABLE, got %v", err)
	}
	if src.closeCount() != 1 {
		t.Errorf("expected source closed once, got %d", src.closeCount())
	}
}

func TestRecorderConcurrentRecordConflicts(t *testing.T) {
	clock := &fakeClock{now: epoch}
	src := newMemSource(clock, nil)
	r := newTestRecorder(src, clock)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		_, err := r.Record(ctx)
		result <- err
	}()
	<-src.opened

	_, err := r.Record(context.Background())
	if !errors.HasCode(err, errors.ErrCodeConflict) {
		t.Errorf("expected CONFLICT, got %v", err)
	}

	cancel()
	if err := <-result; err != nil {
		t.Errorf("expected first session to end cleanly, got %v", err)
	}
}

func TestRecorderReusableAfterSession(t *testing.T) {
	clock := &fakeClock{now: epoch}
	first := newMemSource(clock, scenarioBlocks(2, 0))
	first.endOnDone = true
	r := newTestRecorder(first, clock)

	rec, err := r.Record(context.Background())
	if err != nil || rec.Blocks != 2 {
		t.Fatalf("expected 2 blocks, got %v, %v", rec, err)
	}

	second := newMemSource(clock, scenarioBlocks(0, 2))
	second.endOnDone = true
	r.source = second
	rec, err = r.Record(context.Background())
	if err != nil {
		t.Fatalf("second Record failed: %v", err)
	}
	if rec.Blocks != 0 || r.Controller().State() != StateIdle {
		t.Errorf("expected fresh session, got %d blocks in state %s", rec.Blocks, r.Controller().State())
	}
}
