package capture

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/voicegate/audio"
)

// Controller is the speech/silence state machine of one session.
//
// Process must be called from a single goroutine in block arrival order.
// State, StopRequested and IsRecording are lock-free and safe from any
// goroutine.
type Controller struct {
	blockSize int
	threshold float64
	silence   time.Duration

	state atomic.Int32

	mu           sync.Mutex
	speech       []audio.Block
	silenceStart time.Time
	inSilence    bool

	speechBlocks  atomic.Int64
	silenceBlocks atomic.Int64
	ignored       atomic.Int64
}

// NewController creates an idle controller from cfg. Zero fields take the
// package defaults.
func NewController(cfg Config) *Controller {
	cfg.ApplyDefaults()
	return &Controller{
		blockSize: cfg.BlockSize,
		threshold: cfg.Threshold(),
		silence:   cfg.SilenceDuration,
	}
}

// Process applies one block that arrived at time at and reports how it was
// classified. Blocks of the wrong length, blocks after stop and silence
// before any speech leave the buffer untouched.
func (c *Controller) Process(block audio.Block, at time.Time) BlockKind {
	if len(block) != c.blockSize || c.StopRequested() {
		c.ignored.Add(1)
		return BlockIgnored
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if audio.IsSpeech(block, c.threshold) {
		c.speech = append(c.speech, block)
		c.inSilence = false
		c.silenceStart = time.Time{}
		c.state.CompareAndSwap(int32(StateIdle), int32(StateRecording))
		c.speechBlocks.Add(1)
		return BlockSpeech
	}

	if State(c.state.Load()) != StateRecording {
		c.ignored.Add(1)
		return BlockIgnored
	}

	c.speech = append(c.speech, block)
	c.silenceBlocks.Add(1)
	if !c.inSilence {
		c.inSilence = true
		c.silenceStart = at
	} else if at.Sub(c.silenceStart) > c.silence {
		c.state.Store(int32(StateStopped))
	}
	return BlockSilence
}

// State returns the current state.
func (c *Controller) State() State { return State(c.state.Load()) }

// StopRequested reports whether trailing silence has ended the session.
func (c *Controller) StopRequested() bool { return c.State() == StateStopped }

// IsRecording reports whether speech has started and the session is live.
func (c *Controller) IsRecording() bool { return c.State() == StateRecording }

// Blocks returns the number of buffered blocks.
func (c *Controller) Blocks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.speech)
}

// SilenceStart returns the arrival time of the first block of the current
// trailing silence run, if any.
func (c *Controller) SilenceStart() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.silenceStart, c.inSilence
}

// Counts returns how many blocks were buffered as speech, buffered as
// silence and ignored since the last Reset.
func (c *Controller) Counts() (speech, silence, ignored int64) {
	return c.speechBlocks.Load(), c.silenceBlocks.Load(), c.ignored.Load()
}

// Utterance concatenates the buffered blocks. It returns nil when nothing
// was buffered.
func (c *Controller) Utterance() audio.Utterance {
	c.mu.Lock()
	defer c.mu.Unlock()
	return audio.Concat(c.speech)
}

// Reset returns the controller to Idle with an empty buffer.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.speech = nil
	c.silenceStart = time.Time{}
	c.inSilence = false
	c.mu.Unlock()

	c.speechBlocks.Store(0)
	c.silenceBlocks.Store(0)
	c.ignored.Store(0)
	c.state.Store(int32(StateIdle))
}
