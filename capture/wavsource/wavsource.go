// Package wavsource replays a WAV file as a live capture.Source, one block
// per block period, so recorded audio goes through the same gating path as
// the microphone.
package wavsource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/voicegate/audio"
	"github.com/kbukum/voicegate/capture"
	"github.com/kbukum/voicegate/errors"
	"github.com/kbukum/voicegate/logger"
)

// Source replays a decoded WAV file in real time.
type Source struct {
	path       string
	sampleRate int
	blockSize  int
	period     time.Duration
	log        *logger.Logger

	mu     sync.Mutex
	stop   chan struct{}
	done   chan struct{}
	exited chan struct{}
}

var _ capture.Source = (*Source)(nil)

// New creates a replay source for path. The file must use cfg.SampleRate.
func New(path string, cfg capture.Config) *Source {
	cfg.ApplyDefaults()
	return &Source{
		path:       path,
		sampleRate: cfg.SampleRate,
		blockSize:  cfg.BlockSize,
		period:     audio.BlockPeriod(cfg.BlockSize, cfg.SampleRate),
		log:        logger.Get("capture.wavsource"),
		done:       make(chan struct{}),
	}
}

// Open decodes the file and starts paced delivery.
func (s *Source) Open(ctx context.Context, handler capture.BlockHandler) error {
	samples, rate, err := audio.ReadWAVFile(s.path)
	if err != nil {
		return errors.InvalidFormat("file", "PCM WAV").WithCause(err)
	}
	if rate != s.sampleRate {
		return errors.InvalidFormat("file", fmt.Sprintf("%d Hz WAV", s.sampleRate)).
			WithDetail("sample_rate", rate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.exited = make(chan struct{})

	blocks := audio.Split(samples, s.blockSize)
	s.log.WithContext(ctx).Info("replaying wav file", logger.Fields(
		logger.FieldPath, s.path,
		"blocks", len(blocks),
	))
	go s.run(blocks, handler, s.stop, s.done, s.exited)
	return nil
}

func (s *Source) run(blocks []audio.Block, handler capture.BlockHandler, stop <-chan struct{}, done, exited chan struct{}) {
	defer close(exited)
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for _, b := range blocks {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		select {
		case <-stop:
			return
		default:
			handler(b)
		}
	}
	close(done)
}

// Done is closed once every block has been delivered.
func (s *Source) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Close stops delivery and waits for the replay goroutine to exit.
func (s *Source) Close() error {
	s.mu.Lock()
	stop, exited := s.stop, s.exited
	s.stop = nil
	s.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	<-exited
	return nil
}
