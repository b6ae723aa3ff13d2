// Package portaudio provides a microphone capture.Source backed by PortAudio.
package portaudio

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/kbukum/voicegate/audio"
	"github.com/kbukum/voicegate/capture"
	"github.com/kbukum/voicegate/errors"
	"github.com/kbukum/voicegate/logger"
)

// Source reads mono float32 blocks from an input device.
type Source struct {
	device     string
	sampleRate int
	blockSize  int
	log        *logger.Logger

	mu       sync.Mutex
	stream   *portaudio.Stream
	handler  capture.BlockHandler
	inited   bool
	closed   bool
	done     chan struct{}
	doneOnce sync.Once
}

var _ capture.Source = (*Source)(nil)

// New creates a microphone source. An empty device selects the default input.
func New(cfg capture.Config) *Source {
	cfg.ApplyDefaults()
	return &Source{
		device:     cfg.Device,
		sampleRate: cfg.SampleRate,
		blockSize:  cfg.BlockSize,
		log:        logger.Get("capture.portaudio"),
		done:       make(chan struct{}),
	}
}

// Open initialises PortAudio, opens the input stream and starts it.
func (s *Source) Open(ctx context.Context, handler capture.BlockHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.closed = false
		s.done = make(chan struct{})
		s.doneOnce = sync.Once{}
	}
	if err := portaudio.Initialize(); err != nil {
		return errors.DeviceUnavailable(s.deviceName(), err)
	}
	s.inited = true
	s.handler = handler

	stream, err := s.openStream()
	if err != nil {
		return errors.DeviceUnavailable(s.deviceName(), err)
	}
	s.stream = stream
	if err := stream.Start(); err != nil {
		return errors.DeviceUnavailable(s.deviceName(), fmt.Errorf("start stream: %w", err))
	}

	s.log.WithContext(ctx).Info("input stream started", logger.Fields(
		"device", s.deviceName(),
		"sample_rate", s.sampleRate,
		"block_size", s.blockSize,
	))
	return nil
}

func (s *Source) openStream() (*portaudio.Stream, error) {
	if s.device == "" {
		return portaudio.OpenDefaultStream(1, 0, float64(s.sampleRate), s.blockSize, s.onBlock)
	}
	dev, err := findInputDevice(s.device)
	if err != nil {
		return nil, err
	}
	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = 1
	params.SampleRate = float64(s.sampleRate)
	params.FramesPerBuffer = s.blockSize
	return portaudio.OpenStream(params, s.onBlock)
}

// onBlock runs on the PortAudio callback thread. The input buffer is reused
// by PortAudio, so it is copied before being handed over.
func (s *Source) onBlock(in []float32) {
	b := make(audio.Block, len(in))
	copy(b, in)
	s.handler(b)
}

// Done is closed when the stream is closed; a microphone never ends on its own.
func (s *Source) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Close stops and closes the stream and terminates PortAudio.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.stream != nil {
		if err := s.stream.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop stream: %w", err))
		}
		if err := s.stream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close stream: %w", err))
		}
		s.stream = nil
	}
	if s.inited {
		if err := portaudio.Terminate(); err != nil {
			errs = append(errs, fmt.Errorf("terminate portaudio: %w", err))
		}
		s.inited = false
	}
	s.closed = true
	s.doneOnce.Do(func() { close(s.done) })
	if len(errs) > 0 {
		return fmt.Errorf("close input: %v", errs)
	}
	return nil
}

func (s *Source) deviceName() string {
	if s.device == "" {
		return "default"
	}
	return s.device
}

// Device describes an input device.
type Device struct {
	Name       string  `json:"name"`
	Channels   int     `json:"channels"`
	SampleRate float64 `json:"default_sample_rate"`
	Default    bool    `json:"default"`
}

// ListDevices returns every device with at least one input channel.
func ListDevices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, errors.DeviceUnavailable("default", err)
	}
	defer portaudio.Terminate()

	all, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	def, _ := portaudio.DefaultInputDevice()

	var out []Device
	for _, d := range all {
		if d.MaxInputChannels < 1 {
			continue
		}
		out = append(out, Device{
			Name:       d.Name,
			Channels:   d.MaxInputChannels,
			SampleRate: d.DefaultSampleRate,
			Default:    def != nil && def.Name == d.Name,
		})
	}
	return out, nil
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	all, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	for _, d := range all {
		if d.MaxInputChannels > 0 && strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("input device %q not found", name)
}
