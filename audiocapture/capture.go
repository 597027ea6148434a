// Package audiocapture records microphone audio for hotkey-triggered
// sessions. At most one session is active at a time.
package audiocapture

import (
	"errors"
	"fmt"
	"sync"
)

// ErrSessionActive is returned when starting a session while one is running.
var ErrSessionActive = errors.New("capture session already active")

const (
	// DefaultSampleRate is the mono capture rate handed to transcription.
	DefaultSampleRate = 44100

	// previewCapacity bounds the level-preview channel. When the consumer
	// falls behind, frames are dropped rather than stalling the driver.
	previewCapacity = 5

	// previewStride decimates preview frames to every n-th sample.
	previewStride = 10
)

// driver is the platform audio backend. The callback runs on a
// driver-owned thread and must never block.
type driver interface {
	start(sampleRate int, callback func(frame []float32)) error
	stop() error
	close() error
}

// Config holds capture configuration.
type Config struct {
	SampleRate int // default 44100 Hz
}

// Service owns the single capture session and its sample buffer.
type Service struct {
	sampleRate int
	drv        driver
	preview    chan []float32

	mu     sync.Mutex
	active bool
	mode   string
	frames [][]float32
}

// New creates a capture service backed by the platform driver.
func New(cfg Config) (*Service, error) {
	drv, err := newDriver()
	if err != nil {
		return nil, fmt.Errorf("open audio driver: %w", err)
	}
	return newService(drv, cfg), nil
}

func newService(drv driver, cfg Config) *Service {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	return &Service{
		sampleRate: cfg.SampleRate,
		drv:        drv,
		preview:    make(chan []float32, previewCapacity),
	}
}

// Start arms a capture session for the given mode. The previous buffer
// and any stale preview frames are discarded.
func (s *Service) Start(mode string) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return ErrSessionActive
	}
	s.active = true
	s.mode = mode
	s.frames = s.frames[:0]
	s.mu.Unlock()
	s.drainPreview()

	if err := s.drv.start(s.sampleRate, s.handleFrame); err != nil {
		s.mu.Lock()
		s.active = false
		s.mode = ""
		s.mu.Unlock()
		return fmt.Errorf("start stream: %w", err)
	}
	return nil
}

// Stop finalizes the session and returns the captured samples in order.
// It returns nil samples when nothing was recorded. Stopping an inactive
// service is a no-op.
func (s *Service) Stop() ([]float32, error) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return nil, nil
	}
	s.active = false
	s.mode = ""
	s.mu.Unlock()

	err := s.drv.stop()

	s.mu.Lock()
	total := 0
	for _, f := range s.frames {
		total += len(f)
	}
	var samples []float32
	if total > 0 {
		samples = make([]float32, 0, total)
		for _, f := range s.frames {
			samples = append(samples, f...)
		}
	}
	s.frames = nil
	s.mu.Unlock()

	if err != nil {
		return samples, fmt.Errorf("stop stream: %w", err)
	}
	return samples, nil
}

// Active reports whether a session is running, and for which mode.
func (s *Service) Active() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.mode
}

// SampleRate returns the configured capture rate.
func (s *Service) SampleRate() int {
	return s.sampleRate
}

// Preview returns the decimated level-preview feed. Frames are dropped
// when the channel is full; consumers must tolerate gaps.
func (s *Service) Preview() <-chan []float32 {
	return s.preview
}

// Close releases the driver. The service is unusable afterwards.
func (s *Service) Close() error {
	return s.drv.close()
}

// handleFrame runs on the driver thread: append a copy, feed the preview.
func (s *Service) handleFrame(frame []float32) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	buf := make([]float32, len(frame))
	copy(buf, frame)
	s.frames = append(s.frames, buf)
	s.mu.Unlock()

	select {
	case s.preview <- decimate(buf, previewStride):
	default:
	}
}

func (s *Service) drainPreview() {
	for {
		select {
		case <-s.preview:
		default:
			return
		}
	}
}

func decimate(frame []float32, stride int) []float32 {
	out := make([]float32, 0, (len(frame)+stride-1)/stride)
	for i := 0; i < len(frame); i += stride {
		out = append(out, frame[i])
	}
	return out
}
