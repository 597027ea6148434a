package audiocapture

import (
	"errors"
	"testing"
)

// fakeDriver records driver calls and exposes the installed callback so
// tests can inject frames.
type fakeDriver struct {
	callback func([]float32)
	startErr error
	started  int
	stopped  int
}

func (d *fakeDriver) start(sampleRate int, callback func(frame []float32)) error {
	if d.startErr != nil {
		return d.startErr
	}
	d.callback = callback
	d.started++
	return nil
}

func (d *fakeDriver) stop() error {
	d.stopped++
	return nil
}

func (d *fakeDriver) close() error { return nil }

func frame(values ...float32) []float32 { return values }

func TestSessionCollectsFramesInOrder(t *testing.T) {
	drv := &fakeDriver{}
	s := newService(drv, Config{SampleRate: 16000})

	if err := s.Start("dictation"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	drv.callback(frame(1, 2))
	drv.callback(frame(3))
	drv.callback(frame(4, 5))

	samples, err := s.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	want := []float32{1, 2, 3, 4, 5}
	if len(samples) != len(want) {
		t.Fatalf("samples = %v, want %v", samples, want)
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Fatalf("samples = %v, want %v", samples, want)
		}
	}
	if drv.stopped != 1 {
		t.Fatalf("driver stopped %d times", drv.stopped)
	}
}

func TestStartWhileActive(t *testing.T) {
	drv := &fakeDriver{}
	s := newService(drv, Config{})
	if err := s.Start("dictation"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start("vision"); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("second Start = %v, want ErrSessionActive", err)
	}
	if _, mode := s.Active(); mode != "dictation" {
		t.Fatalf("active mode = %q, want dictation", mode)
	}
}

func TestStopWithoutSession(t *testing.T) {
	s := newService(&fakeDriver{}, Config{})
	samples, err := s.Stop()
	if err != nil || samples != nil {
		t.Fatalf("Stop = (%v, %v), want (nil, nil)", samples, err)
	}
}

func TestStopWithNoFramesReturnsNil(t *testing.T) {
	drv := &fakeDriver{}
	s := newService(drv, Config{})
	if err := s.Start("assistant"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	samples, err := s.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if samples != nil {
		t.Fatalf("samples = %v, want nil", samples)
	}
}

func TestFramesIgnoredAfterStop(t *testing.T) {
	drv := &fakeDriver{}
	s := newService(drv, Config{})
	if err := s.Start("dictation"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	drv.callback(frame(9, 9)) // driver thread may race the stop

	if err := s.Start("dictation"); err != nil {
		t.Fatalf("restart: %v", err)
	}
	drv.callback(frame(1))
	samples, err := s.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(samples) != 1 || samples[0] != 1 {
		t.Fatalf("samples = %v, want [1]", samples)
	}
}

func TestStartFailureResetsSession(t *testing.T) {
	drv := &fakeDriver{startErr: errors.New("device busy")}
	s := newService(drv, Config{})
	if err := s.Start("dictation"); err == nil {
		t.Fatal("expected start error")
	}
	if active, _ := s.Active(); active {
		t.Fatal("session left active after failed start")
	}
	drv.startErr = nil
	if err := s.Start("dictation"); err != nil {
		t.Fatalf("Start after recovery: %v", err)
	}
}

func TestPreviewDecimatesAndDropsWhenFull(t *testing.T) {
	drv := &fakeDriver{}
	s := newService(drv, Config{})
	if err := s.Start("assistant"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	big := make([]float32, previewStride*3)
	for i := range big {
		big[i] = float32(i)
	}
	// One more frame than the channel holds; the overflow must be dropped
	// without blocking the driver callback.
	for i := 0; i < previewCapacity+1; i++ {
		drv.callback(big)
	}

	count := 0
	for {
		select {
		case f := <-s.Preview():
			count++
			if len(f) != 3 {
				t.Fatalf("preview frame len = %d, want 3", len(f))
			}
			if f[1] != float32(previewStride) {
				t.Fatalf("preview frame not decimated: %v", f)
			}
		default:
			if count != previewCapacity {
				t.Fatalf("preview frames = %d, want %d", count, previewCapacity)
			}
			return
		}
	}
}

func TestStartDrainsStalePreview(t *testing.T) {
	drv := &fakeDriver{}
	s := newService(drv, Config{})
	if err := s.Start("assistant"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	drv.callback(frame(1, 2, 3))
	if _, err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if err := s.Start("assistant"); err != nil {
		t.Fatalf("restart: %v", err)
	}
	select {
	case f := <-s.Preview():
		t.Fatalf("stale preview frame survived restart: %v", f)
	default:
	}
}
