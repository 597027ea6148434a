package audiocapture

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

// paDriver captures from the default input device via PortAudio.
type paDriver struct {
	stream *portaudio.Stream
}

func newDriver() (driver, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	return &paDriver{}, nil
}

func (d *paDriver) start(sampleRate int, callback func(frame []float32)) error {
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), framesPerBuffer,
		func(in []float32) {
			callback(in)
		})
	if err != nil {
		return fmt.Errorf("open default stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start stream: %w", err)
	}
	d.stream = stream
	return nil
}

func (d *paDriver) stop() error {
	if d.stream == nil {
		return nil
	}
	stream := d.stream
	d.stream = nil
	err := stream.Stop()
	if cerr := stream.Close(); err == nil {
		err = cerr
	}
	return err
}

func (d *paDriver) close() error {
	if err := d.stop(); err != nil {
		return err
	}
	return portaudio.Terminate()
}
