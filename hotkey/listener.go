package hotkey

import (
	"log/slog"

	hook "github.com/robotn/gohook"
)

// Listener runs the global keyboard hook and feeds events into the
// machine. One listener per process; the hook is global.
type Listener struct {
	machine *Machine
	done    chan struct{}
}

// NewListener creates a listener over m.
func NewListener(m *Machine) *Listener {
	return &Listener{machine: m, done: make(chan struct{})}
}

// Start begins the global event loop on its own goroutine. Key repeat
// (hold) events are dropped so a held capture key does not retrigger.
func (l *Listener) Start() {
	events := hook.Start()
	go func() {
		defer close(l.done)
		for ev := range events {
			switch ev.Kind {
			case hook.KeyDown:
				l.machine.HandleEvent(Event{Keycode: ev.Keycode, Rawcode: ev.Rawcode, Down: true})
			case hook.KeyUp:
				l.machine.HandleEvent(Event{Keycode: ev.Keycode, Rawcode: ev.Rawcode, Down: false})
			}
		}
		slog.Debug("hotkey event stream closed")
	}()
}

// Stop ends the global hook and waits for the event loop to drain.
func (l *Listener) Stop() {
	hook.End()
	<-l.done
}
