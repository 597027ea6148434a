package hotkey

import (
	"log/slog"
	"sync"
)

// State is the capture state of the machine.
type State int

const (
	// StateIdle means no capture session is running.
	StateIdle State = iota
	// StateCapturing means one binding holds an active capture session.
	StateCapturing
)

// Binding maps one logical mode to a set of physical keys.
//
// The order bindings are registered in is their precedence order: the
// first binding whose key set matches an event wins, even when several
// bindings share an alternate code.
type Binding struct {
	Mode       string // mode identifier, e.g. "dictation"
	Label      string // display label, e.g. "F3"
	Primary    Key
	Alternates []Key
	Modifiers  []string // at least one must be held; empty means none required
	Toggle     bool     // instantaneous side effect instead of a capture session
}

func (b Binding) matches(ev Event) bool {
	if b.Primary.Matches(ev) {
		return true
	}
	for _, k := range b.Alternates {
		if k.Matches(ev) {
			return true
		}
	}
	return false
}

// Handler receives state machine callbacks. All callbacks run
// synchronously on the listener goroutine.
type Handler interface {
	// CaptureStarted arms a recording session. A non-nil error keeps the
	// machine in IDLE.
	CaptureStarted(mode string) error
	// CaptureFinished finalizes the session started for mode.
	CaptureFinished(mode string)
	// TogglePressed fires for instantaneous bindings.
	TogglePressed(mode string)
}

// Machine is the hotkey capture state machine. Key-down on a capture
// binding starts a session; key-up on the same binding (hold mode) or a
// re-press (toggle mode) finishes it. Events for every other binding are
// ignored while a session is active, so sessions can never overlap.
type Machine struct {
	bindings   []Binding
	toggleStop bool
	handler    Handler

	mu      sync.Mutex
	state   State
	mode    string
	pressed map[uint16]string // held modifier keycode -> modifier name
}

// NewMachine builds a machine over the given binding table. toggleStop
// selects re-press-to-stop instead of hold-to-talk.
func NewMachine(bindings []Binding, toggleStop bool, handler Handler) *Machine {
	return &Machine{
		bindings:   bindings,
		toggleStop: toggleStop,
		handler:    handler,
		pressed:    make(map[uint16]string),
	}
}

// State returns the current capture state and active mode.
func (m *Machine) State() (State, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.mode
}

// HandleEvent feeds one key event through the machine. It must be called
// from a single goroutine.
func (m *Machine) HandleEvent(ev Event) {
	m.trackModifier(ev)
	if ev.Down {
		m.handleDown(ev)
		return
	}
	m.handleUp(ev)
}

func (m *Machine) handleDown(ev Event) {
	m.mu.Lock()
	if m.state == StateCapturing {
		active := m.activeBinding()
		stop := m.toggleStop && active != nil && active.matches(ev)
		m.mu.Unlock()
		if stop {
			m.finish()
		}
		return
	}
	b := m.match(ev)
	if b == nil {
		m.mu.Unlock()
		return
	}
	if b.Toggle {
		m.mu.Unlock()
		m.handler.TogglePressed(b.Mode)
		return
	}
	m.state = StateCapturing
	m.mode = b.Mode
	m.mu.Unlock()

	if err := m.handler.CaptureStarted(b.Mode); err != nil {
		slog.Error("capture start failed", "mode", b.Mode, "error", err)
		m.mu.Lock()
		m.state = StateIdle
		m.mode = ""
		m.mu.Unlock()
	}
}

func (m *Machine) handleUp(ev Event) {
	m.mu.Lock()
	if m.state != StateCapturing || m.toggleStop {
		m.mu.Unlock()
		return
	}
	active := m.activeBinding()
	stop := active != nil && active.matches(ev)
	m.mu.Unlock()
	if stop {
		m.finish()
	}
}

func (m *Machine) finish() {
	m.mu.Lock()
	mode := m.mode
	m.state = StateIdle
	m.mode = ""
	m.mu.Unlock()
	m.handler.CaptureFinished(mode)
}

// match returns the first binding hit by ev, in registration order, whose
// modifier requirement is satisfied.
func (m *Machine) match(ev Event) *Binding {
	for i := range m.bindings {
		b := &m.bindings[i]
		if b.matches(ev) && m.modifiersSatisfied(b) {
			return b
		}
	}
	return nil
}

func (m *Machine) activeBinding() *Binding {
	for i := range m.bindings {
		if m.bindings[i].Mode == m.mode {
			return &m.bindings[i]
		}
	}
	return nil
}

func (m *Machine) modifiersSatisfied(b *Binding) bool {
	if len(b.Modifiers) == 0 {
		return true
	}
	for _, want := range b.Modifiers {
		for _, held := range m.pressed {
			if held == want {
				return true
			}
		}
	}
	return false
}

func (m *Machine) trackModifier(ev Event) {
	name := modifierName(ev.Keycode)
	if name == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.Down {
		m.pressed[ev.Keycode] = name
		return
	}
	delete(m.pressed, ev.Keycode)
}
