package hotkey

import (
	"errors"
	"testing"

	hook "github.com/robotn/gohook"
)

type recordingHandler struct {
	started  []string
	finished []string
	toggled  []string
	startErr error
}

func (h *recordingHandler) CaptureStarted(mode string) error {
	if h.startErr != nil {
		return h.startErr
	}
	h.started = append(h.started, mode)
	return nil
}

func (h *recordingHandler) CaptureFinished(mode string) {
	h.finished = append(h.finished, mode)
}

func (h *recordingHandler) TogglePressed(mode string) {
	h.toggled = append(h.toggled, mode)
}

func down(code uint16) Event { return Event{Rawcode: code, Down: true} }
func up(code uint16) Event   { return Event{Rawcode: code, Down: false} }

func testBindings() []Binding {
	return []Binding{
		{Mode: "dictation", Label: "F3", Primary: Virtual(100), Alternates: []Key{Virtual(300)}},
		{Mode: "assistant", Label: "F4", Primary: Virtual(101)},
		{Mode: "vision", Label: "F8", Primary: Virtual(102), Alternates: []Key{Virtual(300)}},
		{Mode: "pin", Label: "F9", Primary: Virtual(103), Toggle: true},
	}
}

func TestMachineHoldToTalk(t *testing.T) {
	tests := []struct {
		name     string
		events   []Event
		started  []string
		finished []string
		toggled  []string
	}{
		{
			name:     "press and release",
			events:   []Event{down(100), up(100)},
			started:  []string{"dictation"},
			finished: []string{"dictation"},
		},
		{
			name:     "alternate code matches same binding",
			events:   []Event{down(300), up(300)},
			started:  []string{"dictation"},
			finished: []string{"dictation"},
		},
		{
			name:     "other binding ignored while capturing",
			events:   []Event{down(100), down(101), up(101), up(100)},
			started:  []string{"dictation"},
			finished: []string{"dictation"},
		},
		{
			name:     "toggle suppressed while capturing",
			events:   []Event{down(101), down(103), up(101)},
			started:  []string{"assistant"},
			finished: []string{"assistant"},
		},
		{
			name:    "toggle fires when idle",
			events:  []Event{down(103), up(103)},
			toggled: []string{"pin"},
		},
		{
			name:     "sequential sessions",
			events:   []Event{down(100), up(100), down(102), up(102)},
			started:  []string{"dictation", "vision"},
			finished: []string{"dictation", "vision"},
		},
		{
			name:   "unrelated release ignored",
			events: []Event{up(100), up(102)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &recordingHandler{}
			m := NewMachine(testBindings(), false, h)
			for _, ev := range tt.events {
				m.HandleEvent(ev)
			}
			assertStrings(t, "started", h.started, tt.started)
			assertStrings(t, "finished", h.finished, tt.finished)
			assertStrings(t, "toggled", h.toggled, tt.toggled)
			if len(h.started) != len(h.finished) {
				st, _ := m.State()
				if st != StateCapturing {
					t.Fatalf("unbalanced start/finish with idle machine: %d vs %d", len(h.started), len(h.finished))
				}
			}
		})
	}
}

func TestMachineToggleStop(t *testing.T) {
	h := &recordingHandler{}
	m := NewMachine(testBindings(), true, h)

	m.HandleEvent(down(100))
	m.HandleEvent(up(100)) // release does not stop in toggle mode
	if len(h.finished) != 0 {
		t.Fatalf("finished on release in toggle mode: %v", h.finished)
	}
	m.HandleEvent(down(101)) // other binding still ignored
	m.HandleEvent(down(100)) // re-press stops
	assertStrings(t, "started", h.started, []string{"dictation"})
	assertStrings(t, "finished", h.finished, []string{"dictation"})
}

func TestMachinePrecedenceIsDeclarationOrder(t *testing.T) {
	// Code 300 is an alternate of both dictation and vision; the first
	// registered binding must win.
	h := &recordingHandler{}
	m := NewMachine(testBindings(), false, h)
	m.HandleEvent(down(300))
	assertStrings(t, "started", h.started, []string{"dictation"})
}

func TestMachineStartFailureReturnsToIdle(t *testing.T) {
	h := &recordingHandler{startErr: errors.New("no audio device")}
	m := NewMachine(testBindings(), false, h)
	m.HandleEvent(down(100))
	if st, _ := m.State(); st != StateIdle {
		t.Fatalf("state = %v, want idle after failed start", st)
	}
	if len(h.finished) != 0 {
		t.Fatalf("finished fired without a session: %v", h.finished)
	}

	// A later press works once the handler recovers.
	h.startErr = nil
	m.HandleEvent(down(100))
	m.HandleEvent(up(100))
	assertStrings(t, "finished", h.finished, []string{"dictation"})
}

func TestMachineModifierRequirement(t *testing.T) {
	ctrl, ok := hook.Keycode["ctrl"]
	if !ok {
		t.Skip("no ctrl keycode on this layout table")
	}
	bindings := []Binding{
		{Mode: "assistant", Primary: Virtual(101), Modifiers: []string{"ctrl", "cmd"}},
	}
	h := &recordingHandler{}
	m := NewMachine(bindings, false, h)

	m.HandleEvent(down(101))
	if len(h.started) != 0 {
		t.Fatalf("started without modifier held: %v", h.started)
	}

	m.HandleEvent(Event{Keycode: ctrl, Down: true})
	m.HandleEvent(down(101))
	m.HandleEvent(up(101))
	m.HandleEvent(Event{Keycode: ctrl, Down: false})
	assertStrings(t, "started", h.started, []string{"assistant"})

	// Modifier released: requirement no longer satisfied.
	m.HandleEvent(down(101))
	assertStrings(t, "started", h.started, []string{"assistant"})
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Key
		wantErr bool
	}{
		{in: "f3", want: Key{Name: "f3"}},
		{in: "F3", want: Key{Name: "f3"}},
		{in: "vk:269", want: Key{Code: 269}},
		{in: "172", want: Key{Code: 172}},
		{in: "", wantErr: true},
		{in: "vk:notanumber", wantErr: true},
		{in: "definitely-not-a-key", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func assertStrings(t *testing.T, what string, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s = %v, want %v", what, got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("%s = %v, want %v", what, got, want)
		}
	}
}
