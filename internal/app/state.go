package app

import (
	"log/slog"
	"time"
)

const (
	// chatLogLimit bounds the presentation chat log.
	chatLogLimit = 20
	// chatAutoHide collapses the chat surface after inactivity unless
	// pinned.
	chatAutoHide = 6 * time.Second
)

// ChatTurn is one presentation chat log entry.
type ChatTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// State is the mutable interaction state. It is owned by the loop
// goroutine; only tasks scheduled there may touch it.
type State struct {
	TTSEnabled  bool
	ChatPinned  bool
	ChatVisible bool
	Voice       string
	Status      string

	chatLog []ChatTurn
	hideSeq int
}

// ChatLog returns a copy of the bounded chat log, oldest first.
func (st *State) ChatLog() []ChatTurn {
	out := make([]ChatTurn, len(st.chatLog))
	copy(out, st.chatLog)
	return out
}

// presenter implements dispatch.Presenter over the state container.
// External surfaces (tray, overlay) observe the state; events are also
// mirrored to the log.
type presenter struct {
	loop  *Loop
	state *State
}

func (p *presenter) LogChatTurn(role, text string) {
	st := p.state
	st.chatLog = append(st.chatLog, ChatTurn{Role: role, Text: text})
	if len(st.chatLog) > chatLogLimit {
		st.chatLog = st.chatLog[len(st.chatLog)-chatLogLimit:]
	}
	st.ChatVisible = true
	slog.Debug("chat turn", "role", role, "chars", len(text))
	p.scheduleHide()
}

// scheduleHide arms the auto-hide timer. The sequence counter voids
// timers from earlier turns.
func (p *presenter) scheduleHide() {
	if p.state.ChatPinned {
		return
	}
	p.state.hideSeq++
	seq := p.state.hideSeq
	p.loop.After(chatAutoHide, func() {
		if p.state.hideSeq == seq && !p.state.ChatPinned {
			p.state.ChatVisible = false
		}
	})
}

func (p *presenter) LogAnswer(text string) {
	slog.Info("answer logged", "chars", len(text))
}

func (p *presenter) NotifyStatus(text string) {
	p.state.Status = text
	slog.Info("status", "text", text)
}
