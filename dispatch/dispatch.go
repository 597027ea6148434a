// Package dispatch executes routed actions against the completion
// services and the output, speech, and presentation collaborators.
package dispatch

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ariavoice/aria/history"
	"github.com/ariavoice/aria/internal/types"
	"github.com/ariavoice/aria/llm"
	"github.com/ariavoice/aria/router"
)

// Output emits text at the cursor.
type Output interface {
	// TypeText inserts text after the cursor.
	TypeText(text string) error
	// Paste replaces the current selection with text.
	Paste(text string) error
}

// Speaker voices assistant responses. Implementations decide whether
// speech is currently enabled and must not block the caller.
type Speaker interface {
	Speak(text string)
}

// ScreenCapturer grabs the screen as a base64 PNG.
type ScreenCapturer interface {
	Capture(ctx context.Context) (string, error)
}

// Presenter receives presentation events for external surfaces (tray,
// overlay). Implementations must be cheap; they run on the UI loop.
type Presenter interface {
	LogChatTurn(role, text string)
	LogAnswer(text string)
	NotifyStatus(text string)
}

// Bridge serializes mutations onto the UI loop and runs network-bound
// work on worker goroutines.
type Bridge interface {
	Schedule(f func())
	Spawn(name string, f func())
}

// Config holds dispatcher configuration.
type Config struct {
	SystemPrompt string
}

// Dispatcher executes one routed decision at a time. Dispatch and every
// mutation it schedules run on the UI loop; completions and screenshots
// run on workers.
type Dispatcher struct {
	cfg     Config
	store   *history.Store
	chat    llm.Completer
	vision  llm.Completer
	output  Output
	speaker Speaker
	screens ScreenCapturer
	present Presenter
	bridge  Bridge
}

// New wires a dispatcher.
func New(cfg Config, store *history.Store, chat, vision llm.Completer, output Output,
	speaker Speaker, screens ScreenCapturer, present Presenter, bridge Bridge) *Dispatcher {
	return &Dispatcher{
		cfg:     cfg,
		store:   store,
		chat:    chat,
		vision:  vision,
		output:  output,
		speaker: speaker,
		screens: screens,
		present: present,
		bridge:  bridge,
	}
}

// Dispatch runs a decision. selection is the text captured before the
// session for modes that replace a selection; empty otherwise.
func (d *Dispatcher) Dispatch(dec router.Decision, selection string) {
	switch dec.Action {
	case types.ActionDictation:
		d.dictate(dec.Text)
	case types.ActionAgent:
		d.agent(dec.Text, selection)
	case types.ActionVision:
		d.visionTurn(dec.Text, selection)
	default:
		slog.Warn("unknown action", "action", dec.Action)
	}
}

// dictate types the transcript verbatim. Dictation never touches the
// conversation history.
func (d *Dispatcher) dictate(text string) {
	if err := d.output.TypeText(text); err != nil {
		slog.Error("typed output failed", "error", err)
		d.present.NotifyStatus("typing failed")
		return
	}
	d.store.AddAnswer(text)
	d.present.LogAnswer(text)
	d.present.LogChatTurn(history.RoleUser, text)
}

func (d *Dispatcher) agent(text, selection string) {
	msgs := history.BuildMessages(d.cfg.SystemPrompt, d.store.Messages(), text, selection, "")
	d.present.NotifyStatus("thinking")
	d.bridge.Spawn("chat completion", func() {
		reply, _, err := d.chat.Complete(context.Background(), msgs)
		if err != nil {
			slog.Error("chat completion failed", "error", err)
			d.bridge.Schedule(func() { d.present.NotifyStatus("request failed") })
			return
		}
		d.bridge.Schedule(func() {
			d.finish(text, reply, history.OriginVoice, selection != "")
		})
	})
}

// visionTurn captures the screen before any completion so the image
// reflects what the user was looking at when they spoke.
func (d *Dispatcher) visionTurn(text, selection string) {
	d.present.NotifyStatus("looking at screen")
	d.bridge.Spawn("screenshot", func() {
		image, err := d.screens.Capture(context.Background())
		if err != nil {
			slog.Error("screenshot failed", "error", err)
			d.bridge.Schedule(func() { d.present.NotifyStatus("screenshot failed") })
			return
		}
		d.bridge.Schedule(func() {
			msgs := history.BuildMessages(d.cfg.SystemPrompt, d.store.Messages(), text, selection, image)
			d.bridge.Spawn("vision completion", func() {
				reply, _, err := d.vision.Complete(context.Background(), msgs)
				if err != nil {
					slog.Error("vision completion failed", "error", err)
					d.bridge.Schedule(func() { d.present.NotifyStatus("request failed") })
					return
				}
				d.bridge.Schedule(func() {
					d.finish(text+" [Vision]", reply, history.OriginScreen, false)
				})
			})
		})
	})
}

// finish applies the success path of a completion on the UI loop:
// history, answer log, chat log, emitted output, speech. An empty reply
// counts as failure and mutates nothing.
func (d *Dispatcher) finish(userText, reply string, origin history.Origin, replaceSelection bool) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		slog.Warn("empty completion reply dropped")
		d.present.NotifyStatus("no answer")
		return
	}

	d.store.AppendTagged(history.RoleUser, userText, origin)
	d.store.Append(history.RoleAssistant, reply)
	d.store.AddAnswer(reply)
	d.present.LogChatTurn(history.RoleUser, userText)
	d.present.LogChatTurn(history.RoleAssistant, reply)

	var err error
	if replaceSelection {
		err = d.output.Paste(reply)
	} else {
		err = d.output.TypeText(reply)
	}
	if err != nil {
		slog.Error("typed output failed", "error", err)
	}

	d.speaker.Speak(reply)
	d.present.NotifyStatus("done")
}
