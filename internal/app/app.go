// Package app wires the capture pipeline together and owns the
// interaction loop.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ariavoice/aria/audiocapture"
	"github.com/ariavoice/aria/cache"
	"github.com/ariavoice/aria/clipboard"
	"github.com/ariavoice/aria/config"
	"github.com/ariavoice/aria/dispatch"
	"github.com/ariavoice/aria/history"
	"github.com/ariavoice/aria/hotkey"
	"github.com/ariavoice/aria/internal/types"
	"github.com/ariavoice/aria/llm"
	"github.com/ariavoice/aria/router"
	"github.com/ariavoice/aria/screenshot"
	"github.com/ariavoice/aria/stt"
	"github.com/ariavoice/aria/tts"
)

// captureService is the slice of audiocapture.Service the pipeline uses.
type captureService interface {
	Start(mode string) error
	Stop() ([]float32, error)
	SampleRate() int
	Preview() <-chan []float32
	Close() error
}

// selectionSource captures the current selection before a session.
type selectionSource interface {
	CopySelection() (string, error)
}

// actionDispatcher executes routed decisions on the loop.
type actionDispatcher interface {
	Dispatch(dec router.Decision, selection string)
}

// intentRouter classifies transcripts.
type intentRouter interface {
	Classify(ctx context.Context, transcript string) router.Decision
}

// Service orchestrates the pipeline: hotkey events arm capture
// sessions, finalized audio flows through transcription and routing,
// and decisions are dispatched on the loop.
type Service struct {
	cfg     *config.Config
	loop    *Loop
	state   *State
	store   *history.Store
	present *presenter

	capture     captureService
	transcriber stt.Transcriber
	router      intentRouter
	dispatcher  actionDispatcher
	selection   selectionSource

	machine  *hotkey.Machine
	listener *hotkey.Listener
	cache    *cache.Cache

	version string

	// pendingSelection is written and read on the listener goroutine
	// between session start and finish.
	pendingSelection string
}

// New creates the service around a loaded configuration.
func New(cfg *config.Config, version string) *Service {
	loop := NewLoop()
	state := &State{
		TTSEnabled: cfg.TTSEnabled,
		ChatPinned: cfg.ChatPinned,
		Voice:      cfg.Voice,
	}
	if !tts.ValidVoice(state.Voice) {
		state.Voice = tts.DefaultVoice
	}
	return &Service{
		cfg:     cfg,
		loop:    loop,
		state:   state,
		store:   history.NewStore(cfg.TokenBudget, cfg.AnswerLimit),
		present: &presenter{loop: loop, state: state},
		version: version,
	}
}

// Init builds the pipeline components. It fails when no API credential
// is available or the audio driver cannot be opened.
func (s *Service) Init() error {
	cred := s.cfg.ActiveCredential()
	if cred == nil {
		return fmt.Errorf("no API credential configured (set ARIA_API_KEY or add a credential)")
	}

	capture, err := audiocapture.New(audiocapture.Config{SampleRate: s.cfg.SampleRate})
	if err != nil {
		return fmt.Errorf("init audio capture: %w", err)
	}
	s.capture = capture

	s.transcriber = stt.NewWhisper(stt.Config{
		APIKey:  cred.APIKey,
		BaseURL: cred.BaseURL,
		Model:   s.cfg.WhisperModel,
	})

	s.setupCache()
	s.router = router.New(
		llm.NewCompleter(cred.Type, cred.APIKey, cred.BaseURL, s.cfg.RouterModel, llm.Options{
			MaxTokens:   200,
			Temperature: 0,
		}),
		s.cache,
		s.cfg.RouterModel,
	)

	clip := clipboard.New()
	s.selection = clip

	speak := &speaker{loop: s.loop, state: s.state, player: &tts.Player{}}
	speak.synth = tts.New(tts.Config{
		APIKey:  cred.APIKey,
		BaseURL: cred.BaseURL,
		Model:   s.cfg.TTSModel,
	})

	s.dispatcher = dispatch.New(
		dispatch.Config{SystemPrompt: s.cfg.SystemPrompt},
		s.store,
		s.completer(cred, s.cfg.ChatModel),
		s.completer(cred, s.cfg.VisionModel),
		clip,
		speak,
		&screenshot.Capturer{},
		s.present,
		s.loop,
	)

	s.machine = hotkey.NewMachine(s.bindings(), s.cfg.ToggleCapture, s)
	s.listener = hotkey.NewListener(s.machine)
	return nil
}

func (s *Service) completer(cred *types.Credential, model string) llm.Completer {
	return llm.NewCompleter(cred.Type, cred.APIKey, cred.BaseURL, model, llm.Options{
		MaxTokens:   types.DefaultMaxTokens,
		Temperature: types.DefaultTemperature,
	})
}

func (s *Service) setupCache() {
	path, err := config.CachePath()
	if err != nil {
		slog.Error("get cache dir", "error", err)
		return
	}
	c, err := cache.New(path)
	if err != nil {
		slog.Error("init cache", "error", err)
		return
	}
	s.cache = c
	slog.Info("decision cache ready", "path", path)
}

// bindings converts the configured modes into the machine's table,
// preserving their order.
func (s *Service) bindings() []hotkey.Binding {
	var out []hotkey.Binding
	for _, m := range s.cfg.Modes {
		primary, err := hotkey.Parse(m.Key)
		if err != nil {
			slog.Warn("skipping binding with bad key", "mode", m.ID, "key", m.Key, "error", err)
			continue
		}
		b := hotkey.Binding{
			Mode:      m.ID,
			Label:     m.Label,
			Primary:   primary,
			Modifiers: m.Modifiers,
			Toggle:    m.Toggle,
		}
		for _, alt := range m.AltKeys {
			k, err := hotkey.Parse(alt)
			if err != nil {
				slog.Warn("skipping bad alternate key", "mode", m.ID, "key", alt, "error", err)
				continue
			}
			b.Alternates = append(b.Alternates, k)
		}
		out = append(out, b)
	}
	return out
}

// Run starts the hotkey listener and blocks on the interaction loop.
func (s *Service) Run() {
	s.listener.Start()
	slog.Info("ready", "version", s.version, "modes", len(s.cfg.Modes))
	s.loop.Run()
}

// Shutdown stops the listener and the loop and releases resources.
func (s *Service) Shutdown() {
	if s.listener != nil {
		s.listener.Stop()
	}
	s.loop.Stop()
	if s.capture != nil {
		if err := s.capture.Close(); err != nil {
			slog.Error("close audio", "error", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			slog.Error("close cache", "error", err)
		}
	}
}

// Preview exposes the capture level feed for external overlays.
func (s *Service) Preview() <-chan []float32 {
	return s.capture.Preview()
}

// ClearHistory resets the conversation, answer log, and chat log.
func (s *Service) ClearHistory() {
	s.loop.Schedule(func() {
		s.store.Clear()
		s.state.chatLog = nil
		s.present.NotifyStatus("history cleared")
	})
}

// CaptureStarted implements hotkey.Handler. It runs on the listener
// goroutine; modes that rewrite a selection copy it before recording so
// the selection cannot be lost to focus changes.
func (s *Service) CaptureStarted(mode string) error {
	s.pendingSelection = ""
	if m := s.cfg.Mode(mode); m != nil && m.CopySelection {
		selection, err := s.selection.CopySelection()
		if err != nil {
			slog.Warn("selection copy failed", "error", err)
		}
		s.pendingSelection = selection
	}
	if err := s.capture.Start(mode); err != nil {
		return err
	}
	s.loop.Schedule(func() { s.present.NotifyStatus("listening: " + mode) })
	return nil
}

// CaptureFinished implements hotkey.Handler. It finalizes the session
// and hands the audio to a transcription worker.
func (s *Service) CaptureFinished(mode string) {
	samples, err := s.capture.Stop()
	if err != nil {
		slog.Error("capture stop failed", "mode", mode, "error", err)
	}
	if len(samples) == 0 {
		s.loop.Schedule(func() { s.present.NotifyStatus("no audio") })
		return
	}

	selection := s.pendingSelection
	s.pendingSelection = ""
	rate := s.capture.SampleRate()

	s.loop.Spawn("transcription", func() {
		ctx := context.Background()
		text, err := s.transcriber.Transcribe(ctx, samples, rate)
		if err != nil {
			slog.Error("transcription failed", "error", err)
			s.loop.Schedule(func() { s.present.NotifyStatus("transcription failed") })
			return
		}
		if !history.CheckTranscript(text) {
			slog.Warn("transcript rejected as artifact", "text", text)
			s.loop.Schedule(func() { s.present.NotifyStatus("nothing heard") })
			return
		}
		dec := s.route(ctx, mode, text)
		s.loop.Schedule(func() { s.dispatcher.Dispatch(dec, selection) })
	})
}

// TogglePressed implements hotkey.Handler for instantaneous bindings.
func (s *Service) TogglePressed(mode string) {
	s.loop.Schedule(func() {
		switch mode {
		case "pin":
			s.state.ChatPinned = !s.state.ChatPinned
			s.cfg.ChatPinned = s.state.ChatPinned
			s.present.NotifyStatus(onOff("chat pinned", s.state.ChatPinned))
		case "tts":
			s.state.TTSEnabled = !s.state.TTSEnabled
			s.cfg.TTSEnabled = s.state.TTSEnabled
			s.present.NotifyStatus(onOff("speech", s.state.TTSEnabled))
		default:
			slog.Warn("unknown toggle", "mode", mode)
			return
		}
		if err := s.cfg.Save(); err != nil {
			slog.Error("save config", "error", err)
		}
	})
}

// route maps a finalized transcript to a decision: modes with a fixed
// route skip classification, the assistant mode asks the router.
func (s *Service) route(ctx context.Context, mode, text string) router.Decision {
	var policy string
	if m := s.cfg.Mode(mode); m != nil {
		policy = m.Route
	}
	switch policy {
	case "dictation":
		return router.Decision{Action: types.ActionDictation, Text: text}
	case "agent":
		return router.Decision{Action: types.ActionAgent, Text: text}
	case "vision":
		return router.Decision{Action: types.ActionVision, Text: text}
	default:
		return s.router.Classify(ctx, text)
	}
}

func onOff(what string, on bool) string {
	if on {
		return what + " on"
	}
	return what + " off"
}
