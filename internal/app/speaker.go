package app

import (
	"context"
	"log/slog"

	"github.com/ariavoice/aria/langdetect"
	"github.com/ariavoice/aria/tts"
)

// speaker implements dispatch.Speaker. Speak is called on the loop; the
// synthesis and playback run on a worker. Responses in languages the
// voices cannot render are skipped.
type speaker struct {
	loop   *Loop
	state  *State
	synth  *tts.Synthesizer
	player *tts.Player
}

func (s *speaker) Speak(text string) {
	if s.synth == nil || !s.state.TTSEnabled {
		return
	}
	if !langdetect.IsEnglish(text) {
		code, name := langdetect.Detect(text)
		slog.Info("skipping speech, unsupported language", "code", code, "language", name)
		return
	}
	voice := s.state.Voice
	s.loop.Spawn("speech synthesis", func() {
		audio, err := s.synth.Synthesize(context.Background(), text, voice)
		if err != nil {
			slog.Error("speech synthesis failed", "error", err)
			return
		}
		if err := s.player.Play(context.Background(), audio); err != nil {
			slog.Error("speech playback failed", "error", err)
		}
	})
}
