// Package tts synthesizes and plays spoken responses.
package tts

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Voices lists the synthesis voices the configured model supports.
var Voices = []string{"diana", "hannah", "autumn", "austin", "daniel", "troy"}

// DefaultVoice is used when the configured voice is unknown.
const DefaultVoice = "diana"

// maxInputChars bounds the text sent to the synthesis API.
const maxInputChars = 4000

// Synthesizer renders text to WAV audio through an OpenAI-compatible
// speech API.
type Synthesizer struct {
	client openai.Client
	model  string
}

// Config holds synthesizer configuration.
type Config struct {
	APIKey  string
	BaseURL string // OpenAI-style API root; empty for api.openai.com
	Model   string
}

// New creates a Synthesizer.
func New(cfg Config) *Synthesizer {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Synthesizer{client: openai.NewClient(opts...), model: cfg.Model}
}

// Synthesize renders text with the given voice and returns WAV bytes.
// Text beyond the API input limit is truncated.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if !ValidVoice(voice) {
		voice = DefaultVoice
	}
	res, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(s.model),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		Input:          clamp(text, maxInputChars),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatWAV,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	defer res.Body.Close()

	audio, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return audio, nil
}

// ValidVoice reports whether voice is in the supported voice table.
func ValidVoice(voice string) bool {
	for _, v := range Voices {
		if v == voice {
			return true
		}
	}
	return false
}

func clamp(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Cut on a rune boundary.
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}
