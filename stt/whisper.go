package stt

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultModel is used when no transcription model is configured.
const DefaultModel = "whisper-large-v3"

// Whisper transcribes audio through an OpenAI-compatible audio API.
type Whisper struct {
	client openai.Client
	model  string
}

// Config holds Whisper client configuration.
type Config struct {
	APIKey  string
	BaseURL string // OpenAI-style API root; empty for api.openai.com
	Model   string
}

// NewWhisper creates a Whisper transcriber.
func NewWhisper(cfg Config) *Whisper {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Whisper{client: openai.NewClient(opts...), model: model}
}

// Transcribe uploads the samples as a mono 16-bit WAV and returns the
// recognized text. Empty input yields an empty transcript without a call.
func (w *Whisper) Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}

	wav := encodeWAV(samples, sampleRate)
	resp, err := w.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(wav), "audio.wav", "audio/wav"),
		Model: openai.AudioModel(w.model),
	})
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
