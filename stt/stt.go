// Package stt provides speech-to-text transcription.
package stt

import "context"

// Transcriber converts captured audio into text. Implementations return
// an empty string when the audio contains no recognizable speech.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error)
}
