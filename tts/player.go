package tts

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
)

// Player plays WAV audio through the system mixer.
type Player struct {
	// Command is the playback binary, "aplay" by default.
	Command string
}

// Play writes the audio to a temp file and plays it synchronously. The
// file is removed when playback ends.
func (p *Player) Play(ctx context.Context, audio []byte) error {
	if len(audio) == 0 {
		return nil
	}
	command := p.Command
	if command == "" {
		command = "aplay"
	}

	path := filepath.Join(os.TempDir(), "aria-tts-"+uuid.NewString()+".wav")
	if err := os.WriteFile(path, audio, 0o600); err != nil {
		return fmt.Errorf("write audio file: %w", err)
	}
	defer os.Remove(path)

	cmd := exec.CommandContext(ctx, command, "-q", path)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("play audio: %w", err)
	}
	return nil
}
