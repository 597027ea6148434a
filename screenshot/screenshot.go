// Package screenshot captures the screen for multimodal completions.
package screenshot

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const captureTimeout = 10 * time.Second

// Capturer takes full-screen screenshots.
type Capturer struct {
	// Command is the screenshot binary, "gnome-screenshot" by default.
	Command string
}

// Capture grabs the full screen as PNG and returns it base64-encoded.
// The intermediate file is removed before returning.
func (c *Capturer) Capture(ctx context.Context) (string, error) {
	command := c.Command
	if command == "" {
		command = "gnome-screenshot"
	}

	path := filepath.Join(os.TempDir(), "aria-screen-"+uuid.NewString()+".png")
	defer os.Remove(path)

	ctx, cancel := context.WithTimeout(ctx, captureTimeout)
	defer cancel()
	if err := exec.CommandContext(ctx, command, "-f", path).Run(); err != nil {
		return "", fmt.Errorf("capture screen: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read screenshot: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty screenshot at %s", path)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
