// Package clipboard implements selection capture and typed output
// through the system clipboard and simulated key chords.
package clipboard

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/atotto/clipboard"
)

const (
	// settleDelay is the worst-case wait for the window manager to
	// service a simulated copy/paste chord.
	settleDelay = 100 * time.Millisecond

	// settlePoll is the interval at which the clipboard is re-read while
	// waiting for a simulated copy to land.
	settlePoll = 10 * time.Millisecond

	commandTimeout = time.Second
)

// terminalKeywords identifies terminal emulators by WM_CLASS substring.
// Terminals use ctrl+shift chords for clipboard access.
var terminalKeywords = []string{
	"terminal", "konsole", "xterm", "alacritty", "kitty",
	"terminator", "tilix", "urxvt", "st-256color", "foot",
}

// Service drives the X11 clipboard and keyboard. The zero value is
// ready to use; runCommand is swappable for tests.
type Service struct {
	runCommand func(name string, args ...string) ([]byte, error)
}

// New creates a clipboard service.
func New() *Service {
	return &Service{}
}

func (s *Service) run(name string, args ...string) ([]byte, error) {
	if s.runCommand != nil {
		return s.runCommand(name, args...)
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return exec.CommandContext(ctx, name, args...).Output()
}

// TypeText inserts text at the cursor through a clipboard paste,
// preserving the previous clipboard contents. A leading space keeps the
// insertion from merging with the word before the cursor.
func (s *Service) TypeText(text string) error {
	return s.insert(" " + text)
}

// Paste replaces the current selection with text, preserving the
// previous clipboard contents.
func (s *Service) Paste(text string) error {
	return s.insert(text)
}

func (s *Service) insert(text string) error {
	previous, err := clipboard.ReadAll()
	if err != nil {
		slog.Debug("clipboard read before paste failed", "error", err)
		previous = ""
	}

	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	if err := s.pressPaste(); err != nil {
		return fmt.Errorf("paste chord: %w", err)
	}
	time.Sleep(settleDelay)

	if err := clipboard.WriteAll(previous); err != nil {
		return fmt.Errorf("restore clipboard: %w", err)
	}
	return nil
}

// CopySelection captures the currently selected text via a simulated
// copy chord. The clipboard is cleared first so a change can be
// detected; it is polled until the copy lands or the settle deadline
// passes. The previous clipboard contents are restored when nothing was
// selected.
func (s *Service) CopySelection() (string, error) {
	previous, err := clipboard.ReadAll()
	if err != nil {
		previous = ""
	}
	if err := clipboard.WriteAll(""); err != nil {
		return "", fmt.Errorf("clear clipboard: %w", err)
	}

	if err := s.pressCopy(); err != nil {
		return "", fmt.Errorf("copy chord: %w", err)
	}

	deadline := time.Now().Add(settleDelay)
	for time.Now().Before(deadline) {
		time.Sleep(settlePoll)
		content, err := clipboard.ReadAll()
		if err != nil {
			continue
		}
		if content != "" {
			return strings.TrimSpace(content), nil
		}
	}

	if err := clipboard.WriteAll(previous); err != nil {
		slog.Debug("clipboard restore failed", "error", err)
	}
	return "", nil
}

func (s *Service) pressPaste() error {
	chord := "ctrl+v"
	if s.terminalFocused() {
		chord = "ctrl+shift+v"
	}
	_, err := s.run("xdotool", "key", "--clearmodifiers", chord)
	return err
}

func (s *Service) pressCopy() error {
	chord := "ctrl+c"
	if s.terminalFocused() {
		chord = "ctrl+shift+c"
	}
	_, err := s.run("xdotool", "key", "--clearmodifiers", chord)
	return err
}

// terminalFocused reports whether the focused window looks like a
// terminal emulator. Detection failures default to a regular window.
func (s *Service) terminalFocused() bool {
	window, err := s.run("xdotool", "getactivewindow")
	if err != nil {
		return false
	}
	class, err := s.run("xprop", "-id", strings.TrimSpace(string(window)), "WM_CLASS")
	if err != nil {
		return false
	}
	return isTerminalClass(string(class))
}

func isTerminalClass(wmClass string) bool {
	lower := strings.ToLower(wmClass)
	for _, kw := range terminalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
