// Package hotkey implements the global hotkey bindings and the capture
// state machine that drives recording sessions.
package hotkey

import (
	"fmt"
	"strconv"
	"strings"

	hook "github.com/robotn/gohook"
)

// Key identifies a physical key either by layout keycode name or by the
// raw vendor code reported by the driver. Media and vendor keys on some
// keyboards never get a layout name and only surface as raw codes.
type Key struct {
	Name string // layout key name, e.g. "f3"
	Code uint16 // raw vendor code
}

// Named returns a Key matched by layout keycode name.
func Named(name string) Key {
	return Key{Name: strings.ToLower(name)}
}

// Virtual returns a Key matched by raw vendor code.
func Virtual(code uint16) Key {
	return Key{Code: code}
}

// Parse converts a config key string into a Key. Decimal strings and
// "vk:N" strings become virtual codes, everything else is a layout name.
func Parse(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Key{}, fmt.Errorf("empty key")
	}
	raw := strings.TrimPrefix(s, "vk:")
	if code, err := strconv.ParseUint(raw, 10, 16); err == nil {
		return Virtual(uint16(code)), nil
	}
	if raw != s {
		return Key{}, fmt.Errorf("invalid virtual code %q", s)
	}
	name := strings.ToLower(s)
	if _, ok := hook.Keycode[name]; !ok {
		return Key{}, fmt.Errorf("unknown key name %q", s)
	}
	return Named(name), nil
}

// Matches reports whether the event hits this key on either identity.
func (k Key) Matches(ev Event) bool {
	if k.Name != "" {
		if code, ok := hook.Keycode[k.Name]; ok && ev.Keycode == code {
			return true
		}
	}
	return k.Code != 0 && ev.Rawcode == k.Code
}

func (k Key) String() string {
	if k.Name != "" {
		return k.Name
	}
	return fmt.Sprintf("vk:%d", k.Code)
}

// Event is a normalized key event fed into the state machine.
type Event struct {
	Keycode uint16
	Rawcode uint16
	Down    bool
}

// modifierCodes maps a modifier name to the layout keycodes that count as
// holding it. Left and right variants both count.
var modifierCodes = buildModifierCodes()

func buildModifierCodes() map[string][]uint16 {
	out := make(map[string][]uint16)
	for name, variants := range map[string][]string{
		"ctrl":  {"ctrl", "lctrl", "rctrl"},
		"shift": {"shift", "lshift", "rshift"},
		"alt":   {"alt", "lalt", "ralt"},
		"cmd":   {"cmd", "lcmd", "rcmd"},
	} {
		for _, v := range variants {
			if code, ok := hook.Keycode[v]; ok {
				out[name] = append(out[name], code)
			}
		}
	}
	return out
}

// modifierName returns the canonical modifier name for a keycode, or "".
func modifierName(keycode uint16) string {
	for name, codes := range modifierCodes {
		for _, c := range codes {
			if c == keycode {
				return name
			}
		}
	}
	return ""
}
