// Package config handles application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/ariavoice/aria/internal/types"
)

const (
	appName        = "aria"
	configFileName = "config.json"
)

// Default models. The defaults target a Groq-hosted OpenAI-compatible
// endpoint; any OpenAI-style provider works.
const (
	DefaultBaseURL      = "https://api.groq.com/openai/v1"
	DefaultChatModel    = "moonshotai/kimi-k2-instruct"
	DefaultVisionModel  = "meta-llama/llama-4-scout-17b-16e-instruct"
	DefaultRouterModel  = "llama-3.1-8b-instant"
	DefaultWhisperModel = "whisper-large-v3"
	DefaultTTSModel     = "canopylabs/orpheus-v1-english"
)

// DefaultSystemPrompt frames the assistant's voice responses.
const DefaultSystemPrompt = `You are Aria, a helpful voice assistant. The user speaks to you and your answers are typed at their cursor and optionally read aloud. Be concise and direct; answer in plain text without markdown formatting. When the user shares screen content, ground your answer in what is visible.`

// Mode describes one hotkey binding and how its transcript is routed.
type Mode struct {
	ID            string   `json:"id"`
	Label         string   `json:"label"`
	Key           string   `json:"key"`
	AltKeys       []string `json:"alt_keys,omitempty"`
	Modifiers     []string `json:"modifiers,omitempty"`
	Route         string   `json:"route,omitempty"` // "auto", "dictation", "agent", "vision"
	Toggle        bool     `json:"toggle,omitempty"`
	CopySelection bool     `json:"copy_selection,omitempty"`
}

// Config represents the application configuration.
type Config struct {
	Credentials []types.Credential `json:"credentials,omitempty"`

	ChatModel    string `json:"chat_model"`
	VisionModel  string `json:"vision_model"`
	RouterModel  string `json:"router_model"`
	WhisperModel string `json:"whisper_model"`
	TTSModel     string `json:"tts_model"`

	SystemPrompt string `json:"system_prompt"`
	Voice        string `json:"voice"`
	TTSEnabled   bool   `json:"tts_enabled"`
	ChatPinned   bool   `json:"chat_pinned"`

	// ToggleCapture selects re-press-to-stop instead of hold-to-talk.
	ToggleCapture bool `json:"toggle_capture"`

	SampleRate  int `json:"sample_rate,omitempty"`
	TokenBudget int `json:"token_budget,omitempty"`
	AnswerLimit int `json:"answer_limit,omitempty"`

	Modes []Mode `json:"modes,omitempty"`
}

// Load loads configuration from the config file.
// Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return fmt.Errorf("get config path: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Mode returns the mode with the given id, or nil.
func (c *Config) Mode(id string) *Mode {
	idx := slices.IndexFunc(c.Modes, func(m Mode) bool { return m.ID == id })
	if idx == -1 {
		return nil
	}
	return &c.Modes[idx]
}

// ActiveCredential returns the credential to use for API calls. When no
// configured credential is active, the ARIA_API_KEY or OPENAI_API_KEY
// environment variable is used against the default endpoint.
func (c *Config) ActiveCredential() *types.Credential {
	for i := range c.Credentials {
		if c.Credentials[i].Active {
			cred := c.Credentials[i]
			return &cred
		}
	}
	if len(c.Credentials) > 0 {
		cred := c.Credentials[0]
		return &cred
	}
	for _, env := range []string{"ARIA_API_KEY", "OPENAI_API_KEY"} {
		if key := os.Getenv(env); key != "" {
			return &types.Credential{
				Name:    "environment",
				Type:    "openai-compatible",
				BaseURL: DefaultBaseURL,
				APIKey:  key,
				Active:  true,
			}
		}
	}
	return nil
}

// AddCredential adds a new API credential. The first credential, or an
// explicitly active one, deactivates the others.
func (c *Config) AddCredential(cred types.Credential) error {
	if cred.Name == "" {
		return fmt.Errorf("credential name required")
	}
	if cred.APIKey == "" {
		return fmt.Errorf("api key required")
	}
	if cred.Type == "openai-compatible" && cred.BaseURL == "" {
		return fmt.Errorf("base url required for openai-compatible")
	}

	if len(c.Credentials) == 0 || cred.Active {
		for i := range c.Credentials {
			c.Credentials[i].Active = false
		}
		cred.Active = true
	}

	c.Credentials = append(c.Credentials, cred)
	return c.Save()
}

// RemoveCredential removes a credential by name.
func (c *Config) RemoveCredential(name string) error {
	idx := slices.IndexFunc(c.Credentials, func(x types.Credential) bool {
		return x.Name == name
	})
	if idx == -1 {
		return fmt.Errorf("credential not found: %s", name)
	}

	wasActive := c.Credentials[idx].Active
	c.Credentials = slices.Delete(c.Credentials, idx, idx+1)
	if wasActive && len(c.Credentials) > 0 {
		c.Credentials[0].Active = true
	}
	return c.Save()
}

func (c *Config) applyDefaults() {
	if c.ChatModel == "" {
		c.ChatModel = DefaultChatModel
	}
	if c.VisionModel == "" {
		c.VisionModel = DefaultVisionModel
	}
	if c.RouterModel == "" {
		c.RouterModel = DefaultRouterModel
	}
	if c.WhisperModel == "" {
		c.WhisperModel = DefaultWhisperModel
	}
	if c.TTSModel == "" {
		c.TTSModel = DefaultTTSModel
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.Voice == "" {
		c.Voice = "diana"
	}
	if len(c.Modes) == 0 {
		c.Modes = defaultModes()
	}
}

func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// CachePath returns the directory for the on-disk decision cache.
func CachePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("get user cache dir: %w", err)
	}
	return filepath.Join(dir, appName, "router"), nil
}

func defaultConfig() *Config {
	cfg := &Config{TTSEnabled: true}
	cfg.applyDefaults()
	return cfg
}

// defaultModes is the built-in binding table. Order matters: the first
// matching binding wins. The numeric alternates are the X11 keycodes
// some keyboards report for their media keys.
func defaultModes() []Mode {
	return []Mode{
		{ID: "dictation", Label: "F3", Key: "f3", Route: "dictation"},
		{ID: "assistant", Label: "F4", Key: "f4", Route: "auto"},
		{ID: "rewrite", Label: "F7", Key: "f7", AltKeys: []string{"173"}, Route: "agent", CopySelection: true},
		{ID: "vision", Label: "F8", Key: "f8", AltKeys: []string{"172"}, Route: "vision"},
		{ID: "pin", Label: "F9", Key: "f9", AltKeys: []string{"171"}, Toggle: true},
		{ID: "tts", Label: "F10", Key: "f10", AltKeys: []string{"121"}, Toggle: true},
	}
}
