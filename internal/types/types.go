// Package types provides shared type definitions for the application.
package types

// Action identifies how a finalized transcript is handled.
type Action string

const (
	// ActionDictation types the transcript verbatim at the cursor.
	ActionDictation Action = "DICTATION"
	// ActionAgent sends the transcript to the conversational model.
	ActionAgent Action = "AGENT"
	// ActionVision attaches a screenshot and sends it to the multimodal model.
	ActionVision Action = "VISION"
)

// Valid reports whether a is one of the known routing actions.
func (a Action) Valid() bool {
	switch a {
	case ActionDictation, ActionAgent, ActionVision:
		return true
	}
	return false
}

// Credential represents an API credential for a completion provider.
type Credential struct {
	Name    string `json:"name"`
	Type    string `json:"type"` // "openai", "openai-compatible", "claude", "gemini"
	BaseURL string `json:"base_url,omitempty"`
	APIKey  string `json:"api_key"`
	Active  bool   `json:"active"`
}

// DefaultMaxTokens is the default max tokens if not specified.
const DefaultMaxTokens = 1000

// DefaultTemperature is the default temperature if not specified.
const DefaultTemperature = 0.3

// Usage represents token usage statistics from LLM API calls.
type Usage struct {
	PromptTokens     int  `json:"promptTokens"`
	CompletionTokens int  `json:"completionTokens"`
	TotalTokens      int  `json:"totalTokens"`
	CacheHit         bool `json:"cacheHit"`
}
