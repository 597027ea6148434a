// Package router classifies finalized transcripts into actions.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ariavoice/aria/cache"
	"github.com/ariavoice/aria/internal/types"
	"github.com/ariavoice/aria/llm"
)

// Decision is the routing outcome for one transcript. It is
// short-lived and never persisted beyond the decision cache.
type Decision struct {
	Action types.Action
	Text   string
}

const classifyPrompt = `You are an intent router for a voice assistant. Decide how the user's utterance should be handled and respond with ONLY a JSON object, no prose:

{"action": "DICTATION" | "AGENT" | "VISION", "text": "..."}

DICTATION: the user is dictating text to be typed verbatim; put the cleaned-up dictation in "text".
AGENT: the user asks a question or gives an instruction; put the utterance in "text".
VISION: the user refers to what is currently on their screen; put the utterance in "text".

Utterance: %q`

// Router sends transcripts through a low-latency classification model.
// The classifier runs at zero temperature, so decisions are cached by
// model and transcript.
type Router struct {
	completer llm.Completer
	cache     *cache.Cache
	model     string
}

// New creates a router. The cache may be nil to disable caching.
func New(completer llm.Completer, c *cache.Cache, model string) *Router {
	return &Router{completer: completer, cache: c, model: model}
}

// Classify routes a transcript. It never fails: any classification
// error degrades to Decision{AGENT, transcript} so the pipeline always
// makes forward progress.
func (r *Router) Classify(ctx context.Context, transcript string) Decision {
	fallback := Decision{Action: types.ActionAgent, Text: transcript}

	if d, ok := r.cached(transcript); ok {
		return d
	}

	prompt := fmt.Sprintf(classifyPrompt, transcript)
	reply, _, err := r.completer.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		slog.Warn("intent classification failed", "error", err)
		return fallback
	}

	d, err := parseDecision(reply)
	if err != nil {
		slog.Warn("intent reply rejected", "error", err, "reply", truncate(reply, 120))
		return fallback
	}
	if d.Text == "" {
		d.Text = transcript
	}
	r.store(transcript, d)
	return d
}

// parseDecision decodes the strict two-field reply, tolerating a
// surrounding markdown code fence.
func parseDecision(reply string) (Decision, error) {
	raw := stripFences(reply)

	var body struct {
		Action string `json:"action"`
		Text   string `json:"text"`
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		return Decision{}, fmt.Errorf("decode reply: %w", err)
	}

	action := types.Action(strings.ToUpper(strings.TrimSpace(body.Action)))
	if !action.Valid() {
		return Decision{}, fmt.Errorf("unknown action %q", body.Action)
	}
	return Decision{Action: action, Text: body.Text}, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return ""
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func (r *Router) cached(transcript string) (Decision, bool) {
	if r.cache == nil {
		return Decision{}, false
	}
	entry, ok := r.cache.Get(r.key(transcript))
	if !ok {
		return Decision{}, false
	}
	action := types.Action(entry.Action)
	if !action.Valid() {
		return Decision{}, false
	}
	return Decision{Action: action, Text: entry.Text}, true
}

func (r *Router) store(transcript string, d Decision) {
	if r.cache == nil {
		return
	}
	err := r.cache.Set(r.key(transcript), &cache.Entry{
		Action: string(d.Action),
		Text:   d.Text,
	}, cache.DefaultTTL)
	if err != nil {
		slog.Debug("decision cache write failed", "error", err)
	}
}

func (r *Router) key(transcript string) string {
	return cache.GenerateKey("router", r.model, transcript)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
