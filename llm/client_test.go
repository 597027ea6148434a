package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAICompleterComplete(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		io.WriteString(w, `{"choices":[{"message":{"content":"hello"}}],"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`)
	}))
	defer srv.Close()

	c := NewCompleter("openai-compatible", "test-key", srv.URL, "test-model", Options{MaxTokens: 100})
	reply, usage, err := c.Complete(context.Background(), []Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "hello" {
		t.Errorf("reply = %q", reply)
	}
	if usage.TotalTokens != 4 {
		t.Errorf("usage = %+v", usage)
	}

	var req struct {
		Model       string `json:"model"`
		Temperature *float64
		Messages    []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(gotBody, &req); err != nil {
		t.Fatalf("unmarshal request: %v", err)
	}
	if req.Model != "test-model" {
		t.Errorf("model = %q", req.Model)
	}
	if req.Temperature == nil {
		t.Error("temperature missing; zero must be sent explicitly")
	}
	if len(req.Messages) != 2 || string(req.Messages[1].Content) != `"hi"` {
		t.Errorf("messages = %+v", req.Messages)
	}
}

func TestOpenAIMultimodalMessage(t *testing.T) {
	msgs := toOpenAIMessages([]Message{
		{Role: "user", Content: "what is on screen", Image: "AAAA"},
	})
	if len(msgs) != 1 {
		t.Fatalf("messages = %d", len(msgs))
	}
	parts, ok := msgs[0].Content.([]openaiPart)
	if !ok {
		t.Fatalf("content type %T, want part list", msgs[0].Content)
	}
	if len(parts) != 2 || parts[0].Type != "text" || parts[1].Type != "image_url" {
		t.Fatalf("parts = %+v", parts)
	}
	if !strings.HasPrefix(parts[1].ImageURL.URL, "data:image/png;base64,") {
		t.Errorf("image url = %q", parts[1].ImageURL.URL)
	}
}

func TestOpenAICompleterAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewCompleter("openai-compatible", "k", srv.URL, "m", Options{})
	if _, _, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
