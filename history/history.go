// Package history maintains the bounded conversation context and the
// answer log shown in presentation surfaces.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultTokenBudget bounds the estimated token cost of retained turns.
	DefaultTokenBudget = 32000
	// DefaultAnswerLimit bounds the answer log.
	DefaultAnswerLimit = 15
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Origin tags where a user turn came from.
type Origin string

const (
	// OriginVoice marks a plain spoken turn.
	OriginVoice Origin = "voice"
	// OriginScreen marks a turn that carried screen context.
	OriginScreen Origin = "screen"
)

// Message is one retained conversation turn.
type Message struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`
	Origin  Origin `json:"origin,omitempty"`
}

// Answer is one answer log entry, newest first.
type Answer struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// EstimateTokens approximates the token cost of a string. It is a
// character-count proxy, intentionally cheap and provider-independent.
func EstimateTokens(s string) int {
	return len(s) / 4
}

// Store holds the conversation history and the answer log. All methods
// are safe for concurrent use, though in practice mutations arrive from
// the single UI loop goroutine.
type Store struct {
	mu       sync.Mutex
	budget   int
	limit    int
	messages []Message
	answers  []Answer
	now      func() time.Time
}

// NewStore creates a store with the given token budget and answer
// limit; zero values select the defaults.
func NewStore(budget, answerLimit int) *Store {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}
	if answerLimit <= 0 {
		answerLimit = DefaultAnswerLimit
	}
	return &Store{budget: budget, limit: answerLimit, now: time.Now}
}

// Append adds a turn and evicts the oldest turns until the total
// estimated cost fits the budget again. The newest turn always stays,
// even when it alone exceeds the budget.
func (s *Store) Append(role, content string) {
	s.AppendTagged(role, content, "")
}

// AppendTagged is Append with an origin tag on the stored turn.
func (s *Store) AppendTagged(role, content string, origin Origin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{
		ID:      uuid.NewString(),
		Role:    role,
		Content: content,
		Origin:  origin,
	})
	s.trimLocked()
}

func (s *Store) trimLocked() {
	total := 0
	for _, m := range s.messages {
		total += EstimateTokens(m.Content)
	}
	for total > s.budget && len(s.messages) > 1 {
		total -= EstimateTokens(s.messages[0].Content)
		s.messages = s.messages[1:]
	}
}

// Messages returns a copy of the retained turns, oldest first.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Tokens returns the estimated cost of the retained turns.
func (s *Store) Tokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, m := range s.messages {
		total += EstimateTokens(m.Content)
	}
	return total
}

// AddAnswer prepends an answer log entry, dropping the oldest past the
// limit.
func (s *Store) AddAnswer(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := Answer{Text: text, Timestamp: s.now().Format("15:04")}
	s.answers = append([]Answer{entry}, s.answers...)
	if len(s.answers) > s.limit {
		s.answers = s.answers[:s.limit]
	}
}

// Answers returns a copy of the answer log, newest first.
func (s *Store) Answers() []Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Answer, len(s.answers))
	copy(out, s.answers)
	return out
}

// Clear resets the conversation and the answer log.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.answers = nil
}
