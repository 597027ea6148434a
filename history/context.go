package history

import "github.com/ariavoice/aria/llm"

// BuildMessages assembles the message set for one completion: system
// prompt, an optional selection block, the retained history, then the
// in-construction user turn (with an optional image). The user turn is
// built last and is never subject to eviction.
func BuildMessages(systemPrompt string, retained []Message, userText, selection, imageB64 string) []llm.Message {
	out := make([]llm.Message, 0, len(retained)+3)
	out = append(out, llm.Message{Role: RoleSystem, Content: systemPrompt})
	if selection != "" {
		out = append(out, llm.Message{
			Role:    RoleSystem,
			Content: "The user has selected the following content:\n\n" + selection,
		})
	}
	for _, m := range retained {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	turn := llm.Message{Role: RoleUser, Content: userText}
	if imageB64 != "" {
		turn.Image = imageB64
	}
	return append(out, turn)
}
