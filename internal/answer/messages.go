package answer

import "fep-agent/internal/models"

// Conversation builds a completion request: the system prompt, the last n
// history turns, and the query unless the history already ends with a
// user turn.
func Conversation(system string, history []models.ChatMessage, n int, query string) []models.ChatMessage {
	if n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}
	msgs := make([]models.ChatMessage, 0, len(history)+2)
	msgs = append(msgs, models.ChatMessage{Role: models.RoleSystem, Content: system})
	msgs = append(msgs, history...)
	if msgs[len(msgs)-1].Role != models.RoleUser {
		msgs = append(msgs, models.ChatMessage{Role: models.RoleUser, Content: query})
	}
	return msgs
}
