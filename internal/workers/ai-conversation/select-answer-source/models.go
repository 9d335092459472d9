// internal/workers/ai-conversation/select-answer-source/models.go
package selectanswersource

import "fep-agent/internal/models"

type Input struct {
	Query   string               `json:"query"`
	History []models.ChatMessage `json:"history"`
}

type Output struct {
	SelectedTool models.ToolName `json:"selectedTool"`
	RouterReply  string          `json:"routerReply"`
	Defaulted    bool            `json:"defaulted"`
}
