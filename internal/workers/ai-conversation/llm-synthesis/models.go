// internal/workers/ai-conversation/llm-synthesis/models.go
package llmsynthesis

import "fep-agent/internal/models"

type Input struct {
	Query   string               `json:"query"`
	History []models.ChatMessage `json:"history"`
}

type Output struct {
	Response   string  `json:"response"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
}
