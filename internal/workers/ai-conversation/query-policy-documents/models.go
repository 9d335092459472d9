// internal/workers/ai-conversation/query-policy-documents/models.go
package querypolicydocuments

import "fep-agent/internal/models"

type Input struct {
	Query   string               `json:"query"`
	History []models.ChatMessage `json:"history"`
}

type Output struct {
	Response     string   `json:"response"`
	Source       string   `json:"source"`
	Confidence   float64  `json:"confidence"`
	Documents    []string `json:"documents"`
	BestDistance float64  `json:"bestDistance"`
}
