// internal/workers/ai-conversation/llm-synthesis/config.go
package llmsynthesis

import (
	"time"

	"fep-agent/internal/common/camunda"
)

type Config struct {
	Timeout      time.Duration
	Temperature  float64
	MaxTokens    int
	HistoryTurns int

	// Validator checks job variables before they are decoded. Optional.
	Validator camunda.VariablesValidator
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		Temperature:  0.3,
		HistoryTurns: 5,
	}
}
