// internal/workers/ai-conversation/select-answer-source/config.go
package selectanswersource

import (
	"time"

	"fep-agent/internal/common/camunda"
)

type Config struct {
	Model        string
	Timeout      time.Duration
	HistoryTurns int

	// Validator checks job variables before they are decoded. Optional.
	Validator camunda.VariablesValidator
}

func LoadConfig() *Config {
	return &Config{
		Model:        "gpt-3.5-turbo",
		Timeout:      15 * time.Second,
		HistoryTurns: 3,
	}
}
