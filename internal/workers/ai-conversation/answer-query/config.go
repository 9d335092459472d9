// internal/workers/ai-conversation/answer-query/config.go
package answerquery

import (
	"time"

	"fep-agent/internal/common/camunda"
)

type Config struct {
	Timeout time.Duration

	// Validator checks job variables before they are decoded. Optional.
	Validator camunda.VariablesValidator
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 90 * time.Second,
	}
}
