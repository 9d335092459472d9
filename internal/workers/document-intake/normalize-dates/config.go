// internal/workers/document-intake/normalize-dates/config.go
package normalizedates

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
		Timeout: 5 * time.Second,
	}
}
