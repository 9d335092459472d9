// internal/workers/ai-conversation/enrich-web-search/config.go
package enrichwebsearch

import (
	"time"

	"fep-agent/internal/common/camunda"
)

type Config struct {
	SearchAPIBaseURL string
	SearchAPIKey     string
	Timeout          time.Duration
	MaxResults       int
	Temperature      float64
	HistoryTurns     int

	// Validator checks job variables before they are decoded. Optional.
	Validator camunda.VariablesValidator
}

func LoadConfig() *Config {
	return &Config{
		SearchAPIBaseURL: "https://api.tavily.com",
		Timeout:          30 * time.Second,
		MaxResults:       3,
		Temperature:      0.2,
		HistoryTurns:     5,
	}
}
