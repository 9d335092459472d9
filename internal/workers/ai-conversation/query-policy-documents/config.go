// internal/workers/ai-conversation/query-policy-documents/config.go
package querypolicydocuments

import (
	"time"

	"fep-agent/internal/common/camunda"
)

type Config struct {
	Timeout              time.Duration
	K                    int
	PoorMatchThreshold   float64
	InclusionThreshold   float64
	StrongMatchThreshold float64
	HistoryTurns         int

	// Validator checks job variables before they are decoded. Optional.
	Validator camunda.VariablesValidator
}

func LoadConfig() *Config {
	return &Config{
		Timeout:              45 * time.Second,
		K:                    10,
		PoorMatchThreshold:   0.45,
		InclusionThreshold:   0.5,
		StrongMatchThreshold: 0.3,
		HistoryTurns:         10,
	}
}
