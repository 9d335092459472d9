// internal/workers/document-intake/map-extracted-fields/config.go
package mapextractedfields

import (
	"time"

	"fep-agent/internal/common/camunda"
	"fep-agent/internal/intake/fieldmap"
)

type Config struct {
	Timeout             time.Duration
	AcceptanceThreshold float64

	// Validator checks job variables before they are decoded. Optional.
	Validator camunda.VariablesValidator
}

func LoadConfig() *Config {
	return &Config{
		Timeout:             5 * time.Second,
		AcceptanceThreshold: fieldmap.DefaultThreshold,
	}
}
