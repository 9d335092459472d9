// internal/workers/document-intake/normalize-dates/models.go
package normalizedates

import "fep-agent/internal/models"

// Input carries either an extracted-data object, a list of loose date
// strings, or both.
type Input struct {
	ExtractedData models.ExtractedData `json:"extractedData,omitempty"`
	Dates         []string             `json:"dates,omitempty"`
}

type Output struct {
	NormalizedData  models.ExtractedData `json:"normalizedData,omitempty"`
	NormalizedDates []DateResult         `json:"normalizedDates,omitempty"`
	Changed         int                  `json:"changed"`
}

type DateResult struct {
	Original   string `json:"original"`
	Normalized string `json:"normalized"`
	Changed    bool   `json:"changed"`
}
