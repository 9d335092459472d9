// internal/workers/document-intake/map-extracted-fields/models.go
package mapextractedfields

import (
	"fep-agent/internal/intake/fieldmap"
	"fep-agent/internal/models"
)

type Input struct {
	ExtractedData models.ExtractedData `json:"extractedData"`
	DocumentType  string               `json:"documentType,omitempty"`
	ContextData   models.ContextData   `json:"contextData"`
}

type Output struct {
	Success        bool                 `json:"success"`
	MappedData     models.ExtractedData `json:"mappedData"`
	UnmappedFields []string             `json:"unmappedFields"`
	Decisions      []fieldmap.Decision  `json:"decisions,omitempty"`
}
