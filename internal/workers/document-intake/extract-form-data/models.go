// internal/workers/document-intake/extract-form-data/models.go
package extractformdata

import "fep-agent/internal/models"

// Input names evidence files inside the evidence directory. An empty list
// processes every file in it.
type Input struct {
	Files       []string           `json:"files"`
	ContextData models.ContextData `json:"contextData"`
	RequestID   string             `json:"requestId,omitempty"`
}

// FileResult is the outcome for one requested file.
type FileResult struct {
	ResolvedName   string               `json:"resolvedName"`
	DocumentType   models.DocumentType  `json:"documentType,omitempty"`
	ExtractedData  models.ExtractedData `json:"extractedData"`
	UnmappedFields []string             `json:"unmappedFields,omitempty"`
	RawText        string               `json:"rawText"`
	Status         string               `json:"status"`
}

// Output maps each requested file name to its result. When exactly one
// file was processed its data is repeated at the top level.
type Output struct {
	Success       bool                   `json:"success"`
	Files         map[string]*FileResult `json:"files"`
	ExtractedData models.ExtractedData   `json:"extractedData,omitempty"`
	DocumentType  models.DocumentType    `json:"documentType,omitempty"`
	RawText       string                 `json:"rawText,omitempty"`
}
