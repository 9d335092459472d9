// internal/workers/document-intake/classify-document/models.go
package classifydocument

import "fep-agent/internal/models"

type Input struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

type Output struct {
	DocumentType models.DocumentType         `json:"documentType"`
	DisplayName  string                      `json:"displayName"`
	Score        int                         `json:"score"`
	Scores       map[models.DocumentType]int `json:"scores"`
	ByFilename   bool                        `json:"byFilename"`
}
