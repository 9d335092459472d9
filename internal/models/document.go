package models

// DocumentType is a classifier verdict.
type DocumentType string

const (
	DeathCertificate DocumentType = "death_certificate"
	BirthCertificate DocumentType = "birth_certificate"
	FuneralInvoice   DocumentType = "funeral_invoice"
	BenefitLetter    DocumentType = "benefit_letter"
	UnknownDocument  DocumentType = "unknown"
)

// TextExtraction is the text-extraction service contract.
type TextExtraction struct {
	Success  bool               `json:"success"`
	Text     string             `json:"text"`
	Metadata ExtractionMetadata `json:"metadata"`
	Error    string             `json:"error,omitempty"`
}

type ExtractionMetadata struct {
	Filename   string  `json:"filename"`
	FileSize   int64   `json:"file_size"`
	FileType   string  `json:"file_type"`
	Confidence float64 `json:"confidence,omitempty"`
}
