package models

// FieldType is the input control a form field renders as.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldDate     FieldType = "date"
	FieldNumber   FieldType = "number"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
)

type FormField struct {
	Name    string    `json:"name"`
	Label   string    `json:"label"`
	Type    FieldType `json:"type"`
	Context []string  `json:"semantic_context"`
}

type FormSection struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Context []string    `json:"semantic_context"`
	Fields  []FormField `json:"fields"`
}

// FormSchema is the application form the mapper targets. Field names are
// unique across all sections.
type FormSchema struct {
	Sections []FormSection `json:"sections"`
}
