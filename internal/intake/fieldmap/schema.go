package fieldmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	apperrors "fep-agent/internal/common/errors"
	"fep-agent/internal/common/validation"
	"fep-agent/internal/models"
)

// DefaultSchema returns the built-in application form used when no schema
// file is configured.
func DefaultSchema() *models.FormSchema {
	return &models.FormSchema{Sections: []models.FormSection{
		{
			ID:      "evidence-documentation",
			Title:   "Evidence and documentation",
			Context: []string{"evidence", "documentation", "upload", "documents"},
			Fields: []models.FormField{
				{Name: "evidence", Label: "Documents you can provide", Type: models.FieldCheckbox, Context: []string{"document types", "evidence types"}},
			},
		},
		{
			ID:      "about-deceased",
			Title:   "About the person who died",
			Context: []string{"deceased", "dead person", "death", "person who died"},
			Fields: []models.FormField{
				{Name: "deceasedFirstName", Label: "First name", Type: models.FieldText, Context: []string{"deceased first name", "dead person's first name", "given name"}},
				{Name: "deceasedLastName", Label: "Last name", Type: models.FieldText, Context: []string{"deceased last name", "dead person's surname", "family name"}},
				{Name: "deceasedDateOfBirth", Label: "Date of birth", Type: models.FieldDate, Context: []string{"deceased birth date", "dead person's birthday", "dob", "born on"}},
				{Name: "deceasedDateOfDeath", Label: "Date of death", Type: models.FieldDate, Context: []string{"deceased death date", "date of passing", "died on", "dod"}},
				{Name: "relationshipToDeceased", Label: "Relationship to deceased", Type: models.FieldRadio, Context: []string{"relationship", "relation", "connection", "family"}},
			},
		},
		{
			ID:      "funeral-details",
			Title:   "Funeral details",
			Context: []string{"funeral", "service", "ceremony", "burial", "cremation"},
			Fields: []models.FormField{
				{Name: "funeralDirector", Label: "Funeral director", Type: models.FieldText, Context: []string{"funeral company", "funeral home", "undertaker"}},
				{Name: "funeralCost", Label: "Funeral cost", Type: models.FieldNumber, Context: []string{"cost", "price", "expense", "bill", "invoice amount", "total cost"}},
				{Name: "funeralDate", Label: "Funeral date", Type: models.FieldDate, Context: []string{"service date", "ceremony date", "when funeral occurred"}},
			},
		},
	}}
}

// schemaContract is the JSON Schema a form schema file must satisfy.
var schemaContract = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"sections"},
	"properties": map[string]interface{}{
		"sections": map[string]interface{}{
			"type":     "array",
			"minItems": 1,
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"id", "fields"},
				"properties": map[string]interface{}{
					"id":      map[string]interface{}{"type": "string", "minLength": 1},
					"title":   map[string]interface{}{"type": "string"},
					"semantic_context": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
					"fields": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type":     "object",
							"required": []interface{}{"name", "type"},
							"properties": map[string]interface{}{
								"name":    map[string]interface{}{"type": "string", "minLength": 1},
								"label":   map[string]interface{}{"type": "string"},
								"type":    map[string]interface{}{"enum": []interface{}{"text", "date", "number", "radio", "checkbox", "textarea", "select"}},
								"semantic_context": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
							},
						},
					},
				},
			},
		},
	},
}

// LoadSchema reads a form schema file. An empty path or a missing file
// yields the built-in default; a present but invalid file is an error.
func LoadSchema(path string) (*models.FormSchema, error) {
	if path == "" {
		return DefaultSchema(), nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultSchema(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read form schema: %w", err)
	}
	return ParseSchema(raw)
}

func ParseSchema(raw []byte) (*models.FormSchema, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperrors.NewSchemaInvalidError(err.Error())
	}
	res, err := validation.ValidateDocument(schemaContract, doc)
	if err != nil {
		return nil, apperrors.NewSchemaInvalidError(err.Error())
	}
	if !res.Valid {
		return nil, apperrors.NewSchemaInvalidError(fmt.Sprintf("%v", res.GetErrorMessages()))
	}

	var schema models.FormSchema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, apperrors.NewSchemaInvalidError(err.Error())
	}
	if err := checkUniqueNames(&schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

func checkUniqueNames(schema *models.FormSchema) error {
	seen := make(map[string]string)
	for _, s := range schema.Sections {
		for _, f := range s.Fields {
			if prev, dup := seen[f.Name]; dup {
				return apperrors.NewSchemaInvalidError(
					fmt.Sprintf("field %q declared in both %q and %q", f.Name, prev, s.ID))
			}
			seen[f.Name] = s.ID
		}
	}
	return nil
}

// FieldNames lists every field name in declaration order.
func FieldNames(schema *models.FormSchema) []string {
	var names []string
	for _, s := range schema.Sections {
		for _, f := range s.Fields {
			names = append(names, f.Name)
		}
	}
	return names
}
