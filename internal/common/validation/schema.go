package validation

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	apperrors "fep-agent/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (vr *ValidationResult) GetErrorMessages() []string {
	msgs := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return msgs
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, e := range vr.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Validator holds compiled JSON Schemas keyed by name (task type or
// payload name).
type Validator struct {
	mu      sync.RWMutex
	schemas map[string]*gojsonschema.Schema
}

func NewValidator() *Validator {
	return &Validator{schemas: make(map[string]*gojsonschema.Schema)}
}

// Register compiles schema, given as a Go value or raw JSON string.
func (v *Validator) Register(name string, schema interface{}) error {
	compiled, err := gojsonschema.NewSchema(loaderFor(schema))
	if err != nil {
		return fmt.Errorf("compile schema %s: %w", name, err)
	}
	v.mu.Lock()
	v.schemas[name] = compiled
	v.mu.Unlock()
	return nil
}

func (v *Validator) Names() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	names := make([]string, 0, len(v.schemas))
	for n := range v.schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks doc against the named schema. Unknown names validate.
func (v *Validator) Validate(name string, doc interface{}) (*ValidationResult, error) {
	v.mu.RLock()
	schema, ok := v.schemas[name]
	v.mu.RUnlock()
	if !ok {
		return &ValidationResult{Valid: true}, nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return toResult(result), nil
}

// ValidateInput adapts Validate to the job runner's contract.
func (v *Validator) ValidateInput(taskType string, variables map[string]interface{}) error {
	res, err := v.Validate(taskType, variables)
	if err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}
	if !res.Valid {
		return apperrors.NewInvalidInputError(strings.Join(res.GetErrorMessages(), "; "))
	}
	return nil
}

// ValidateDocument validates doc against a one-off schema.
func ValidateDocument(schema, doc interface{}) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(loaderFor(schema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return toResult(result), nil
}

func loaderFor(schema interface{}) gojsonschema.JSONLoader {
	switch s := schema.(type) {
	case string:
		return gojsonschema.NewStringLoader(s)
	case []byte:
		return gojsonschema.NewBytesLoader(s)
	default:
		return gojsonschema.NewGoLoader(s)
	}
}

func toResult(result *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    desc.Type(),
		})
	}
	return out
}
