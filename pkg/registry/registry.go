// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	apperrors "fep-agent/internal/common/errors"
	"fep-agent/internal/common/validation"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Save writes the registry as indented JSON, creating the directory if
// needed, and stamps LastUpdated.
func (r *ActivityRegistry) Save(path string) error {
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write registry %s: %w", path, err)
	}
	return nil
}

// Add appends a, rejecting a duplicate ID or task type.
func (r *ActivityRegistry) Add(a Activity) error {
	for _, existing := range r.Activities {
		if existing.ID == a.ID {
			return fmt.Errorf("activity with ID %s already exists", a.ID)
		}
		if existing.TaskType == a.TaskType {
			return fmt.Errorf("task type %s is already registered by %s", a.TaskType, existing.ID)
		}
	}
	r.Activities = append(r.Activities, a)
	return nil
}

// Set updates one scalar field of the activity with id.
func (r *ActivityRegistry) Set(id, field, value string) error {
	var a *Activity
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			a = &r.Activities[i]
			break
		}
	}
	if a == nil {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	switch field {
	case "status":
		if !validStatuses[value] {
			return fmt.Errorf("unknown implementationStatus %q", value)
		}
		a.ImplementationStatus = value
	case "version":
		a.Version = value
	case "displayName":
		a.DisplayName = value
	case "description":
		a.Description = value
	case "category":
		a.Category = value
	case "httpRoute":
		a.HTTPRoute = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout %q: %w", value, err)
		}
		a.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		a.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}
	return nil
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// TimeoutDuration parses Timeout, falling back to def when unset or invalid.
func (a *Activity) TimeoutDuration(def time.Duration) time.Duration {
	if d, err := time.ParseDuration(a.Timeout); err == nil && d > 0 {
		return d
	}
	return def
}

// Check reports every structural problem in the registry: missing fields,
// duplicate IDs or task types, unknown statuses and error codes, input
// schemas that do not compile, and implemented task types the registry
// does not describe.
func (r *ActivityRegistry) Check(implemented []string) []error {
	var problems []error
	ids := make(map[string]bool)
	types := make(map[string]bool)

	for i, a := range r.Activities {
		where := fmt.Sprintf("activity[%d] %q", i, a.ID)
		if a.ID == "" || a.TaskType == "" || a.DisplayName == "" {
			problems = append(problems, fmt.Errorf("%s: id, taskType and displayName are required", where))
		}
		if ids[a.ID] {
			problems = append(problems, fmt.Errorf("%s: duplicate id", where))
		}
		ids[a.ID] = true
		if types[a.TaskType] {
			problems = append(problems, fmt.Errorf("%s: duplicate taskType %q", where, a.TaskType))
		}
		types[a.TaskType] = true

		if !validStatuses[a.ImplementationStatus] {
			problems = append(problems, fmt.Errorf("%s: unknown implementationStatus %q", where, a.ImplementationStatus))
		}
		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				problems = append(problems, fmt.Errorf("%s: invalid timeout %q", where, a.Timeout))
			}
		}
		for _, code := range a.ErrorCodes {
			if !apperrors.IsKnownCode(apperrors.ErrorCode(code)) {
				problems = append(problems, fmt.Errorf("%s: unknown error code %q", where, code))
			}
		}
		if len(a.InputSchema) > 0 {
			if err := validation.NewValidator().Register(a.TaskType, a.InputSchema); err != nil {
				problems = append(problems, fmt.Errorf("%s: %w", where, err))
			}
		}
	}

	for _, t := range implemented {
		if !types[t] {
			problems = append(problems, fmt.Errorf("task type %q is implemented but not registered", t))
		}
	}
	return problems
}

// Validator compiles every input schema into a validator keyed by task
// type, for use by the job runner and the HTTP layer.
func (r *ActivityRegistry) Validator() (*validation.Validator, error) {
	v := validation.NewValidator()
	for _, a := range r.Activities {
		if len(a.InputSchema) == 0 {
			continue
		}
		if err := v.Register(a.TaskType, a.InputSchema); err != nil {
			return nil, err
		}
	}
	return v, nil
}
