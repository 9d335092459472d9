// pkg/registry/scaffold.go
package registry

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"
)

// ScaffoldData feeds the worker templates.
type ScaffoldData struct {
	Activity
	PackageName  string
	Dir          string
	TimeoutMS    int64
	InputFields  []ScaffoldField
	OutputFields []ScaffoldField
}

type ScaffoldField struct {
	Name    string
	GoType  string
	JSONTag string
	Comment string
}

// CategoryDir maps a registry category to its directory under internal/workers.
func CategoryDir(category string) string {
	switch category {
	case "ai-ml", "ai-conversation":
		return "ai-conversation"
	case "document-intake", "intake":
		return "document-intake"
	default:
		return strings.ToLower(category)
	}
}

func goType(prop map[string]interface{}) string {
	switch prop["type"] {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		if items, ok := prop["items"].(map[string]interface{}); ok {
			if t := goType(items); t != "interface{}" {
				return "[]" + t
			}
		}
		return "[]interface{}"
	default:
		return "interface{}"
	}
}

func exportName(prop string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(prop, func(r rune) bool { return r == '_' || r == '-' }) {
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}

func schemaFields(schema map[string]interface{}) []ScaffoldField {
	props, _ := schema["properties"].(map[string]interface{})
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]ScaffoldField, 0, len(names))
	for _, name := range names {
		prop, ok := props[name].(map[string]interface{})
		if !ok {
			continue
		}
		desc, _ := prop["description"].(string)
		fields = append(fields, ScaffoldField{
			Name:    exportName(name),
			GoType:  goType(prop),
			JSONTag: fmt.Sprintf("`json:\"%s\"`", name),
			Comment: desc,
		})
	}
	return fields
}

// Scaffold renders a worker package for the activity with id into
// root/<category>/<id> and returns the written file paths. Existing files
// are never overwritten.
func (r *ActivityRegistry) Scaffold(id, root string) ([]string, error) {
	var act *Activity
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			act = &r.Activities[i]
		}
	}
	if act == nil {
		return nil, fmt.Errorf("activity %q not found in registry", id)
	}
	data := ScaffoldData{
		Activity:     *act,
		PackageName:  strings.ReplaceAll(act.ID, "-", ""),
		Dir:          CategoryDir(act.Category),
		TimeoutMS:    act.TimeoutDuration(10 * time.Second).Milliseconds(),
		InputFields:  schemaFields(act.InputSchema),
		OutputFields: schemaFields(act.OutputSchema),
	}
	if len(data.InputFields) == 0 {
		return nil, fmt.Errorf("activity %q has no input properties to scaffold", id)
	}

	dir := filepath.Join(root, data.Dir, act.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create worker dir: %w", err)
	}

	names := make([]string, 0, len(scaffoldTemplates))
	for name := range scaffoldTemplates {
		names = append(names, name)
	}
	sort.Strings(names)

	var written []string
	for _, name := range names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return written, fmt.Errorf("%s already exists", path)
		}
		tmpl, err := template.New(name).Parse(scaffoldTemplates[name])
		if err != nil {
			return written, fmt.Errorf("parse template %s: %w", name, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return written, fmt.Errorf("render %s: %w", name, err)
		}
		src, err := format.Source(buf.Bytes())
		if err != nil {
			return written, fmt.Errorf("format %s: %w", name, err)
		}
		if err := os.WriteFile(path, src, 0o644); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

var scaffoldTemplates = map[string]string{
	"config.go":       configTemplate,
	"models.go":       modelsTemplate,
	"handler.go":      handlerTemplate,
	"handler_test.go": testTemplate,
}

const configTemplate = `// internal/workers/{{.Dir}}/{{.ID}}/config.go
package {{.PackageName}}

import (
	"time"

	"fep-agent/internal/common/camunda"
)

type Config struct {
	Timeout time.Duration

	// Validator checks job variables before they are decoded. Optional.
	Validator camunda.VariablesValidator
}

func LoadConfig() *Config {
	return &Config{
		Timeout: {{.TimeoutMS}} * time.Millisecond,
	}
}
`

const modelsTemplate = `// internal/workers/{{.Dir}}/{{.ID}}/models.go
package {{.PackageName}}

type Input struct {
{{- range .InputFields}}
	{{.Name}} {{.GoType}} {{.JSONTag}}{{if .Comment}} // {{.Comment}}{{end}}
{{- end}}
}

type Output struct {
{{- range .OutputFields}}
	{{.Name}} {{.GoType}} {{.JSONTag}}{{if .Comment}} // {{.Comment}}{{end}}
{{- end}}
}
`

const handlerTemplate = `// internal/workers/{{.Dir}}/{{.ID}}/handler.go
package {{.PackageName}}

import (
	"context"

	"fep-agent/internal/common/camunda"
	apperrors "fep-agent/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "{{.TaskType}}"

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

{{if .Description}}// Handler: {{.Description}}
{{end -}}
type Handler struct {
	config *Config
	logger Logger
}

func NewHandler(config *Config, log Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	_ = camunda.RunJob(client, job, camunda.JobOptions{
		TaskType:  TaskType,
		Timeout:   h.config.Timeout,
		Logger:    h.logger,
		Validator: h.config.Validator,
	}, h.Execute)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return nil, apperrors.NewInvalidInputError("{{.TaskType}} is not implemented yet")
}
`

const testTemplate = `// internal/workers/{{.Dir}}/{{.ID}}/handler_test.go
package {{.PackageName}}

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{})  { l.t.Logf("INFO: %s %v", msg, fields) }
func (l *TestLogger) Error(msg string, fields map[string]interface{}) { l.t.Logf("ERROR: %s %v", msg, fields) }
func (l *TestLogger) With(fields map[string]interface{}) Logger       { return l }

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(LoadConfig(), &TestLogger{t})
	_, err := h.Execute(context.Background(), &Input{})
	assert.Error(t, err)
}
`
