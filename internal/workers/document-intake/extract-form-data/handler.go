// internal/workers/document-intake/extract-form-data/handler.go
package extractformdata

import (
	"context"
	"sync"
	"time"

	"fep-agent/internal/audit"
	"fep-agent/internal/common/camunda"
	appconfig "fep-agent/internal/common/config"
	"fep-agent/internal/common/genai"
	"fep-agent/internal/common/observability"
	"fep-agent/internal/common/textextract"
	"fep-agent/internal/intake/classifier"
	"fep-agent/internal/intake/datenorm"
	"fep-agent/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const TaskType = "extract-form-data"

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// StageRecorder receives per-stage latencies.
type StageRecorder interface {
	RecordStage(ctx context.Context, stage string, duration time.Duration)
}

// Dependencies are the collaborators of the extraction pipeline.
type Dependencies struct {
	Extractor  textextract.Extractor
	Classifier *classifier.Classifier
	Normalizer *datenorm.Normalizer
	LLM        genai.Completer
	Schema     *models.FormSchema
	Recorder   audit.Recorder
	Tracer     observability.Tracer
	Stages     StageRecorder
}

type Handler struct {
	config *Config
	deps   Dependencies
	prompt string
	logger Logger
}

func NewHandler(config *Config, deps Dependencies, log Logger) *Handler {
	if deps.Recorder == nil {
		deps.Recorder = audit.Nop{}
	}
	if deps.Classifier == nil {
		deps.Classifier = classifier.New(nil)
	}
	if deps.Extractor == nil {
		deps.Extractor = textextract.NewClient(appconfig.TextExtractionConfig{})
	}
	if deps.Normalizer == nil {
		deps.Normalizer = datenorm.New(nil)
	}
	return &Handler{
		config: config,
		deps:   deps,
		prompt: schemaSummary(config.PromptFields, deps.Schema),
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
	requestID := input.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	files := input.Files
	if len(files) == 0 {
		var err error
		if files, err = listEvidence(h.config.EvidenceDir); err != nil {
			return nil, err
		}
	}

	// Resolve everything up front so a missing file fails the request
	// before any OCR or LLM call is made.
	resolved := make([]string, len(files))
	for i, name := range files {
		actual, err := resolve(h.config.EvidenceDir, name)
		if err != nil {
			h.logger.Warn("evidence file not found", map[string]interface{}{
				"requestId": requestID,
				"file":      name,
			})
			return nil, err
		}
		resolved[i] = actual
	}

	results := make(map[string]*FileResult, len(files))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency())
	for i := range files {
		requested, actual := files[i], resolved[i]
		g.Go(func() error {
			res, err := h.processFile(gctx, requestID, requested, actual, input.ContextData)
			if err != nil {
				return err
			}
			mu.Lock()
			results[requested] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Output{Success: true, Files: results}
	if len(results) == 1 {
		for _, res := range results {
			out.ExtractedData = res.ExtractedData
			out.DocumentType = res.DocumentType
			out.RawText = res.RawText
		}
	}

	h.logger.Info("form data extracted", map[string]interface{}{
		"requestId": requestID,
		"files":     len(results),
	})
	return out, nil
}

func (h *Handler) concurrency() int {
	if h.config.Concurrency > 0 {
		return h.config.Concurrency
	}
	return 1
}
