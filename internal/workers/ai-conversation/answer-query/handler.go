// internal/workers/ai-conversation/answer-query/handler.go
package answerquery

import (
	"context"
	"strings"
	"time"

	"fep-agent/internal/answer"
	"fep-agent/internal/audit"
	"fep-agent/internal/common/camunda"
	apperrors "fep-agent/internal/common/errors"
	"fep-agent/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "answer-query"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Workflow is the part of answer.Workflow the handler drives.
type Workflow interface {
	Run(ctx context.Context, req answer.Request) *answer.State
	RunTool(ctx context.Context, name models.ToolName, req answer.Request) (*answer.Answer, error)
}

// WebSearch reports whether explicit web search can be honoured.
type WebSearch interface {
	Configured() bool
}

type Handler struct {
	config   *Config
	workflow Workflow
	web      WebSearch
	audit    audit.Recorder
	logger   Logger
}

func NewHandler(config *Config, workflow Workflow, web WebSearch, recorder audit.Recorder, log Logger) *Handler {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Handler{
		config:   config,
		workflow: workflow,
		web:      web,
		audit:    recorder,
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

// Execute answers one question. Tool failures never surface as errors;
// only a missing question or an explicit web search without a key do.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	question := strings.TrimSpace(input.Question())
	if question == "" {
		return nil, apperrors.NewInvalidInputError("missing input text")
	}
	requestID := input.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	log := h.logger.With(map[string]interface{}{"requestId": requestID})
	req := answer.Request{Query: question, History: input.History}

	log.Info("question received", map[string]interface{}{
		"historyLength": len(input.History),
		"useWebSearch":  input.UseWebSearch,
	})

	if input.UseWebSearch {
		if h.web == nil || !h.web.Configured() {
			return nil, apperrors.NewWebSearchNotConfiguredError()
		}
		a, err := h.workflow.RunTool(ctx, models.WebSearchTool, req)
		if err == nil {
			out := h.respond(a.Response, a.Source, start)
			h.record(ctx, log, audit.ChatRecord{
				RequestID:    requestID,
				Query:        question,
				SelectedTool: string(models.WebSearchTool),
				Source:       a.Source,
				Confidence:   a.Confidence,
			}, start)
			return out, nil
		}
		log.Warn("explicit web search failed, continuing with routing", map[string]interface{}{
			"error": err.Error(),
		})
	}

	state := h.workflow.Run(ctx, req)
	if state.Source == models.DefaultFallbackSource {
		log.Warn("all tools failed, returning default response", nil)
	}
	out := h.respond(state.Response, state.Source, start)
	h.record(ctx, log, audit.ChatRecord{
		RequestID:    requestID,
		Query:        question,
		SelectedTool: string(state.SelectedTool),
		Source:       state.Source,
		Confidence:   state.Confidence,
		UsedFallback: len(state.Attempts) > 1 || state.Source == models.DefaultFallbackSource,
	}, start)

	log.Info("question answered", map[string]interface{}{
		"source":      state.Source,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return out, nil
}

func (h *Handler) respond(response, source string, start time.Time) *Output {
	return &Output{
		Success:        true,
		Response:       response,
		Source:         source,
		Sources:        answer.Sources(source),
		ProcessingTime: time.Since(start).Seconds(),
	}
}

// record is best effort; audit failures are only logged.
func (h *Handler) record(ctx context.Context, log Logger, rec audit.ChatRecord, start time.Time) {
	rec.Duration = time.Since(start)
	if err := h.audit.RecordChat(ctx, rec); err != nil {
		log.Warn("chat audit failed", map[string]interface{}{"error": err.Error()})
	}
}
