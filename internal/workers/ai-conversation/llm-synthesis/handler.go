// internal/workers/ai-conversation/llm-synthesis/handler.go
package llmsynthesis

import (
	"context"
	"strings"

	"fep-agent/internal/answer"
	"fep-agent/internal/common/camunda"
	apperrors "fep-agent/internal/common/errors"
	"fep-agent/internal/common/genai"
	"fep-agent/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType   = "llm-synthesis"
	Source     = "direct_llm"
	Confidence = 0.8
)

const systemPrompt = `You are an assistant for the Department for Work and Pensions (DWP), specialising in Funeral Expenses Payment (FEP) policy.

1. Answer general knowledge questions accurately and concisely.
2. For Funeral Expenses Payment questions, say when you are giving general information rather than specific policy detail.
3. Keep a compassionate tone; the reader may have been bereaved.
4. Show your reasoning for calculations or specific figures.
5. Say that your knowledge may be out of date when asked about recent events.`

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config *Config
	llm    genai.Completer
	logger Logger
}

func NewHandler(config *Config, llm genai.Completer, log Logger) *Handler {
	return &Handler{
		config: config,
		llm:    llm,
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

func (h *Handler) Name() models.ToolName { return models.DirectLLMTool }

// Run satisfies answer.Tool.
func (h *Handler) Run(ctx context.Context, req answer.Request) (*answer.Answer, error) {
	out, err := h.Execute(ctx, &Input{Query: req.Query, History: req.History})
	if err != nil {
		return nil, err
	}
	return &answer.Answer{Response: out.Response, Source: out.Source, Confidence: out.Confidence}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, apperrors.NewInvalidInputError("query is required")
	}

	messages := answer.Conversation(systemPrompt, input.History, h.config.HistoryTurns, input.Query)
	reply, err := h.llm.Complete(ctx, genai.CompletionRequest{
		Messages:    messages,
		Temperature: h.config.Temperature,
		MaxTokens:   h.config.MaxTokens,
	})
	if err != nil {
		h.logger.Error("direct completion failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	h.logger.Info("direct answer generated", map[string]interface{}{
		"messages":       len(messages),
		"responseLength": len(reply),
	})
	return &Output{Response: reply, Source: Source, Confidence: Confidence}, nil
}
