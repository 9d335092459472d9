// internal/workers/ai-conversation/select-answer-source/handler.go
package selectanswersource

import (
	"context"
	"errors"
	"fmt"
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
	TaskType = "select-answer-source"
)

var (
	ErrRoutingFailed = errors.New("ROUTING_FAILED")
)

const routerPrompt = `You route questions for an assistant that helps people claim the UK Funeral Expenses Payment (FEP) from the Department for Work and Pensions (DWP).

Query: %s

Recent conversation history:
%s
Choose ONE source:
- rag: DWP or FEP policy, procedures, eligibility, benefits, forms, applications, requirements or any detail of the funeral expenses payment scheme.
- direct_llm: general knowledge, maths, simple definitions or topics unrelated to FEP/DWP.
- web_search: current information, news, statistics or external data unlikely to be in policy documents.

Reply with exactly one of: rag, direct_llm, web_search.`

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
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

// Execute never fails on a bad router reply; it falls back to the direct
// LLM tool and reports Defaulted.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, apperrors.NewInvalidInputError("query is required")
	}

	reply, err := h.classify(ctx, input)
	if err != nil {
		h.logger.Warn("router call failed, defaulting to direct llm", map[string]interface{}{
			"error": err.Error(),
		})
		return &Output{SelectedTool: models.DirectLLMTool, Defaulted: true}, nil
	}

	tool, ok := ParseReply(reply)
	if !ok {
		h.logger.Warn("unexpected router reply, defaulting to direct llm", map[string]interface{}{
			"reply": reply,
		})
	}
	h.logger.Info("answer source selected", map[string]interface{}{
		"tool":  string(tool),
		"reply": reply,
	})
	return &Output{SelectedTool: tool, RouterReply: reply, Defaulted: !ok}, nil
}

// Route satisfies answer.Router.
func (h *Handler) Route(ctx context.Context, req answer.Request) models.ToolName {
	out, err := h.Execute(ctx, &Input{Query: req.Query, History: req.History})
	if err != nil {
		return models.DirectLLMTool
	}
	return out.SelectedTool
}

func (h *Handler) classify(ctx context.Context, input *Input) (string, error) {
	prompt := fmt.Sprintf(routerPrompt, input.Query, FormatHistory(input.History, h.config.HistoryTurns))
	reply, err := h.llm.Complete(ctx, genai.CompletionRequest{
		Model:       h.config.Model,
		Messages:    []models.ChatMessage{{Role: models.RoleSystem, Content: prompt}},
		Temperature: 0,
		MaxTokens:   10,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRoutingFailed, err)
	}
	return reply, nil
}

// ParseReply maps the router's one-word answer onto a tool name.
func ParseReply(reply string) (models.ToolName, bool) {
	switch strings.ToLower(strings.TrimSpace(reply)) {
	case "rag":
		return models.RagTool, true
	case "direct_llm":
		return models.DirectLLMTool, true
	case "web_search":
		return models.WebSearchTool, true
	}
	return models.DirectLLMTool, false
}

// FormatHistory renders the last n turns as "role: content" lines.
func FormatHistory(history []models.ChatMessage, n int) string {
	if n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}
	var b strings.Builder
	for _, m := range history {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
