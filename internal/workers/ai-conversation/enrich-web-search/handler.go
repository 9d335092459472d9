// internal/workers/ai-conversation/enrich-web-search/handler.go
package enrichwebsearch

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
	TaskType   = "enrich-web-search"
	Source     = "web"
	Confidence = 0.7
)

var (
	ErrNoResults = errors.New("NO_WEB_RESULTS")
)

const systemPrompt = `You are an assistant for the Department for Work and Pensions (DWP), specialising in Funeral Expenses Payment (FEP) policy.
Answer the user's question from these web search results:

%s

Titles/Headlines found:
%s

1. Assume questions are about FEP or DWP unless clearly stated otherwise.
2. Use bullet points for lists.
3. If the results are related but not exact, summarise what IS available.
4. Only say there is no information if the results are completely irrelevant.
5. Focus on official DWP information and eligibility criteria.
6. Be conversational and compassionate; the reader has probably been bereaved.
7. Keep the answer concise.
8. Say clearly that the information comes from a web search.`

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config *Config
	search Searcher
	llm    genai.Completer
	logger Logger
}

func NewHandler(config *Config, search Searcher, llm genai.Completer, log Logger) *Handler {
	return &Handler{
		config: config,
		search: search,
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

func (h *Handler) Name() models.ToolName { return models.WebSearchTool }

// Configured reports whether a search credential is set.
func (h *Handler) Configured() bool {
	return h.search != nil && h.search.Configured()
}

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
	if !h.Configured() {
		h.logger.Warn("web search requested without an api key", nil)
		return nil, apperrors.NewWebSearchNotConfiguredError()
	}

	results, err := h.search.Search(ctx, input.Query, h.config.MaxResults)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		h.logger.Info("web search returned no results", map[string]interface{}{"query": input.Query})
		return nil, apperrors.NewWebSearchFailedError(ErrNoResults)
	}

	prompt := fmt.Sprintf(systemPrompt, BuildContext(results), titles(results))
	reply, err := h.llm.Complete(ctx, genai.CompletionRequest{
		Messages:    answer.Conversation(prompt, input.History, h.config.HistoryTurns, input.Query),
		Temperature: h.config.Temperature,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("web answer generated", map[string]interface{}{
		"results": len(results),
	})
	return &Output{Response: reply, Source: Source, Confidence: Confidence, WebSources: results}, nil
}

// BuildContext renders results as "Source/Title/content" blocks.
func BuildContext(results []Result) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = "Source: " + r.Source + "\nTitle: " + r.Title + "\n" + r.Content
	}
	return strings.Join(parts, "\n\n")
}

func titles(results []Result) string {
	var lines []string
	for _, r := range results {
		if r.Title != "" {
			lines = append(lines, "- "+r.Title)
		}
	}
	if len(lines) == 0 {
		return "No specific titles found."
	}
	return strings.Join(lines, "\n")
}
