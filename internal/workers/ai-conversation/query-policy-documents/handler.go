// internal/workers/ai-conversation/query-policy-documents/handler.go
package querypolicydocuments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fep-agent/internal/answer"
	"fep-agent/internal/common/camunda"
	apperrors "fep-agent/internal/common/errors"
	"fep-agent/internal/common/genai"
	"fep-agent/internal/common/vectorindex"
	"fep-agent/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "query-policy-documents"
	Source   = "rag"
)

var (
	ErrPolicyQueryFailed = errors.New("POLICY_QUERY_FAILED")
)

var fepKeywords = []string{"funeral", "expenses", "payment", "fep"}

const fepQuerySuffix = " funeral expenses payment policy dwp eligibility"

const systemPrompt = `You are an assistant for the DWP (Department for Work and Pensions) specialising in Funeral Expenses Payment policy.
Answer ONLY from the following policy document extracts:

%s

Rules:
1. Base the answer exclusively on the extracts above.
2. If the answer is not in the extracts, say: "I don't have specific information on that in my policy documents."
3. Do not use general knowledge about funeral payments or DWP policies.
4. Cite the parts of the extracts you rely on.
5. Be concise and direct.
6. Keep a compassionate tone; the reader has probably been bereaved.`

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config *Config
	index  vectorindex.Searcher
	llm    genai.Completer
	logger Logger
}

func NewHandler(config *Config, index vectorindex.Searcher, llm genai.Completer, log Logger) *Handler {
	return &Handler{
		config: config,
		index:  index,
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

func (h *Handler) Name() models.ToolName { return models.RagTool }

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
	if h.index == nil {
		return nil, apperrors.NewVectorIndexUnavailableError(fmt.Errorf("%w: no vector index", ErrPolicyQueryFailed))
	}

	searchQuery := SearchQuery(input.Query, input.History)
	hits, err := h.index.SimilaritySearchWithScore(ctx, searchQuery, h.config.K)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		h.logger.Info("no policy chunks returned", map[string]interface{}{"query": searchQuery})
		return nil, apperrors.NewNoRelevantDocumentsError(-1)
	}

	best := hits[0].Distance
	for _, hit := range hits[1:] {
		best = min(best, hit.Distance)
	}
	if best > h.config.PoorMatchThreshold {
		h.logger.Info("best policy match too weak", map[string]interface{}{
			"bestDistance": best,
			"threshold":    h.config.PoorMatchThreshold,
		})
		return nil, apperrors.NewNoRelevantDocumentsError(best)
	}

	selected := h.selectChunks(hits)
	prompt := fmt.Sprintf(systemPrompt, BuildContext(selected))
	reply, err := h.llm.Complete(ctx, genai.CompletionRequest{
		Messages:    answer.Conversation(prompt, input.History, h.config.HistoryTurns, input.Query),
		Temperature: 0,
	})
	if err != nil {
		return nil, err
	}

	confidence := 0.75
	if best < h.config.StrongMatchThreshold {
		confidence = 0.9
	}
	h.logger.Info("policy answer generated", map[string]interface{}{
		"chunks":       len(selected),
		"bestDistance": best,
		"confidence":   confidence,
	})
	return &Output{
		Response:     reply,
		Source:       Source,
		Confidence:   confidence,
		Documents:    documentNames(selected),
		BestDistance: best,
	}, nil
}

// selectChunks keeps the chunks under the inclusion threshold, or the
// single best chunk when none qualify.
func (h *Handler) selectChunks(hits []vectorindex.ScoredChunk) []vectorindex.ScoredChunk {
	var out []vectorindex.ScoredChunk
	for _, hit := range hits {
		if hit.Distance < h.config.InclusionThreshold {
			out = append(out, hit)
		}
	}
	if len(out) > 0 {
		return out
	}
	top := hits[0]
	for _, hit := range hits[1:] {
		if hit.Distance < top.Distance {
			top = hit
		}
	}
	return []vectorindex.ScoredChunk{top}
}

// SearchQuery biases retrieval towards FEP policy and folds in up to three
// of the most recent user turns, newest first.
func SearchQuery(query string, history []models.ChatMessage) string {
	out := query
	lower := strings.ToLower(query)
	for _, kw := range fepKeywords {
		if strings.Contains(lower, kw) {
			out += fepQuerySuffix
			break
		}
	}

	var recent []string
	for i := len(history) - 1; i >= 0 && len(recent) < 3; i-- {
		if history[i].Role == models.RoleUser {
			recent = append(recent, history[i].Content)
		}
	}
	if len(recent) > 0 {
		out += " " + strings.Join(recent, " ")
	}
	return out
}

// BuildContext renders chunks as "Document: <name>" blocks separated by
// blank lines.
func BuildContext(chunks []vectorindex.ScoredChunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		name := c.Chunk.SourceDoc
		if name == "" {
			name = "Unknown"
		}
		parts[i] = "Document: " + name + "\n" + c.Chunk.Text
	}
	return strings.Join(parts, "\n\n")
}

func documentNames(chunks []vectorindex.ScoredChunk) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range chunks {
		if !seen[c.Chunk.SourceDoc] {
			seen[c.Chunk.SourceDoc] = true
			out = append(out, c.Chunk.SourceDoc)
		}
	}
	return out
}
