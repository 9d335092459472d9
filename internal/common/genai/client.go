// internal/common/genai/client.go
package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fep-agent/internal/common/config"
	apperrors "fep-agent/internal/common/errors"
	apphttp "fep-agent/internal/common/http"
	"fep-agent/internal/models"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("genai api key not configured")

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// CompletionRequest is one chat completion call. An empty Model uses the
// client's chat model.
type CompletionRequest struct {
	Model       string
	Messages    []models.ChatMessage
	Temperature float64
	MaxTokens   int
	JSONMode    bool
}

// Completer is the LLM completion capability consumed by the tools and the
// extraction pipeline.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Client talks to an OpenAI-compatible chat/completions and embeddings API.
type Client struct {
	http           *apphttp.Client
	baseURL        string
	apiKey         string
	chatModel      string
	routerModel    string
	embeddingModel string
	cache          EmbeddingCache
	group          singleflight.Group
	log            Logger
}

type Option func(*Client)

func WithEmbeddingCache(cache EmbeddingCache) Option {
	return func(c *Client) { c.cache = cache }
}

func WithHTTPClient(h *apphttp.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(cfg config.GenAIConfig, log Logger, opts ...Option) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		http:           apphttp.NewClient(timeout, cfg.MaxRetries),
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		chatModel:      cfg.ChatModel,
		routerModel:    cfg.RouterModel,
		embeddingModel: cfg.EmbeddingModel,
		log:            log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Configured() bool { return c.apiKey != "" }

func (c *Client) ChatModel() string { return c.chatModel }

func (c *Client) RouterModel() string { return c.routerModel }

func (c *Client) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.apiKey}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if !c.Configured() {
		return "", apperrors.NewLLMUnavailableError(ErrNotConfigured)
	}
	model := req.Model
	if model == "" {
		model = c.chatModel
	}

	body := map[string]interface{}{
		"model":       model,
		"messages":    req.Messages,
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if req.JSONMode {
		body["response_format"] = map[string]string{"type": "json_object"}
	}

	rid := uuid.New().String()
	start := time.Now()
	var resp chatResponse
	if err := c.http.DoJSON(ctx, "POST", c.baseURL+"/chat/completions", c.headers(), body, &resp); err != nil {
		c.warn("completion failed", map[string]interface{}{
			"reqId": rid, "model": model, "error": err.Error(),
			"elapsed_ms": time.Since(start).Milliseconds(),
		})
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.NewLLMUnavailableError(fmt.Errorf("no choices in completion response"))
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.debug("completion ok", map[string]interface{}{
		"reqId": rid, "model": model, "chars": len(content),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return content, nil
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns one vector per text. Cached vectors are reused and
// concurrent requests for the same batch share one upstream call.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if !c.Configured() {
		return nil, apperrors.NewLLMUnavailableError(ErrNotConfigured)
	}
	out := make([][]float32, len(texts))
	var missing []int
	for i, t := range texts {
		if c.cache != nil {
			if v, ok := c.cache.Get(ctx, c.embeddingModel, t); ok {
				out[i] = v
				continue
			}
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	batch := make([]string, len(missing))
	for j, i := range missing {
		batch[j] = texts[i]
	}
	vectors, err := c.embedBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	for j, i := range missing {
		out[i] = vectors[j]
		if c.cache != nil {
			c.cache.Set(ctx, c.embeddingModel, texts[i], vectors[j])
		}
	}
	return out, nil
}

func (c *Client) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	key := c.embeddingModel + "\x00" + strings.Join(batch, "\x00")
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		var resp embeddingResponse
		body := map[string]interface{}{"model": c.embeddingModel, "input": batch}
		if err := c.http.DoJSON(ctx, "POST", c.baseURL+"/embeddings", c.headers(), body, &resp); err != nil {
			return nil, classify(err)
		}
		if len(resp.Data) != len(batch) {
			return nil, apperrors.NewLLMUnavailableError(
				fmt.Errorf("embedding count mismatch: got %d want %d", len(resp.Data), len(batch)))
		}
		vectors := make([][]float32, len(batch))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(batch) {
				return nil, apperrors.NewLLMUnavailableError(fmt.Errorf("embedding index %d out of range", d.Index))
			}
			vectors[d.Index] = d.Embedding
		}
		return vectors, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([][]float32), nil
}

func classify(err error) error {
	if apphttp.IsTimeout(err) {
		return apperrors.NewLLMTimeoutError()
	}
	return apperrors.NewLLMUnavailableError(err)
}

func (c *Client) warn(msg string, fields map[string]interface{}) {
	if c.log != nil {
		c.log.Warn(msg, fields)
	}
}

func (c *Client) debug(msg string, fields map[string]interface{}) {
	if c.log != nil {
		c.log.Debug(msg, fields)
	}
}
