// internal/workers/ai-conversation/llm-synthesis/handler_test.go
package llmsynthesis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fep-agent/internal/answer"
	"fep-agent/internal/common/config"
	apperrors "fep-agent/internal/common/errors"
	"fep-agent/internal/common/genai"
	"fep-agent/internal/common/logger"
	"fep-agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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
// Test Helper Functions
// ==========================

type capturedRequest struct {
	Model       string               `json:"model"`
	Messages    []models.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature"`
}

func newLLMServer(t *testing.T, status int, reply string, captured *capturedRequest) *genai.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"role": "assistant", "content": reply}}},
		})
	}))
	t.Cleanup(srv.Close)

	return genai.NewClient(config.GenAIConfig{
		BaseURL:   srv.URL,
		APIKey:    "test-key",
		ChatModel: "gpt-4o-mini",
		Timeout:   2000,
	}, logger.NewTestLogger(t))
}

func createTestConfig() *Config {
	cfg := LoadConfig()
	cfg.Timeout = 2 * time.Second
	return cfg
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	var captured capturedRequest
	llm := newLLMServer(t, http.StatusOK, "  A bereavement is the loss of someone close.  ", &captured)
	h := NewHandler(createTestConfig(), llm, &TestLogger{t})

	out, err := h.Execute(context.Background(), &Input{Query: "What is a bereavement?"})

	require.NoError(t, err)
	assert.Equal(t, "A bereavement is the loss of someone close.", out.Response)
	assert.Equal(t, "direct_llm", out.Source)
	assert.Equal(t, 0.8, out.Confidence)

	assert.Equal(t, "gpt-4o-mini", captured.Model)
	assert.InDelta(t, 0.3, captured.Temperature, 1e-9)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, models.RoleSystem, captured.Messages[0].Role)
	assert.Equal(t, "What is a bereavement?", captured.Messages[1].Content)
}

func TestHandler_Execute_KeepsLastFiveTurns(t *testing.T) {
	var captured capturedRequest
	h := NewHandler(createTestConfig(), newLLMServer(t, http.StatusOK, "ok", &captured), &TestLogger{t})
	history := []models.ChatMessage{
		{Role: "user", Content: "1"}, {Role: "assistant", Content: "2"},
		{Role: "user", Content: "3"}, {Role: "assistant", Content: "4"},
		{Role: "user", Content: "5"}, {Role: "assistant", Content: "6"},
		{Role: "user", Content: "7"},
	}

	_, err := h.Execute(context.Background(), &Input{Query: "7", History: history})
	require.NoError(t, err)

	// system + 5 turns, the last of which is already the user query
	require.Len(t, captured.Messages, 6)
	assert.Equal(t, "3", captured.Messages[1].Content)
	assert.Equal(t, "7", captured.Messages[5].Content)
}

func TestHandler_Execute_UpstreamFailure(t *testing.T) {
	h := NewHandler(createTestConfig(), newLLMServer(t, http.StatusBadRequest, "", nil), &TestLogger{t})

	_, err := h.Execute(context.Background(), &Input{Query: "hello"})

	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeLLMUnavailable, stdErr.Code)
}

func TestHandler_Execute_NotConfigured(t *testing.T) {
	llm := genai.NewClient(config.GenAIConfig{}, logger.NewNoOpLogger())
	h := NewHandler(createTestConfig(), llm, &TestLogger{t})

	_, err := h.Run(context.Background(), answer.Request{Query: "hello"})

	require.Error(t, err)
}

func TestHandler_Execute_EmptyQuery(t *testing.T) {
	h := NewHandler(createTestConfig(), newLLMServer(t, http.StatusOK, "ok", nil), &TestLogger{t})

	_, err := h.Execute(context.Background(), &Input{})

	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, stdErr.Code)
}
