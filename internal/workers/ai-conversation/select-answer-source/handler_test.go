// internal/workers/ai-conversation/select-answer-source/handler_test.go
package selectanswersource

import (
	"context"
	"errors"
	"testing"
	"time"

	"fep-agent/internal/answer"
	apperrors "fep-agent/internal/common/errors"
	"fep-agent/internal/common/genai"
	"fep-agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t, fields: map[string]interface{}{}}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{})  { l.t.Logf("INFO: %s %v %v", msg, l.fields, fields) }
func (l *TestLogger) Warn(msg string, fields map[string]interface{})  { l.t.Logf("WARN: %s %v %v", msg, l.fields, fields) }
func (l *TestLogger) Error(msg string, fields map[string]interface{}) { l.t.Logf("ERROR: %s %v %v", msg, l.fields, fields) }

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &TestLogger{t: l.t, fields: merged}
}

// ==========================
// Test Helper Functions
// ==========================

type fakeCompleter struct {
	reply string
	err   error
	last  genai.CompletionRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req genai.CompletionRequest) (string, error) {
	f.last = req
	return f.reply, f.err
}

func createTestConfig() *Config {
	return &Config{Model: "router-model", Timeout: time.Second, HistoryTurns: 3}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Replies(t *testing.T) {
	tests := []struct {
		reply     string
		want      models.ToolName
		defaulted bool
	}{
		{"rag", models.RagTool, false},
		{"  RAG\n", models.RagTool, false},
		{"direct_llm", models.DirectLLMTool, false},
		{"web_search", models.WebSearchTool, false},
		{"Web_Search", models.WebSearchTool, false},
		{"I think rag", models.DirectLLMTool, true},
		{"", models.DirectLLMTool, true},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			llm := &fakeCompleter{reply: tt.reply}
			h := NewHandler(createTestConfig(), llm, NewTestLogger(t))

			out, err := h.Execute(context.Background(), &Input{Query: "How much is the FEP?"})

			require.NoError(t, err)
			assert.Equal(t, tt.want, out.SelectedTool)
			assert.Equal(t, tt.defaulted, out.Defaulted)
		})
	}
}

func TestHandler_Execute_LLMErrorDefaultsToDirect(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("connection refused")}
	h := NewHandler(createTestConfig(), llm, NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Query: "What is 2+2?"})

	require.NoError(t, err)
	assert.Equal(t, models.DirectLLMTool, out.SelectedTool)
	assert.True(t, out.Defaulted)
}

func TestHandler_Execute_RequestShape(t *testing.T) {
	llm := &fakeCompleter{reply: "rag"}
	h := NewHandler(createTestConfig(), llm, NewTestLogger(t))
	history := []models.ChatMessage{
		{Role: models.RoleUser, Content: "first"},
		{Role: models.RoleAssistant, Content: "second"},
		{Role: models.RoleUser, Content: "third"},
		{Role: models.RoleAssistant, Content: "fourth"},
	}

	_, err := h.Execute(context.Background(), &Input{Query: "Can my brother claim?", History: history})
	require.NoError(t, err)

	assert.Equal(t, "router-model", llm.last.Model)
	assert.Zero(t, llm.last.Temperature)
	require.Len(t, llm.last.Messages, 1)
	prompt := llm.last.Messages[0].Content
	assert.Equal(t, models.RoleSystem, llm.last.Messages[0].Role)
	assert.Contains(t, prompt, "Query: Can my brother claim?")
	assert.Contains(t, prompt, "assistant: second\nuser: third\nassistant: fourth\n")
	assert.NotContains(t, prompt, "user: first")
}

func TestHandler_Execute_EmptyQuery(t *testing.T) {
	h := NewHandler(createTestConfig(), &fakeCompleter{reply: "rag"}, NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{Query: "   "})

	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, stdErr.Code)
}

func TestHandler_Route(t *testing.T) {
	var router answer.Router = NewHandler(createTestConfig(), &fakeCompleter{reply: "web_search"}, NewTestLogger(t))
	assert.Equal(t, models.WebSearchTool, router.Route(context.Background(), answer.Request{Query: "latest FEP statistics"}))

	router = NewHandler(createTestConfig(), &fakeCompleter{reply: "rag"}, NewTestLogger(t))
	assert.Equal(t, models.DirectLLMTool, router.Route(context.Background(), answer.Request{}))
}

// ==========================
// Helpers
// ==========================

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "", FormatHistory(nil, 3))
	assert.Equal(t, "user: hi\n", FormatHistory([]models.ChatMessage{{Role: "user", Content: "hi"}}, 3))
}
