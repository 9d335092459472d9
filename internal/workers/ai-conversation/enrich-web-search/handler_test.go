// internal/workers/ai-conversation/enrich-web-search/handler_test.go
package enrichwebsearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

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
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{})  { l.t.Logf("INFO: %s %v", msg, fields) }
func (l *TestLogger) Warn(msg string, fields map[string]interface{})  { l.t.Logf("WARN: %s %v", msg, fields) }
func (l *TestLogger) Error(msg string, fields map[string]interface{}) { l.t.Logf("ERROR: %s %v", msg, fields) }
func (l *TestLogger) With(fields map[string]interface{}) Logger       { return l }

// ==========================
// Test Helper Functions
// ==========================

type fakeCompleter struct {
	reply string
	err   error
	last  genai.CompletionRequest
	calls int
}

func (f *fakeCompleter) Complete(ctx context.Context, req genai.CompletionRequest) (string, error) {
	f.calls++
	f.last = req
	return f.reply, f.err
}

func newTavilyServer(t *testing.T, results string, captured *map[string]interface{}) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":` + results + `}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func createTestConfig() *Config {
	cfg := LoadConfig()
	cfg.Timeout = 2 * time.Second
	return cfg
}

func codeOf(t *testing.T, err error) apperrors.ErrorCode {
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok, "expected StandardError, got %v", err)
	return stdErr.Code
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	var captured map[string]interface{}
	srv := newTavilyServer(t, `[
		{"url":"https://www.gov.uk/funeral-payments","title":"Funeral Expenses Payment","content":"You could get a Funeral Expenses Payment if you get certain benefits.","score":0.93},
		{"title":"News","snippet":"Payment rates rose in April."},
		{"text":"Orphan result"}
	]`, &captured)
	llm := &fakeCompleter{reply: "According to a web search, the payment helps with funeral costs."}
	search := NewTavilyClient(srv.URL, "tvly-test", time.Second)
	h := NewHandler(createTestConfig(), search, llm, &TestLogger{t})

	out, err := h.Execute(context.Background(), &Input{Query: "current FEP rates"})

	require.NoError(t, err)
	assert.Equal(t, "web", out.Source)
	assert.Equal(t, 0.7, out.Confidence)
	assert.Equal(t, []Result{
		{Source: "https://www.gov.uk/funeral-payments", Title: "Funeral Expenses Payment", Content: "You could get a Funeral Expenses Payment if you get certain benefits."},
		{Source: "News", Title: "News", Content: "Payment rates rose in April."},
		{Source: "Unknown Source", Content: "Orphan result"},
	}, out.WebSources)

	assert.Equal(t, "tvly-test", captured["api_key"])
	assert.Equal(t, "current FEP rates", captured["query"])
	assert.Equal(t, float64(3), captured["max_results"])

	system := llm.last.Messages[0].Content
	assert.Contains(t, system, "Source: https://www.gov.uk/funeral-payments\nTitle: Funeral Expenses Payment\nYou could get")
	assert.Contains(t, system, "- Funeral Expenses Payment\n- News")
	assert.InDelta(t, 0.2, llm.last.Temperature, 1e-9)
	assert.Equal(t, models.ChatMessage{Role: models.RoleUser, Content: "current FEP rates"}, llm.last.Messages[len(llm.last.Messages)-1])
}

func TestHandler_Execute_NotConfigured(t *testing.T) {
	llm := &fakeCompleter{reply: "x"}
	h := NewHandler(createTestConfig(), NewTavilyClient("http://unused", "", time.Second), llm, &TestLogger{t})

	_, err := h.Execute(context.Background(), &Input{Query: "news"})

	assert.Equal(t, apperrors.ErrCodeWebSearchNotConfigured, codeOf(t, err))
	assert.False(t, h.Configured())
	assert.Zero(t, llm.calls)

	h = NewHandler(createTestConfig(), nil, llm, &TestLogger{t})
	_, err = h.Execute(context.Background(), &Input{Query: "news"})
	assert.Equal(t, apperrors.ErrCodeWebSearchNotConfigured, codeOf(t, err))
}

func TestHandler_Execute_NoResults(t *testing.T) {
	srv := newTavilyServer(t, `[]`, nil)
	llm := &fakeCompleter{reply: "x"}
	h := NewHandler(createTestConfig(), NewTavilyClient(srv.URL, "key", time.Second), llm, &TestLogger{t})

	_, err := h.Execute(context.Background(), &Input{Query: "news"})

	assert.Equal(t, apperrors.ErrCodeWebSearchFailed, codeOf(t, err))
	assert.ErrorIs(t, err, ErrNoResults)
	assert.Zero(t, llm.calls)
}

func TestHandler_Execute_SearchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	h := NewHandler(createTestConfig(), NewTavilyClient(srv.URL, "bad", time.Second), &fakeCompleter{}, &TestLogger{t})

	_, err := h.Execute(context.Background(), &Input{Query: "news"})

	assert.Equal(t, apperrors.ErrCodeWebSearchFailed, codeOf(t, err))
}

// ==========================
// Helpers
// ==========================

func TestTitles(t *testing.T) {
	assert.Equal(t, "No specific titles found.", titles([]Result{{Source: "x"}}))
}
