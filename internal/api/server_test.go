// internal/api/server_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fep-agent/internal/answer"
	"fep-agent/internal/intake/classifier"
	"fep-agent/internal/intake/datenorm"
	"fep-agent/internal/intake/fieldmap"
	"fep-agent/internal/models"
	answerquery "fep-agent/internal/workers/ai-conversation/answer-query"
	classifydocument "fep-agent/internal/workers/document-intake/classify-document"
	extractformdata "fep-agent/internal/workers/document-intake/extract-form-data"
	mapextractedfields "fep-agent/internal/workers/document-intake/map-extracted-fields"
	normalizedates "fep-agent/internal/workers/document-intake/normalize-dates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t *testing.T
}

func (l TestLogger) Debug(msg string, fields map[string]interface{}) { l.t.Logf("DEBUG: %s %v", msg, fields) }
func (l TestLogger) Info(msg string, fields map[string]interface{})  { l.t.Logf("INFO: %s %v", msg, fields) }
func (l TestLogger) Warn(msg string, fields map[string]interface{})  { l.t.Logf("WARN: %s %v", msg, fields) }
func (l TestLogger) Error(msg string, fields map[string]interface{}) { l.t.Logf("ERROR: %s %v", msg, fields) }

type chatLog struct{ TestLogger }

func (l chatLog) With(map[string]interface{}) answerquery.Logger { return l }

type extractLog struct{ TestLogger }

func (l extractLog) With(map[string]interface{}) extractformdata.Logger { return l }

type mapLog struct{ TestLogger }

func (l mapLog) With(map[string]interface{}) mapextractedfields.Logger { return l }

type classifyLog struct{ TestLogger }

func (l classifyLog) With(map[string]interface{}) classifydocument.Logger { return l }

type datesLog struct{ TestLogger }

func (l datesLog) With(map[string]interface{}) normalizedates.Logger { return l }

// ==========================
// Test Helper Functions
// ==========================

type stubTool struct {
	name   models.ToolName
	answer string
	source string
	err    error
}

func (s stubTool) Name() models.ToolName { return s.name }

func (s stubTool) Run(context.Context, answer.Request) (*answer.Answer, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &answer.Answer{Response: s.answer, Source: s.source, Confidence: 0.9}, nil
}

type fixedRouter models.ToolName

func (r fixedRouter) Route(context.Context, answer.Request) models.ToolName { return models.ToolName(r) }

type webConfig bool

func (w webConfig) Configured() bool { return bool(w) }

func newTestServer(t *testing.T, ready map[string]ReadyCheck) *httptest.Server {
	log := TestLogger{t}
	workflow := answer.NewWorkflow(fixedRouter(models.RagTool), []answer.Tool{
		stubTool{name: models.RagTool, answer: "You may be eligible.", source: "rag"},
		stubTool{name: models.DirectLLMTool, err: errors.New("down")},
		stubTool{name: models.WebSearchTool, err: errors.New("down")},
	}, log)

	mapper := fieldmap.NewMapper(fieldmap.DefaultSchema())
	cls := classifier.New(mapper)
	norm := datenorm.New(log)

	extractCfg := extractformdata.LoadConfig()
	extractCfg.EvidenceDir = t.TempDir()

	svc := Services{
		Chat:     answerquery.NewHandler(answerquery.LoadConfig(), workflow, webConfig(false), nil, chatLog{log}),
		Extract:  extractformdata.NewHandler(extractCfg, extractformdata.Dependencies{Classifier: cls, Normalizer: norm}, extractLog{log}),
		Map:      mapextractedfields.NewHandler(mapextractedfields.LoadConfig(), mapper, mapLog{log}),
		Classify: classifydocument.NewHandler(classifydocument.LoadConfig(), cls, classifyLog{log}),
		Dates:    normalizedates.NewHandler(normalizedates.LoadConfig(), norm, datesLog{log}),
	}
	srv := httptest.NewServer(NewRouter(svc, Options{ServiceName: "fep-agent", Ready: ready}, log))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) (int, map[string]interface{}) {
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	return resp.StatusCode, out
}

// ==========================
// Chat
// ==========================

func TestChat(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := post(t, srv, "/ai-agent/chat", `{"text": "Am I eligible for FEP?", "history": []}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "You may be eligible.", body["response"])
	assert.Equal(t, "rag", body["source"])
	assert.Equal(t, []interface{}{"FEP Policy Documents"}, body["sources"])
	assert.Contains(t, body, "processing_time")
}

func TestChat_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"missing question", `{"history": []}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"empty body", ``, http.StatusBadRequest, "INVALID_INPUT"},
		{"malformed json", `{"text": `, http.StatusBadRequest, "INVALID_INPUT"},
		{"web search not configured", `{"query": "latest rates", "use_web_search": true}`, http.StatusServiceUnavailable, "WEB_SEARCH_NOT_CONFIGURED"},
	}
	srv := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := post(t, srv, "/ai-agent/chat", tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

// ==========================
// Intake
// ==========================

func TestIntelligentMap(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := post(t, srv, "/api/intelligent-map", `{
		"extractedData": {
			"Total Cost": {"value": "£3,450.00", "reasoning": "footer"},
			"Colour": {"value": "blue", "reasoning": "ink"}
		},
		"documentType": "funeral_invoice"
	}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	mapped := body["mappedData"].(map[string]interface{})
	assert.Contains(t, mapped, "funeralCost")
	assert.Equal(t, []interface{}{"Colour"}, body["unmappedFields"])

	status, body = post(t, srv, "/api/intelligent-map", `{"documentType": "funeral_invoice"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_INPUT", body["code"])
}

func TestClassifyDocument(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := post(t, srv, "/api/classify-document", `{"text": "DEATH CERTIFICATE\nDate of Death: Seventeenth June 2025", "filename": "death_cert.pdf"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "death_certificate", body["documentType"])
	assert.Equal(t, "Death Certificate", body["displayName"])
}

func TestNormalizeDates(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := post(t, srv, "/api/normalize-dates", `{"dates": ["Seventeenth June 2025"]}`)
	require.Equal(t, http.StatusOK, status)
	results := body["normalizedDates"].([]interface{})
	require.Len(t, results, 1)
	assert.Equal(t, "17/06/2025", results[0].(map[string]interface{})["normalized"])
}

func TestExtractFormData_MissingFile(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := post(t, srv, "/ai-agent/extract-form-data", `{"files": ["nope.pdf"]}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "FILE_NOT_FOUND", body["code"])
}

func TestExtractFormData_NoLLMConfigured(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "death.txt"), []byte("death certificate"), 0o600))

	cfg := extractformdata.LoadConfig()
	cfg.EvidenceDir = dir
	h := extractformdata.NewHandler(cfg, extractformdata.Dependencies{Extractor: plainText{}}, extractLog{TestLogger{t}})
	srv := httptest.NewServer(NewRouter(Services{Extract: h}, Options{}, TestLogger{t}))
	defer srv.Close()

	status, body := post(t, srv, "/ai-agent/extract-form-data", `{"files": ["death.txt"]}`)
	require.Equal(t, http.StatusOK, status)
	data := body["extractedData"].(map[string]interface{})
	assert.Contains(t, data, "_error")
	assert.Contains(t, body["files"], "death.txt")
}

type plainText struct{}

func (plainText) Extract(_ context.Context, path string) (*models.TextExtraction, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &models.TextExtraction{Success: true, Text: string(raw)}, nil
}

// ==========================
// Health and Metrics
// ==========================

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, map[string]ReadyCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	for _, path := range []string{"/health", "/ai-agent/health"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	resp, err := http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "not_ready", body.Status)
	assert.Equal(t, "ok", body.Checks["postgres"])
	assert.Equal(t, "connection refused", body.Checks["redis"])
}

func TestMetricsCountsRoutes(t *testing.T) {
	srv := newTestServer(t, nil)
	post(t, srv, "/api/classify-document", `{"filename": "funeral_invoice.pdf"}`)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(raw), `http_requests_total{route="/api/classify-document",status="200"}`))
	assert.True(t, strings.Contains(string(raw), "intake_documents_classified_total"))
}
