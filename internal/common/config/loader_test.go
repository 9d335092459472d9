package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalYAML = `
app:
  name: fep-agent
  environment: test
database:
  elasticsearch:
    addresses: ["http://localhost:9200"]
apis:
  genai:
    api_key: ${TEST_GENAI_KEY}
workers:
  answer-query:
    enabled: true
`

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	t.Setenv("TEST_GENAI_KEY", "sk-test")
	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.APIs.GenAI.APIKey)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, 10, cfg.RAG.K)
	assert.InDelta(t, 0.45, cfg.RAG.PoorMatchThreshold, 1e-9)
	assert.InDelta(t, 0.5, cfg.RAG.InclusionThreshold, 1e-9)
	assert.InDelta(t, 0.3, cfg.RAG.StrongMatchThreshold, 1e-9)
	assert.InDelta(t, 0.5, cfg.Intake.AcceptanceThreshold, 1e-9)
	assert.Equal(t, 2, cfg.Intake.ClassifierMinScore)
	assert.Equal(t, 3, cfg.APIs.WebSearch.MaxResults)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Database.Elasticsearch.GetAddresses())

	w := cfg.Workers["answer-query"]
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
	assert.Equal(t, 3, w.MaxRetries)
}

func TestLoadFromFile_EnvironmentFallbacks(t *testing.T) {
	t.Setenv("TEST_GENAI_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("TAVILY_API_KEY", "tvly-env")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.APIs.GenAI.APIKey)
	assert.Equal(t, "tvly-env", cfg.APIs.WebSearch.APIKey)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing elasticsearch",
			yaml:    "app:\n  name: x\n",
			wantErr: "database.elasticsearch.addresses or url is required",
		},
		{
			name: "camunda enabled without broker",
			yaml: `
camunda:
  enabled: true
database:
  elasticsearch:
    url: http://es:9200
`,
			wantErr: "camunda.broker_address is required",
		},
		{
			name: "postgres enabled without host",
			yaml: `
database:
  postgres:
    enabled: true
  elasticsearch:
    url: http://es:9200
`,
			wantErr: "database.postgres.host is required",
		},
		{
			name: "inverted rag thresholds",
			yaml: `
database:
  elasticsearch:
    url: http://es:9200
rag:
  strong_match_threshold: 0.6
  poor_match_threshold: 0.4
`,
			wantErr: "rag.strong_match_threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestWorkerHelpers(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"classify-document": {Enabled: false, MaxJobsActive: 2, Timeout: 1000, MaxRetries: 1},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "classify-document"))
	assert.True(t, IsWorkerEnabled(cfg, "normalize-dates"))
	assert.Equal(t, 2, GetWorkerConfig(cfg, "classify-document").MaxJobsActive)
	assert.Equal(t, 5, GetWorkerConfig(cfg, "normalize-dates").MaxJobsActive)
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "fep", Password: "pw", Database: "fep", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=fep password=pw dbname=fep sslmode=disable", p.GetDSN())
}
