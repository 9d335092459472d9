// cmd/fep-agent/wire.go
package main

import (
	"context"
	"fmt"
	"time"

	"fep-agent/internal/answer"
	"fep-agent/internal/api"
	"fep-agent/internal/audit"
	"fep-agent/internal/common/camunda"
	"fep-agent/internal/common/config"
	"fep-agent/internal/common/database"
	apperrors "fep-agent/internal/common/errors"
	"fep-agent/internal/common/genai"
	"fep-agent/internal/common/logger"
	"fep-agent/internal/common/observability"
	"fep-agent/internal/common/textextract"
	"fep-agent/internal/common/vectorindex"
	"fep-agent/internal/intake/classifier"
	"fep-agent/internal/intake/datenorm"
	"fep-agent/internal/intake/fieldmap"
	"fep-agent/pkg/registry"

	answerquery "fep-agent/internal/workers/ai-conversation/answer-query"
	enrichwebsearch "fep-agent/internal/workers/ai-conversation/enrich-web-search"
	llmsynthesis "fep-agent/internal/workers/ai-conversation/llm-synthesis"
	querypolicydocuments "fep-agent/internal/workers/ai-conversation/query-policy-documents"
	selectanswersource "fep-agent/internal/workers/ai-conversation/select-answer-source"
	classifydocument "fep-agent/internal/workers/document-intake/classify-document"
	extractformdata "fep-agent/internal/workers/document-intake/extract-form-data"
	mapextractedfields "fep-agent/internal/workers/document-intake/map-extracted-fields"
	normalizedates "fep-agent/internal/workers/document-intake/normalize-dates"
)

// taskTypes lists every task the service runs, over Zeebe and HTTP.
var taskTypes = []string{
	answerquery.TaskType,
	selectanswersource.TaskType,
	querypolicydocuments.TaskType,
	llmsynthesis.TaskType,
	enrichwebsearch.TaskType,
	extractformdata.TaskType,
	mapextractedfields.TaskType,
	classifydocument.TaskType,
	normalizedates.TaskType,
}

// backends holds the optional infrastructure clients. Nil fields are
// disabled in config.
type backends struct {
	pg    *database.PostgresClient
	redis *database.RedisClient
	es    *database.ElasticsearchClient
}

func (b *backends) recorder() audit.Recorder {
	if b.pg == nil {
		return audit.Nop{}
	}
	return audit.NewPostgresRecorder(b.pg.DB)
}

func (b *backends) readyChecks() map[string]api.ReadyCheck {
	checks := map[string]api.ReadyCheck{}
	if b.es != nil {
		checks["elasticsearch"] = b.es.Ping
	}
	if b.pg != nil {
		checks["postgres"] = b.pg.Ping
	}
	if b.redis != nil {
		checks["redis"] = b.redis.Ping
	}
	return checks
}

func (b *backends) Close() {
	if b.pg != nil {
		_ = b.pg.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}

// handlers are the task handlers shared by the Zeebe workers and the API.
type handlers struct {
	chat     *answerquery.Handler
	route    *selectanswersource.Handler
	rag      *querypolicydocuments.Handler
	direct   *llmsynthesis.Handler
	web      *enrichwebsearch.Handler
	extract  *extractformdata.Handler
	mapper   *mapextractedfields.Handler
	classify *classifydocument.Handler
	dates    *normalizedates.Handler
}

func (h *handlers) services() api.Services {
	return api.Services{
		Chat:     h.chat,
		Extract:  h.extract,
		Map:      h.mapper,
		Classify: h.classify,
		Dates:    h.dates,
	}
}

func (h *handlers) jobs() map[string]camunda.HandlerFunc {
	return map[string]camunda.HandlerFunc{
		answerquery.TaskType:          h.chat.Handle,
		selectanswersource.TaskType:   h.route.Handle,
		querypolicydocuments.TaskType: h.rag.Handle,
		llmsynthesis.TaskType:         h.direct.Handle,
		enrichwebsearch.TaskType:      h.web.Handle,
		extractformdata.TaskType:      h.extract.Handle,
		mapextractedfields.TaskType:   h.mapper.Handle,
		classifydocument.TaskType:     h.classify.Handle,
		normalizedates.TaskType:       h.dates.Handle,
	}
}

// contracts resolves per-task timeouts and input validation from the
// activity registry. A missing registry leaves both at their defaults.
type contracts struct {
	cfg       *config.Config
	reg       *registry.ActivityRegistry
	validator camunda.VariablesValidator
}

func loadContracts(cfg *config.Config, log logger.Logger) *contracts {
	c := &contracts{cfg: cfg}
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		log.Warn("activity registry unavailable, job input is not validated", map[string]interface{}{"error": err.Error()})
		return c
	}
	c.reg = reg
	for _, problem := range reg.Check(taskTypes) {
		log.Warn("activity registry problem", map[string]interface{}{"error": problem.Error()})
	}
	v, err := reg.Validator()
	if err != nil {
		log.Warn("activity registry schemas invalid, job input is not validated", map[string]interface{}{"error": err.Error()})
		return c
	}
	c.validator = v
	return c
}

// timeout prefers the worker config, then the registry, then def.
func (c *contracts) timeout(taskType string, def time.Duration) time.Duration {
	if w, ok := c.cfg.Workers[taskType]; ok && w.Timeout > 0 {
		return config.GetDuration(w.Timeout)
	}
	if c.reg != nil {
		if a, ok := c.reg.Find(taskType); ok {
			return a.TimeoutDuration(def)
		}
	}
	return def
}

// searcher opens the Elasticsearch index on first use so the service can
// start before the cluster is reachable. Retrieval results are cached in
// Redis when it is enabled.
func newSearcher(cfg *config.Config, b *backends, embedder genai.Embedder) vectorindex.Searcher {
	lazy := vectorindex.NewLazy(func(ctx context.Context) (vectorindex.Searcher, error) {
		if b.es == nil {
			return nil, apperrors.NewVectorIndexUnavailableError(fmt.Errorf("elasticsearch is not configured"))
		}
		if err := b.es.Ping(ctx); err != nil {
			return nil, apperrors.NewVectorIndexUnavailableError(err)
		}
		return vectorindex.NewESIndex(b.es.Client, embedder, cfg.RAG.Index, cfg.RAG.Dimensions), nil
	})
	if b.redis == nil {
		return lazy
	}
	return vectorindex.NewCachedSearcher(lazy, b.redis.Client, time.Duration(cfg.RAG.CacheTTL)*time.Second)
}

func buildHandlers(cfg *config.Config, b *backends, obs *observability.Observability, log logger.Logger) (*handlers, error) {
	ct := loadContracts(cfg, log)
	recorder := b.recorder()

	var genaiOpts []genai.Option
	if b.redis != nil {
		genaiOpts = append(genaiOpts, genai.WithEmbeddingCache(
			genai.NewRedisEmbeddingCache(b.redis.Client, time.Duration(cfg.RAG.CacheTTL)*time.Second)))
	}
	llm := genai.NewClient(cfg.APIs.GenAI, log, genaiOpts...)
	if !llm.Configured() {
		log.Warn("no genai api key configured, answers and extraction will degrade", nil)
	}

	h := &handlers{}

	h.route = selectanswersource.NewHandler(&selectanswersource.Config{
		Model:        cfg.APIs.GenAI.RouterModel,
		Timeout:      ct.timeout(selectanswersource.TaskType, 15*time.Second),
		HistoryTurns: 3,
		Validator:    ct.validator,
	}, llm, &selectAnswerSourceLoggerAdapter{log})

	h.rag = querypolicydocuments.NewHandler(&querypolicydocuments.Config{
		Timeout:              ct.timeout(querypolicydocuments.TaskType, 45*time.Second),
		K:                    cfg.RAG.K,
		PoorMatchThreshold:   cfg.RAG.PoorMatchThreshold,
		InclusionThreshold:   cfg.RAG.InclusionThreshold,
		StrongMatchThreshold: cfg.RAG.StrongMatchThreshold,
		HistoryTurns:         10,
		Validator:            ct.validator,
	}, newSearcher(cfg, b, llm), llm, &queryPolicyDocumentsLoggerAdapter{log})

	h.direct = llmsynthesis.NewHandler(&llmsynthesis.Config{
		Timeout:      ct.timeout(llmsynthesis.TaskType, 30*time.Second),
		Temperature:  0.3,
		HistoryTurns: 5,
		Validator:    ct.validator,
	}, llm, &llmSynthesisLoggerAdapter{log})

	webTimeout := ct.timeout(enrichwebsearch.TaskType, 30*time.Second)
	search := enrichwebsearch.NewTavilyClient(cfg.APIs.WebSearch.BaseURL, cfg.APIs.WebSearch.APIKey,
		config.GetDuration(cfg.APIs.WebSearch.Timeout))
	h.web = enrichwebsearch.NewHandler(&enrichwebsearch.Config{
		SearchAPIBaseURL: cfg.APIs.WebSearch.BaseURL,
		SearchAPIKey:     cfg.APIs.WebSearch.APIKey,
		Timeout:          webTimeout,
		MaxResults:       cfg.APIs.WebSearch.MaxResults,
		Temperature:      0.2,
		HistoryTurns:     5,
		Validator:        ct.validator,
	}, search, llm, &enrichWebSearchLoggerAdapter{log})

	workflow := answer.NewWorkflow(h.route, []answer.Tool{h.rag, h.direct, h.web}, log, answer.WithTracer(obs))
	h.chat = answerquery.NewHandler(&answerquery.Config{
		Timeout:   ct.timeout(answerquery.TaskType, 90*time.Second),
		Validator: ct.validator,
	}, workflow, h.web, recorder, &answerQueryLoggerAdapter{log})

	schema, err := fieldmap.LoadSchema(cfg.Intake.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("load form schema: %w", err)
	}
	mapper := fieldmap.NewMapper(schema,
		fieldmap.WithThreshold(cfg.Intake.AcceptanceThreshold),
		fieldmap.WithLogger(log),
	)
	docs := classifier.New(mapper,
		classifier.WithMinScore(cfg.Intake.ClassifierMinScore),
		classifier.WithLogger(log),
	)
	dates := datenorm.New(log)

	h.extract = extractformdata.NewHandler(&extractformdata.Config{
		Timeout:      ct.timeout(extractformdata.TaskType, 3*time.Minute),
		EvidenceDir:  cfg.Intake.EvidenceDir,
		RawTextLimit: cfg.Intake.RawTextLimit,
		Concurrency:  4,
		Model:        cfg.APIs.GenAI.ChatModel,
		PromptFields: promptFields(cfg.Intake.ExtractionFields),
		Validator:    ct.validator,
	}, extractformdata.Dependencies{
		Extractor:  textextract.NewClient(cfg.APIs.TextExtraction),
		Classifier: docs,
		Normalizer: dates,
		LLM:        llm,
		Schema:     schema,
		Recorder:   recorder,
		Tracer:     obs,
		Stages:     obs,
	}, &extractFormDataLoggerAdapter{log})

	h.mapper = mapextractedfields.NewHandler(&mapextractedfields.Config{
		Timeout:             ct.timeout(mapextractedfields.TaskType, 5*time.Second),
		AcceptanceThreshold: cfg.Intake.AcceptanceThreshold,
		Validator:           ct.validator,
	}, mapper, &mapExtractedFieldsLoggerAdapter{log})

	h.classify = classifydocument.NewHandler(&classifydocument.Config{
		Timeout:   ct.timeout(classifydocument.TaskType, 5*time.Second),
		Validator: ct.validator,
	}, docs, &classifyDocumentLoggerAdapter{log})

	h.dates = normalizedates.NewHandler(&normalizedates.Config{
		Timeout:   ct.timeout(normalizedates.TaskType, 5*time.Second),
		Validator: ct.validator,
	}, dates, &normalizeDatesLoggerAdapter{log})

	return h, nil
}

func promptFields(fields []config.ExtractionField) []extractformdata.PromptField {
	out := make([]extractformdata.PromptField, 0, len(fields))
	for _, f := range fields {
		out = append(out, extractformdata.PromptField{Name: f.Name, Description: f.Description})
	}
	return out
}
