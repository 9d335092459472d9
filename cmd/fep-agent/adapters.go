// cmd/fep-agent/adapters.go
package main

import (
	"fep-agent/internal/common/logger"

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

// Each task package declares its own Logger whose With returns that
// package's type, so the shared logger needs one thin adapter per package.

type answerQueryLoggerAdapter struct {
	logger.Logger
}

func (a *answerQueryLoggerAdapter) With(fields map[string]interface{}) answerquery.Logger {
	return &answerQueryLoggerAdapter{a.Logger.With(fields)}
}

type selectAnswerSourceLoggerAdapter struct {
	logger.Logger
}

func (a *selectAnswerSourceLoggerAdapter) With(fields map[string]interface{}) selectanswersource.Logger {
	return &selectAnswerSourceLoggerAdapter{a.Logger.With(fields)}
}

type queryPolicyDocumentsLoggerAdapter struct {
	logger.Logger
}

func (a *queryPolicyDocumentsLoggerAdapter) With(fields map[string]interface{}) querypolicydocuments.Logger {
	return &queryPolicyDocumentsLoggerAdapter{a.Logger.With(fields)}
}

type llmSynthesisLoggerAdapter struct {
	logger.Logger
}

func (a *llmSynthesisLoggerAdapter) With(fields map[string]interface{}) llmsynthesis.Logger {
	return &llmSynthesisLoggerAdapter{a.Logger.With(fields)}
}

type enrichWebSearchLoggerAdapter struct {
	logger.Logger
}

func (a *enrichWebSearchLoggerAdapter) With(fields map[string]interface{}) enrichwebsearch.Logger {
	return &enrichWebSearchLoggerAdapter{a.Logger.With(fields)}
}

type extractFormDataLoggerAdapter struct {
	logger.Logger
}

func (a *extractFormDataLoggerAdapter) With(fields map[string]interface{}) extractformdata.Logger {
	return &extractFormDataLoggerAdapter{a.Logger.With(fields)}
}

type mapExtractedFieldsLoggerAdapter struct {
	logger.Logger
}

func (a *mapExtractedFieldsLoggerAdapter) With(fields map[string]interface{}) mapextractedfields.Logger {
	return &mapExtractedFieldsLoggerAdapter{a.Logger.With(fields)}
}

type classifyDocumentLoggerAdapter struct {
	logger.Logger
}

func (a *classifyDocumentLoggerAdapter) With(fields map[string]interface{}) classifydocument.Logger {
	return &classifyDocumentLoggerAdapter{a.Logger.With(fields)}
}

type normalizeDatesLoggerAdapter struct {
	logger.Logger
}

func (a *normalizeDatesLoggerAdapter) With(fields map[string]interface{}) normalizedates.Logger {
	return &normalizeDatesLoggerAdapter{a.Logger.With(fields)}
}
