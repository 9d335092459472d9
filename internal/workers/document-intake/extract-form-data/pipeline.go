// internal/workers/document-intake/extract-form-data/pipeline.go
package extractformdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"fep-agent/internal/audit"
	apperrors "fep-agent/internal/common/errors"
	"fep-agent/internal/common/genai"
	"fep-agent/internal/common/metrics"
	"fep-agent/internal/common/observability"
	"fep-agent/internal/intake/classifier"
	"fep-agent/internal/intake/fieldmap"
	"fep-agent/internal/models"
)

const (
	StatusOK               = "ok"
	StatusNoText           = "no_text"
	StatusExtractionFailed = "extraction_failed"
	StatusLLMUnavailable   = "llm_unavailable"
	StatusLLMFailed        = "llm_failed"
	StatusUnparsable       = "unparsable"
)

const (
	noTextMessage   = "Limited or no text could be extracted from this file."
	noTextReasoning = "The OCR process couldn't extract meaningful text from this document. This could be due to low image quality, handwritten text, or other factors."
	noKeyMessage    = "AI service unavailable - API key missing"
	noKeyReasoning  = "The LLM API key is not configured. Please check server configuration."
	filenameReason  = "Inferred from filename"
)

const extractionPrompt = `You are an expert assistant helping to process evidence for a funeral expenses claim. The following is the application schema:
%s
Read the following evidence text extracted from a document and extract all information relevant to the claim. The text comes from OCR and may be incomplete or have errors.

For each field you can extract, provide the field name (from the schema above), the value and a short explanation of your reasoning or the evidence source.

The OCR text may be very limited, noisy or fragmented. Even partial names, dates, addresses or just a few words can be valuable. Reference numbers, department names, amounts and official terminology like "certificate" or "death" are strong clues.

The document filename also provides clues about the document type.
Filename: %s
Detected document type: %s

If you can see the document is a specific type but can't extract specific fields, at least return a "_fileType" field with that information.

Return your answer as a JSON object where each key is a field name, and each value is an object with "value" and "reasoning".

Evidence text:
%s`

// processFile runs one resolved evidence file through extraction,
// classification, mapping and date normalisation. Only cancellation and a
// missing file abort the batch; every other failure is reported in the
// file's own result.
func (h *Handler) processFile(ctx context.Context, requestID, requested, actual string, cctx models.ContextData) (*FileResult, error) {
	start := time.Now()
	res := &FileResult{ResolvedName: actual}

	var text string
	err := h.stage(ctx, "extract_text", func(ctx context.Context) error {
		ext, err := h.deps.Extractor.Extract(ctx, filepath.Join(h.config.EvidenceDir, actual))
		if err != nil {
			return err
		}
		text = ext.Text
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if stdErr, ok := apperrors.AsStandardError(err); ok && stdErr.Code == apperrors.ErrCodeFileNotFound {
			return nil, err
		}
		h.logger.Error("text extraction failed", map[string]interface{}{
			"requestId": requestID, "file": actual, "error": err.Error(),
		})
		res.Status = StatusExtractionFailed
		res.ExtractedData = failureData(requested, "Document processing failed: "+err.Error(), "Text extraction did not succeed for this file.")
		return h.finish(ctx, requestID, requested, res, 0, start), nil
	}
	res.RawText = truncate(text, h.config.RawTextLimit)

	if strings.TrimSpace(text) == "" {
		h.logger.Warn("no text extracted", map[string]interface{}{"requestId": requestID, "file": actual})
		res.Status = StatusNoText
		res.ExtractedData = models.ExtractedData{}
		res.ExtractedData.SetMetadata("_warning", models.ExtractedField{Value: noTextMessage, Reasoning: noTextReasoning})
		res.ExtractedData.SetMetadata("_fileType", models.ExtractedField{Value: classifier.GuessDisplayType(requested), Reasoning: filenameReason})
		if label, reason, ok := classifier.GuessWarningType(requested); ok {
			res.ExtractedData.SetMetadata("_documentType", models.ExtractedField{Value: label, Reasoning: reason})
		}
		return h.finish(ctx, requestID, requested, res, 0, start), nil
	}

	var cls classifier.Classification
	_ = h.stage(ctx, "classify", func(context.Context) error {
		cls = h.deps.Classifier.Classify(text, actual)
		return nil
	})
	res.DocumentType = cls.Type
	metrics.DocumentsClassified.WithLabelValues(string(cls.Type)).Inc()

	var data models.ExtractedData
	err = h.stage(ctx, "llm_extract", func(ctx context.Context) error {
		var err error
		data, err = h.extractFields(ctx, text, actual, cls.Type)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		res.Status, res.ExtractedData = h.llmFailure(requestID, requested, err)
		return h.finish(ctx, requestID, requested, res, 0, start), nil
	}

	var changed int
	_ = h.stage(ctx, "normalize", func(context.Context) error {
		enhanced := classifier.EnhanceWithContext(data, cctx)
		normalized := h.deps.Classifier.NormalizeFields(enhanced, cls.Type, cctx)
		res.UnmappedFields = normalized.Unmapped
		res.ExtractedData, changed = h.deps.Normalizer.ProcessData(normalized.Data)
		return nil
	})
	res.Status = StatusOK

	metrics.FieldsMapped.WithLabelValues("mapped").Add(float64(countFields(res.ExtractedData) - len(res.UnmappedFields)))
	metrics.FieldsMapped.WithLabelValues("unmapped").Add(float64(len(res.UnmappedFields)))
	metrics.DatesNormalized.Add(float64(changed))

	h.logger.Info("evidence file processed", map[string]interface{}{
		"requestId":       requestID,
		"file":            actual,
		"documentType":    string(cls.Type),
		"score":           cls.Score,
		"fields":          countFields(res.ExtractedData),
		"unmapped":        len(res.UnmappedFields),
		"datesNormalized": changed,
		"duration_ms":     time.Since(start).Milliseconds(),
	})
	return h.finish(ctx, requestID, requested, res, changed, start), nil
}

func (h *Handler) extractFields(ctx context.Context, text, filename string, docType models.DocumentType) (models.ExtractedData, error) {
	if h.deps.LLM == nil {
		return nil, genai.ErrNotConfigured
	}
	prompt := fmt.Sprintf(extractionPrompt, h.prompt, filename, classifier.DisplayName(docType), text)
	reply, err := h.deps.LLM.Complete(ctx, genai.CompletionRequest{
		Model:       h.config.Model,
		Messages:    []models.ChatMessage{{Role: models.RoleUser, Content: prompt}},
		Temperature: 0,
		MaxTokens:   h.config.MaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}
	raw, err := genai.ExtractJSONObject(reply)
	if err != nil {
		return nil, err
	}
	var data models.ExtractedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", genai.ErrNoJSONObject, err)
	}
	return data, nil
}

func (h *Handler) llmFailure(requestID, requested string, err error) (string, models.ExtractedData) {
	h.logger.Error("field extraction failed", map[string]interface{}{
		"requestId": requestID, "file": requested, "error": err.Error(),
	})
	switch {
	case errors.Is(err, genai.ErrNotConfigured):
		return StatusLLMUnavailable, failureData(requested, noKeyMessage, noKeyReasoning)
	case errors.Is(err, genai.ErrNoJSONObject):
		return StatusUnparsable, failureData(requested, "Could not parse the AI response", err.Error())
	default:
		return StatusLLMFailed, failureData(requested, "Error in AI processing: "+err.Error(), "The LLM call did not complete.")
	}
}

func (h *Handler) finish(ctx context.Context, requestID, requested string, res *FileResult, changed int, start time.Time) *FileResult {
	if res.UnmappedFields == nil {
		res.UnmappedFields = []string{}
	}
	rec := audit.ExtractionRecord{
		RequestID:       requestID,
		FileName:        requested,
		DocumentType:    string(res.DocumentType),
		MappedFields:    countFields(res.ExtractedData) - len(res.UnmappedFields),
		UnmappedFields:  len(res.UnmappedFields),
		DatesNormalized: changed,
		Status:          res.Status,
		Duration:        time.Since(start),
	}
	if err := h.deps.Recorder.RecordExtraction(ctx, rec); err != nil {
		h.logger.Warn("extraction audit failed", map[string]interface{}{
			"requestId": requestID, "error": err.Error(),
		})
	}
	return res
}

func (h *Handler) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	var err error
	if h.deps.Tracer != nil {
		sctx, span := h.deps.Tracer.StartSpan(ctx, "intake."+name, nil)
		err = fn(sctx)
		observability.EndSpan(span, err)
	} else {
		err = fn(ctx)
	}
	if h.deps.Stages != nil {
		h.deps.Stages.RecordStage(ctx, name, time.Since(start))
	}
	return err
}

func failureData(requested, message, reasoning string) models.ExtractedData {
	d := models.ExtractedData{}
	d.SetMetadata("_error", models.ExtractedField{Value: message, Reasoning: reasoning})
	d.SetMetadata("_fileType", models.ExtractedField{Value: classifier.GuessDisplayType(requested), Reasoning: filenameReason})
	return d
}

// schemaSummary renders "name: description" lines for the extraction
// prompt: fields first, then any schema field not already listed.
func schemaSummary(fields []PromptField, schema *models.FormSchema) string {
	if len(fields) == 0 {
		fields = DefaultPromptFields()
	}
	if schema == nil {
		schema = fieldmap.DefaultSchema()
	}
	var b strings.Builder
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Name == "" || seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		desc := f.Description
		if desc == "" {
			desc = f.Name
		}
		fmt.Fprintf(&b, "%s: %s\n", f.Name, desc)
	}
	for _, s := range schema.Sections {
		for _, f := range s.Fields {
			if seen[f.Name] {
				continue
			}
			seen[f.Name] = true
			label := f.Label
			if label == "" {
				label = f.Name
			}
			fmt.Fprintf(&b, "%s: %s\n", f.Name, label)
		}
	}
	return b.String()
}

func countFields(d models.ExtractedData) int {
	n := 0
	for _, e := range d {
		if e.Kind != models.KindMetadata {
			n++
		}
	}
	return n
}

// truncate keeps the first limit runes of s, marking the cut with "...".
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
