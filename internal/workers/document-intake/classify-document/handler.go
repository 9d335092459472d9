// internal/workers/document-intake/classify-document/handler.go
package classifydocument

import (
	"context"
	"strings"

	"fep-agent/internal/common/camunda"
	apperrors "fep-agent/internal/common/errors"
	"fep-agent/internal/common/metrics"
	"fep-agent/internal/intake/classifier"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "classify-document"

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config     *Config
	classifier *classifier.Classifier
	logger     Logger
}

func NewHandler(config *Config, c *classifier.Classifier, log Logger) *Handler {
	return &Handler{
		config:     config,
		classifier: c,
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Text) == "" && strings.TrimSpace(input.Filename) == "" {
		return nil, apperrors.NewInvalidInputError("text or filename is required")
	}

	res := h.classifier.Classify(input.Text, input.Filename)
	metrics.DocumentsClassified.WithLabelValues(string(res.Type)).Inc()

	h.logger.Info("document classified", map[string]interface{}{
		"documentType": string(res.Type),
		"score":        res.Score,
		"byFilename":   res.ByFilename,
	})
	return &Output{
		DocumentType: res.Type,
		DisplayName:  classifier.TitleName(res.Type),
		Score:        res.Score,
		Scores:       res.Scores,
		ByFilename:   res.ByFilename,
	}, nil
}
