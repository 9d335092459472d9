// internal/workers/document-intake/map-extracted-fields/handler.go
package mapextractedfields

import (
	"context"

	"fep-agent/internal/common/camunda"
	apperrors "fep-agent/internal/common/errors"
	"fep-agent/internal/common/metrics"
	"fep-agent/internal/intake/fieldmap"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "map-extracted-fields"

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config *Config
	mapper *fieldmap.Mapper
	logger Logger
}

// NewHandler maps with mapper, or with the default form schema at the
// configured threshold when mapper is nil.
func NewHandler(config *Config, mapper *fieldmap.Mapper, log Logger) *Handler {
	if mapper == nil {
		mapper = fieldmap.NewMapper(fieldmap.DefaultSchema(), fieldmap.WithThreshold(config.AcceptanceThreshold))
	}
	return &Handler{
		config: config,
		mapper: mapper,
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
	if input.ExtractedData == nil {
		return nil, apperrors.NewInvalidInputError("extractedData is required")
	}

	res := h.mapper.Map(input.ExtractedData, input.DocumentType, input.ContextData)
	unmapped := res.Unmapped
	if unmapped == nil {
		unmapped = []string{}
	}

	mapped := 0
	for _, d := range res.Decisions {
		if d.Mapped {
			mapped++
		}
	}
	metrics.FieldsMapped.WithLabelValues("mapped").Add(float64(mapped))
	metrics.FieldsMapped.WithLabelValues("unmapped").Add(float64(len(unmapped)))

	h.logger.Info("extracted fields mapped", map[string]interface{}{
		"documentType": input.DocumentType,
		"mapped":       mapped,
		"unmapped":     len(unmapped),
	})
	return &Output{
		Success:        true,
		MappedData:     res.Data,
		UnmappedFields: unmapped,
		Decisions:      res.Decisions,
	}, nil
}
