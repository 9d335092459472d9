// internal/workers/document-intake/normalize-dates/handler.go
package normalizedates

import (
	"context"

	"fep-agent/internal/common/camunda"
	apperrors "fep-agent/internal/common/errors"
	"fep-agent/internal/common/metrics"
	"fep-agent/internal/intake/datenorm"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "normalize-dates"

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config     *Config
	normalizer *datenorm.Normalizer
	logger     Logger
}

func NewHandler(config *Config, normalizer *datenorm.Normalizer, log Logger) *Handler {
	return &Handler{
		config:     config,
		normalizer: normalizer,
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
	if input.ExtractedData == nil && len(input.Dates) == 0 {
		return nil, apperrors.NewInvalidInputError("extractedData or dates is required")
	}

	out := &Output{}
	if input.ExtractedData != nil {
		data, changed := h.normalizer.ProcessData(input.ExtractedData)
		out.NormalizedData = data
		out.Changed += changed
	}
	for _, d := range input.Dates {
		n := h.normalizer.Normalize(d)
		res := DateResult{Original: d, Normalized: n, Changed: n != d}
		if res.Changed {
			out.Changed++
		}
		out.NormalizedDates = append(out.NormalizedDates, res)
	}
	metrics.DatesNormalized.Add(float64(out.Changed))

	h.logger.Info("dates normalised", map[string]interface{}{
		"fields":  len(input.ExtractedData),
		"dates":   len(input.Dates),
		"changed": out.Changed,
	})
	return out, nil
}
