package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fep-agent/internal/common/errors"
	"fep-agent/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

type JobLogger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// VariablesValidator checks raw job variables against the task's input
// contract before they are decoded.
type VariablesValidator interface {
	ValidateInput(taskType string, variables map[string]interface{}) error
}

type JobOptions struct {
	TaskType  string
	Timeout   time.Duration
	Logger    JobLogger
	Validator VariablesValidator
}

// RunJob decodes the job variables into In, runs exec under the job
// timeout and completes the job with the returned Out. Failures are
// routed through errors.ErrorHandler so retry and BPMN mapping stay
// consistent across task types.
func RunJob[In any, Out any](client worker.JobClient, job entities.Job, opts JobOptions, exec func(context.Context, *In) (*Out, error)) error {
	start := time.Now()
	opts.Logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	input, err := decodeVariables[In](job, opts)
	if err == nil {
		var output *Out
		output, err = exec(ctx, input)
		if err == nil {
			err = completeJob(ctx, client, job, output)
		}
	}

	metrics.WorkerJobDuration.WithLabelValues(opts.TaskType).Observe(time.Since(start).Seconds())
	if err != nil {
		stdErr := errors.Normalize(err)
		metrics.WorkerJobsFailed.WithLabelValues(opts.TaskType, string(stdErr.Code)).Inc()
		errors.NewErrorHandler(opts.Logger).HandleJobError(ctx, client, job, stdErr)
		return err
	}

	metrics.WorkerJobsCompleted.WithLabelValues(opts.TaskType).Inc()
	opts.Logger.Info("job completed", map[string]interface{}{
		"jobKey":      job.Key,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

func decodeVariables[In any](job entities.Job, opts JobOptions) (*In, error) {
	if opts.Validator != nil {
		var raw map[string]interface{}
		if err := json.Unmarshal([]byte(job.Variables), &raw); err != nil {
			return nil, errors.NewInvalidInputError(fmt.Sprintf("parse variables: %v", err))
		}
		if err := opts.Validator.ValidateInput(opts.TaskType, raw); err != nil {
			return nil, err
		}
	}

	var input In
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func completeJob[Out any](ctx context.Context, client worker.JobClient, job entities.Job, output *Out) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		return errors.NewInternalError(fmt.Errorf("encode job output: %w", err))
	}
	if _, err := cmd.Send(ctx); err != nil {
		return errors.NewInternalError(fmt.Errorf("send complete command: %w", err))
	}
	return nil
}
