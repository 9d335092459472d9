// internal/answer/workflow.go
package answer

import (
	"context"
	"errors"
	"time"

	"fep-agent/internal/common/metrics"
	"fep-agent/internal/common/observability"
	"fep-agent/internal/models"
)

var (
	ErrToolUnavailable = errors.New("answer tool not registered")
	ErrEmptyResponse   = errors.New("answer tool returned an empty response")
)

// Tool answers a request or fails. A failure is never surfaced past the
// workflow.
type Tool interface {
	Name() models.ToolName
	Run(ctx context.Context, req Request) (*Answer, error)
}

// Router picks the tool to try first. It must always return one of the
// three tool names.
type Router interface {
	Route(ctx context.Context, req Request) models.ToolName
}

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

type Workflow struct {
	router Router
	tools  map[models.ToolName]Tool
	tracer observability.Tracer
	log    Logger
}

type Option func(*Workflow)

func WithTracer(t observability.Tracer) Option {
	return func(w *Workflow) { w.tracer = t }
}

func NewWorkflow(router Router, tools []Tool, log Logger, opts ...Option) *Workflow {
	w := &Workflow{
		router: router,
		tools:  make(map[models.ToolName]Tool, len(tools)),
		log:    log,
	}
	for _, t := range tools {
		w.tools[t.Name()] = t
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run drives routing, the selected tool and finalization. The returned
// state is always Done with a non-empty response.
func (w *Workflow) Run(ctx context.Context, req Request) *State {
	start := time.Now()
	state := newState(req)

	if ctx.Err() != nil {
		w.finish(state, start)
		return state
	}

	state.SelectedTool = w.route(ctx, state)
	metrics.AnswerSourceSelected.WithLabelValues(string(state.SelectedTool)).Inc()

	if ctx.Err() != nil {
		w.finish(state, start)
		return state
	}

	state.Stage = StageExecuting
	state.Attempts = append(state.Attempts, state.SelectedTool)
	if a, err := w.RunTool(ctx, state.SelectedTool, state.request()); err == nil {
		state.succeed(a, a.Source)
	} else {
		state.ToolFailed = true
	}

	state.Stage = StageFinalizing
	w.finalize(ctx, state)
	w.finish(state, start)
	return state
}

func (w *Workflow) route(ctx context.Context, state *State) models.ToolName {
	if w.router == nil {
		return models.DirectLLMTool
	}
	selected := w.router.Route(ctx, state.request())
	switch selected {
	case models.RagTool, models.DirectLLMTool, models.WebSearchTool:
	default:
		selected = models.DirectLLMTool
	}
	w.log.Info("answer source selected", map[string]interface{}{"tool": string(selected)})
	return selected
}

// finalize walks the fallback chain when the selected tool failed. Each
// remaining tool runs at most once and strictly in order.
func (w *Workflow) finalize(ctx context.Context, state *State) {
	if !state.ToolFailed && state.Response != "" {
		return
	}

	original := state.SelectedTool
	for _, fallback := range Fallbacks(original) {
		if ctx.Err() != nil {
			break
		}
		w.log.Info("trying fallback tool", map[string]interface{}{
			"tool":     string(fallback),
			"original": string(original),
		})
		state.Attempts = append(state.Attempts, fallback)
		a, err := w.RunTool(ctx, fallback, state.request())
		if err != nil {
			continue
		}
		state.succeed(a, FallbackSource(fallback, original))
		state.Stage = StageDone
		return
	}

	w.log.Warn("all answer tools failed, using default response", map[string]interface{}{
		"attempts": len(state.Attempts),
	})
	state.defaultFallback()
}

// RunTool runs one tool by name. A missing tool, an error or an empty
// response all count as a failure.
func (w *Workflow) RunTool(ctx context.Context, name models.ToolName, req Request) (*Answer, error) {
	tool, ok := w.tools[name]
	if !ok {
		metrics.AnswerToolOutcomes.WithLabelValues(string(name), "missing").Inc()
		return nil, ErrToolUnavailable
	}

	a, err := w.runTraced(ctx, tool, req)
	if err == nil && (a == nil || a.Response == "") {
		err = ErrEmptyResponse
	}
	if err != nil {
		metrics.AnswerToolOutcomes.WithLabelValues(string(name), "failed").Inc()
		w.log.Warn("answer tool failed", map[string]interface{}{
			"tool":  string(name),
			"error": err.Error(),
		})
		return nil, err
	}
	metrics.AnswerToolOutcomes.WithLabelValues(string(name), "succeeded").Inc()
	return a, nil
}

func (w *Workflow) runTraced(ctx context.Context, tool Tool, req Request) (*Answer, error) {
	if w.tracer == nil {
		return tool.Run(ctx, req)
	}
	ctx, span := w.tracer.StartSpan(ctx, "answer."+string(tool.Name()), nil)
	a, err := tool.Run(ctx, req)
	observability.EndSpan(span, err)
	return a, err
}

func (w *Workflow) finish(state *State, start time.Time) {
	if state.Response == "" || state.ToolFailed {
		state.defaultFallback()
	}
	state.Stage = StageDone
	kind := metrics.FinalSourceKind(state.Source)
	metrics.AnswerFinalSource.WithLabelValues(kind).Inc()
	metrics.AnswerDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
