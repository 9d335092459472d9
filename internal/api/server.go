// internal/api/server.go
package api

import (
	"context"
	"net/http"
	"time"

	answerquery "fep-agent/internal/workers/ai-conversation/answer-query"
	classifydocument "fep-agent/internal/workers/document-intake/classify-document"
	extractformdata "fep-agent/internal/workers/document-intake/extract-form-data"
	mapextractedfields "fep-agent/internal/workers/document-intake/map-extracted-fields"
	normalizedates "fep-agent/internal/workers/document-intake/normalize-dates"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ReadyCheck reports whether one backing service is usable.
type ReadyCheck func(ctx context.Context) error

// Services are the operations exposed over HTTP. They are the same
// handlers the Zeebe workers run.
type Services struct {
	Chat     *answerquery.Handler
	Extract  *extractformdata.Handler
	Map      *mapextractedfields.Handler
	Classify *classifydocument.Handler
	Dates    *normalizedates.Handler
}

type Options struct {
	ServiceName    string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	Ready          map[string]ReadyCheck
}

// NewRouter wires the chat, intake, health and metrics routes.
func NewRouter(svc Services, opts Options, log Logger) http.Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 << 20
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 3 * time.Minute
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(chimiddleware.Recoverer)

	health := healthHandler(opts.ServiceName)
	r.Get("/health", health)
	r.Get("/ai-agent/health", health)
	r.Get("/ready", readyHandler(opts.Ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(opts.RequestTimeout))
		r.Use(limitBody(opts.MaxBodyBytes))

		if svc.Chat != nil {
			r.Post("/ai-agent/chat", endpoint(log, svc.Chat.Execute, func(r *http.Request, in *answerquery.Input) {
				if in.RequestID == "" {
					in.RequestID = chimiddleware.GetReqID(r.Context())
				}
			}))
		}
		if svc.Extract != nil {
			r.Post("/ai-agent/extract-form-data", endpoint(log, svc.Extract.Execute, func(r *http.Request, in *extractformdata.Input) {
				if in.RequestID == "" {
					in.RequestID = chimiddleware.GetReqID(r.Context())
				}
			}))
		}
		if svc.Map != nil {
			r.Post("/api/intelligent-map", endpoint[mapextractedfields.Input](log, svc.Map.Execute, nil))
		}
		if svc.Classify != nil {
			r.Post("/api/classify-document", endpoint[classifydocument.Input](log, svc.Classify.Execute, nil))
		}
		if svc.Dates != nil {
			r.Post("/api/normalize-dates", endpoint[normalizedates.Input](log, svc.Dates.Execute, nil))
		}
	})
	return r
}

func healthHandler(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": service})
	}
}

func readyHandler(checks map[string]ReadyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		state := "ready"
		if status != http.StatusOK {
			state = "not_ready"
		}
		writeJSON(w, status, map[string]interface{}{"status": state, "checks": results})
	}
}
