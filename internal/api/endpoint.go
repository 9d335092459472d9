// internal/api/endpoint.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "fep-agent/internal/common/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// endpoint decodes a JSON body into In, lets prepare fill request-scoped
// fields and writes exec's result. Errors map onto statuses by code.
func endpoint[In any, Out any](log Logger, exec func(context.Context, *In) (*Out, error), prepare func(*http.Request, *In)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, log, r, apperrors.NewInvalidInputError("invalid JSON body: "+err.Error()))
			return
		}
		if prepare != nil {
			prepare(r, &in)
		}

		out, err := exec(r.Context(), &in)
		if err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeError(w http.ResponseWriter, log Logger, r *http.Request, err error) {
	stdErr := apperrors.Normalize(err)
	status := apperrors.HTTPStatus(stdErr.Code)
	fields := map[string]interface{}{
		"path":   r.URL.Path,
		"code":   string(stdErr.Code),
		"status": status,
		"error":  err.Error(),
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", fields)
	} else {
		log.Warn("request rejected", fields)
	}
	writeJSON(w, status, ErrorResponse{
		Success: false,
		Error:   stdErr.Message,
		Code:    string(stdErr.Code),
		Details: stdErr.Details,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
