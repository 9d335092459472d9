// Package errors provides the error taxonomy shared by the HTTP API and the
// Zeebe workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrCodeSchemaInvalid  ErrorCode = "SCHEMA_INVALID"
	ErrCodeFileNotFound   ErrorCode = "FILE_NOT_FOUND"
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseError  ErrorCode = "DATABASE_ERROR"
	ErrCodeCacheError     ErrorCode = "CACHE_ERROR"
	ErrCodeLLMTimeout     ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMUnavailable ErrorCode = "LLM_UNAVAILABLE"

	ErrCodeVectorIndexUnavailable ErrorCode = "VECTOR_INDEX_UNAVAILABLE"
	ErrCodeNoRelevantDocuments    ErrorCode = "NO_RELEVANT_DOCUMENTS"

	ErrCodeWebSearchNotConfigured ErrorCode = "WEB_SEARCH_NOT_CONFIGURED"
	ErrCodeWebSearchFailed        ErrorCode = "WEB_SEARCH_FAILED"

	ErrCodeTextExtractionFailed ErrorCode = "TEXT_EXTRACTION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Unwrap() error { return e.cause }

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata returns e after attaching key=value.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// AsStandardError unwraps err looking for a *StandardError.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func (e *StandardError) withCause(err error) *StandardError {
	e.cause = err
	return e
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", details, false)
}

func NewSchemaInvalidError(details string) *StandardError {
	return newError(ErrCodeSchemaInvalid, "Form schema is invalid", details, false)
}

func NewFileNotFoundError(name string) *StandardError {
	return newError(ErrCodeFileNotFound, "Evidence file not found", name, false).
		WithMetadata("file", name)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", errDetails(err), false).withCause(err)
}

func NewDatabaseError(operation string, err error) *StandardError {
	return newError(ErrCodeDatabaseError, fmt.Sprintf("Database operation %s failed", operation), errDetails(err), true).withCause(err)
}

func NewCacheError(err error) *StandardError {
	return newError(ErrCodeCacheError, "Cache operation failed", errDetails(err), true).withCause(err)
}

func NewLLMTimeoutError() *StandardError {
	return newError(ErrCodeLLMTimeout, "LLM completion timed out", "", true)
}

func NewLLMUnavailableError(err error) *StandardError {
	return newError(ErrCodeLLMUnavailable, "LLM service unavailable", errDetails(err), true).withCause(err)
}

func NewVectorIndexUnavailableError(err error) *StandardError {
	return newError(ErrCodeVectorIndexUnavailable, "Vector index unavailable", errDetails(err), true).withCause(err)
}

func NewNoRelevantDocumentsError(bestDistance float64) *StandardError {
	return newError(ErrCodeNoRelevantDocuments, "No sufficiently relevant policy documents", "", false).
		WithMetadata("bestDistance", bestDistance)
}

func NewWebSearchNotConfiguredError() *StandardError {
	return newError(ErrCodeWebSearchNotConfigured, "Web search was requested but no web search API key is configured", "", false)
}

func NewWebSearchFailedError(err error) *StandardError {
	return newError(ErrCodeWebSearchFailed, "Web search failed", errDetails(err), true).withCause(err)
}

func NewTextExtractionFailedError(file string, err error) *StandardError {
	return newError(ErrCodeTextExtractionFailed, "Text extraction failed", errDetails(err), true).withCause(err).
		WithMetadata("file", file)
}

// ==========================
// 4. Retry / Mapping Policy
// ==========================

// BPMNErrorMapping maps internal error codes to the BPMN error codes
// modelled on boundary events. Unlisted codes are passed through verbatim.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:           "INVALID_INPUT",
	ErrCodeSchemaInvalid:          "SCHEMA_INVALID",
	ErrCodeFileNotFound:           "FILE_NOT_FOUND",
	ErrCodeNoRelevantDocuments:    "NO_RELEVANT_DOCUMENTS",
	ErrCodeWebSearchNotConfigured: "WEB_SEARCH_NOT_CONFIGURED",
	ErrCodeTextExtractionFailed:   "TEXT_EXTRACTION_FAILED",
	ErrCodeLLMTimeout:             "LLM_TIMEOUT",
}

// GetRetryCount returns how many job retries a code deserves.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseError,
		ErrCodeCacheError,
		ErrCodeLLMUnavailable,
		ErrCodeVectorIndexUnavailable,
		ErrCodeWebSearchFailed,
		ErrCodeTextExtractionFailed:
		return 3
	case ErrCodeLLMTimeout:
		return 1
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

var knownCodes = map[ErrorCode]bool{
	ErrCodeInvalidInput:           true,
	ErrCodeSchemaInvalid:          true,
	ErrCodeFileNotFound:           true,
	ErrCodeInternal:               true,
	ErrCodeDatabaseError:          true,
	ErrCodeCacheError:             true,
	ErrCodeLLMTimeout:             true,
	ErrCodeLLMUnavailable:         true,
	ErrCodeVectorIndexUnavailable: true,
	ErrCodeNoRelevantDocuments:    true,
	ErrCodeWebSearchNotConfigured: true,
	ErrCodeWebSearchFailed:        true,
	ErrCodeTextExtractionFailed:   true,
}

// IsKnownCode reports whether code is one of the codes above.
func IsKnownCode(code ErrorCode) bool { return knownCodes[code] }

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "LLM"):
		return "AI"
	case strings.Contains(codeStr, "WEB_SEARCH"), strings.Contains(codeStr, "VECTOR"), strings.Contains(codeStr, "DOCUMENTS"):
		return "RETRIEVAL"
	case strings.Contains(codeStr, "FILE"), strings.Contains(codeStr, "EXTRACTION"):
		return "INTAKE"
	case strings.Contains(codeStr, "DATABASE"), strings.Contains(codeStr, "CACHE"):
		return "STORAGE"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps an error code to the status the API answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeSchemaInvalid:
		return http.StatusBadRequest
	case ErrCodeFileNotFound:
		return http.StatusNotFound
	case ErrCodeWebSearchNotConfigured:
		return http.StatusServiceUnavailable
	case ErrCodeLLMTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeLLMUnavailable, ErrCodeTextExtractionFailed, ErrCodeVectorIndexUnavailable, ErrCodeWebSearchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
