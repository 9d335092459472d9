// internal/audit/recorder.go
package audit

import (
	"context"
	"database/sql"
	"time"

	apperrors "fep-agent/internal/common/errors"

	"github.com/google/uuid"
)

// ExtractionRecord summarises one processed evidence file.
type ExtractionRecord struct {
	RequestID       string
	FileName        string
	DocumentType    string
	MappedFields    int
	UnmappedFields  int
	DatesNormalized int
	Status          string
	Duration        time.Duration
}

// ChatRecord summarises one answered question.
type ChatRecord struct {
	RequestID    string
	Query        string
	SelectedTool string
	Source       string
	Confidence   float64
	UsedFallback bool
	Duration     time.Duration
}

type Recorder interface {
	RecordExtraction(ctx context.Context, rec ExtractionRecord) error
	RecordChat(ctx context.Context, rec ChatRecord) error
}

// PostgresRecorder writes audit rows with lib/pq.
type PostgresRecorder struct {
	db *sql.DB
}

func NewPostgresRecorder(db *sql.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

const insertExtraction = `
	INSERT INTO extraction_audit (
		id, request_id, file_name, document_type, mapped_fields,
		unmapped_fields, dates_normalized, status, duration_ms
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const insertChat = `
	INSERT INTO chat_audit (
		id, request_id, query, selected_tool, source,
		confidence, used_fallback, duration_ms
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (r *PostgresRecorder) RecordExtraction(ctx context.Context, rec ExtractionRecord) error {
	_, err := r.db.ExecContext(ctx, insertExtraction,
		uuid.New().String(),
		rec.RequestID,
		rec.FileName,
		rec.DocumentType,
		rec.MappedFields,
		rec.UnmappedFields,
		rec.DatesNormalized,
		rec.Status,
		rec.Duration.Milliseconds(),
	)
	if err != nil {
		return apperrors.NewDatabaseError("insert extraction_audit", err)
	}
	return nil
}

func (r *PostgresRecorder) RecordChat(ctx context.Context, rec ChatRecord) error {
	_, err := r.db.ExecContext(ctx, insertChat,
		uuid.New().String(),
		rec.RequestID,
		truncate(rec.Query, 2000),
		rec.SelectedTool,
		rec.Source,
		rec.Confidence,
		rec.UsedFallback,
		rec.Duration.Milliseconds(),
	)
	if err != nil {
		return apperrors.NewDatabaseError("insert chat_audit", err)
	}
	return nil
}

// Nop discards every record. Used when Postgres is disabled.
type Nop struct{}

func (Nop) RecordExtraction(context.Context, ExtractionRecord) error { return nil }
func (Nop) RecordChat(context.Context, ChatRecord) error             { return nil }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
