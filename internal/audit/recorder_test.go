package audit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	apperrors "fep-agent/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*PostgresRecorder, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRecorder(db), mock
}

// ==========================
// Recorder Tests
// ==========================

func TestPostgresRecorder_RecordExtraction(t *testing.T) {
	rec, mock := setupMockDB(t)
	mock.ExpectExec("INSERT INTO extraction_audit").
		WithArgs(sqlmock.AnyArg(), "req-1", "death_cert.pdf", "death_certificate", 4, 1, 1, "ok", int64(1500)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := rec.RecordExtraction(context.Background(), ExtractionRecord{
		RequestID:       "req-1",
		FileName:        "death_cert.pdf",
		DocumentType:    "death_certificate",
		MappedFields:    4,
		UnmappedFields:  1,
		DatesNormalized: 1,
		Status:          "ok",
		Duration:        1500 * time.Millisecond,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecorder_RecordChat(t *testing.T) {
	rec, mock := setupMockDB(t)
	long := strings.Repeat("q", 2500)
	mock.ExpectExec("INSERT INTO chat_audit").
		WithArgs(sqlmock.AnyArg(), "req-2", strings.Repeat("q", 2000), "rag_tool", "direct_llm_tool (fallback from rag_tool)", 0.8, true, int64(250)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := rec.RecordChat(context.Background(), ChatRecord{
		RequestID:    "req-2",
		Query:        long,
		SelectedTool: "rag_tool",
		Source:       "direct_llm_tool (fallback from rag_tool)",
		Confidence:   0.8,
		UsedFallback: true,
		Duration:     250 * time.Millisecond,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecorder_DatabaseError(t *testing.T) {
	rec, mock := setupMockDB(t)
	mock.ExpectExec("INSERT INTO chat_audit").WillReturnError(errors.New("connection refused"))

	err := rec.RecordChat(context.Background(), ChatRecord{RequestID: "r"})

	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeDatabaseError, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	assert.NoError(t, r.RecordChat(context.Background(), ChatRecord{}))
	assert.NoError(t, r.RecordExtraction(context.Background(), ExtractionRecord{}))
}
