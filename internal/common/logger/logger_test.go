package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestZapWrapper_FieldsAreSortedAndInherited(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).With(map[string]interface{}{"taskType": "classify-document"})

	log.Info("classified", map[string]interface{}{"score": 6, "documentType": "death_certificate"})
	log.WithError(errors.New("boom")).Error("failed", nil)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "classify-document", ctx["taskType"])
		assert.Equal(t, "death_certificate", ctx["documentType"])
		assert.EqualValues(t, 6, ctx["score"])

		fields := entries[0].Context
		assert.Equal(t, "taskType", fields[0].Key)
		assert.Equal(t, "documentType", fields[1].Key)
		assert.Equal(t, "score", fields[2].Key)

		assert.Equal(t, "boom", entries[1].ContextMap()["error"])
	}
}

func TestNewWithOptions(t *testing.T) {
	assert.NotNil(t, NewWithOptions(Options{Level: "debug", Format: "json"}))
	assert.NotNil(t, NewWithOptions(Options{Level: "info", Format: "console", Output: "stdout"}))
	assert.NotNil(t, NewNoOpLogger())
	NewTestLogger(t).Info("hello", map[string]interface{}{"k": "v"})
}
