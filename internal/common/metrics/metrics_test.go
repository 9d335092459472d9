package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestFinalSourceKind(t *testing.T) {
	assert.Equal(t, "rag", FinalSourceKind("rag"))
	assert.Equal(t, "fallback", FinalSourceKind("direct_llm_tool (fallback from rag_tool)"))
	assert.Equal(t, "default_fallback", FinalSourceKind("default_fallback"))
	assert.Equal(t, "unknown", FinalSourceKind(""))
}

func TestCountersRegister(t *testing.T) {
	before := testutil.ToFloat64(DocumentsClassified.WithLabelValues("death_certificate"))
	DocumentsClassified.WithLabelValues("death_certificate").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(DocumentsClassified.WithLabelValues("death_certificate")))
}
