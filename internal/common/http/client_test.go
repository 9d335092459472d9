package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON(t *testing.T) {
	tests := []struct {
		name       string
		failures   int32
		failStatus int
		maxRetries int
		wantErr    bool
		wantCalls  int32
	}{
		{name: "success first try", maxRetries: 2, wantCalls: 1},
		{name: "retries 503 then succeeds", failures: 2, failStatus: http.StatusServiceUnavailable, maxRetries: 2, wantCalls: 3},
		{name: "gives up after retries", failures: 5, failStatus: http.StatusBadGateway, maxRetries: 1, wantErr: true, wantCalls: 2},
		{name: "client errors are not retried", failures: 5, failStatus: http.StatusUnauthorized, maxRetries: 3, wantErr: true, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&calls, 1)
				assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
				var body map[string]string
				_ = json.NewDecoder(r.Body).Decode(&body)
				assert.Equal(t, "ping", body["q"])
				if n <= tt.failures {
					w.WriteHeader(tt.failStatus)
					return
				}
				_ = json.NewEncoder(w).Encode(map[string]string{"answer": "pong"})
			}))
			defer srv.Close()

			c := NewClient(5*time.Second, tt.maxRetries)
			var out map[string]string
			err := c.DoJSON(context.Background(), http.MethodPost, srv.URL, map[string]string{"Authorization": "Bearer k"}, map[string]string{"q": "ping"}, &out)

			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
			if tt.wantErr {
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, tt.failStatus, se.StatusCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "pong", out["answer"])
		})
	}
}

func TestDoJSON_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewClient(5*time.Second, 3).DoJSON(ctx, http.MethodGet, srv.URL, nil, nil, nil)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}
