package neural

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crisislens-service/internal/domain"
	"github.com/couchcryptid/crisislens-service/internal/observability"
)

func testClient(endpoint string, timeout time.Duration) *Client {
	return NewClient(endpoint, timeout, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_Score_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "flooding in adyar", req.Text)

		_, _ = w.Write([]byte(`{"probability": 0.87, "model": "distilbert"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL+"/predict", time.Second)
	p, err := c.Score(context.Background(), "flooding in adyar")

	require.NoError(t, err)
	assert.Equal(t, 0.87, p)
	assert.Contains(t, c.Model(), "neural-classifier@127.0.0.1")
}

func TestClient_Score_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantMsg string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "model not loaded", http.StatusServiceUnavailable)
			},
			wantMsg: "status 503",
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"probability":`))
			},
			wantMsg: "decode response",
		},
		{
			name: "missing probability",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"label": "crisis"}`))
			},
			wantMsg: "no probability",
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				time.Sleep(200 * time.Millisecond)
				_, _ = w.Write([]byte(`{"probability": 0.5}`))
			},
			wantMsg: "request",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := testClient(srv.URL, 50*time.Millisecond).Score(context.Background(), "text")
			require.ErrorIs(t, err, domain.ErrCollaboratorUnavailable)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestClient_InvalidEndpointSharedError(t *testing.T) {
	c := testClient("not a url", time.Second)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Score(context.Background(), "text")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.ErrorIs(t, err, domain.ErrCollaboratorUnavailable)
		assert.Same(t, c.initErr, err)
	}
}
