package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json")

	logger.Info("dropped")
	logger.Warn("kept", "collaborator", "neural")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "neural", line["collaborator"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "info", "text").Info("hello", "k", "v")

	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=v")
}

func TestObserveCollaborator(t *testing.T) {
	m := NewMetricsForTesting()

	m.ObserveCollaborator("neural", 20*time.Millisecond, nil)
	m.ObserveCollaborator("neural", time.Second, errors.New("timeout"))
	m.ObserveCollaborator("gemini", time.Second, nil)

	assert.Equal(t, 1.0, counterValue(t, m.CollaboratorRequests.WithLabelValues("neural", "success")))
	assert.Equal(t, 1.0, counterValue(t, m.CollaboratorRequests.WithLabelValues("neural", "error")))
	assert.Equal(t, 1.0, counterValue(t, m.CollaboratorRequests.WithLabelValues("gemini", "success")))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, c.Write(&out))
	return out.GetCounter().GetValue()
}

func TestMetricsRegisterCleanly(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsForTesting()
	for _, c := range m.collectors() {
		require.NoError(t, reg.Register(c))
	}
}
