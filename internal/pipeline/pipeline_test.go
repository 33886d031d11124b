package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crisislens-service/internal/domain"
	"github.com/couchcryptid/crisislens-service/internal/observability"
	"github.com/couchcryptid/crisislens-service/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	mu     sync.Mutex
	events []domain.RawEvent
	errs   []error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	m.mu.Lock()
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		m.mu.Unlock()
		return nil, err
	}
	if len(m.events) > 0 {
		n := min(batchSize, len(m.events))
		batch := m.events[:n]
		m.events = m.events[n:]
		m.mu.Unlock()
		return batch, nil
	}
	m.mu.Unlock()
	// block until context cancelled to simulate waiting for messages
	<-ctx.Done()
	return nil, ctx.Err()
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	if m.err != nil {
		return domain.OutputEvent{}, m.err
	}
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

type mockLoader struct {
	mu     sync.Mutex
	loaded []domain.OutputEvent
	calls  int
	fail   int
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.fail {
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, events...)
	return nil
}

func (m *mockLoader) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loaded)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawReport(key, text string) domain.RawEvent {
	return domain.RawEvent{
		Key:   []byte(key),
		Value: []byte(`{"text":"` + text + `"}`),
	}
}

func runFor(t *testing.T, p *pipeline.Pipeline, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := rawReport("r-1", "flooding in adyar")

	ext := &mockExtractor{events: []domain.RawEvent{raw}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)
	runFor(t, p, 300*time.Millisecond)

	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, raw.Value, ldr.loaded[0].Value)
	assert.True(t, p.Ready())
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_SplitsIntoBatches(t *testing.T) {
	events := make([]domain.RawEvent, 7)
	for i := range events {
		events[i] = rawReport("r", "report")
	}
	ext := &mockExtractor{events: events}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 3)
	runFor(t, p, 300*time.Millisecond)

	assert.Equal(t, 7, ldr.count())
	assert.Equal(t, 3, ldr.calls)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_TransformErrorCommitsAndSkips(t *testing.T) {
	var commits atomic.Int32
	raw := rawReport("r-2", "bad")
	raw.Commit = func(context.Context) error {
		commits.Add(1)
		return nil
	}

	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{events: []domain.RawEvent{raw}}, &mockTransformer{err: domain.ErrInvalidInput},
		ldr, discardLogger(), observability.NewMetricsForTesting(), 10)
	runFor(t, p, 300*time.Millisecond)

	assert.Empty(t, ldr.loaded)
	assert.False(t, p.Ready())
	assert.Equal(t, int32(1), commits.Load())
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	var commits atomic.Int32
	raw := rawReport("r-3", "report")
	raw.Topic = "raw-crisis-reports"
	raw.Commit = func(context.Context) error {
		commits.Add(1)
		return nil
	}

	p := pipeline.New(&mockExtractor{events: []domain.RawEvent{raw}}, &mockTransformer{}, &mockLoader{},
		discardLogger(), observability.NewMetricsForTesting(), 10)
	runFor(t, p, 300*time.Millisecond)

	assert.Equal(t, int32(1), commits.Load())
}

func TestPipeline_Run_LoadFailureDoesNotCommit(t *testing.T) {
	var commits atomic.Int32
	raw := rawReport("r-4", "report")
	raw.Commit = func(context.Context) error {
		commits.Add(1)
		return nil
	}

	ldr := &mockLoader{fail: 1}
	p := pipeline.New(&mockExtractor{events: []domain.RawEvent{raw}}, &mockTransformer{}, ldr,
		discardLogger(), observability.NewMetricsForTesting(), 10)
	runFor(t, p, 300*time.Millisecond)

	assert.Empty(t, ldr.loaded)
	assert.Equal(t, int32(0), commits.Load())
}

func TestPipeline_Run_RecoversFromExtractError(t *testing.T) {
	ext := &mockExtractor{
		errs:   []error{errors.New("broker down")},
		events: []domain.RawEvent{rawReport("r-5", "report")},
	}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)
	runFor(t, p, time.Second)

	assert.Equal(t, 1, ldr.count())
}

func TestReportTransformer_Transform(t *testing.T) {
	tfm := pipeline.NewTransformer(newAnalyzer(t), discardLogger())

	out, err := tfm.Transform(context.Background(), domain.RawEvent{
		Value:   []byte("Heavy rainfall causes severe flooding in Adyar area. 50 homes submerged. Urgent evacuation ordered."),
		Headers: map[string]string{"source": "IMD"},
	})
	require.NoError(t, err)

	assert.Equal(t, "true", out.Headers["is_crisis"])
	assert.Equal(t, "Flood", out.Headers["crisis_type"])
	assert.Contains(t, string(out.Value), `"source":"IMD"`)
}

func TestReportTransformer_RejectsEmptyReport(t *testing.T) {
	tfm := pipeline.NewTransformer(newAnalyzer(t), discardLogger())

	_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte(`{"source":"IMD"}`)})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

// slowTransformer delays early reports longer so concurrent completion order
// differs from input order.
type slowTransformer struct{}

func (slowTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	if string(raw.Key) == "bad" {
		return domain.OutputEvent{}, domain.ErrInvalidInput
	}
	n := int(raw.Key[0] - '0')
	time.Sleep(time.Duration(10-n) * 5 * time.Millisecond)
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

func TestPipeline_Run_ConcurrentAnalysisKeepsOrder(t *testing.T) {
	events := make([]domain.RawEvent, 8)
	for i := range events {
		events[i] = rawReport(string(rune('0'+i)), "report")
	}
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{events: events}, slowTransformer{}, ldr, discardLogger(),
		observability.NewMetricsForTesting(), 8, pipeline.WithConcurrency(4))
	runFor(t, p, 500*time.Millisecond)

	require.Len(t, ldr.loaded, 8)
	for i, out := range ldr.loaded {
		assert.Equal(t, string(rune('0'+i)), string(out.Key))
	}
}

func TestPipeline_Run_SkippedReportCommittedWithBatch(t *testing.T) {
	var commits atomic.Int32
	commit := func(context.Context) error {
		commits.Add(1)
		return nil
	}
	bad := rawReport("bad", "")
	bad.Commit = commit
	good := rawReport("1", "report")
	good.Commit = commit

	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{events: []domain.RawEvent{bad, good}}, slowTransformer{}, ldr,
		discardLogger(), observability.NewMetricsForTesting(), 10)
	runFor(t, p, 300*time.Millisecond)

	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, int32(2), commits.Load())
}

func TestPipeline_Run_LoadFailureHoldsSkippedCommit(t *testing.T) {
	var commits atomic.Int32
	commit := func(context.Context) error {
		commits.Add(1)
		return nil
	}
	bad := rawReport("bad", "")
	bad.Commit = commit
	good := rawReport("1", "report")
	good.Commit = commit

	ldr := &mockLoader{fail: 100}
	p := pipeline.New(&mockExtractor{events: []domain.RawEvent{bad, good}}, slowTransformer{}, ldr,
		discardLogger(), observability.NewMetricsForTesting(), 10,
		pipeline.WithBackoff(10*time.Millisecond, 20*time.Millisecond))
	runFor(t, p, 200*time.Millisecond)

	assert.Equal(t, int32(0), commits.Load())
	assert.False(t, p.Ready())
}
