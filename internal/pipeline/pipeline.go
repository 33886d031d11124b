package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/crisislens-service/internal/domain"
	"github.com/couchcryptid/crisislens-service/internal/observability"
)

const (
	defaultConcurrency    = 4
	defaultInitialBackoff = 200 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw reports from the source topic.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer converts a raw report into a serialized analysis record.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error)
}

// BatchLoader writes analysis records to the sink topic.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConcurrency bounds how many reports of one batch are analyzed at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithBackoff sets the retry delay after extract or load failures. The delay
// doubles on each consecutive failure up to maxDelay.
func WithBackoff(initial, maxDelay time.Duration) Option {
	return func(p *Pipeline) {
		if initial > 0 && maxDelay >= initial {
			p.retry = retryPolicy{initial: initial, max: maxDelay, current: initial}
		}
	}
}

// Pipeline reads raw reports in batches, analyzes them concurrently, writes
// the records, and commits source offsets once the records are durable.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	batchSize   int
	concurrency int
	retry       retryPolicy
	ready       atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
		concurrency: defaultConcurrency,
		retry: retryPolicy{
			initial: defaultInitialBackoff,
			max:     defaultMaxBackoff,
			current: defaultInitialBackoff,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ready reports whether the pipeline has loaded at least one batch.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// CheckReadiness returns nil once a batch of records has reached the sink.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not produced any records yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize, "concurrency", p.concurrency)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for ctx.Err() == nil {
		if !p.cycle(ctx) {
			break
		}
	}
	p.logger.Info("pipeline stopping", "reason", context.Cause(ctx))
	return nil
}

// cycle runs one extract-analyze-load pass. It returns false when the
// pipeline should stop.
func (p *Pipeline) cycle(ctx context.Context) bool {
	start := time.Now()

	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.retry.wait(ctx)
	}
	if len(batch) == 0 {
		return true
	}
	p.retry.reset()
	p.metrics.MessagesConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))

	records := p.analyze(ctx, batch)
	if len(records) > 0 {
		if err := p.loader.LoadBatch(ctx, records); err != nil {
			if ctx.Err() != nil {
				return false
			}
			p.logger.Error("load batch failed", "error", err, "records", len(records))
			return p.retry.wait(ctx)
		}
		p.metrics.MessagesProduced.Add(float64(len(records)))
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}

	// Skipped reports are committed with the batch so an offset is never
	// advanced past a record that has not been written.
	for _, raw := range batch {
		p.commit(ctx, raw)
	}

	p.logger.Debug("batch processed",
		"reports", len(batch),
		"records", len(records),
		"crises", countCrises(records),
		"duration", time.Since(start),
	)
	return true
}

// analyze transforms every report of the batch with bounded concurrency and
// returns the records in input order. Unparseable reports are logged and
// dropped.
func (p *Pipeline) analyze(ctx context.Context, batch []domain.RawEvent) []domain.OutputEvent {
	outs := make([]domain.OutputEvent, len(batch))
	ok := make([]bool, len(batch))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, raw := range batch {
		g.Go(func() error {
			out, err := p.transformer.Transform(ctx, raw)
			if err != nil {
				p.logger.Warn("unparseable report, skipping message",
					"error", err,
					"topic", raw.Topic,
					"partition", raw.Partition,
					"offset", raw.Offset,
				)
				p.metrics.TransformErrors.Inc()
				return nil
			}
			outs[i], ok[i] = out, true
			return nil
		})
	}
	_ = g.Wait()

	records := make([]domain.OutputEvent, 0, len(batch))
	for i := range outs {
		if ok[i] {
			records = append(records, outs[i])
		}
	}
	return records
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func countCrises(records []domain.OutputEvent) int {
	n := 0
	for _, r := range records {
		if r.Headers[domain.HeaderIsCrisis] == "true" {
			n++
		}
	}
	return n
}

// retryPolicy is a doubling delay capped at max.
type retryPolicy struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

func (r *retryPolicy) reset() { r.current = r.initial }

// wait sleeps for the current delay and doubles it. It returns false if ctx
// ends first.
func (r *retryPolicy) wait(ctx context.Context) bool {
	timer := time.NewTimer(r.current)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}
	r.current = min(r.current*2, r.max)
	return true
}
