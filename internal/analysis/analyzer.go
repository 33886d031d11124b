// Package analysis chains the scoring stages into one AnalysisRecord per report.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/crisislens-service/internal/domain"
	"github.com/couchcryptid/crisislens-service/internal/explain"
	"github.com/couchcryptid/crisislens-service/internal/lexicon"
	"github.com/couchcryptid/crisislens-service/internal/location"
	"github.com/couchcryptid/crisislens-service/internal/observability"
	"github.com/couchcryptid/crisislens-service/internal/scoring"
)

const defaultConcurrency = 8

// Components are the stages an Analyzer runs, in order.
type Components struct {
	Resolver   *location.Resolver
	Detector   *scoring.Detector
	Classifier *scoring.Classifier
	Severity   *scoring.SeverityEstimator
	Urgency    *scoring.UrgencyDetector
	Priority   *scoring.PriorityFusion
	Explainer  *explain.Assembler
}

// Options tune an Analyzer. Zero values select the defaults.
type Options struct {
	Clock       clockwork.Clock
	Concurrency int
}

// Analyzer runs the full pipeline for one report or a batch of reports.
// It holds no per-request state and is safe for concurrent use.
type Analyzer struct {
	c           Components
	clock       clockwork.Clock
	concurrency int
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// New creates an Analyzer from already-built stages.
func New(c Components, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Analyzer {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &Analyzer{
		c:           c,
		clock:       opts.Clock,
		concurrency: opts.Concurrency,
		metrics:     metrics,
		logger:      logger,
	}
}

// Analyze produces the record for req. It never fails: invalid text and
// collaborator outages surface as fields of the record.
func (a *Analyzer) Analyze(ctx context.Context, req domain.ReportRequest) domain.AnalysisRecord {
	start := a.clock.Now()
	source := domain.NormalizeSource(req.Source)

	loc := a.c.Resolver.Resolve(ctx, req.Text, req.Location)
	det := a.c.Detector.Detect(ctx, lexicon.RemovePunctuation(req.Text))

	rec := domain.AnalysisRecord{
		ID:           domain.RecordID(req.Text, source, loc.Name),
		IsCrisis:     det.IsCrisis,
		Source:       source,
		OriginalText: domain.OriginalText(req.Text),
		TextPreview:  domain.Preview(req.Text),
		Location:     loc,
		Detection:    det,
		TextAnalysis: domain.AnalyzeText(req.Text),
	}
	models := []string{fmt.Sprintf("CrisisDetector (%s)", det.Method)}

	if det.IsCrisis {
		typ := a.c.Classifier.Classify(req.Text, true)
		sev := a.c.Severity.Estimate(req.Text)
		urg := a.c.Urgency.Detect(req.Text)
		pri := a.c.Priority.Fuse(det, typ, sev, urg)
		exp := a.c.Explainer.Explain(ctx, explain.Input{
			Type:     typ.PrimaryType,
			Severity: sev,
			Urgency:  urg,
			Priority: pri,
			Location: loc.Name,
			Text:     req.Text,
		})

		rec.Type, rec.Severity, rec.Urgency, rec.Priority, rec.Explanation = &typ, &sev, &urg, &pri, &exp
		models = append(models,
			fmt.Sprintf("TypeClassifier (%s)", typ.Method),
			"SeverityEstimator (4-dimension)",
			"UrgencyDetector (keyword-based)",
			fmt.Sprintf("ExplanationGenerator (%s)", exp.Method),
		)
	} else {
		rec.Message = domain.NonCrisisMessage
	}

	elapsed := a.clock.Since(start)
	rec.Metadata = domain.Metadata{
		PipelineVersion:        domain.PipelineVersion,
		ModelsUsed:             models,
		LocationExtractionUsed: loc.ExtractedFromText,
		FocusCity:              a.c.Resolver.Focus().Name,
		BaseCoordinates:        a.c.Resolver.FocusCoordinates(),
		Timestamp:              start.UTC(),
		ProcessingTimeMS:       elapsed.Milliseconds(),
	}

	a.observe(rec, elapsed)
	return rec
}

// AnalyzeRequests analyzes reqs concurrently and returns the records in input
// order. It only fails when ctx is cancelled before every report has started.
func (a *Analyzer) AnalyzeRequests(ctx context.Context, reqs []domain.ReportRequest) ([]domain.AnalysisRecord, error) {
	out := make([]domain.AnalysisRecord, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i := range reqs {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = a.Analyze(gctx, reqs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyze batch: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analyze batch: %w", err)
	}
	return out, nil
}

// AnalyzeBatch applies Analyze positionally. A missing or blank source becomes
// "unknown"; a missing or blank location becomes the focus city.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, texts, sources, locations []string) ([]domain.AnalysisRecord, error) {
	focus := a.c.Resolver.Focus().Name
	reqs := make([]domain.ReportRequest, len(texts))
	for i, text := range texts {
		req := domain.ReportRequest{Text: text}
		if i < len(sources) {
			req.Source = sources[i]
		}
		loc := focus
		if i < len(locations) && strings.TrimSpace(locations[i]) != "" {
			loc = locations[i]
		}
		req.Location = &loc
		reqs[i] = req
	}
	return a.AnalyzeRequests(ctx, reqs)
}

func (a *Analyzer) observe(rec domain.AnalysisRecord, elapsed time.Duration) {
	a.metrics.AnalysisDuration.Observe(elapsed.Seconds())
	a.metrics.DetectionMethod.WithLabelValues(string(rec.Detection.Method)).Inc()

	switch {
	case rec.Detection.Error != "":
		a.metrics.Analyses.WithLabelValues("invalid").Inc()
		a.logger.Debug("report rejected", "error", rec.Detection.Error, "text_preview", rec.TextPreview)
	case !rec.IsCrisis:
		a.metrics.Analyses.WithLabelValues("non_crisis").Inc()
	default:
		a.metrics.Analyses.WithLabelValues("crisis").Inc()
		a.metrics.PriorityLevel.WithLabelValues(string(rec.Priority.Level)).Inc()
		a.metrics.ExplanationMethod.WithLabelValues(string(rec.Explanation.Method)).Inc()
		a.logger.Info("crisis detected",
			"id", rec.ID,
			"type", rec.Type.PrimaryType,
			"priority", rec.Priority.Level,
			"location", rec.Location.Name,
			"processing_time_ms", rec.Metadata.ProcessingTimeMS,
		)
	}
}
