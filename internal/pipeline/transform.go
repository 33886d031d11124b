package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/crisislens-service/internal/domain"
)

// Analyzer scores one report.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.ReportRequest) domain.AnalysisRecord
}

// ReportTransformer implements Transformer by parsing a raw report, running
// it through the analyzer, and serializing the record for the sink topic.
type ReportTransformer struct {
	analyzer Analyzer
	logger   *slog.Logger
}

// NewTransformer creates a ReportTransformer.
func NewTransformer(analyzer Analyzer, logger *slog.Logger) *ReportTransformer {
	return &ReportTransformer{
		analyzer: analyzer,
		logger:   logger,
	}
}

// Transform returns an error only for messages that cannot be parsed into a
// report. Analysis itself never fails.
func (t *ReportTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	req, err := domain.ParseReportRequest(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	rec := t.analyzer.Analyze(ctx, req)
	return domain.SerializeRecord(rec)
}
