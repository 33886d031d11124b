package analysis

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/crisislens-service/internal/config"
	"github.com/couchcryptid/crisislens-service/internal/domain"
	"github.com/couchcryptid/crisislens-service/internal/explain"
	"github.com/couchcryptid/crisislens-service/internal/lexicon"
	"github.com/couchcryptid/crisislens-service/internal/location"
	"github.com/couchcryptid/crisislens-service/internal/observability"
	"github.com/couchcryptid/crisislens-service/internal/scoring"
)

// Collaborators are the optional external services. Leave a field nil to run
// that stage on its deterministic path only.
type Collaborators struct {
	Neural    scoring.NeuralScorer
	Generator explain.Generator
	Geocoder  domain.Geocoder
}

// Build compiles lex and wires every stage from cfg. Errors wrap
// domain.ErrConfiguration.
func Build(cfg *config.Config, lex *lexicon.Lexicon, collab Collaborators, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) (*Analyzer, error) {
	m, err := lexicon.Compile(lex)
	if err != nil {
		return nil, err
	}
	resolver, err := location.NewResolver(location.Default(), collab.Geocoder, cfg.FocusCity, logger)
	if err != nil {
		return nil, err
	}

	detector := scoring.NewDetector(m, scoring.DetectorConfig{
		Threshold: cfg.DetectionThreshold,
		MinWords:  cfg.MinTextWords,
		MaxChars:  cfg.MaxTextLength,
	}, collab.Neural, logger)

	return New(Components{
		Resolver:   resolver,
		Detector:   detector,
		Classifier: scoring.NewClassifier(m, cfg.TypeThreshold),
		Severity:   scoring.NewSeverityEstimator(m),
		Urgency:    scoring.NewUrgencyDetector(m),
		Priority:   scoring.NewPriorityFusion(cfg.PriorityWeights, cfg.PriorityThresholds),
		Explainer:  explain.NewAssembler(m, collab.Generator, cfg.GeminiTimeout, logger),
	}, Options{Clock: clock, Concurrency: cfg.BatchConcurrency}, metrics, logger), nil
}
