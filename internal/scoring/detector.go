package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/couchcryptid/crisislens-service/internal/domain"
	"github.com/couchcryptid/crisislens-service/internal/lexicon"
)

const (
	neutralBase     = 0.3
	strongBonus     = 0.3
	fallbackBoost   = 0.3
	maxDensity      = 0.5
	neuralWeight    = 0.4
	keywordWeight   = 0.6
	maxEvidence     = 5
	keywordModel    = "keyword"
	fallbackModel   = "keyword_fallback"
	invalidTextNote = "Text is too short or invalid for crisis detection"
)

// NeuralScorer returns the probability that text describes a crisis.
type NeuralScorer interface {
	Score(ctx context.Context, text string) (float64, error)
	Model() string
}

// DetectorConfig tunes crisis detection.
type DetectorConfig struct {
	Threshold float64
	MinWords  int
	MaxChars  int
}

// DefaultDetectorConfig returns the stock detection settings.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{Threshold: 0.5, MinWords: 5, MaxChars: 50000}
}

// Detector decides whether a report describes a crisis.
//
// With no neural scorer it uses keyword evidence only. With one, it blends
// the neural probability with the keyword score, and if the scorer fails it
// falls back to keywords plus a boost for unambiguous disaster terms.
type Detector struct {
	matcher *lexicon.Matcher
	cfg     DetectorConfig
	neural  NeuralScorer
	logger  *slog.Logger
}

// NewDetector creates a Detector. Pass a nil scorer for keyword-only detection.
func NewDetector(m *lexicon.Matcher, cfg DetectorConfig, neural NeuralScorer, logger *slog.Logger) *Detector {
	def := DefaultDetectorConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.MinWords <= 0 {
		cfg.MinWords = def.MinWords
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = def.MaxChars
	}
	return &Detector{matcher: m, cfg: cfg, neural: neural, logger: logger}
}

// Detect runs the strategy chain and never returns an error: invalid input
// yields a non-crisis result with Error set.
func (d *Detector) Detect(ctx context.Context, text string) domain.DetectionResult {
	cleaned, err := d.prepare(text)
	if err != nil {
		return d.invalid(err)
	}
	kw := d.keywordResult(cleaned)
	if d.neural == nil {
		return kw
	}

	res, err := attempt(func() (domain.DetectionResult, error) {
		return d.hybrid(ctx, cleaned, kw)
	})
	if err == nil {
		return res
	}
	d.logger.Warn("neural scorer failed, using keyword fallback",
		"collaborator", "neural",
		"error", err,
		"text_preview", domain.Preview(cleaned),
	)
	return d.neuralFallback(cleaned, kw)
}

// DetectKeywords scores text with keyword evidence alone.
func (d *Detector) DetectKeywords(text string) (domain.DetectionResult, error) {
	cleaned, err := d.prepare(text)
	if err != nil {
		return d.invalid(err), err
	}
	return d.keywordResult(cleaned), nil
}

func (d *Detector) prepare(text string) (string, error) {
	cleaned := lexicon.Truncate(lexicon.Clean(text), d.cfg.MaxChars)
	if err := lexicon.Validate(cleaned, d.cfg.MinWords); err != nil {
		return "", err
	}
	return cleaned, nil
}

func (d *Detector) keywordResult(cleaned string) domain.DetectionResult {
	found := d.matcher.Find(lexicon.CategoryCrisis, cleaned)
	crisis := len(found)
	nonCrisis := d.matcher.Count(lexicon.CategoryNonCrisis, cleaned)
	strong := d.matcher.Count(lexicon.CategoryStrongIndicators, cleaned)

	base := neutralBase
	if total := crisis + nonCrisis; total > 0 {
		base = float64(crisis) / float64(total)
	}
	if strong > 0 {
		base = math.Min(1, base+strongBonus)
	}
	density := densityFactor(lexicon.WordCount(cleaned), crisis)
	score := round3(math.Min(1, base*(1+density)))

	evidence := lexicon.Labels(found)
	if len(evidence) > maxEvidence {
		evidence = evidence[:maxEvidence]
	}

	return domain.DetectionResult{
		IsCrisis:   score >= d.cfg.Threshold,
		Confidence: score,
		Threshold:  d.cfg.Threshold,
		Method:     domain.MethodKeyword,
		Model:      keywordModel,
		Evidence:   evidence,
		Breakdown:  domain.ScoreBreakdown{Keyword: score},
		Counts: domain.KeywordCounts{
			Crisis:           crisis,
			NonCrisis:        nonCrisis,
			StrongIndicators: strong,
		},
		Explanation: detectionExplanation(score, d.cfg.Threshold, evidence),
	}
}

func (d *Detector) hybrid(ctx context.Context, cleaned string, kw domain.DetectionResult) (domain.DetectionResult, error) {
	p, err := d.neural.Score(ctx, cleaned)
	if err != nil {
		return domain.DetectionResult{}, err
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return domain.DetectionResult{}, fmt.Errorf("neural probability %v outside [0,1]: %w", p, domain.ErrCollaboratorUnavailable)
	}

	res := kw
	res.Confidence = round3(neuralWeight*p + keywordWeight*kw.Confidence)
	res.IsCrisis = res.Confidence >= d.cfg.Threshold
	res.Method = domain.MethodHybrid
	res.Model = d.neural.Model()
	res.Breakdown = domain.ScoreBreakdown{Neural: &p, Keyword: kw.Confidence}
	res.Explanation = detectionExplanation(res.Confidence, d.cfg.Threshold, kw.Evidence)
	return res, nil
}

func (d *Detector) neuralFallback(cleaned string, kw domain.DetectionResult) domain.DetectionResult {
	res := kw
	res.Method = domain.MethodNeuralFallback
	res.Model = fallbackModel
	if d.matcher.Any(lexicon.CategoryDisasterTerms, cleaned) && !d.matcher.Any(lexicon.CategoryRoutineContext, cleaned) {
		res.Confidence = round3(math.Min(1, kw.Confidence+fallbackBoost))
		res.IsCrisis = true
		res.Boosted = true
		res.Breakdown = domain.ScoreBreakdown{Keyword: res.Confidence}
		res.Explanation = detectionExplanation(res.Confidence, d.cfg.Threshold, kw.Evidence)
	}
	return res
}

func (d *Detector) invalid(err error) domain.DetectionResult {
	return domain.DetectionResult{
		Threshold:   d.cfg.Threshold,
		Method:      domain.MethodKeyword,
		Model:       keywordModel,
		Evidence:    []string{},
		Explanation: invalidTextNote,
		Error:       err.Error(),
	}
}

// densityFactor rewards keyword density, with a log term for long texts.
func densityFactor(words, keywords int) float64 {
	if words == 0 || keywords == 0 {
		return 0
	}
	density := float64(keywords) / float64(words)
	if words > 100 {
		density += math.Log(float64(words)/100+1) / 5
	}
	return math.Min(maxDensity, density)
}

func detectionExplanation(score, threshold float64, evidence []string) string {
	var level string
	switch {
	case score >= 0.9:
		level = "Very high confidence"
	case score >= 0.8:
		level = "High confidence"
	case score >= threshold:
		level = "Moderate confidence"
	default:
		level = "Low confidence"
	}

	var b strings.Builder
	b.WriteString(level)
	if len(evidence) > 0 {
		shown := evidence
		if len(shown) > 3 {
			shown = shown[:3]
		}
		fmt.Fprintf(&b, ": Found crisis keywords (%s)", strings.Join(shown, ", "))
	} else {
		b.WriteString(": Limited crisis indicators found")
	}
	if score >= threshold {
		fmt.Fprintf(&b, ". Score %s exceeds threshold %s.", percent(score, 1), percent(threshold, 1))
	} else {
		fmt.Fprintf(&b, ". Score %s below threshold %s.", percent(score, 1), percent(threshold, 1))
	}
	return b.String()
}

// attempt runs fn, converting a panic into an error.
func attempt(fn func() (domain.DetectionResult, error)) (res domain.DetectionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered: %v: %w", r, domain.ErrCollaboratorUnavailable)
		}
	}()
	return fn()
}
