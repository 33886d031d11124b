package scoring

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crisislens-service/internal/domain"
	"github.com/couchcryptid/crisislens-service/internal/lexicon"
)

const adyarReport = "Heavy rainfall causes severe flooding in Adyar area. 50 homes submerged. Urgent evacuation ordered."

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultMatcher() *lexicon.Matcher {
	return lexicon.MustCompile(lexicon.Default())
}

type stubScorer struct {
	prob  float64
	err   error
	panic bool
	calls int
}

func (s *stubScorer) Score(_ context.Context, _ string) (float64, error) {
	s.calls++
	if s.panic {
		panic("model exploded")
	}
	return s.prob, s.err
}

func (s *stubScorer) Model() string { return "stub-classifier" }

func newKeywordDetector() *Detector {
	return NewDetector(defaultMatcher(), DefaultDetectorConfig(), nil, discardLogger())
}

func TestDetector_KeywordCrisis(t *testing.T) {
	d := newKeywordDetector()

	res := d.Detect(context.Background(), lexicon.RemovePunctuation(adyarReport))

	assert.True(t, res.IsCrisis)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, domain.MethodKeyword, res.Method)
	assert.Equal(t, 0.5, res.Threshold)
	assert.Equal(t, []string{"urgent", "flooding", "submerged", "rainfall"}, res.Evidence)
	assert.Equal(t, domain.KeywordCounts{Crisis: 4, NonCrisis: 0, StrongIndicators: 1}, res.Counts)
	assert.Nil(t, res.Breakdown.Neural)
	assert.True(t, strings.HasPrefix(res.Explanation, "Very high confidence: Found crisis keywords (urgent, flooding, submerged)"))
	assert.Contains(t, res.Explanation, "exceeds threshold 50.0%")
}

func TestDetector_RoutineDrillIsNotCrisis(t *testing.T) {
	d := newKeywordDetector()

	res := d.Detect(context.Background(), "Scheduled fire drill at the office")

	assert.False(t, res.IsCrisis)
	assert.InDelta(t, 0.292, res.Confidence, 0.001)
	assert.Equal(t, 3, res.Counts.NonCrisis)
	assert.Contains(t, res.Explanation, "below threshold")
}

func TestDetector_NoMatchesIsNeutral(t *testing.T) {
	d := newKeywordDetector()

	res := d.Detect(context.Background(), "The committee approved the new budget")

	assert.False(t, res.IsCrisis)
	assert.Equal(t, 0.3, res.Confidence)
	assert.Empty(t, res.Evidence)
	assert.Contains(t, res.Explanation, "Limited crisis indicators found")
}

func TestDetector_InvalidInput(t *testing.T) {
	d := newKeywordDetector()

	for _, text := range []string{"", "   ", "flood now", "🔥🔥🔥 @a #b https://x.y"} {
		res := d.Detect(context.Background(), text)
		assert.False(t, res.IsCrisis, text)
		assert.Zero(t, res.Confidence, text)
		assert.NotEmpty(t, res.Error, text)
	}

	_, err := d.DetectKeywords("too short")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDetector_TruncatesLongText(t *testing.T) {
	cfg := DefaultDetectorConfig()
	cfg.MaxChars = 40
	d := NewDetector(defaultMatcher(), cfg, nil, discardLogger())

	text := "massive flood in the city with many people trapped " + strings.Repeat("and more words ", 500)
	res := d.Detect(context.Background(), text)

	assert.Empty(t, res.Error)
	assert.Contains(t, res.Evidence, "flood")
	assert.NotContains(t, res.Evidence, "trapped")
}

func TestDetector_Idempotent(t *testing.T) {
	d := newKeywordDetector()
	a := d.Detect(context.Background(), adyarReport)
	b := d.Detect(context.Background(), adyarReport)
	assert.Equal(t, a, b)
}

func TestDetector_Hybrid(t *testing.T) {
	scorer := &stubScorer{prob: 0.9}
	d := NewDetector(defaultMatcher(), DefaultDetectorConfig(), scorer, discardLogger())

	res := d.Detect(context.Background(), lexicon.RemovePunctuation(adyarReport))

	assert.Equal(t, domain.MethodHybrid, res.Method)
	assert.Equal(t, "stub-classifier", res.Model)
	assert.InDelta(t, 0.96, res.Confidence, 1e-9)
	require.NotNil(t, res.Breakdown.Neural)
	assert.Equal(t, 0.9, *res.Breakdown.Neural)
	assert.Equal(t, 1.0, res.Breakdown.Keyword)
	assert.True(t, res.IsCrisis)
}

func TestDetector_HybridCanRejectLowProbability(t *testing.T) {
	d := NewDetector(defaultMatcher(), DefaultDetectorConfig(), &stubScorer{prob: 0.0}, discardLogger())

	// Keyword score 0.3 with neural 0.0 gives 0.18.
	res := d.Detect(context.Background(), "The committee approved the new budget")

	assert.Equal(t, domain.MethodHybrid, res.Method)
	assert.InDelta(t, 0.18, res.Confidence, 1e-9)
	assert.False(t, res.IsCrisis)
}

func TestDetector_NeuralFailureBoostsDisasterTerms(t *testing.T) {
	scorer := &stubScorer{err: errors.New("connection refused")}
	d := NewDetector(defaultMatcher(), DefaultDetectorConfig(), scorer, discardLogger())

	// Keyword evidence alone: 1 crisis vs 2 routine terms, 0.375.
	res := d.Detect(context.Background(), "Fire reported at the scheduled community event hall")

	assert.Equal(t, 1, scorer.calls)
	assert.Equal(t, domain.MethodNeuralFallback, res.Method)
	assert.True(t, res.Boosted)
	assert.True(t, res.IsCrisis)
	assert.InDelta(t, 0.675, res.Confidence, 1e-9)
}

func TestDetector_NeuralFailureSkipsBoostForRoutineContext(t *testing.T) {
	d := NewDetector(defaultMatcher(), DefaultDetectorConfig(), &stubScorer{err: errors.New("timeout")}, discardLogger())

	res := d.Detect(context.Background(), "Scheduled fire drill at the office")

	assert.Equal(t, domain.MethodNeuralFallback, res.Method)
	assert.False(t, res.Boosted)
	assert.False(t, res.IsCrisis)
}

func TestDetector_NeuralPanicAndBadProbabilityRecover(t *testing.T) {
	for name, scorer := range map[string]*stubScorer{
		"panic":        {panic: true},
		"out of range": {prob: 1.5},
	} {
		t.Run(name, func(t *testing.T) {
			d := NewDetector(defaultMatcher(), DefaultDetectorConfig(), scorer, discardLogger())
			res := d.Detect(context.Background(), lexicon.RemovePunctuation(adyarReport))
			assert.Equal(t, domain.MethodNeuralFallback, res.Method)
			assert.True(t, res.IsCrisis)
		})
	}
}

func TestDetector_MoreCrisisKeywordsNeverLowerConfidence(t *testing.T) {
	d := newKeywordDetector()
	keywords := []string{"flood", "cyclone", "earthquake", "blaze", "outbreak", "tornado"}

	tests := []struct {
		name string
		base string
	}{
		{"short", "Residents attended a routine meeting at the ward office today"},
		{"over 100 words", "Residents attended a routine meeting at the ward office today " +
			strings.Repeat("the town market stayed busy ", 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := tt.base
			prev, err := d.DetectKeywords(text)
			require.NoError(t, err)
			for _, kw := range keywords {
				text += " " + kw
				res, err := d.DetectKeywords(text)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, res.Confidence, prev.Confidence, "after adding %q", kw)
				prev = res
			}
			assert.Positive(t, prev.Confidence)
		})
	}
}

func TestDensityFactor(t *testing.T) {
	assert.Zero(t, densityFactor(0, 3))
	assert.Zero(t, densityFactor(10, 0))
	assert.InDelta(t, 0.2, densityFactor(10, 2), 1e-9)
	assert.Equal(t, 0.5, densityFactor(2, 2))
	// Long texts pick up the log term: 1/200 + ln(3)/5.
	assert.InDelta(t, 0.005+0.2197, densityFactor(200, 1), 1e-3)
}
