package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverity_Casualties(t *testing.T) {
	s := NewSeverityEstimator(defaultMatcher())

	res := s.Estimate("50 people dead and 20 injured")

	assert.Equal(t, 70, res.CasualtyEstimate)
	assert.InDelta(t, 0.95, res.HumanImpact, 1e-9)
	assert.InDelta(t, 0.4, res.GeographicScale, 1e-9)
	assert.InDelta(t, 0.6925, res.Overall, 0.001)
	assert.Equal(t, "70+ casualties reported", res.Explanation)
}

func TestSeverity_Dimensions(t *testing.T) {
	s := NewSeverityEstimator(defaultMatcher())

	res := s.Estimate(adyarReport)

	assert.Zero(t, res.CasualtyEstimate)
	assert.InDelta(t, 0.4, res.HumanImpact, 1e-9)
	assert.InDelta(t, 0.55, res.GeographicScale, 1e-9)
	assert.InDelta(t, 0.55, res.InfrastructureDamage, 1e-9)
	assert.InDelta(t, 0.7, res.TemporalUrgency, 1e-9)
	assert.InDelta(t, 0.52, res.Overall, 1e-9)
	assert.Equal(t,
		"Potential human impact | Multiple locations affected | Building/property damage | Ongoing/developing situation",
		res.Explanation)
}

func TestSeverity_NoIndicators(t *testing.T) {
	res := NewSeverityEstimator(defaultMatcher()).Estimate("a calm and quiet day")

	assert.Equal(t, 0.2, res.Overall)
	assert.Equal(t, "Limited severity indicators detected", res.Explanation)
}

func TestSeverity_GeographicBreadth(t *testing.T) {
	res := NewSeverityEstimator(defaultMatcher()).Estimate("Flooding across the entire state")

	assert.InDelta(t, 0.9, res.GeographicScale, 1e-9)
	assert.Contains(t, res.Explanation, "Widespread geographic area")
}

func TestSeverity_CasualtyWindow(t *testing.T) {
	s := NewSeverityEstimator(defaultMatcher())

	text := "100 volunteers arrived at the camp yesterday while elsewhere two people were reported dead"
	res := s.Estimate(text)

	assert.Zero(t, res.CasualtyEstimate)
	// Two human-impact words plus the numeric boost for a figure over 10.
	assert.InDelta(t, 0.7, res.HumanImpact, 1e-9)
}

func TestSeverity_CasualtyEstimate(t *testing.T) {
	s := NewSeverityEstimator(defaultMatcher())

	tests := []struct {
		text string
		want int
	}{
		{"20 dead 20 injured", 40},
		{"12 killed, 3 hospitalized.", 15},
		{"200 homes damaged", 0},
		{"no figures at all", 0},
		{"9000000000000000000 dead and 9000000000000000000 injured", math.MaxInt},
		{"99999999999999999999 dead", 0},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, s.CasualtyEstimate(tt.text))
		})
	}
}

func TestSeverity_HugeCasualtyFiguresSaturate(t *testing.T) {
	s := NewSeverityEstimator(defaultMatcher())
	huge := s.Estimate("9000000000000000000 dead and 9000000000000000000 injured")
	large := s.Estimate("200 dead and 300 injured")

	assert.Equal(t, math.MaxInt, huge.CasualtyEstimate)
	assert.Equal(t, large.HumanImpact, huge.HumanImpact, "huge totals take the casualty boost")
	assert.LessOrEqual(t, huge.Overall, 0.99)
}

func TestSeverity_ScoresBounded(t *testing.T) {
	text := "5000 people dead injured killed across the entire country, buildings roads bridges destroyed, " +
		"urgent immediate emergency evacuation ongoing"
	res := NewSeverityEstimator(defaultMatcher()).Estimate(text)

	for _, v := range []float64{res.HumanImpact, res.GeographicScale, res.InfrastructureDamage, res.TemporalUrgency, res.Overall} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 0.99)
	}
}
