package scoring

import (
	"math"
	"strings"

	"github.com/couchcryptid/crisislens-service/internal/domain"
	"github.com/couchcryptid/crisislens-service/internal/lexicon"
)

// UrgencyDetector scores how soon a report needs action.
type UrgencyDetector struct {
	matcher *lexicon.Matcher
}

// NewUrgencyDetector creates an UrgencyDetector.
func NewUrgencyDetector(m *lexicon.Matcher) *UrgencyDetector {
	return &UrgencyDetector{matcher: m}
}

// Detect averages the weights of matched urgency phrases and scales the
// average up with the number of matches. Time references are reported but
// do not move the score.
func (u *UrgencyDetector) Detect(text string) domain.UrgencyResult {
	lower := strings.ToLower(text)
	found := u.matcher.Find(lexicon.CategoryUrgency, lower)

	score := 0.1
	if n := len(found); n > 0 {
		total := 0.0
		for _, e := range found {
			total += e.EffectiveWeight()
		}
		multiplier := math.Min(1.5, 1+0.1*float64(n))
		score = math.Min(0.99, total/float64(n)*multiplier)
	}
	score = round3(score)

	var (
		level       domain.UrgencyLevel
		explanation string
	)
	switch {
	case score >= 0.8:
		level, explanation = domain.UrgencyCritical, "Critical time-sensitive situation requiring immediate response"
	case score >= 0.6:
		level, explanation = domain.UrgencyHigh, "High urgency: rapid response needed"
	case score >= 0.4:
		level, explanation = domain.UrgencyMedium, "Medium urgency: monitor closely"
	default:
		level, explanation = domain.UrgencyLow, "Low urgency: routine monitoring"
	}

	indicators := lexicon.Labels(u.matcher.Find(lexicon.CategoryTimeIndicators, lower))
	if len(indicators) > 0 {
		explanation += " | Time indicators: " + strings.Join(indicators, ", ")
	}

	return domain.UrgencyResult{
		Score:          score,
		Level:          level,
		IsUrgent:       level == domain.UrgencyHigh || level == domain.UrgencyCritical,
		Keywords:       lexicon.Labels(found),
		TimeIndicators: indicators,
		Explanation:    explanation,
	}
}
