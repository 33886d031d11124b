package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/crisislens-service/internal/domain"
	"github.com/couchcryptid/crisislens-service/internal/lexicon"
)

// casualtyWindow is the number of words inspected on each side of a number.
const casualtyWindow = 5

// SeverityEstimator scores human impact, geographic scale, infrastructure
// damage and temporal urgency.
type SeverityEstimator struct {
	matcher *lexicon.Matcher
}

// NewSeverityEstimator creates a SeverityEstimator.
func NewSeverityEstimator(m *lexicon.Matcher) *SeverityEstimator {
	return &SeverityEstimator{matcher: m}
}

// Estimate scores text on the four severity dimensions.
func (s *SeverityEstimator) Estimate(text string) domain.SeverityResult {
	lower := strings.ToLower(text)
	largest := maxInteger(lower)
	casualties := s.CasualtyEstimate(lower)

	human := s.baseScore(lexicon.CategoryHumanImpact, lower)
	if casualties > 0 {
		human = casualtyBoost(human, casualties)
	} else {
		human = numericBoost(human, largest)
	}

	geo := numericBoost(s.baseScore(lexicon.CategoryGeographicScale, lower), largest)
	geo = s.breadthBoost(geo, lower)
	infra := numericBoost(s.baseScore(lexicon.CategoryInfrastructure, lower), largest)
	urgency := numericBoost(s.baseScore(lexicon.CategoryTemporalUrgency, lower), largest)

	overall := 0.35*human + 0.25*geo + 0.25*infra + 0.15*urgency
	switch {
	case casualties > 50:
		overall = math.Min(0.99, overall+0.1)
	case casualties > 10:
		overall = math.Min(0.95, overall+0.05)
	}

	return domain.SeverityResult{
		HumanImpact:          round3(human),
		InfrastructureDamage: round3(infra),
		GeographicScale:      round3(geo),
		TemporalUrgency:      round3(urgency),
		Overall:              round3(clamp01(overall)),
		CasualtyEstimate:     casualties,
		Explanation:          severityExplanation(human, geo, infra, urgency, casualties),
	}
}

// CasualtyEstimate sums every integer token whose ±5-word window contains a
// casualty-context word. A figure near several context words counts once per
// occurrence of the figure, not per context word. The sum saturates at
// math.MaxInt.
func (s *SeverityEstimator) CasualtyEstimate(lower string) int {
	words := strings.Fields(lower)
	total := 0
	for i, w := range words {
		n, err := strconv.Atoi(strings.Trim(w, ".,;:!?()[]\"'"))
		if err != nil || n <= 0 {
			continue
		}
		lo := max(0, i-casualtyWindow)
		hi := min(len(words), i+casualtyWindow+1)
		if s.matcher.Any(lexicon.CategoryCasualtyContext, strings.Join(words[lo:hi], " ")) {
			if n > math.MaxInt-total {
				return math.MaxInt
			}
			total += n
		}
	}
	return total
}

func (s *SeverityEstimator) baseScore(category, lower string) float64 {
	return math.Min(0.95, 0.2+0.15*float64(s.matcher.Count(category, lower)))
}

func (s *SeverityEstimator) breadthBoost(score float64, lower string) float64 {
	best := 0.0
	for _, e := range s.matcher.Find(lexicon.CategoryGeographicBreadth, lower) {
		best = math.Max(best, e.EffectiveWeight())
	}
	switch {
	case best >= lexicon.WeightStrong:
		return math.Min(0.95, score+0.25)
	case best > 0:
		return math.Min(0.90, score+0.15)
	default:
		return score
	}
}

func numericBoost(score float64, largest int) float64 {
	switch {
	case largest > 100:
		return math.Min(0.99, score+0.3)
	case largest > 10:
		return math.Min(0.95, score+0.2)
	case largest > 0:
		return math.Min(0.9, score+0.1)
	default:
		return score
	}
}

func casualtyBoost(score float64, casualties int) float64 {
	switch {
	case casualties > 100:
		return math.Min(0.98, score+0.45)
	case casualties > 50:
		return math.Min(0.95, score+0.35)
	case casualties > 10:
		return math.Min(0.90, score+0.25)
	default:
		return math.Min(0.85, score+0.20)
	}
}

func severityExplanation(human, geo, infra, urgency float64, casualties int) string {
	var parts []string
	switch {
	case casualties > 0:
		parts = append(parts, fmt.Sprintf("%d+ casualties reported", casualties))
	case human > 0.7:
		parts = append(parts, "High human impact risk")
	case human > 0.5:
		parts = append(parts, "Moderate human impact")
	case human > 0.3:
		parts = append(parts, "Potential human impact")
	}
	switch {
	case geo > 0.7:
		parts = append(parts, "Widespread geographic area")
	case geo > 0.5:
		parts = append(parts, "Multiple locations affected")
	}
	switch {
	case infra > 0.7:
		parts = append(parts, "Significant infrastructure damage")
	case infra > 0.5:
		parts = append(parts, "Building/property damage")
	}
	switch {
	case urgency > 0.7:
		parts = append(parts, "Time-sensitive situation")
	case urgency > 0.5:
		parts = append(parts, "Ongoing/developing situation")
	}
	if len(parts) == 0 {
		return "Limited severity indicators detected"
	}
	return strings.Join(parts, " | ")
}
