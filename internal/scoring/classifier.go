package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/couchcryptid/crisislens-service/internal/domain"
	"github.com/couchcryptid/crisislens-service/internal/lexicon"
)

const (
	phraseWeight       = 0.25
	routineConfidence  = 0.1
	insufficientScore  = 0.5
	maxAlternatives    = 2
	maxMatchedKeywords = 5
	classifierMethod   = "keyword_enhanced"
)

// Classifier assigns a crisis type from weighted keyword and phrase evidence.
type Classifier struct {
	matcher   *lexicon.Matcher
	threshold float64
	weak      map[string]bool
}

// NewClassifier creates a Classifier. threshold is used when the evidence
// does not justify a lower dynamic threshold.
func NewClassifier(m *lexicon.Matcher, threshold float64) *Classifier {
	if threshold <= 0 {
		threshold = 0.3
	}
	weak := make(map[string]bool)
	for _, e := range m.Lexicon().Entries(lexicon.CategoryWeakEvidence) {
		weak[e.Label()] = true
	}
	return &Classifier{matcher: m, threshold: threshold, weak: weak}
}

type typeScore struct {
	crisisType domain.CrisisType
	score      float64
	matched    []string
	strong     int
	phrases    int
}

// Classify returns the primary crisis type for text. Text the detector did
// not flag gets the Non-Crisis sentinel.
func (c *Classifier) Classify(text string, isCrisis bool) domain.TypeResult {
	if !isCrisis {
		return domain.TypeResult{
			PrimaryType:   domain.TypeNonCrisis,
			Category:      domain.CategoryOthers,
			Confidence:    1.0,
			Alternatives:  []domain.TypeCandidate{},
			Candidates:    []domain.TypeCandidate{{Type: domain.TypeNonCrisis, Confidence: 1.0}},
			ThresholdUsed: c.threshold,
			Method:        classifierMethod,
			Explanation:   "Text is not classified as a crisis",
		}
	}

	lower := strings.ToLower(text)
	if ctx, ok := c.matcher.First(lexicon.CategoryRoutineContext, lower); ok {
		return c.other(routineConfidence, fmt.Sprintf("Context suggests routine issue, not crisis: '%s'", ctx.Label()))
	}

	scores := make([]typeScore, 0, len(domain.ClassifiableTypes))
	strong, phrases := 0, 0
	for _, t := range domain.ClassifiableTypes {
		ts := c.score(t, lower)
		strong += ts.strong
		phrases += ts.phrases
		scores = append(scores, ts)
	}
	threshold := c.dynamicThreshold(strong, phrases)

	var accepted []typeScore
	for _, ts := range scores {
		if ts.score > 0 && ts.score >= threshold {
			accepted = append(accepted, ts)
		}
	}
	if len(accepted) == 0 {
		ranked := append([]typeScore(nil), scores...)
		sortScores(ranked)
		for _, ts := range ranked[:min(2, len(ranked))] {
			if ts.score > 0 {
				accepted = append(accepted, ts)
			}
		}
	}
	if len(accepted) == 0 {
		return c.other(insufficientScore, "Insufficient evidence to classify crisis type")
	}
	sortScores(accepted)

	candidates := make([]domain.TypeCandidate, len(accepted))
	for i, ts := range accepted {
		candidates[i] = ts.candidate()
	}
	primary := candidates[0]

	alternatives := []domain.TypeCandidate{}
	for _, cand := range candidates[1:] {
		if cand.Confidence > threshold*1.5 && len(alternatives) < maxAlternatives {
			alternatives = append(alternatives, cand)
		}
	}

	return domain.TypeResult{
		PrimaryType:   primary.Type,
		Category:      domain.CategoryFor(primary.Type),
		Confidence:    primary.Confidence,
		Alternatives:  alternatives,
		Candidates:    candidates,
		ThresholdUsed: threshold,
		Method:        classifierMethod,
		Explanation:   classificationExplanation(primary, alternatives, threshold),
	}
}

func (c *Classifier) score(t domain.CrisisType, lower string) typeScore {
	ts := typeScore{crisisType: t}
	for _, e := range c.matcher.Find(lexicon.TypeCategory(t), lower) {
		w := e.EffectiveWeight()
		ts.score += w
		if w >= lexicon.WeightStrong {
			ts.strong++
		}
		ts.matched = append(ts.matched, e.Label())
	}
	for _, e := range c.matcher.Find(lexicon.PhraseCategory(t), lower) {
		ts.score += phraseWeight
		ts.phrases++
		ts.matched = append(ts.matched, displayLabel(e.Label()))
	}
	if len(ts.matched) == 1 && c.weak[ts.matched[0]] {
		ts.score *= 0.5
	}
	ts.score = math.Min(1, ts.score)
	return ts
}

func (c *Classifier) dynamicThreshold(strong, phrases int) float64 {
	switch {
	case strong >= 2:
		return 0.1
	case strong == 1:
		return 0.15
	case phrases > 0:
		return 0.2
	default:
		return c.threshold
	}
}

func (c *Classifier) other(confidence float64, explanation string) domain.TypeResult {
	return domain.TypeResult{
		PrimaryType:   domain.TypeOther,
		Category:      domain.CategoryOthers,
		Confidence:    confidence,
		Alternatives:  []domain.TypeCandidate{},
		Candidates:    []domain.TypeCandidate{},
		ThresholdUsed: c.threshold,
		Method:        classifierMethod,
		Explanation:   explanation,
	}
}

func (ts typeScore) candidate() domain.TypeCandidate {
	matched := ts.matched
	if len(matched) > maxMatchedKeywords {
		matched = matched[:maxMatchedKeywords]
	}
	return domain.TypeCandidate{
		Type:            ts.crisisType,
		Confidence:      round3(ts.score),
		MatchedKeywords: matched,
	}
}

// sortScores orders by descending score; ties keep the fixed type order.
func sortScores(s []typeScore) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].score != s[j].score {
			return s[i].score > s[j].score
		}
		return s[i].crisisType.Rank() < s[j].crisisType.Rank()
	})
}

func classificationExplanation(primary domain.TypeCandidate, alternatives []domain.TypeCandidate, threshold float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Primary type: %s (confidence: %s)", primary.Type, percent(primary.Confidence, 0))
	if len(primary.MatchedKeywords) > 0 {
		shown := primary.MatchedKeywords
		if len(shown) > 3 {
			shown = shown[:3]
		}
		fmt.Fprintf(&b, " based on: %s", strings.Join(shown, ", "))
	}

	switch {
	case primary.Confidence >= 0.7:
		b.WriteString(". High confidence classification.")
	case primary.Confidence >= 0.5:
		b.WriteString(". Moderate confidence.")
	case primary.Confidence >= threshold:
		b.WriteString(". Low confidence, verification recommended.")
	default:
		b.WriteString(". Very low confidence.")
	}

	if len(alternatives) > 0 {
		parts := make([]string, len(alternatives))
		for i, a := range alternatives {
			parts[i] = fmt.Sprintf("%s (%s)", a.Type, percent(a.Confidence, 0))
		}
		fmt.Fprintf(&b, " Also considered: %s.", strings.Join(parts, ", "))
	}
	return b.String()
}
