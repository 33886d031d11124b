package scoring

import (
	"fmt"
	"math"

	"github.com/couchcryptid/crisislens-service/internal/domain"
)

// urgencyWeight is added on top of the configurable weights.
const urgencyWeight = 0.1

// defaultRegionalRisk applies to types missing from the risk table.
const defaultRegionalRisk = 0.6

// regionalRisk is the focus region's exposure to each crisis type.
var regionalRisk = map[domain.CrisisType]float64{
	domain.TypeFlood:        0.85,
	domain.TypeCyclone:      0.75,
	domain.TypeFire:         0.65,
	domain.TypeEarthquake:   0.40,
	domain.TypeEpidemic:     0.80,
	domain.TypeFoodShortage: 0.55,
	domain.TypeLandslide:    0.30,
	domain.TypeDrought:      0.35,
	domain.TypeStorm:        0.70,
	domain.TypeOutbreak:     0.80,
	domain.TypeOther:        0.50,
}

// RegionalRisk returns the focus region's risk factor for t.
func RegionalRisk(t domain.CrisisType) float64 {
	if r, ok := regionalRisk[t]; ok {
		return r
	}
	return defaultRegionalRisk
}

// PriorityWeights weight the fused priority factors.
type PriorityWeights struct {
	Crisis      float64
	Severity    float64
	Credibility float64
	Regional    float64
}

// DefaultPriorityWeights returns the stock fusion weights.
func DefaultPriorityWeights() PriorityWeights {
	return PriorityWeights{Crisis: 0.35, Severity: 0.30, Credibility: 0.15, Regional: 0.20}
}

// Sum returns the total of the configurable weights.
func (w PriorityWeights) Sum() float64 {
	return w.Crisis + w.Severity + w.Credibility + w.Regional
}

// Validate rejects negative weights and sums far from 1.
func (w PriorityWeights) Validate() error {
	named := []struct {
		name  string
		value float64
	}{
		{"crisis", w.Crisis},
		{"severity", w.Severity},
		{"credibility", w.Credibility},
		{"regional", w.Regional},
	}
	for _, n := range named {
		if n.value < 0 || math.IsNaN(n.value) {
			return fmt.Errorf("priority weight %s=%v must be non-negative: %w", n.name, n.value, domain.ErrConfiguration)
		}
	}
	if s := w.Sum(); s < 0.9 || s > 1.1 {
		return fmt.Errorf("priority weights sum to %.3f, want 0.9..1.1: %w", s, domain.ErrConfiguration)
	}
	return nil
}

// PriorityFusion combines stage results into one ranking score.
type PriorityFusion struct {
	weights    PriorityWeights
	thresholds domain.PriorityThresholds
}

// NewPriorityFusion creates a PriorityFusion.
func NewPriorityFusion(w PriorityWeights, t domain.PriorityThresholds) *PriorityFusion {
	return &PriorityFusion{weights: w, thresholds: t}
}

// Fuse computes the priority score and level. The type confidence stands in
// for source credibility.
func (p *PriorityFusion) Fuse(det domain.DetectionResult, typ domain.TypeResult, sev domain.SeverityResult, urg domain.UrgencyResult) domain.PriorityResult {
	factors := domain.PriorityFactors{
		CrisisConfidence: det.Confidence,
		TypeConfidence:   typ.Confidence,
		Severity:         sev.Overall,
		Urgency:          urg.Score,
		RegionalRisk:     RegionalRisk(typ.PrimaryType),
	}
	score := p.weights.Crisis*factors.CrisisConfidence +
		p.weights.Severity*factors.Severity +
		p.weights.Credibility*factors.TypeConfidence +
		p.weights.Regional*factors.RegionalRisk +
		urgencyWeight*factors.Urgency
	score = round3(clamp01(score))

	return domain.PriorityResult{
		Score:      score,
		Level:      p.thresholds.Level(score),
		Thresholds: p.thresholds,
		Factors:    factors,
	}
}
