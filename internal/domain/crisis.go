package domain

import "strings"

// CrisisType is the closed set of labels produced by type classification.
type CrisisType string

const (
	TypeFlood        CrisisType = "Flood"
	TypeCyclone      CrisisType = "Cyclone"
	TypeEarthquake   CrisisType = "Earthquake"
	TypeFire         CrisisType = "Fire"
	TypeEpidemic     CrisisType = "Epidemic"
	TypeFoodShortage CrisisType = "Food Shortage"
	TypeLandslide    CrisisType = "Landslide"
	TypeDrought      CrisisType = "Drought"
	TypeStorm        CrisisType = "Storm"
	TypeOutbreak     CrisisType = "Outbreak"
	TypeOther        CrisisType = "Other"

	// TypeNonCrisis is returned when classification runs on text the detector
	// did not flag. It is never a candidate.
	TypeNonCrisis CrisisType = "Non-Crisis"
)

// ClassifiableTypes lists the candidate types in tie-break order.
var ClassifiableTypes = []CrisisType{
	TypeFlood,
	TypeCyclone,
	TypeEarthquake,
	TypeFire,
	TypeEpidemic,
	TypeFoodShortage,
	TypeLandslide,
	TypeDrought,
	TypeStorm,
	TypeOutbreak,
}

// Rank returns the tie-break position of t; unknown types sort last.
func (t CrisisType) Rank() int {
	for i, c := range ClassifiableTypes {
		if c == t {
			return i
		}
	}
	return len(ClassifiableTypes)
}

// IssueCategory is the coarse bucket downstream case-management tools file
// reports under.
type IssueCategory string

const (
	CategoryDisaster IssueCategory = "disaster"
	CategoryDisease  IssueCategory = "disease"
	CategoryOthers   IssueCategory = "others"
)

// CategoryFor maps a crisis type onto its issue category.
func CategoryFor(t CrisisType) IssueCategory {
	name := strings.ToLower(string(t))
	for _, k := range []string{"flood", "earthquake", "fire", "cyclone", "tsunami"} {
		if strings.Contains(name, k) {
			return CategoryDisaster
		}
	}
	for _, k := range []string{"epidemic", "outbreak", "disease", "virus", "health"} {
		if strings.Contains(name, k) {
			return CategoryDisease
		}
	}
	return CategoryOthers
}

// DetectionMethod records which detection strategy produced a result.
type DetectionMethod string

const (
	MethodKeyword        DetectionMethod = "keyword"
	MethodHybrid         DetectionMethod = "hybrid"
	MethodNeuralFallback DetectionMethod = "neural_fallback"
)

// KeywordCounts holds distinct lexicon matches seen during detection.
type KeywordCounts struct {
	Crisis           int `json:"crisis"`
	NonCrisis        int `json:"non_crisis"`
	StrongIndicators int `json:"strong_indicators"`
}

// ScoreBreakdown exposes the components of a detection score. Neural is nil
// when no neural score contributed.
type ScoreBreakdown struct {
	Neural  *float64 `json:"neural,omitempty"`
	Keyword float64  `json:"keyword"`
}

// DetectionResult is the outcome of crisis detection.
type DetectionResult struct {
	IsCrisis    bool            `json:"is_crisis"`
	Confidence  float64         `json:"confidence"`
	Threshold   float64         `json:"threshold"`
	Method      DetectionMethod `json:"method"`
	Model       string          `json:"model"`
	Boosted     bool            `json:"boosted,omitempty"`
	Evidence    []string        `json:"keywords_found"`
	Breakdown   ScoreBreakdown  `json:"score_breakdown"`
	Counts      KeywordCounts   `json:"keyword_counts"`
	Explanation string          `json:"explanation"`
	Error       string          `json:"error,omitempty"`
}

// TypeCandidate is one scored crisis type.
type TypeCandidate struct {
	Type            CrisisType `json:"type"`
	Confidence      float64    `json:"confidence"`
	MatchedKeywords []string   `json:"matched_keywords,omitempty"`
}

// TypeResult is the outcome of type classification.
type TypeResult struct {
	PrimaryType   CrisisType      `json:"type"`
	Category      IssueCategory   `json:"category"`
	Confidence    float64         `json:"confidence"`
	Alternatives  []TypeCandidate `json:"alternatives"`
	Candidates    []TypeCandidate `json:"all_predictions"`
	ThresholdUsed float64         `json:"threshold_used"`
	Method        string          `json:"method"`
	Explanation   string          `json:"explanation"`
}

// SeverityResult scores four impact dimensions plus their weighted overall.
type SeverityResult struct {
	HumanImpact          float64 `json:"human_impact"`
	InfrastructureDamage float64 `json:"infrastructure_damage"`
	GeographicScale      float64 `json:"geographic_scale"`
	TemporalUrgency      float64 `json:"temporal_urgency"`
	Overall              float64 `json:"overall"`
	CasualtyEstimate     int     `json:"casualty_estimate"`
	Explanation          string  `json:"explanation"`
}

// UrgencyLevel buckets an urgency score.
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// UrgencyResult is the outcome of urgency detection.
type UrgencyResult struct {
	Score          float64      `json:"score"`
	Level          UrgencyLevel `json:"level"`
	IsUrgent       bool         `json:"is_urgent"`
	Keywords       []string     `json:"keywords"`
	TimeIndicators []string     `json:"time_indicators"`
	Explanation    string       `json:"explanation"`
}

// PriorityLevel buckets a fused priority score.
type PriorityLevel string

const (
	PriorityVeryLow  PriorityLevel = "VERY LOW"
	PriorityLow      PriorityLevel = "LOW"
	PriorityMedium   PriorityLevel = "MEDIUM"
	PriorityHigh     PriorityLevel = "HIGH"
	PriorityCritical PriorityLevel = "CRITICAL"
)

// PriorityThresholds are the ascending lower bounds of each priority level.
type PriorityThresholds struct {
	Low      float64 `json:"low"`
	Medium   float64 `json:"medium"`
	High     float64 `json:"high"`
	Critical float64 `json:"critical"`
}

// DefaultPriorityThresholds returns the stock level bounds.
func DefaultPriorityThresholds() PriorityThresholds {
	return PriorityThresholds{Low: 0.3, Medium: 0.6, High: 0.8, Critical: 0.9}
}

// Level maps a score onto its priority level.
func (t PriorityThresholds) Level(score float64) PriorityLevel {
	switch {
	case score >= t.Critical:
		return PriorityCritical
	case score >= t.High:
		return PriorityHigh
	case score >= t.Medium:
		return PriorityMedium
	case score >= t.Low:
		return PriorityLow
	default:
		return PriorityVeryLow
	}
}

// PriorityFactors are the inputs fused into a priority score.
type PriorityFactors struct {
	CrisisConfidence float64 `json:"crisis_confidence"`
	TypeConfidence   float64 `json:"type_confidence"`
	Severity         float64 `json:"severity"`
	Urgency          float64 `json:"urgency"`
	RegionalRisk     float64 `json:"regional_risk"`
}

// PriorityResult is the fused ranking score.
type PriorityResult struct {
	Score      float64            `json:"score"`
	Level      PriorityLevel      `json:"level"`
	Thresholds PriorityThresholds `json:"thresholds"`
	Factors    PriorityFactors    `json:"calculation_factors"`
}

// ExplanationMethod records which path produced an explanation.
type ExplanationMethod string

const (
	ExplanationTemplate  ExplanationMethod = "template"
	ExplanationGenerated ExplanationMethod = "generated"
)

// Explanation is the human-readable rationale attached to a crisis record.
type Explanation struct {
	Content string            `json:"content"`
	Method  ExplanationMethod `json:"method"`
	Model   string            `json:"model"`
}
