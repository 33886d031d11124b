// Package lexicon holds the keyword tables every scorer reads and compiles
// them into case-insensitive, word-boundary matchers.
//
// A Lexicon is immutable once built. Compiled matchers are cached per Lexicon
// value, so concurrent scorers sharing a lexicon share one set of regexps.
package lexicon

import (
	"sort"

	"github.com/couchcryptid/crisislens-service/internal/domain"
)

// DefaultWeight applies to entries that do not carry their own weight.
const DefaultWeight = 0.2

// Category names used by the scorers.
const (
	CategoryCrisis            = "crisis"
	CategoryNonCrisis         = "non_crisis"
	CategoryStrongIndicators  = "strong_indicators"
	CategoryDisasterTerms     = "disaster_terms"
	CategoryRoutineContext    = "routine_context"
	CategoryWeakEvidence      = "weak_evidence"
	CategoryUrgency           = "urgency"
	CategoryTimeIndicators    = "time_indicators"
	CategoryCasualtyContext   = "casualty_context"
	CategoryHumanImpact       = "severity_human_impact"
	CategoryGeographicScale   = "severity_geographic_scale"
	CategoryInfrastructure    = "severity_infrastructure"
	CategoryTemporalUrgency   = "severity_temporal_urgency"
	CategoryGeographicBreadth = "geographic_breadth"
	CategoryContextIndicators = "context_indicators"
)

// TypeCategory names the keyword category for a crisis type.
func TypeCategory(t domain.CrisisType) string {
	return "type:" + string(t)
}

// PhraseCategory names the multi-word pattern category for a crisis type.
func PhraseCategory(t domain.CrisisType) string {
	return "phrases:" + string(t)
}

// Entry is a single lexicon term. Exactly one of Phrase or Pattern is set:
// Phrase matches whole words, Pattern is a raw regular expression.
type Entry struct {
	Phrase  string  `yaml:"phrase,omitempty"`
	Pattern string  `yaml:"pattern,omitempty"`
	Weight  float64 `yaml:"weight,omitempty"`
}

// Label returns the phrase or pattern text used in evidence lists.
func (e Entry) Label() string {
	if e.Phrase != "" {
		return e.Phrase
	}
	return e.Pattern
}

// EffectiveWeight returns the entry weight, or DefaultWeight when unset.
func (e Entry) EffectiveWeight() float64 {
	if e.Weight == 0 {
		return DefaultWeight
	}
	return e.Weight
}

// Lexicon maps category names to ordered entries.
type Lexicon struct {
	name       string
	categories map[string][]Entry
}

// New builds a Lexicon from categories. The input is copied.
func New(name string, categories map[string][]Entry) *Lexicon {
	c := make(map[string][]Entry, len(categories))
	for k, v := range categories {
		c[k] = append([]Entry(nil), v...)
	}
	return &Lexicon{name: name, categories: c}
}

// Name identifies the lexicon in logs and dumps.
func (l *Lexicon) Name() string { return l.name }

// Entries returns a copy of the entries in category, in lexicon order.
func (l *Lexicon) Entries(category string) []Entry {
	return append([]Entry(nil), l.categories[category]...)
}

// Categories returns all category names, sorted.
func (l *Lexicon) Categories() []string {
	names := make([]string, 0, len(l.categories))
	for k := range l.categories {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// With returns a new Lexicon with the given categories replaced.
func (l *Lexicon) With(name string, overrides map[string][]Entry) *Lexicon {
	merged := make(map[string][]Entry, len(l.categories)+len(overrides))
	for k, v := range l.categories {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return New(name, merged)
}
