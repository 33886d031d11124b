package location

import (
	"regexp"
	"sort"
	"strings"
)

const (
	sourceDatabase     = "database"
	sourcePatternMatch = "pattern_match"

	databaseConfidence = 0.9
	patternConfidence  = 0.8
)

// contextPatterns capture capitalised names after a locative preposition or
// in a "Place, Region" pair.
var contextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`in\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`),
	regexp.MustCompile(`at\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`),
	regexp.MustCompile(`near\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`),
	regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*),\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`),
}

// Match is a place found in text.
type Match struct {
	Place
	Confidence float64
	Source     string
}

// Extractor finds gazetteer places mentioned in free text.
type Extractor struct {
	gazetteer *Gazetteer
}

// NewExtractor creates an Extractor over g.
func NewExtractor(g *Gazetteer) *Extractor {
	return &Extractor{gazetteer: g}
}

// Extract returns every distinct place mentioned in text. Whole-word mentions
// come first in gazetteer order, followed by places only recognised inside a
// locative phrase.
func (e *Extractor) Extract(text string) []Match {
	var found []Match
	seen := make(map[string]bool)
	add := func(p Place, confidence float64, source string) {
		if seen[p.Name] {
			return
		}
		seen[p.Name] = true
		found = append(found, Match{Place: p, Confidence: confidence, Source: source})
	}

	for i, p := range e.gazetteer.places {
		if e.gazetteer.words[i].MatchString(text) {
			add(p, databaseConfidence, sourceDatabase)
		}
	}

	for _, re := range contextPatterns {
		for _, groups := range re.FindAllStringSubmatch(text, -1) {
			candidate := strings.ToLower(strings.Join(groups[1:], " "))
			for _, p := range e.gazetteer.places {
				if strings.Contains(candidate, strings.ToLower(p.Name)) {
					add(p, patternConfidence, sourcePatternMatch)
					break
				}
			}
		}
	}
	return found
}

// Primary picks the most likely place in text: cities before states before
// anything else, higher confidence first within a level.
func (e *Extractor) Primary(text string) (Match, []Match, bool) {
	all := e.Extract(text)
	if len(all) == 0 {
		return Match{}, nil, false
	}
	for _, kind := range []Kind{KindCity, KindState} {
		var level []Match
		for _, m := range all {
			if m.Kind == kind {
				level = append(level, m)
			}
		}
		if len(level) > 0 {
			sort.SliceStable(level, func(i, j int) bool {
				return level[i].Confidence > level[j].Confidence
			})
			return level[0], all, true
		}
	}
	return all[0], all, true
}
