// Package scoring implements the deterministic crisis-scoring stages:
// detection, type classification, severity, urgency, and priority fusion.
//
// Every scorer reads a compiled lexicon.Matcher and is safe for concurrent
// use. Scores leave this package rounded to three decimals.
package scoring

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var integerRe = regexp.MustCompile(`\b\d+\b`)

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// percent renders v (0..1) as a percentage with the given decimals.
func percent(v float64, decimals int) string {
	return strconv.FormatFloat(v*100, 'f', decimals, 64) + "%"
}

// displayLabel turns a lexicon pattern into readable text.
func displayLabel(label string) string {
	return strings.ReplaceAll(label, `\s+`, " ")
}

// maxInteger returns the largest integer token in text, or 0.
func maxInteger(text string) int {
	best := 0
	for _, s := range integerRe.FindAllString(text, -1) {
		if n, err := strconv.Atoi(s); err == nil && n > best {
			best = n
		}
	}
	return best
}
