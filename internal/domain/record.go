package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"
)

const (
	// UnknownSource labels reports that arrive without a source.
	UnknownSource = "unknown"

	// NonCrisisMessage is attached to records the detector did not flag.
	NonCrisisMessage = "Not identified as a crisis situation"

	// PipelineVersion is stamped into record metadata.
	PipelineVersion = "1.0"

	originalTextLimit = 500
	previewLimit      = 100
)

// Coordinates is a WGS-84 point with its provenance.
type Coordinates struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	State   string  `json:"state,omitempty"`
	Country string  `json:"country,omitempty"`
	Source  string  `json:"source"` // "database", "pattern_match", "mapbox", "default"
}

// LocationConfidence grades how a record's location was obtained.
type LocationConfidence string

const (
	LocationHigh     LocationConfidence = "high"
	LocationMedium   LocationConfidence = "medium"
	LocationProvided LocationConfidence = "provided"
	LocationGeocoded LocationConfidence = "geocoded"
	LocationDefault  LocationConfidence = "default"
)

// LocationInfo is the resolved location block of a record.
type LocationInfo struct {
	Name              string             `json:"name"`
	ExtractedFromText bool               `json:"extracted_from_text"`
	Coordinates       Coordinates        `json:"coordinates"`
	Confidence        LocationConfidence `json:"confidence"`
	AllLocations      []string           `json:"all_possible_locations"`
	ExtractionMethod  string             `json:"extraction_method"`
}

// TextAnalysis holds cheap surface features of the raw report.
type TextAnalysis struct {
	WordCount             int  `json:"word_count"`
	HasNumbers            bool `json:"has_numbers"`
	CasualtyKeywordsFound bool `json:"casualty_keywords_found"`
	TimeKeywordsFound     bool `json:"time_keywords_found"`
	HasCasualties         bool `json:"has_casualties"`
	HasInjuries           bool `json:"has_injuries"`
}

// AnalyzeText computes surface features of text.
func AnalyzeText(text string) TextAnalysis {
	lower := strings.ToLower(text)
	return TextAnalysis{
		WordCount:             len(strings.Fields(text)),
		HasNumbers:            strings.IndexFunc(text, unicode.IsDigit) >= 0,
		CasualtyKeywordsFound: containsAny(lower, "dead", "killed", "injured", "missing", "casualty"),
		TimeKeywordsFound:     containsAny(lower, "now", "immediate", "urgent", "emergency"),
		HasCasualties:         containsAny(lower, "dead", "killed", "casualty"),
		HasInjuries:           containsAny(lower, "injured", "wounded", "hurt"),
	}
}

// Metadata describes how a record was produced.
type Metadata struct {
	PipelineVersion        string      `json:"pipeline_version"`
	ModelsUsed             []string    `json:"models_used"`
	LocationExtractionUsed bool        `json:"location_extraction_used"`
	FocusCity              string      `json:"focus_city"`
	BaseCoordinates        Coordinates `json:"base_coordinates"`
	Timestamp              time.Time   `json:"timestamp"`
	ProcessingTimeMS       int64       `json:"processing_time_ms"`
}

// AnalysisRecord is the full output for one report. Crisis-only blocks are
// nil on non-crisis records.
type AnalysisRecord struct {
	ID           string          `json:"id"`
	IsCrisis     bool            `json:"is_crisis"`
	Message      string          `json:"message,omitempty"`
	Source       string          `json:"source"`
	OriginalText string          `json:"original_text"`
	TextPreview  string          `json:"text_preview"`
	Location     LocationInfo    `json:"location"`
	Detection    DetectionResult `json:"crisis_detection"`
	Type         *TypeResult     `json:"type_classification,omitempty"`
	Severity     *SeverityResult `json:"severity,omitempty"`
	Urgency      *UrgencyResult  `json:"urgency,omitempty"`
	Priority     *PriorityResult `json:"priority,omitempty"`
	Explanation  *Explanation    `json:"explanation,omitempty"`
	TextAnalysis TextAnalysis    `json:"text_analysis"`
	Metadata     Metadata        `json:"metadata"`
}

// PriorityLevel returns the record's priority level, or "" for non-crisis records.
func (r AnalysisRecord) PriorityLevel() PriorityLevel {
	if r.Priority == nil {
		return ""
	}
	return r.Priority.Level
}

// CrisisType returns the record's primary type, or TypeNonCrisis.
func (r AnalysisRecord) CrisisType() CrisisType {
	if r.Type == nil {
		return TypeNonCrisis
	}
	return r.Type.PrimaryType
}

// RecordID returns a deterministic hex SHA-256 of text|source|location.
func RecordID(text, source, location string) string {
	input := fmt.Sprintf("%s|%s|%s", text, source, location)
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// NormalizeSource substitutes UnknownSource for a blank source.
func NormalizeSource(source string) string {
	if s := strings.TrimSpace(source); s != "" {
		return s
	}
	return UnknownSource
}

// Preview returns the first 100 characters of text, with "..." appended when cut.
func Preview(text string) string {
	r := []rune(text)
	if len(r) <= previewLimit {
		return text
	}
	return string(r[:previewLimit]) + "..."
}

// OriginalText returns at most the first 500 characters of text.
func OriginalText(text string) string {
	r := []rune(text)
	if len(r) <= originalTextLimit {
		return text
	}
	return string(r[:originalTextLimit])
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
