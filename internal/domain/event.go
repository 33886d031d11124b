package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Sink-topic message headers.
const (
	HeaderIsCrisis      = "is_crisis"
	HeaderPriorityLevel = "priority_level"
	HeaderCrisisType    = "crisis_type"
	HeaderProcessedAt   = "processed_at"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// ReportRequest is one report submitted for analysis. A nil Location asks the
// analyzer to extract one from the text.
type ReportRequest struct {
	Text       string    `json:"text"`
	Source     string    `json:"source,omitempty"`
	Location   *string   `json:"location,omitempty"`
	ReceivedAt time.Time `json:"received_at,omitempty"`
}

// ParseReportRequest decodes a source-topic message. JSON objects are decoded
// as ReportRequest; any other payload is taken as the report text, with the
// source read from the "source" header.
func ParseReportRequest(raw RawEvent) (ReportRequest, error) {
	var req ReportRequest
	value := bytes.TrimSpace(raw.Value)
	if len(value) > 0 && value[0] == '{' {
		if err := json.Unmarshal(value, &req); err != nil {
			return ReportRequest{}, fmt.Errorf("parse report request: %w", err)
		}
	} else {
		req.Text = string(value)
		req.Source = raw.Headers["source"]
	}

	if strings.TrimSpace(req.Text) == "" {
		return ReportRequest{}, fmt.Errorf("parse report request: empty text: %w", ErrInvalidInput)
	}
	if req.Location != nil && strings.TrimSpace(*req.Location) == "" {
		req.Location = nil
	}
	req.Source = NormalizeSource(req.Source)

	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = raw.Timestamp.UTC()
	}
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = now()
	}
	return req, nil
}

// SerializeRecord marshals rec into the sink-topic form: keyed by record id,
// with routing headers so consumers can filter without decoding the body.
func SerializeRecord(rec AnalysisRecord) (OutputEvent, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize analysis record: %w", err)
	}
	return OutputEvent{
		Key:   []byte(rec.ID),
		Value: data,
		Headers: map[string]string{
			HeaderIsCrisis:      strconv.FormatBool(rec.IsCrisis),
			HeaderPriorityLevel: string(rec.PriorityLevel()),
			HeaderCrisisType:    string(rec.CrisisType()),
			HeaderProcessedAt:   now().Format(time.RFC3339),
		},
	}, nil
}
