// Package neural calls a remote crisis-classification model over HTTP.
package neural

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/couchcryptid/crisislens-service/internal/domain"
	"github.com/couchcryptid/crisislens-service/internal/observability"
)

const (
	collaborator = "neural"
	defaultModel = "neural-classifier"
)

// Client implements scoring.NeuralScorer against an inference endpoint that
// accepts {"text": ...} and answers {"probability": p, "model": name}.
type Client struct {
	endpoint   string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger

	once    sync.Once
	target  string
	model   string
	initErr error
}

// NewClient creates a client for endpoint. The endpoint is validated on first use.
func NewClient(endpoint string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
		model:      defaultModel,
	}
}

// Model names the model behind the endpoint.
func (c *Client) Model() string { return c.model }

type request struct {
	Text string `json:"text"`
}

type response struct {
	Probability *float64 `json:"probability"`
}

// Score returns the crisis probability for text.
func (c *Client) Score(ctx context.Context, text string) (float64, error) {
	if err := c.init(); err != nil {
		return 0, err
	}

	start := time.Now()
	p, err := c.post(ctx, text)
	c.metrics.ObserveCollaborator(collaborator, time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("neural score: %w: %w", domain.ErrCollaboratorUnavailable, err)
	}
	return p, nil
}

func (c *Client) init() error {
	c.once.Do(func() {
		u, err := url.Parse(c.endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			c.initErr = fmt.Errorf("neural endpoint %q is not an http(s) URL: %w", c.endpoint, domain.ErrCollaboratorUnavailable)
			c.logger.Error("neural scorer disabled", "collaborator", collaborator, "error", c.initErr)
			return
		}
		c.target = u.String()
		c.model = defaultModel + "@" + u.Host
	})
	return c.initErr
}

func (c *Client) post(ctx context.Context, text string) (float64, error) {
	body, err := json.Marshal(request{Text: text})
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.target, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("inference API error: status %d: %s", resp.StatusCode, msg)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if out.Probability == nil {
		return 0, fmt.Errorf("response has no probability")
	}
	return *out.Probability, nil
}
