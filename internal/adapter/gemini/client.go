// Package gemini generates crisis explanations with the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/couchcryptid/crisislens-service/internal/domain"
	"github.com/couchcryptid/crisislens-service/internal/observability"
)

const collaborator = "gemini"

// Config selects the credentials and models used for generation.
type Config struct {
	APIKey        string
	Model         string
	FallbackModel string
}

// generateFunc sends one prompt to model and returns the reply text.
type generateFunc func(ctx context.Context, model, prompt string) (string, error)

// dialFunc builds a generateFunc for cfg.
type dialFunc func(ctx context.Context, cfg Config) (generateFunc, error)

// Client implements explain.Generator. The underlying API client is created on
// first use and shared by all callers afterwards.
type Client struct {
	cfg     Config
	metrics *observability.Metrics
	logger  *slog.Logger

	dial     dialFunc
	once     sync.Once
	generate generateFunc
	initErr  error
}

// NewClient returns a client for cfg. No network calls are made until Generate.
func NewClient(cfg Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{cfg: cfg, metrics: metrics, logger: logger, dial: dialGenAI}
}

// Generate sends prompt to the configured model, retrying once on the fallback
// model when the primary is not available. It returns the reply and the model
// that produced it.
func (c *Client) Generate(ctx context.Context, prompt string) (string, string, error) {
	if err := c.init(); err != nil {
		return "", "", err
	}

	model := c.cfg.Model
	text, err := c.call(ctx, model, prompt)
	if err != nil && modelUnavailable(err) && c.cfg.FallbackModel != "" && c.cfg.FallbackModel != model {
		c.logger.Warn("gemini model unavailable, using fallback",
			"collaborator", collaborator, "model", model, "fallback", c.cfg.FallbackModel, "error", err)
		model = c.cfg.FallbackModel
		text, err = c.call(ctx, model, prompt)
	}
	if err != nil {
		return "", "", fmt.Errorf("gemini generate: %w: %w", domain.ErrCollaboratorUnavailable, err)
	}
	return text, model, nil
}

func (c *Client) call(ctx context.Context, model, prompt string) (string, error) {
	start := time.Now()
	text, err := c.generate(ctx, model, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty response")
	}
	c.metrics.ObserveCollaborator(collaborator, time.Since(start), err)
	return text, err
}

// init creates the API client once. The client outlives any single request,
// so it is built on a background context rather than the caller's.
func (c *Client) init() error {
	c.once.Do(func() {
		if c.generate != nil {
			return
		}
		if c.cfg.APIKey == "" {
			c.initErr = fmt.Errorf("gemini: no API key: %w", domain.ErrCollaboratorUnavailable)
			return
		}
		generate, err := c.dial(context.Background(), c.cfg)
		if err != nil {
			c.initErr = fmt.Errorf("gemini: create client: %w: %w", domain.ErrCollaboratorUnavailable, err)
			c.logger.Error("gemini generator disabled", "collaborator", collaborator, "error", err)
			return
		}
		c.generate = generate
	})
	return c.initErr
}

func dialGenAI(ctx context.Context, cfg Config) (generateFunc, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, model, prompt string) (string, error) {
		content := genai.NewContentFromText(prompt, genai.RoleUser)
		resp, err := client.Models.GenerateContent(ctx, model, []*genai.Content{content}, nil)
		if err != nil {
			return "", err
		}
		return responseText(resp)
	}, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no response candidates")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}

// modelUnavailable reports whether err says the requested model does not exist.
func modelUnavailable(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "404")
}
