// Package explain assembles the human-readable rationale for crisis records.
//
// A fixed template per crisis type is always available. When a Generator is
// configured the assembler asks it first and falls back to the template on
// any failure.
package explain

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/couchcryptid/crisislens-service/internal/domain"
	"github.com/couchcryptid/crisislens-service/internal/lexicon"
)

const (
	maxContextIndicators = 3
	snippetLimit         = 300
	minSnippetChars      = 20
	templateModel        = "template"
)

// Generator produces free text for a prompt. It returns the text and the
// model that produced it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (text, model string, err error)
}

// Input carries the stage results an explanation is built from.
type Input struct {
	Type     domain.CrisisType
	Severity domain.SeverityResult
	Urgency  domain.UrgencyResult
	Priority domain.PriorityResult
	Location string
	Text     string
}

// view is the template data: Input plus the severity descriptors.
type view struct {
	Input
	Human   string
	Infra   string
	Geo     string
	Snippet string
}

// Assembler builds explanations.
type Assembler struct {
	matcher   *lexicon.Matcher
	generator Generator
	timeout   time.Duration
	logger    *slog.Logger
}

// NewAssembler creates an Assembler. A nil generator restricts it to templates.
func NewAssembler(m *lexicon.Matcher, gen Generator, timeout time.Duration, logger *slog.Logger) *Assembler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Assembler{matcher: m, generator: gen, timeout: timeout, logger: logger}
}

// Explain returns the generated explanation when possible, else the template.
func (a *Assembler) Explain(ctx context.Context, in Input) domain.Explanation {
	if a.generator != nil {
		exp, err := a.generate(ctx, in)
		if err == nil {
			return exp
		}
		a.logger.Warn("explanation generator failed, using template",
			"collaborator", "gemini",
			"error", err,
			"text_preview", domain.Preview(in.Text),
		)
	}
	return domain.Explanation{
		Content: a.Template(in),
		Method:  domain.ExplanationTemplate,
		Model:   templateModel,
	}
}

// Template renders the deterministic explanation for in.
func (a *Assembler) Template(in Input) string {
	t, ok := reports[string(in.Type)]
	if !ok {
		t = reports[""]
	}
	body := render(t, newView(in))

	if len(in.Text) > minSnippetChars {
		if extra := a.contextIndicators(in.Text, body); len(extra) > 0 {
			body += "\n\nContext indicators: " + strings.Join(extra, ", ")
		}
	}
	return body + "\n\n" + footer
}

// Prompt renders the generator prompt for in.
func Prompt(in Input) string {
	return render(prompt, newView(in))
}

func (a *Assembler) generate(ctx context.Context, in Input) (exp domain.Explanation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generator panicked: %v: %w", r, domain.ErrCollaboratorUnavailable)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, model, err := a.generator.Generate(ctx, Prompt(in))
	if err != nil {
		return domain.Explanation{}, err
	}
	text = cleanGenerated(text)
	if text == "" {
		return domain.Explanation{}, fmt.Errorf("empty generator reply: %w", domain.ErrCollaboratorUnavailable)
	}
	return domain.Explanation{Content: text, Method: domain.ExplanationGenerated, Model: model}, nil
}

// contextIndicators returns context words found in text that body does not
// already mention.
func (a *Assembler) contextIndicators(text, body string) []string {
	lowerBody := strings.ToLower(body)
	var out []string
	for _, e := range a.matcher.Find(lexicon.CategoryContextIndicators, text) {
		if strings.Contains(lowerBody, strings.ToLower(e.Label())) {
			continue
		}
		out = append(out, e.Label())
		if len(out) == maxContextIndicators {
			break
		}
	}
	return out
}

func newView(in Input) view {
	snippet := []rune(in.Text)
	if len(snippet) > snippetLimit {
		snippet = snippet[:snippetLimit]
	}
	return view{
		Input:   in,
		Human:   humanDescriptor(in.Severity.HumanImpact),
		Infra:   infraDescriptor(in.Severity.InfrastructureDamage),
		Geo:     geoDescriptor(in.Severity.GeographicScale),
		Snippet: string(snippet),
	}
}

func render(t *template.Template, v view) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		// Templates are fixed at build time; an error here is a programming bug.
		panic(fmt.Sprintf("explain: render: %v", err))
	}
	return buf.String()
}

func cleanGenerated(s string) string {
	s = strings.ReplaceAll(s, "```", "")
	s = strings.ReplaceAll(s, "**", "")
	return strings.TrimSpace(s)
}

func humanDescriptor(v float64) string {
	switch {
	case v > 0.8:
		return "CRITICAL human impact with potential for significant casualties"
	case v > 0.6:
		return "HIGH human impact requiring immediate medical response"
	case v > 0.4:
		return "MODERATE human impact with some injuries reported"
	default:
		return "LIMITED human impact reported"
	}
}

func infraDescriptor(v float64) string {
	switch {
	case v > 0.7:
		return "EXTENSIVE infrastructure damage with buildings affected"
	case v > 0.5:
		return "SIGNIFICANT infrastructure damage reported"
	case v > 0.3:
		return "LIMITED infrastructure damage"
	default:
		return "MINIMAL infrastructure impact"
	}
}

func geoDescriptor(v float64) string {
	switch {
	case v > 0.7:
		return "WIDESPREAD geographic area affected"
	case v > 0.5:
		return "MULTIPLE locations impacted"
	case v > 0.3:
		return "LOCALIZED area affected"
	default:
		return "SPECIFIC location impacted"
	}
}
