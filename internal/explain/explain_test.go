package explain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crisislens-service/internal/domain"
	"github.com/couchcryptid/crisislens-service/internal/lexicon"
)

type stubGenerator struct {
	text   string
	err    error
	block  bool
	panic  bool
	prompt string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, string, error) {
	g.prompt = prompt
	if g.panic {
		panic("boom")
	}
	if g.block {
		<-ctx.Done()
		return "", "", ctx.Err()
	}
	return g.text, "stub-model", g.err
}

func newAssembler(gen Generator, timeout time.Duration) *Assembler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAssembler(lexicon.MustCompile(lexicon.Default()), gen, timeout, logger)
}

func floodInput() Input {
	return Input{
		Type: domain.TypeFlood,
		Severity: domain.SeverityResult{
			HumanImpact:          0.4,
			InfrastructureDamage: 0.55,
			GeographicScale:      0.55,
			TemporalUrgency:      0.7,
			Overall:              0.52,
		},
		Urgency:  domain.UrgencyResult{Score: 0.96, Level: domain.UrgencyCritical},
		Priority: domain.PriorityResult{Score: 0.855, Level: domain.PriorityHigh},
		Location: "Chennai",
		Text:     "Heavy rainfall causes severe flooding in Adyar area. 50 homes submerged. Urgent evacuation ordered.",
	}
}

func TestTemplate_Flood(t *testing.T) {
	a := newAssembler(nil, 0)

	exp := a.Explain(context.Background(), floodInput())

	assert.Equal(t, domain.ExplanationTemplate, exp.Method)
	assert.Equal(t, "template", exp.Model)
	assert.True(t, strings.HasPrefix(exp.Content, "FLOOD ANALYSIS COMPLETE\nPriority: HIGH (85.5%)\nLocation: Chennai"))
	assert.Contains(t, exp.Content, "Assessment: limited human impact reported. Water levels rising.")
	assert.Contains(t, exp.Content, "• SIGNIFICANT infrastructure damage reported (Score: 55.0%)")
	assert.Contains(t, exp.Content, "• MULTIPLE locations impacted (Score: 55.0%)")
	assert.Contains(t, exp.Content, "• Urgency Level: CRITICAL")
	assert.Contains(t, exp.Content, "1. Activate flood warning systems")
	assert.NotContains(t, exp.Content, "Context indicators")
	assert.True(t, strings.HasSuffix(exp.Content, footer))
}

func TestTemplate_ContextIndicators(t *testing.T) {
	a := newAssembler(nil, 0)
	in := floodInput()
	in.Type = domain.TypeFire
	in.Text = "Building collapsed after the fire, two dead and several missing"

	body := a.Template(in)

	assert.Contains(t, body, "FIRE ANALYSIS COMPLETE")
	assert.Contains(t, body, "\n\nContext indicators: missing, dead, collapsed\n\n"+footer)
}

func TestTemplate_ContextIndicatorsCapped(t *testing.T) {
	a := newAssembler(nil, 0)
	in := floodInput()
	in.Type = domain.TypeOther
	in.Text = "landslide earthquake flood and fire left people missing"

	body := a.Template(in)

	assert.Contains(t, body, "Context indicators: landslide, earthquake, flood\n")
}

func TestTemplate_Default(t *testing.T) {
	a := newAssembler(nil, 0)
	in := floodInput()
	in.Type = domain.TypeCyclone
	in.Severity.HumanImpact = 0.9

	body := a.Template(in)

	assert.True(t, strings.HasPrefix(body, "CYCLONE ANALYSIS COMPLETE"))
	assert.Contains(t, body, "Assessment: Cyclone incident detected. critical human impact with potential for significant casualties.")
	assert.Contains(t, body, "• Human Impact: 90.0% (critical level)")
	assert.Contains(t, body, "• Infrastructure Damage: 55.0% (significant level)")
	assert.Contains(t, body, "• Temporal Urgency: 70.0%")
}

func TestTemplate_ShortTextSkipsIndicators(t *testing.T) {
	a := newAssembler(nil, 0)
	in := floodInput()
	in.Type = domain.TypeOther
	in.Text = "fire, two dead"

	assert.NotContains(t, a.Template(in), "Context indicators")
}

func TestExplain_Generated(t *testing.T) {
	gen := &stubGenerator{text: "```\n**FLOOD ANALYSIS COMPLETE**\nStay safe.\n```"}
	a := newAssembler(gen, time.Second)

	exp := a.Explain(context.Background(), floodInput())

	assert.Equal(t, domain.ExplanationGenerated, exp.Method)
	assert.Equal(t, "stub-model", exp.Model)
	assert.Equal(t, "FLOOD ANALYSIS COMPLETE\nStay safe.", exp.Content)
	assert.Contains(t, gen.prompt, "- Type: Flood")
	assert.Contains(t, gen.prompt, "- Priority Level: HIGH (85.5%)")
	assert.Contains(t, gen.prompt, "- Overall Severity: 52.0%")
}

func TestExplain_GeneratorFallback(t *testing.T) {
	tests := []struct {
		name string
		gen  *stubGenerator
	}{
		{"error", &stubGenerator{err: errors.New("quota exceeded")}},
		{"empty reply", &stubGenerator{text: " ``` ** "}},
		{"timeout", &stubGenerator{block: true}},
		{"panic", &stubGenerator{panic: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAssembler(tt.gen, 20*time.Millisecond)
			exp := a.Explain(context.Background(), floodInput())
			assert.Equal(t, domain.ExplanationTemplate, exp.Method)
			assert.Equal(t, a.Template(floodInput()), exp.Content)
		})
	}
}

func TestPrompt_TruncatesSnippet(t *testing.T) {
	in := floodInput()
	in.Text = strings.Repeat("a", 400)

	p := Prompt(in)

	require.Contains(t, p, "\""+strings.Repeat("a", 300)+"\"")
	assert.NotContains(t, p, strings.Repeat("a", 301))
}
