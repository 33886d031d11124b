package explain

import (
	"fmt"
	"strings"
	"text/template"
)

const footer = "[CrisisLens analysis based on real-time metrics]"

var funcs = template.FuncMap{
	"pct":   func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"tier":  func(desc string) string { return strings.ToLower(strings.Fields(desc)[0]) },
}

const keyFactors = `{{define "factors"}}Key Factors:
• {{.Human}} (Score: {{pct .Severity.HumanImpact}})
• {{.Infra}} (Score: {{pct .Severity.InfrastructureDamage}})
• {{.Geo}} (Score: {{pct .Severity.GeographicScale}})
• Urgency Level: {{upper (print .Urgency.Level)}}{{end}}`

const header = `{{define "header"}}{{upper (print .Type)}} ANALYSIS COMPLETE
Priority: {{.Priority.Level}} ({{pct .Priority.Score}})
Location: {{.Location}}{{end}}`

var typeTemplates = map[string]string{
	"Landslide": `{{template "header" .}}

Assessment: {{lower .Human}}. Mud and debris flow pose immediate danger.

{{template "factors" .}}

Recommendations:
1. Deploy search and rescue teams immediately
2. Evacuate nearby slopes and valleys
3. Monitor rainfall and soil stability
4. Establish emergency shelters`,

	"Earthquake": `{{template "header" .}}

Assessment: {{lower .Human}}. Aftershocks possible.

{{template "factors" .}}

Recommendations:
1. Conduct building safety inspections
2. Prepare emergency medical response
3. Monitor for aftershocks
4. Check utility lines`,

	"Flood": `{{template "header" .}}

Assessment: {{lower .Human}}. Water levels rising.

{{template "factors" .}}

Recommendations:
1. Activate flood warning systems
2. Deploy water pumps to critical areas
3. Evacuate low-lying zones
4. Monitor water levels`,

	"Fire": `{{template "header" .}}

Assessment: {{lower .Human}}. Fire spreading rapidly.

{{template "factors" .}}

Recommendations:
1. Deploy firefighting resources
2. Evacuate nearby areas if necessary
3. Monitor wind conditions
4. Establish firebreaks`,
}

const defaultTemplate = `{{template "header" .}}

Assessment: {{.Type}} incident detected. {{lower .Human}}.

Key Metrics:
• Human Impact: {{pct .Severity.HumanImpact}} ({{tier .Human}} level)
• Infrastructure Damage: {{pct .Severity.InfrastructureDamage}} ({{tier .Infra}} level)
• Geographic Scale: {{pct .Severity.GeographicScale}} ({{tier .Geo}} level)
• Temporal Urgency: {{pct .Severity.TemporalUrgency}}
• Urgency Level: {{upper (print .Urgency.Level)}}

Recommended Actions:
1. Deploy emergency response teams
2. Assess on-ground situation
3. Monitor situation development
4. Coordinate with local authorities`

const promptTemplate = `CRISIS INTELLIGENCE ANALYSIS REQUEST

Generate a professional crisis assessment report based on the following data:

CRISIS DETAILS:
- Type: {{.Type}}
- Location: {{.Location}}
- Priority Level: {{.Priority.Level}} ({{pct .Priority.Score}})
- Urgency Level: {{upper (print .Urgency.Level)}}

SEVERITY METRICS (0-100%):
- Human Impact: {{pct .Severity.HumanImpact}}
- Infrastructure Damage: {{pct .Severity.InfrastructureDamage}}
- Geographic Scale: {{pct .Severity.GeographicScale}}
- Temporal Urgency: {{pct .Severity.TemporalUrgency}}
- Overall Severity: {{pct .Severity.Overall}}

SITUATION CONTEXT:
"{{.Snippet}}"

GENERATE A REPORT WITH THIS EXACT STRUCTURE:
{{upper (print .Type)}} ANALYSIS COMPLETE
Priority: {{.Priority.Level}} ({{pct .Priority.Score}})
Location: {{.Location}}

Assessment: [2-3 sentence situation summary specific to {{.Type}}]

Key Factors:
- [Most critical risk factor based on the metrics]
- [Secondary risk factor]
- [Geographic or contextual factor for {{.Location}}]

Recommendations:
1. [Primary action for {{.Priority.Level}} priority]
2. [Secondary action]
3. [Monitoring or preparation action]

INSTRUCTIONS:
1. Be specific to {{.Type}} incidents.
2. Reference the severity metrics provided.
3. Mention {{.Location}} context if relevant.
4. Keep the response between 200 and 250 words.
5. Use professional emergency management language.
6. Do not use markdown formatting except for the header line.
7. Do not mention this prompt.
8. Base recommendations on the priority level: {{.Priority.Level}}.`

var (
	baseTemplates = template.Must(template.New("base").Funcs(funcs).Parse(header + keyFactors))
	reports       = parseReports()
	prompt        = template.Must(template.Must(baseTemplates.Clone()).New("prompt").Parse(promptTemplate))
)

func parseReports() map[string]*template.Template {
	out := make(map[string]*template.Template, len(typeTemplates)+1)
	for name, body := range typeTemplates {
		out[name] = template.Must(template.Must(baseTemplates.Clone()).New(name).Parse(body))
	}
	out[""] = template.Must(template.Must(baseTemplates.Clone()).New("default").Parse(defaultTemplate))
	return out
}
