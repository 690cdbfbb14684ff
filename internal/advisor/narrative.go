package advisor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/rs/zerolog"

	"github.com/abhisek/diacheck/internal/llm"
	"github.com/abhisek/diacheck/internal/patient"
)

// NarratorConfig holds configuration for the LLM narrator.
type NarratorConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultNarratorConfig returns sensible defaults.
func DefaultNarratorConfig() NarratorConfig {
	return NarratorConfig{
		MaxTokens:   512,
		Temperature: 0.3,
	}
}

// Narrator asks an LLM for a plain-language explanation of an assessment.
type Narrator struct {
	provider llm.Provider
	cfg      NarratorConfig
}

// NewNarrator creates an LLM-based narrator.
func NewNarrator(provider llm.Provider, cfg NarratorConfig) *Narrator {
	return &Narrator{provider: provider, cfg: cfg}
}

// NarrativeSchema is the JSON schema narrator responses must match.
var NarrativeSchema = &llm.Schema{
	Name:        "risk-narrative",
	Description: "Plain-language explanation of a diabetes risk assessment",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "Two or three sentences explaining the result in plain language",
			},
			"recommendations": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Concrete next steps, most important first",
			},
		},
		"required":             []any{"summary", "recommendations"},
		"additionalProperties": false,
	},
}

var errEmptyNarrative = errors.New("empty narrative summary")

// Narrate sends the assessment to the LLM and returns its advice.
func (n *Narrator) Narrate(ctx context.Context, in Input) (*Advice, error) {
	prompt, err := buildNarrativeMessage(in)
	if err != nil {
		return nil, fmt.Errorf("build narrative prompt: %w", err)
	}

	resp, err := n.provider.Generate(ctx, llm.Request{
		Purpose:     llm.PurposeNarrative,
		System:      narrativeSystemPrompt,
		Prompt:      prompt,
		Schema:      NarrativeSchema,
		MaxTokens:   n.cfg.MaxTokens,
		Temperature: n.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM narrative failed: %w", err)
	}

	var out Advice
	if err := NarrativeSchema.Decode(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse narrative response: %w", err)
	}
	out.Summary = strings.TrimSpace(out.Summary)
	if out.Summary == "" {
		return nil, errEmptyNarrative
	}
	out.Source = SourceLLM
	return &out, nil
}

const narrativeSystemPrompt = `You explain diabetes risk screening results to patients in plain, calm language.

Instructions:
- Base everything on the values and statuses provided. Do not invent measurements.
- The model result is a screening estimate, not a diagnosis. Say so when it indicates diabetes.
- When the model result and the parameter risk score disagree, mention both.
- Give at most five recommendations, most important first.
- Always recommend confirming with a healthcare provider when the risk is medium or high.`

type promptField struct {
	Label    string
	Value    string
	Category string
}

type promptData struct {
	Fields     []promptField
	Model      string
	RiskScore  int
	RiskTier   string
	Confidence string
}

var narrativeUserTemplate = template.Must(template.New("narrative").Parse(`Patient values:
{{range .Fields}}- {{.Label}}: {{.Value}} ({{.Category}})
{{end}}
Model result: {{.Model}}{{if .Confidence}} (confidence {{.Confidence}}){{end}}
Parameter risk score: {{.RiskScore}}/100 ({{.RiskTier}})`))

func buildNarrativeMessage(in Input) (string, error) {
	data := promptData{
		Model:     "unavailable",
		RiskScore: in.Risk.Score,
		RiskTier:  string(in.Risk.Tier),
	}
	for _, s := range in.Statuses {
		data.Fields = append(data.Fields, promptField{
			Label:    s.Field.Label(),
			Value:    patient.FormatValue(s.Field, s.Value),
			Category: string(s.Category),
		})
	}
	if p := in.Prediction; p != nil {
		data.Model = p.Text()
		if p.Confidence != nil {
			data.Confidence = fmt.Sprintf("%.1f%%", *p.Confidence)
		}
	}

	var buf bytes.Buffer
	if err := narrativeUserTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Advisor picks between the LLM narrative and static advice.
type Advisor struct {
	narrator *Narrator
	log      zerolog.Logger
}

// New creates an Advisor. A nil provider gives static advice only.
func New(provider llm.Provider, log zerolog.Logger) *Advisor {
	a := &Advisor{log: log}
	if provider != nil {
		a.narrator = NewNarrator(provider, DefaultNarratorConfig())
	}
	return a
}

// HasNarrator reports whether an LLM is configured.
func (a *Advisor) HasNarrator() bool { return a.narrator != nil }

// Advise returns the LLM narrative when available and valid, otherwise
// static advice. It never fails.
func (a *Advisor) Advise(ctx context.Context, in Input) Advice {
	if a.narrator == nil {
		return Static(in)
	}
	adv, err := a.narrator.Narrate(ctx, in)
	if err != nil {
		a.log.Warn().Err(err).Msg("advisory narrative unavailable, using static advice")
		return Static(in)
	}
	return *adv
}
