// Package report renders assessments for the terminal and as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/diacheck/internal/advisor"
	"github.com/abhisek/diacheck/internal/evaluator"
	"github.com/abhisek/diacheck/internal/patient"
	"github.com/abhisek/diacheck/internal/predictor"
	"github.com/abhisek/diacheck/internal/ui/components"
	"github.com/abhisek/diacheck/internal/ui/theme"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 72

// Report is one complete assessment as shown to the user.
type Report struct {
	ID         string                      `json:"id,omitempty"`
	Vector     patient.Vector              `json:"vector"`
	Prediction *predictor.PredictionResult `json:"prediction"`
	ModelMode  predictor.Mode              `json:"model_mode"`
	ModelError string                      `json:"model_error,omitempty"`
	Statuses   []evaluator.ParameterStatus `json:"statuses"`
	Risk       evaluator.Risk              `json:"risk"`
	Advice     *advisor.Advice             `json:"advice,omitempty"`
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Render formats the full report.
func Render(r Report, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	sections := []string{
		theme.Title.Render("Diabetes risk assessment"),
		renderPrediction(r, width),
		RenderStatuses(r.Statuses, width),
		renderRisk(r.Risk, width),
	}
	if r.Advice != nil {
		sections = append(sections, renderAdvice(*r.Advice, width))
	}
	if r.ID != "" {
		sections = append(sections, theme.Hint.Render("Saved as "+r.ID))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// ResultText is the one-line model verdict.
func ResultText(p *predictor.PredictionResult) string {
	if p == nil {
		return "Result: unavailable (no model loaded)"
	}
	if p.Label == predictor.LabelHighRisk {
		return "Result: the patient is likely to have diabetes"
	}
	return "Result: the patient is unlikely to have diabetes"
}

// ProbabilityText formats the positive-class probability, or "" when the
// classifier gives no confidence.
func ProbabilityText(p *predictor.PredictionResult) string {
	if p == nil {
		return ""
	}
	pct, ok := p.RiskPercent()
	if !ok {
		return ""
	}
	return fmt.Sprintf("Probability: %.2f%%", pct)
}

func renderPrediction(r Report, width int) string {
	var lines []string
	p := r.Prediction

	verdict := ResultText(p)
	switch {
	case p == nil:
		lines = append(lines, theme.Muted.Render(verdict))
		if r.ModelError != "" {
			lines = append(lines, theme.Hint.Render(r.ModelError))
		}
	case p.Label == predictor.LabelHighRisk:
		lines = append(lines, theme.Bad.Render(verdict))
	default:
		lines = append(lines, theme.Good.Render(verdict))
	}

	if p != nil {
		if pct, ok := p.RiskPercent(); ok {
			bar := components.NewProgressBar(ProbabilityText(p), pct/100, false, width-4)
			bar.Fill = tierColor(tierForPercent(pct))
			lines = append(lines, bar.View())
		} else {
			lines = append(lines, theme.Hint.Render("Confidence unavailable for "+p.Classifier))
		}
		meta := fmt.Sprintf("Model: %s (%s)", p.Classifier, r.ModelMode)
		if p.Degraded {
			meta += ", trained on the fly"
		}
		lines = append(lines, theme.Muted.Render(meta))
	}

	return theme.Card.Width(width).Render(strings.Join(lines, "\n"))
}

// RenderStatuses formats the per-parameter table.
func RenderStatuses(statuses []evaluator.ParameterStatus, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	lines := []string{theme.Subtitle.Render("Parameters")}
	for _, s := range statuses {
		value := patient.FormatValue(s.Field, s.Value)
		row := theme.Label.Render(s.Field.Label()) +
			lipgloss.NewStyle().Width(10).Render(value) +
			categoryStyle(s.Category).Render(string(s.Category))
		lines = append(lines, row)
		if s.Flagged() {
			lines = append(lines, theme.Hint.PaddingLeft(2).Width(width-6).Render(s.Message))
		}
	}
	return theme.Card.Width(width).Render(strings.Join(lines, "\n"))
}

// RenderEvaluation formats parameter statuses and the risk score without a
// model result.
func RenderEvaluation(statuses []evaluator.ParameterStatus, risk evaluator.Risk, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("Parameter evaluation"),
		RenderStatuses(statuses, width),
		renderRisk(risk, width),
	)
}

func renderRisk(r evaluator.Risk, width int) string {
	bar := components.NewProgressBar(
		fmt.Sprintf("Risk score %d/%d", r.Score, evaluator.MaxScore),
		float64(r.Score)/evaluator.MaxScore, false, width-4)
	bar.Fill = tierColor(r.Tier)

	lines := []string{
		bar.View(),
		tierStyle(r.Tier).Render(strings.ToUpper(string(r.Tier))) + "  " + theme.Body.Render(r.Message),
	}
	return theme.Card.Width(width).Render(strings.Join(lines, "\n"))
}

func renderAdvice(a advisor.Advice, width int) string {
	title := "Advice"
	if a.Source == advisor.SourceLLM {
		title += " (AI generated, not medical advice)"
	}
	lines := []string{
		theme.Subtitle.Render(title),
		theme.Body.Width(width - 6).Render(a.Summary),
	}
	for _, rec := range a.Recommendations {
		lines = append(lines, theme.Body.Width(width-6).Render("• "+rec))
	}
	return theme.Card.Width(width).Render(strings.Join(lines, "\n"))
}

func tierForPercent(pct float64) evaluator.Tier {
	return evaluator.TierFor(int(pct))
}

func categoryStyle(c evaluator.Category) lipgloss.Style {
	switch c {
	case evaluator.CategoryNormal:
		return theme.Good
	case evaluator.CategoryBorderline:
		return theme.Caution
	case evaluator.CategoryHigh, evaluator.CategoryElevated:
		return theme.Bad
	default:
		return theme.Muted
	}
}

func tierStyle(t evaluator.Tier) lipgloss.Style {
	switch t {
	case evaluator.TierHigh:
		return theme.Bad
	case evaluator.TierMedium:
		return theme.Caution
	default:
		return theme.Good
	}
}

func tierColor(t evaluator.Tier) color.Color {
	switch t {
	case evaluator.TierHigh:
		return theme.Error
	case evaluator.TierMedium:
		return theme.Warning
	default:
		return theme.Success
	}
}
