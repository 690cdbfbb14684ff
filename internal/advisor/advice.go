// Package advisor turns an assessment into advice a patient can act on.
// Static advice is always available; an LLM narrative is layered on top
// when a provider is configured.
package advisor

import (
	"github.com/abhisek/diacheck/internal/evaluator"
	"github.com/abhisek/diacheck/internal/patient"
	"github.com/abhisek/diacheck/internal/predictor"
)

// Advice sources.
const (
	SourceStatic = "static"
	SourceLLM    = "llm"
)

// Advice is the advisory text shown after an assessment.
type Advice struct {
	Source          string   `json:"source"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

// Input is everything the advisor looks at. Prediction is nil when no
// model was available.
type Input struct {
	Vector     patient.Vector
	Prediction *predictor.PredictionResult
	Statuses   []evaluator.ParameterStatus
	Risk       evaluator.Risk
}

// NewInput evaluates v and bundles it with an optional prediction.
func NewInput(v patient.Vector, pred *predictor.PredictionResult) Input {
	statuses := evaluator.Evaluate(v)
	return Input{
		Vector:     v,
		Prediction: pred,
		Statuses:   statuses,
		Risk:       evaluator.RiskScore(statuses),
	}
}

var generalAdvice = []string{
	"Keep up at least 150 minutes of moderate activity a week.",
	"Favour whole grains, vegetables and water over refined sugar and sweet drinks.",
}

// Static builds advice from the risk tier and the flagged parameters only.
func Static(in Input) Advice {
	summary := in.Risk.Message
	if summary == "" {
		summary = evaluator.TierMessage(in.Risk.Tier)
	}
	if in.Prediction != nil && in.Prediction.Label == predictor.LabelHighRisk &&
		in.Risk.Tier == evaluator.TierLow {
		summary += " The model flags this profile even though few parameters are out of range; a screening test is still worthwhile."
	}

	var recs []string
	for _, s := range evaluator.Flagged(in.Statuses) {
		recs = append(recs, s.Message)
	}
	recs = append(recs, generalAdvice...)

	return Advice{Source: SourceStatic, Summary: summary, Recommendations: recs}
}
