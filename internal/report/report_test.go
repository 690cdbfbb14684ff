package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/diacheck/internal/advisor"
	"github.com/abhisek/diacheck/internal/evaluator"
	"github.com/abhisek/diacheck/internal/patient"
	"github.com/abhisek/diacheck/internal/predictor"
)

func ptr(v float64) *float64 { return &v }

func highRiskReport(t *testing.T) Report {
	t.Helper()
	v, ok := patient.Example("high-risk")
	require.True(t, ok)
	in := advisor.NewInput(v, &predictor.PredictionResult{
		Label:      predictor.LabelHighRisk,
		Confidence: ptr(82.5),
		Classifier: "random_forest",
		Capability: "probability",
	})
	adv := advisor.Static(in)
	return Report{
		Vector:     v,
		Prediction: in.Prediction,
		ModelMode:  predictor.ModePersisted,
		Statuses:   in.Statuses,
		Risk:       in.Risk,
		Advice:     &adv,
	}
}

func TestResultText(t *testing.T) {
	assert.Equal(t, "Result: unavailable (no model loaded)", ResultText(nil))
	assert.Contains(t, ResultText(&predictor.PredictionResult{Label: 1}), "likely to have diabetes")
	assert.Contains(t, ResultText(&predictor.PredictionResult{Label: 0}), "unlikely")
}

func TestProbabilityText(t *testing.T) {
	assert.Empty(t, ProbabilityText(nil))
	assert.Empty(t, ProbabilityText(&predictor.PredictionResult{Label: 1}))
	assert.Equal(t, "Probability: 82.50%", ProbabilityText(&predictor.PredictionResult{Label: 1, Confidence: ptr(82.5)}))
	// Confidence in "no diabetes" is reported as the positive-class chance.
	assert.Equal(t, "Probability: 30.00%", ProbabilityText(&predictor.PredictionResult{Label: 0, Confidence: ptr(70)}))
}

func TestRender(t *testing.T) {
	out := Render(highRiskReport(t), 0)

	assert.Contains(t, out, "Diabetes risk assessment")
	assert.Contains(t, out, "likely to have diabetes")
	assert.Contains(t, out, "Probability: 82.50%")
	assert.Contains(t, out, "Model: random_forest (persisted)")
	assert.Contains(t, out, "Glucose (mg/dL)")
	assert.Contains(t, out, "Risk score 73/100")
	assert.Contains(t, out, "HIGH")
	assert.Contains(t, out, "Advice")
	assert.NotContains(t, out, "Saved as")
}

func TestRender_NoModel(t *testing.T) {
	r := highRiskReport(t)
	r.Prediction = nil
	r.ModelMode = predictor.ModeUnavailable
	r.ModelError = "model not available: no model path configured"
	r.ID = "0b6f"

	out := Render(r, 90)
	assert.Contains(t, out, "unavailable (no model loaded)")
	assert.Contains(t, out, "no model path configured")
	assert.NotContains(t, out, "Probability")
	assert.Contains(t, out, "Saved as 0b6f")
}

func TestRender_LabelOnly(t *testing.T) {
	r := highRiskReport(t)
	r.Prediction = &predictor.PredictionResult{Label: 0, Classifier: "nearest_neighbors", Degraded: true}
	r.ModelMode = predictor.ModeFallback

	out := Render(r, 0)
	assert.Contains(t, out, "Confidence unavailable for nearest_neighbors")
	assert.Contains(t, out, "trained on the fly")
}

func TestRenderStatuses_ShowsFlaggedMessages(t *testing.T) {
	v, _ := patient.Example("high-risk")
	statuses := evaluator.Evaluate(v)
	out := RenderStatuses(statuses, 120)

	for _, s := range statuses {
		assert.Contains(t, out, string(s.Category))
	}
	assert.Contains(t, out, "Consult a doctor")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, highRiskReport(t)))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "persisted", got["model_mode"])
	assert.Len(t, got["statuses"], patient.NumFields)

	pred := got["prediction"].(map[string]any)
	assert.EqualValues(t, 1, pred["label"])
	assert.EqualValues(t, 82.5, pred["confidence"])

	risk := got["risk"].(map[string]any)
	assert.EqualValues(t, 73, risk["score"])
	assert.Equal(t, "high", risk["tier"])
}

func TestRenderEvaluation(t *testing.T) {
	v, _ := patient.Example("standard")
	statuses := evaluator.Evaluate(v)
	out := RenderEvaluation(statuses, evaluator.RiskScore(statuses), 0)

	assert.Contains(t, out, "Parameter evaluation")
	assert.Contains(t, out, "Risk score 35/100")
	assert.NotContains(t, out, "Result:")
}
