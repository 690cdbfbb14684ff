package advisor

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/diacheck/internal/evaluator"
	"github.com/abhisek/diacheck/internal/llm"
	"github.com/abhisek/diacheck/internal/llm/llmtest"
	"github.com/abhisek/diacheck/internal/patient"
	"github.com/abhisek/diacheck/internal/predictor"
)

func example(t *testing.T, name string) patient.Vector {
	t.Helper()
	v, ok := patient.Example(name)
	require.True(t, ok, "example %q", name)
	return v
}

func confidence(v float64) *float64 { return &v }

func TestStatic_HighRisk(t *testing.T) {
	in := NewInput(example(t, "high-risk"), nil)
	adv := Static(in)

	assert.Equal(t, SourceStatic, adv.Source)
	assert.Equal(t, evaluator.TierMessage(evaluator.TierHigh), adv.Summary)

	flagged := evaluator.Flagged(in.Statuses)
	require.Len(t, adv.Recommendations, len(flagged)+len(generalAdvice))
	assert.Equal(t, flagged[0].Message, adv.Recommendations[0], "most severe first")
	assert.Equal(t, generalAdvice, adv.Recommendations[len(flagged):])
}

func TestStatic_ModelDisagrees(t *testing.T) {
	pred := &predictor.PredictionResult{Label: predictor.LabelHighRisk, Confidence: confidence(71)}
	in := NewInput(example(t, "low-risk"), pred)
	require.Equal(t, evaluator.TierLow, in.Risk.Tier)

	adv := Static(in)
	assert.Contains(t, adv.Summary, "The model flags this profile")
}

func TestStatic_NoFlags(t *testing.T) {
	in := Input{Risk: evaluator.Risk{Tier: evaluator.TierLow}}
	adv := Static(in)
	assert.Equal(t, evaluator.TierMessage(evaluator.TierLow), adv.Summary)
	assert.Equal(t, generalAdvice, adv.Recommendations)
}

func TestBuildNarrativeMessage(t *testing.T) {
	pred := &predictor.PredictionResult{Label: predictor.LabelHighRisk, Confidence: confidence(82.5)}
	msg, err := buildNarrativeMessage(NewInput(example(t, "high-risk"), pred))
	require.NoError(t, err)

	assert.Contains(t, msg, "- Glucose (mg/dL): 148 (high)")
	assert.Contains(t, msg, "Model result: diabetes (confidence 82.5%)")
	assert.Contains(t, msg, "Parameter risk score: 73/100 (high)")
}

func TestBuildNarrativeMessage_NoModel(t *testing.T) {
	msg, err := buildNarrativeMessage(NewInput(example(t, "standard"), nil))
	require.NoError(t, err)
	assert.Contains(t, msg, "Model result: unavailable\n")
}

func TestNarrator_Narrate(t *testing.T) {
	p := llmtest.New(llmtest.Reply(`{"summary":"  Your glucose is high.  ","recommendations":["See a doctor."]}`))
	n := NewNarrator(p, DefaultNarratorConfig())

	adv, err := n.Narrate(context.Background(), NewInput(example(t, "high-risk"), nil))
	require.NoError(t, err)
	assert.Equal(t, SourceLLM, adv.Source)
	assert.Equal(t, "Your glucose is high.", adv.Summary)
	assert.Equal(t, []string{"See a doctor."}, adv.Recommendations)

	reqs := p.Requests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, llm.PurposeNarrative, req.Purpose)
	assert.Same(t, NarrativeSchema, req.Schema)
	assert.Equal(t, 512, req.MaxTokens)
	assert.Equal(t, narrativeSystemPrompt, req.System)
	assert.Contains(t, req.Prompt, "- Glucose (mg/dL): 148 (high)")
}

func TestNarrator_EmptySummary(t *testing.T) {
	p := llmtest.New(llmtest.Reply(`{"summary":"   ","recommendations":[]}`))
	_, err := NewNarrator(p, DefaultNarratorConfig()).Narrate(context.Background(), Input{})
	assert.ErrorIs(t, err, errEmptyNarrative)
}

func TestNarrator_SchemaViolation(t *testing.T) {
	p := llmtest.New(llmtest.Reply(`{"summary":"ok"}`))
	_, err := NewNarrator(p, DefaultNarratorConfig()).Narrate(context.Background(), Input{})
	assert.True(t, llm.IsKind(err, llm.KindInvalid), "got %v", err)
}

func TestAdvisor_UsesNarrative(t *testing.T) {
	a := New(llmtest.New(llmtest.Reply(`{"summary":"All good.","recommendations":[]}`)), zerolog.Nop())
	require.True(t, a.HasNarrator())

	adv := a.Advise(context.Background(), NewInput(example(t, "low-risk"), nil))
	assert.Equal(t, SourceLLM, adv.Source)
	assert.Equal(t, "All good.", adv.Summary)
}

func TestAdvisor_FallsBackOnError(t *testing.T) {
	var buf bytes.Buffer
	a := New(llmtest.New(llmtest.Fail(llm.KindUnavailable)), zerolog.New(&buf))

	in := NewInput(example(t, "high-risk"), nil)
	adv := a.Advise(context.Background(), in)
	assert.Equal(t, Static(in), adv)
	assert.Contains(t, buf.String(), "using static advice")
}

func TestAdvisor_NoProvider(t *testing.T) {
	a := New(nil, zerolog.Nop())
	assert.False(t, a.HasNarrator())

	in := NewInput(example(t, "standard"), nil)
	assert.Equal(t, Static(in), a.Advise(context.Background(), in))
}
