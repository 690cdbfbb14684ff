package predictor

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/diacheck/internal/classifier"
	"github.com/abhisek/diacheck/internal/dataset"
	"github.com/abhisek/diacheck/internal/patient"
)

type labelOnly struct{ label int }

func (l labelOnly) Kind() string          { return "stub_label" }
func (l labelOnly) Predict([]float64) int { return l.label }

type probabilistic struct{ p float64 }

func (s probabilistic) Kind() string { return "stub_proba" }
func (s probabilistic) Predict([]float64) int {
	if s.p > 0.5 {
		return 1
	}
	return 0
}
func (s probabilistic) Probability([]float64) float64 { return s.p }

type margin struct{ m float64 }

func (s margin) Kind() string { return "stub_margin" }
func (s margin) Predict([]float64) int {
	if s.m > 0 {
		return 1
	}
	return 0
}
func (s margin) Margin([]float64) float64 { return s.m }

func standard(t *testing.T) patient.Vector {
	t.Helper()
	v, ok := patient.Example("standard")
	require.True(t, ok)
	return v
}

func TestScore_Probabilistic(t *testing.T) {
	tests := []struct {
		p         float64
		wantLabel int
		wantConf  float64
		wantRisk  float64
	}{
		{0.83, 1, 83, 83},
		{0.2, 0, 80, 20},
		{0.5, 0, 50, 50},
		{1.0, 1, 100, 100},
		{0.0, 0, 100, 0},
	}
	for _, tt := range tests {
		res, err := New(probabilistic{p: tt.p}).Score(standard(t))
		require.NoError(t, err)
		assert.Equal(t, tt.wantLabel, res.Label)
		require.NotNil(t, res.Confidence)
		assert.InDelta(t, tt.wantConf, *res.Confidence, 1e-9)
		risk, ok := res.RiskPercent()
		assert.True(t, ok)
		assert.InDelta(t, tt.wantRisk, risk, 1e-9)
		assert.Equal(t, "probability", res.Capability)
	}
}

func TestScore_MarginSquashed(t *testing.T) {
	res, err := New(margin{m: 0}).Score(standard(t))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Label)
	require.NotNil(t, res.Confidence)
	assert.InDelta(t, 50, *res.Confidence, 1e-9, "decision boundary maps to 50")

	pos, err := New(margin{m: 2}).Score(standard(t))
	require.NoError(t, err)
	neg, err := New(margin{m: -2}).Score(standard(t))
	require.NoError(t, err)
	assert.Equal(t, 1, pos.Label)
	assert.Equal(t, 0, neg.Label)
	assert.InDelta(t, *pos.Confidence, *neg.Confidence, 1e-9, "symmetric around the boundary")
	assert.InDelta(t, 100/(1+math.Exp(-2)), *pos.Confidence, 1e-9)

	huge, err := New(margin{m: 1e6}).Score(standard(t))
	require.NoError(t, err)
	assert.LessOrEqual(t, *huge.Confidence, 100.0)
	assert.Equal(t, "margin", huge.Capability)
}

func TestScore_LabelOnly(t *testing.T) {
	res, err := New(labelOnly{label: 1}).Score(standard(t))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Label)
	assert.Nil(t, res.Confidence)
	_, ok := res.RiskPercent()
	assert.False(t, ok)
	assert.Equal(t, "label-only", res.Capability)
	assert.Equal(t, "diabetes", res.Text())
}

func TestScore_InvalidVector(t *testing.T) {
	v := standard(t)
	v.BMI = math.NaN()
	_, err := New(labelOnly{}).Score(v)
	assert.ErrorIs(t, err, patient.ErrInvalidVector)
}

func TestScore_Unavailable(t *testing.T) {
	p := Unavailable(os.ErrNotExist)
	assert.False(t, p.Available())
	assert.Equal(t, ModeUnavailable, p.Mode())

	_, err := p.Score(standard(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelUnavailable)

	_, err = New(nil).Score(standard(t))
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestScore_Idempotent(t *testing.T) {
	X, y := dataset.Sample().Matrix()
	c, err := classifier.Train(classifier.KindRandomForest, X, y, classifier.DefaultTrainOptions())
	require.NoError(t, err)
	p := New(c)

	v := standard(t)
	first, err := p.Score(v)
	require.NoError(t, err)
	for range 5 {
		again, err := p.Score(v)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestScore_RealModelsStayInRange(t *testing.T) {
	ds := dataset.Sample()
	X, y := ds.Matrix()
	opts := classifier.DefaultTrainOptions()
	opts.NumTrees = 20

	for _, kind := range classifier.Kinds() {
		c, err := classifier.Train(kind, X, y, opts)
		require.NoError(t, err)
		p := New(c)
		for _, r := range ds.Records {
			res, err := p.Score(r.Vector)
			require.NoError(t, err)
			assert.Contains(t, []int{0, 1}, res.Label)
			if res.Confidence != nil {
				assert.GreaterOrEqual(t, *res.Confidence, 0.0)
				assert.LessOrEqual(t, *res.Confidence, 100.0)
			}
		}
	}
}

func writeModel(t *testing.T, kind string) string {
	t.Helper()
	X, y := dataset.Sample().Matrix()
	opts := classifier.DefaultTrainOptions()
	opts.NumTrees = 10
	c, err := classifier.Train(kind, X, y, opts)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, classifier.Save(f, c, classifier.Metadata{Version: "v1.0.0", Samples: len(X)}))
	require.NoError(t, f.Close())
	return path
}

func TestLoad_Persisted(t *testing.T) {
	path := writeModel(t, classifier.KindLinearSVM)

	p, err := Load(LoadOptions{ModelPath: path, Fallback: true})
	require.NoError(t, err)
	assert.Equal(t, ModePersisted, p.Mode())
	assert.Equal(t, classifier.KindLinearSVM, p.Kind())
	assert.Equal(t, "v1.0.0", p.Metadata().Version)

	res, err := p.Score(standard(t))
	require.NoError(t, err)
	assert.False(t, res.Degraded)
}

func TestLoad_FallbackIsLoggedAndDeterministic(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	missing := filepath.Join(t.TempDir(), "missing.json")

	a, err := Load(LoadOptions{ModelPath: missing, Fallback: true, Logger: &logger})
	require.NoError(t, err)
	assert.Equal(t, ModeFallback, a.Mode())
	assert.Equal(t, classifier.KindRandomForest, a.Kind())
	assert.Equal(t, 30, a.Metadata().Samples)
	assert.Contains(t, buf.String(), "degraded mode")
	assert.Contains(t, buf.String(), "persisted model unavailable")

	b, err := Load(LoadOptions{ModelPath: missing, Fallback: true})
	require.NoError(t, err)

	v := standard(t)
	ra, err := a.Score(v)
	require.NoError(t, err)
	rb, err := b.Score(v)
	require.NoError(t, err)
	assert.Equal(t, ra, rb, "fixed seed gives identical fallback models")
	assert.True(t, ra.Degraded)
}

func TestLoad_CorruptModelFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte("not a model"), 0o644))

	p, err := Load(LoadOptions{ModelPath: path, Fallback: true})
	require.NoError(t, err)
	assert.Equal(t, ModeFallback, p.Mode())
}

func TestLoad_NoFallback(t *testing.T) {
	p, err := Load(LoadOptions{ModelPath: filepath.Join(t.TempDir(), "missing.json")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelUnavailable)
	require.NotNil(t, p)
	assert.False(t, p.Available())

	_, err = p.Score(standard(t))
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestLoad_FallbackDatasetMissing(t *testing.T) {
	dir := t.TempDir()
	p, err := Load(LoadOptions{
		ModelPath:   filepath.Join(dir, "missing.json"),
		Fallback:    true,
		DatasetPath: filepath.Join(dir, "missing.csv"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Equal(t, ModeUnavailable, p.Mode())
	assert.Contains(t, err.Error(), "fallback training data")
}

func TestLoad_FallbackKind(t *testing.T) {
	p, err := Load(LoadOptions{Fallback: true, FallbackKind: classifier.KindNearestNeighbors})
	require.NoError(t, err)
	assert.Equal(t, classifier.KindNearestNeighbors, p.Kind())

	res, err := p.Score(standard(t))
	require.NoError(t, err)
	assert.Nil(t, res.Confidence)
}
