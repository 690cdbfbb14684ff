package predictor

import (
	"errors"
	"fmt"
	"math"

	"github.com/abhisek/diacheck/internal/classifier"
	"github.com/abhisek/diacheck/internal/patient"
)

// ErrModelUnavailable is returned by Score when no fitted classifier could
// be loaded or trained. Parameter evaluation does not depend on the model
// and keeps working.
var ErrModelUnavailable = errors.New("model not available")

// Mode records how the predictor obtained its model.
type Mode string

const (
	ModePersisted   Mode = "persisted"   // loaded from a model file
	ModeFallback    Mode = "fallback"    // trained in-process from a dataset
	ModeProvided    Mode = "provided"    // handed in by the caller
	ModeUnavailable Mode = "unavailable" // no model; scoring disabled
)

// Labels of the binary outcome.
const (
	LabelLowRisk  = 0
	LabelHighRisk = 1
)

// PredictionResult is the outcome of scoring one vector.
type PredictionResult struct {
	Label int `json:"label"`
	// Confidence is the model's certainty in Label on a 0–100 scale, or
	// nil when the classifier exposes neither probability nor margin.
	Confidence *float64 `json:"confidence,omitempty"`
	// Classifier is the model kind that produced the label.
	Classifier string `json:"classifier"`
	// Capability is "probability", "margin" or "label-only".
	Capability string `json:"capability"`
	// Degraded is set when the model was trained on the fly because no
	// persisted model could be loaded.
	Degraded bool `json:"degraded"`
}

// Text returns "diabetes" or "no diabetes".
func (r *PredictionResult) Text() string {
	if r.Label == LabelHighRisk {
		return "diabetes"
	}
	return "no diabetes"
}

// RiskPercent converts the confidence into the chance of the positive
// class, 0–100. ok is false when no confidence is available.
func (r *PredictionResult) RiskPercent() (pct float64, ok bool) {
	if r.Confidence == nil {
		return 0, false
	}
	if r.Label == LabelHighRisk {
		return *r.Confidence, true
	}
	return 100 - *r.Confidence, true
}

// Predictor scores patient vectors with a read-only fitted classifier. It
// holds no per-request state and is safe for concurrent use.
type Predictor struct {
	model classifier.Classifier
	meta  classifier.Metadata
	mode  Mode
	cause error
}

// New wraps an already fitted classifier.
func New(c classifier.Classifier) *Predictor {
	if c == nil {
		return Unavailable(fmt.Errorf("no classifier given"))
	}
	return &Predictor{model: c, mode: ModeProvided}
}

// Unavailable returns a predictor that refuses to score, remembering why.
func Unavailable(cause error) *Predictor {
	return &Predictor{mode: ModeUnavailable, cause: cause}
}

// Score classifies v. Invalid vectors fail with patient.ErrInvalidVector;
// a predictor without a model fails with ErrModelUnavailable.
func (p *Predictor) Score(v patient.Vector) (*PredictionResult, error) {
	if err := v.Check(); err != nil {
		return nil, err
	}
	if p.model == nil {
		if p.cause != nil {
			return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, p.cause)
		}
		return nil, ErrModelUnavailable
	}

	x := v.Features()
	label := p.model.Predict(x)
	return &PredictionResult{
		Label:      label,
		Confidence: Confidence(p.model, x, label),
		Classifier: p.model.Kind(),
		Capability: classifier.Capability(p.model),
		Degraded:   p.mode == ModeFallback,
	}, nil
}

// Available reports whether Score can succeed.
func (p *Predictor) Available() bool { return p.model != nil }

// Mode reports how the model was obtained.
func (p *Predictor) Mode() Mode { return p.mode }

// Metadata returns the persisted or training metadata of the model.
func (p *Predictor) Metadata() classifier.Metadata { return p.meta }

// Kind returns the classifier kind, or "" when unavailable.
func (p *Predictor) Kind() string {
	if p.model == nil {
		return ""
	}
	return p.model.Kind()
}

// Cause returns why the model is unavailable, or nil.
func (p *Predictor) Cause() error { return p.cause }

// Confidence derives the 0–100 certainty in label from whichever
// accessor the classifier offers:
//
//   - probability: P(label) × 100
//   - margin: 100·σ(|margin|), so the decision boundary maps to 50
//   - neither: nil
func Confidence(c classifier.Classifier, x []float64, label int) *float64 {
	var conf float64
	switch m := c.(type) {
	case classifier.Probabilistic:
		p := m.Probability(x)
		if label == LabelLowRisk {
			p = 1 - p
		}
		conf = p * 100
	case classifier.Margin:
		conf = SquashMargin(math.Abs(m.Margin(x)))
	default:
		return nil
	}
	conf = clamp(conf, 0, 100)
	return &conf
}

// SquashMargin maps a decision margin onto 0–100 with the logistic
// function; 0 maps to 50.
func SquashMargin(margin float64) float64 {
	return 100 / (1 + math.Exp(-margin))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
