// Package assessment runs the full pipeline for one patient vector: model
// score, parameter evaluation, risk score, optional advice and optional
// persistence.
package assessment

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/abhisek/diacheck/internal/advisor"
	"github.com/abhisek/diacheck/internal/evaluator"
	"github.com/abhisek/diacheck/internal/patient"
	"github.com/abhisek/diacheck/internal/predictor"
	"github.com/abhisek/diacheck/internal/report"
	"github.com/abhisek/diacheck/internal/store"
)

// Collector sources recorded with saved assessments.
const (
	SourceCLI  = "cli"
	SourceForm = "form"
	SourceHTTP = "http"
)

// Service wires the predictor, advisor and history store together.
// Advisor and Repo are optional.
type Service struct {
	predictor *predictor.Predictor
	advisor   *advisor.Advisor
	repo      store.AssessmentRepo
	log       zerolog.Logger
}

// NewService creates a Service. A nil advisor yields static advice only; a
// nil repo disables saving.
func NewService(p *predictor.Predictor, a *advisor.Advisor, repo store.AssessmentRepo, log zerolog.Logger) *Service {
	if a == nil {
		a = advisor.New(nil, log)
	}
	return &Service{predictor: p, advisor: a, repo: repo, log: log}
}

// Options select the optional parts of an assessment.
type Options struct {
	Advice bool
	Save   bool
	Source string
}

// Predictor returns the predictor in use.
func (s *Service) Predictor() *predictor.Predictor { return s.predictor }

// CanSave reports whether a history store is attached.
func (s *Service) CanSave() bool { return s.repo != nil }

// Assess scores and evaluates v. A missing model is not an error: the
// report carries a nil prediction and the reason. Invalid vectors and save
// failures are returned as errors.
func (s *Service) Assess(ctx context.Context, v patient.Vector, opts Options) (*report.Report, error) {
	if err := v.Check(); err != nil {
		return nil, err
	}

	pred, err := s.predictor.Score(v)
	r := &report.Report{
		Vector:    v,
		ModelMode: s.predictor.Mode(),
	}
	switch {
	case err == nil:
		r.Prediction = pred
	case errors.Is(err, predictor.ErrModelUnavailable):
		r.ModelError = s.unavailableReason(err)
	default:
		return nil, err
	}

	in := advisor.NewInput(v, r.Prediction)
	r.Statuses = in.Statuses
	r.Risk = in.Risk

	if opts.Advice {
		adv := s.advisor.Advise(ctx, in)
		r.Advice = &adv
	}

	if opts.Save {
		if s.repo == nil {
			return nil, errors.New("history store not configured")
		}
		rec := toRecord(r, opts.Source)
		if err := s.repo.Save(ctx, rec); err != nil {
			return nil, fmt.Errorf("save assessment: %w", err)
		}
		r.ID = rec.ID.String()
		s.log.Debug().Str("id", r.ID).Str("source", rec.Source).Msg("assessment saved")
	}
	return r, nil
}

func (s *Service) unavailableReason(err error) string {
	if cause := s.predictor.Cause(); cause != nil {
		return fmt.Sprintf("%v: %v", predictor.ErrModelUnavailable, cause)
	}
	return err.Error()
}

func toRecord(r *report.Report, source string) *store.Assessment {
	if source == "" {
		source = SourceCLI
	}
	a := &store.Assessment{
		Source:    source,
		Vector:    r.Vector,
		ModelMode: string(r.ModelMode),
		RiskScore: r.Risk.Score,
		RiskTier:  r.Risk.Tier,
		Statuses:  r.Statuses,
	}
	if p := r.Prediction; p != nil {
		label := p.Label
		a.Label = &label
		a.Confidence = p.Confidence
		a.Classifier = p.Classifier
	}
	if adv := r.Advice; adv != nil {
		a.Advice = &store.Advice{Source: adv.Source, Summary: adv.Summary, Recommendations: adv.Recommendations}
	}
	return a
}

// FromRecord rebuilds a report from a stored assessment for display.
func FromRecord(a *store.Assessment) report.Report {
	r := report.Report{
		ID:        a.ID.String(),
		Vector:    a.Vector,
		ModelMode: predictor.Mode(a.ModelMode),
		Statuses:  a.Statuses,
		Risk: evaluator.Risk{
			Score:   a.RiskScore,
			Tier:    a.RiskTier,
			Message: evaluator.TierMessage(a.RiskTier),
		},
	}
	if a.Label != nil {
		r.Prediction = &predictor.PredictionResult{
			Label:      *a.Label,
			Confidence: a.Confidence,
			Classifier: a.Classifier,
		}
	}
	if adv := a.Advice; adv != nil {
		r.Advice = &advisor.Advice{Source: adv.Source, Summary: adv.Summary, Recommendations: adv.Recommendations}
	}
	return r
}
