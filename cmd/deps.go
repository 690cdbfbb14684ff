package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/diacheck/internal/advisor"
	"github.com/abhisek/diacheck/internal/assessment"
	"github.com/abhisek/diacheck/internal/llm"
	"github.com/abhisek/diacheck/internal/predictor"
	"github.com/abhisek/diacheck/internal/store"
)

// openStore connects to the configured history store.
func openStore() (*store.Store, error) {
	if cfg.DBDriver == store.DriverSQLite {
		if err := store.EnsureDir(cfg.DB); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	s, err := store.OpenDriver(cfg.DBDriver, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

// loadPredictor never fails: a missing model leaves scoring disabled and
// the reason logged.
func loadPredictor() *predictor.Predictor {
	p, err := predictor.Load(predictor.LoadOptions{
		ModelPath:    cfg.Model,
		Fallback:     cfg.Fallback,
		DatasetPath:  cfg.Dataset,
		FallbackKind: cfg.FallbackKind,
		Logger:       &logger,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("scoring disabled")
	}
	return p
}

// deps are the long-lived objects behind an assessment.Service.
type deps struct {
	service *assessment.Service
	store   *store.Store
}

func (d *deps) Close() {
	if d.store != nil {
		_ = d.store.Close()
	}
}

// buildService wires the predictor, optional LLM narrator and optional
// history store. The store is opened when history is enabled or withStore
// is set.
func buildService(ctx context.Context, withStore bool) (*deps, error) {
	d := &deps{}

	var repo store.AssessmentRepo
	var events store.EventRepo
	if withStore || cfg.History {
		s, err := openStore()
		if err != nil {
			return nil, err
		}
		d.store = s
		repo = s.Assessments()
		events = s.EventRepo()
	}

	var provider llm.Provider
	if cfg.LLM.Enabled() {
		p, err := llm.NewProvider(ctx, cfg.LLM, events, logger)
		switch {
		case err == nil:
			provider = p
		case errors.Is(err, llm.ErrDisabled):
		default:
			logger.Warn().Err(err).Msg("LLM provider not configured, advice will be static")
		}
	}

	d.service = assessment.NewService(loadPredictor(), advisor.New(provider, logger), repo, logger)
	return d, nil
}
