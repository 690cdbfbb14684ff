package predictor

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/diacheck/internal/classifier"
	"github.com/abhisek/diacheck/internal/dataset"
)

// LoadOptions selects where the predictor gets its model.
type LoadOptions struct {
	// ModelPath is the persisted model file. Empty skips straight to the
	// fallback.
	ModelPath string

	// Fallback enables on-the-fly training when the model file cannot be
	// loaded.
	Fallback bool

	// DatasetPath is the training CSV for the fallback. Empty uses the
	// embedded sample.
	DatasetPath string

	// FallbackKind is the classifier trained in fallback mode.
	// Default: random_forest.
	FallbackKind string

	// Train holds the fallback hyperparameters.
	// Default: classifier.DefaultTrainOptions().
	Train *classifier.TrainOptions

	Logger *zerolog.Logger
}

// Load builds a predictor in priority order:
//
//  1. the persisted model at ModelPath
//  2. a classifier fitted on the training dataset (when Fallback is set),
//     logged as degraded
//  3. an unavailable predictor
//
// The returned predictor is never nil. The error is non-nil only in the
// third case and wraps ErrModelUnavailable; callers may keep the predictor
// and continue without scoring.
func Load(opts LoadOptions) (*Predictor, error) {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	var loadErr error
	if opts.ModelPath != "" {
		p, err := loadFile(opts.ModelPath)
		if err == nil {
			log.Info().
				Str("path", opts.ModelPath).
				Str("kind", p.Kind()).
				Str("version", p.meta.Version).
				Msg("model loaded")
			return p, nil
		}
		loadErr = err
		log.Warn().Err(err).Str("path", opts.ModelPath).Msg("persisted model unavailable")
	} else {
		loadErr = errors.New("no model path configured")
	}

	if !opts.Fallback {
		return Unavailable(loadErr), fmt.Errorf("%w: %v", ErrModelUnavailable, loadErr)
	}

	p, err := fitFallback(opts)
	if err != nil {
		cause := errors.Join(loadErr, err)
		log.Error().Err(cause).Msg("model unavailable, scoring disabled")
		return Unavailable(cause), fmt.Errorf("%w: %v", ErrModelUnavailable, cause)
	}

	log.Warn().
		Str("kind", p.Kind()).
		Int("samples", p.meta.Samples).
		Str("dataset", datasetName(opts.DatasetPath)).
		Msg("degraded mode: using a model trained on the fly")
	return p, nil
}

func loadFile(path string) (*Predictor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	c, meta, err := classifier.Load(f)
	if err != nil {
		return nil, err
	}
	return &Predictor{model: c, meta: meta, mode: ModePersisted}, nil
}

func fitFallback(opts LoadOptions) (*Predictor, error) {
	var ds *dataset.Dataset
	if opts.DatasetPath == "" {
		ds = dataset.Sample()
	} else {
		var err error
		ds, err = dataset.Open(opts.DatasetPath)
		if err != nil {
			return nil, fmt.Errorf("fallback training data: %w", err)
		}
	}

	kind := opts.FallbackKind
	if kind == "" {
		kind = classifier.KindRandomForest
	}
	train := classifier.DefaultTrainOptions()
	if opts.Train != nil {
		train = *opts.Train
	}

	X, y := ds.Matrix()
	c, err := classifier.Train(kind, X, y, train)
	if err != nil {
		return nil, fmt.Errorf("fallback training: %w", err)
	}
	return &Predictor{
		model: c,
		meta:  classifier.Metadata{TrainedAt: time.Now().UTC(), Samples: len(X)},
		mode:  ModeFallback,
	}, nil
}

func datasetName(path string) string {
	if path == "" {
		return "embedded sample"
	}
	return path
}
