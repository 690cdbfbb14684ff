package classifier

import "fmt"

// TrainOptions holds the hyperparameters for every supported kind. Only
// the fields relevant to the requested kind are read.
type TrainOptions struct {
	NumTrees int
	MaxDepth int
	Seed     uint64
	Lambda   float64
	Epochs   int
	K        int
}

// DefaultTrainOptions returns the fixed hyperparameters used for on-the-fly
// fitting: 100 trees and seed 42.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		NumTrees: 100,
		Seed:     42,
		Lambda:   0.01,
		Epochs:   50,
		K:        5,
	}
}

// Train fits a classifier of the given kind.
func Train(kind string, X [][]float64, y []int, opts TrainOptions) (Classifier, error) {
	switch kind {
	case KindRandomForest:
		return FitRandomForest(X, y, ForestOptions{
			NumTrees: opts.NumTrees,
			MaxDepth: opts.MaxDepth,
			Seed:     opts.Seed,
		})
	case KindLinearSVM:
		return FitLinearSVM(X, y, SVMOptions{
			Lambda: opts.Lambda,
			Epochs: opts.Epochs,
			Seed:   opts.Seed,
		})
	case KindNearestNeighbors:
		return FitNearestNeighbors(X, y, opts.K)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
