package classifier

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// RandomForest is a bagged ensemble of CART trees. Its probability is the
// mean of the per-tree leaf probabilities.
type RandomForest struct {
	Trees []*Tree `json:"trees"`
}

// ForestOptions controls random forest fitting.
type ForestOptions struct {
	NumTrees int
	MaxDepth int // 0 = grow until pure
	// MaxFeatures is the number of features examined per split.
	// 0 selects floor(sqrt(dim)).
	MaxFeatures int
	Seed        uint64
}

// FitRandomForest trains a forest. The same data, options and seed always
// yield the same forest.
func FitRandomForest(X [][]float64, y []int, opts ForestOptions) (*RandomForest, error) {
	dim, err := checkTrainingData(X, y)
	if err != nil {
		return nil, err
	}
	if opts.NumTrees <= 0 {
		return nil, fmt.Errorf("number of trees must be positive, got %d", opts.NumTrees)
	}
	maxFeatures := opts.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(dim)))
	}
	if maxFeatures > dim {
		maxFeatures = dim
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	params := treeParams{maxDepth: opts.MaxDepth, minSplit: 2, maxFeatures: maxFeatures}

	n := len(X)
	forest := &RandomForest{Trees: make([]*Tree, 0, opts.NumTrees)}
	for range opts.NumTrees {
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.IntN(n)
		}
		forest.Trees = append(forest.Trees, growTree(X, y, sample, params, rng))
	}
	return forest, nil
}

func (f *RandomForest) Kind() string { return KindRandomForest }

// Probability returns the forest's estimate of P(class 1).
func (f *RandomForest) Probability(x []float64) float64 {
	var sum float64
	for _, t := range f.Trees {
		sum += t.Probability(x)
	}
	return sum / float64(len(f.Trees))
}

// Predict returns 1 when the positive probability exceeds one half. An
// exact tie goes to class 0.
func (f *RandomForest) Predict(x []float64) int {
	if f.Probability(x) > 0.5 {
		return 1
	}
	return 0
}

func (f *RandomForest) validate(dim int) error {
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	for i, t := range f.Trees {
		if t == nil {
			return fmt.Errorf("tree %d: missing", i)
		}
		if err := t.validate(dim); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}
