package classifier

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// LinearSVM is a linear maximum-margin classifier over standardized
// features. It has no probability calibration; callers get the raw
// decision margin instead.
type LinearSVM struct {
	Scaler  *Scaler   `json:"scaler"`
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// SVMOptions controls linear SVM fitting.
type SVMOptions struct {
	// Lambda is the L2 regularization strength.
	Lambda float64
	// Epochs is the number of passes over the data.
	Epochs int
	Seed   uint64
}

// FitLinearSVM trains with the Pegasos stochastic sub-gradient method on
// the hinge loss. The bias is learned as the weight of a constant feature.
func FitLinearSVM(X [][]float64, y []int, opts SVMOptions) (*LinearSVM, error) {
	dim, err := checkTrainingData(X, y)
	if err != nil {
		return nil, err
	}
	if opts.Lambda <= 0 {
		return nil, fmt.Errorf("lambda must be positive, got %v", opts.Lambda)
	}
	if opts.Epochs <= 0 {
		return nil, fmt.Errorf("epochs must be positive, got %d", opts.Epochs)
	}

	scaler := FitScaler(X)
	Z := make([][]float64, len(X))
	for i, row := range X {
		Z[i] = append(scaler.Transform(row), 1)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	w := make([]float64, dim+1)
	step := 0
	for range opts.Epochs {
		for _, i := range rng.Perm(len(Z)) {
			step++
			eta := 1 / (opts.Lambda * float64(step))
			label := -1.0
			if y[i] == 1 {
				label = 1
			}
			violated := label*dot(w, Z[i]) < 1
			shrink := 1 - eta*opts.Lambda
			for j := range w {
				w[j] *= shrink
				if violated {
					w[j] += eta * label * Z[i][j]
				}
			}
		}
	}

	return &LinearSVM{Scaler: scaler, Weights: w[:dim], Bias: w[dim]}, nil
}

func (s *LinearSVM) Kind() string { return KindLinearSVM }

// Margin returns the signed distance-like decision value w·z + b.
func (s *LinearSVM) Margin(x []float64) float64 {
	return dot(s.Weights, s.Scaler.Transform(x)) + s.Bias
}

// Predict returns 1 for a strictly positive margin.
func (s *LinearSVM) Predict(x []float64) int {
	if s.Margin(x) > 0 {
		return 1
	}
	return 0
}

func (s *LinearSVM) validate(dim int) error {
	if err := s.Scaler.validate(dim); err != nil {
		return err
	}
	if len(s.Weights) != dim {
		return fmt.Errorf("svm has %d weights, want %d", len(s.Weights), dim)
	}
	for _, v := range s.Weights {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("svm has non-finite weight")
		}
	}
	if math.IsNaN(s.Bias) || math.IsInf(s.Bias, 0) {
		return fmt.Errorf("svm has non-finite bias")
	}
	return nil
}

// dot multiplies element-wise up to the shorter length.
func dot(a, b []float64) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := range n {
		sum += a[i] * b[i]
	}
	return sum
}
