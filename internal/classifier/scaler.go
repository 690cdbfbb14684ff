package classifier

import (
	"fmt"
	"math"
)

// Scaler standardizes features to zero mean and unit variance.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes per-feature mean and standard deviation. Constant
// features get a deviation of 1 so they transform to zero.
func FitScaler(X [][]float64) *Scaler {
	dim := len(X[0])
	s := &Scaler{Mean: make([]float64, dim), Std: make([]float64, dim)}
	n := float64(len(X))
	for _, row := range X {
		for j, v := range row {
			s.Mean[j] += v / n
		}
	}
	for _, row := range X {
		for j, v := range row {
			d := v - s.Mean[j]
			s.Std[j] += d * d / n
		}
	}
	for j := range s.Std {
		s.Std[j] = math.Sqrt(s.Std[j])
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	return s
}

// Transform returns the standardized copy of x.
func (s *Scaler) Transform(x []float64) []float64 {
	z := make([]float64, len(x))
	for j, v := range x {
		z[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return z
}

func (s *Scaler) validate(dim int) error {
	if s == nil {
		return fmt.Errorf("missing scaler")
	}
	if len(s.Mean) != dim || len(s.Std) != dim {
		return fmt.Errorf("scaler has %d/%d entries, want %d", len(s.Mean), len(s.Std), dim)
	}
	for j, sd := range s.Std {
		if sd == 0 || math.IsNaN(sd) {
			return fmt.Errorf("scaler deviation %d is %v", j, sd)
		}
	}
	return nil
}
