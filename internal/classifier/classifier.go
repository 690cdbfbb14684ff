package classifier

import (
	"errors"
	"fmt"
)

// Kinds of classifier this package can train and persist.
const (
	KindRandomForest     = "random_forest"
	KindLinearSVM        = "linear_svm"
	KindNearestNeighbors = "nearest_neighbors"
)

// ErrUnknownKind is returned when a kind string names no known classifier.
var ErrUnknownKind = errors.New("unknown classifier kind")

// Classifier is a fitted binary classifier. Predict returns 0 (negative)
// or 1 (positive). Implementations are read-only after fitting and safe
// for concurrent use.
type Classifier interface {
	Kind() string
	Predict(x []float64) int
}

// Probabilistic is implemented by classifiers that expose a calibrated
// probability of the positive class in [0, 1].
type Probabilistic interface {
	Classifier
	Probability(x []float64) float64
}

// Margin is implemented by classifiers that expose a signed decision value.
// Positive margins predict class 1; zero is the decision boundary.
type Margin interface {
	Classifier
	Margin(x []float64) float64
}

// Kinds returns all supported kinds.
func Kinds() []string {
	return []string{KindRandomForest, KindLinearSVM, KindNearestNeighbors}
}

// Capability describes which confidence accessor a classifier offers.
func Capability(c Classifier) string {
	switch c.(type) {
	case Probabilistic:
		return "probability"
	case Margin:
		return "margin"
	default:
		return "label-only"
	}
}

// checkTrainingData validates a feature matrix and label vector.
func checkTrainingData(X [][]float64, y []int) (int, error) {
	if len(X) == 0 {
		return 0, fmt.Errorf("no training rows")
	}
	if len(X) != len(y) {
		return 0, fmt.Errorf("%d rows but %d labels", len(X), len(y))
	}
	dim := len(X[0])
	if dim == 0 {
		return 0, fmt.Errorf("rows have no features")
	}
	for i, row := range X {
		if len(row) != dim {
			return 0, fmt.Errorf("row %d has %d features, want %d", i, len(row), dim)
		}
		if y[i] != 0 && y[i] != 1 {
			return 0, fmt.Errorf("row %d has label %d, want 0 or 1", i, y[i])
		}
	}
	return dim, nil
}
