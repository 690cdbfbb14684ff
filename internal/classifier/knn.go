package classifier

import (
	"fmt"
	"sort"
)

// NearestNeighbors predicts by majority vote among the K closest training
// rows in standardized feature space. It only exposes a label: vote shares
// over a handful of neighbours are too coarse to report as confidence.
type NearestNeighbors struct {
	K      int         `json:"k"`
	Scaler *Scaler     `json:"scaler"`
	Rows   [][]float64 `json:"rows"`
	Labels []int       `json:"labels"`
}

// FitNearestNeighbors memorizes the standardized training data.
func FitNearestNeighbors(X [][]float64, y []int, k int) (*NearestNeighbors, error) {
	if _, err := checkTrainingData(X, y); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if k > len(X) {
		k = len(X)
	}
	scaler := FitScaler(X)
	rows := make([][]float64, len(X))
	for i, row := range X {
		rows[i] = scaler.Transform(row)
	}
	labels := make([]int, len(y))
	copy(labels, y)
	return &NearestNeighbors{K: k, Scaler: scaler, Rows: rows, Labels: labels}, nil
}

func (n *NearestNeighbors) Kind() string { return KindNearestNeighbors }

// Predict returns the majority label of the K nearest rows. Distance ties
// are broken by training order; vote ties go to class 0.
func (n *NearestNeighbors) Predict(x []float64) int {
	z := n.Scaler.Transform(x)
	type neighbour struct {
		dist  float64
		label int
	}
	all := make([]neighbour, len(n.Rows))
	for i, row := range n.Rows {
		var d float64
		for j, v := range row {
			diff := v - z[j]
			d += diff * diff
		}
		all[i] = neighbour{dist: d, label: n.Labels[i]}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].dist < all[b].dist })

	votes := 0
	for _, nb := range all[:n.K] {
		votes += nb.label
	}
	if 2*votes > n.K {
		return 1
	}
	return 0
}

func (n *NearestNeighbors) validate(dim int) error {
	if err := n.Scaler.validate(dim); err != nil {
		return err
	}
	if len(n.Rows) == 0 || len(n.Rows) != len(n.Labels) {
		return fmt.Errorf("knn has %d rows and %d labels", len(n.Rows), len(n.Labels))
	}
	if n.K <= 0 || n.K > len(n.Rows) {
		return fmt.Errorf("knn k=%d invalid for %d rows", n.K, len(n.Rows))
	}
	for i, row := range n.Rows {
		if len(row) != dim {
			return fmt.Errorf("knn row %d has %d features, want %d", i, len(row), dim)
		}
		if n.Labels[i] != 0 && n.Labels[i] != 1 {
			return fmt.Errorf("knn row %d has label %d", i, n.Labels[i])
		}
	}
	return nil
}
