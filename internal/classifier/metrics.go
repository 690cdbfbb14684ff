package classifier

// Metrics summarizes classifier performance on labelled data.
type Metrics struct {
	TruePositives  int
	FalsePositives int
	TrueNegatives  int
	FalseNegatives int
}

// Measure runs c over X and tallies the confusion matrix against y.
func Measure(c Classifier, X [][]float64, y []int) Metrics {
	var m Metrics
	for i, row := range X {
		got := c.Predict(row)
		switch {
		case got == 1 && y[i] == 1:
			m.TruePositives++
		case got == 1:
			m.FalsePositives++
		case y[i] == 0:
			m.TrueNegatives++
		default:
			m.FalseNegatives++
		}
	}
	return m
}

// Total is the number of rows measured.
func (m Metrics) Total() int {
	return m.TruePositives + m.FalsePositives + m.TrueNegatives + m.FalseNegatives
}

// Accuracy is the fraction of correct predictions (0 when empty).
func (m Metrics) Accuracy() float64 {
	return ratio(m.TruePositives+m.TrueNegatives, m.Total())
}

// Precision is TP / (TP + FP).
func (m Metrics) Precision() float64 {
	return ratio(m.TruePositives, m.TruePositives+m.FalsePositives)
}

// Recall is TP / (TP + FN).
func (m Metrics) Recall() float64 {
	return ratio(m.TruePositives, m.TruePositives+m.FalseNegatives)
}

// F1 is the harmonic mean of precision and recall.
func (m Metrics) F1() float64 {
	p, r := m.Precision(), m.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
