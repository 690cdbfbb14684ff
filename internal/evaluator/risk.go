package evaluator

import "github.com/abhisek/diacheck/internal/patient"

// Tier is the severity band of a risk score.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Tier boundaries on the 0-100 score.
const (
	MediumAt = 30
	HighAt   = 50
	MaxScore = 100
)

// Risk is the additive heuristic score. It is computed from the parameter
// statuses alone and may disagree with the model's label.
type Risk struct {
	Score   int    `json:"score"`
	Tier    Tier   `json:"tier"`
	Message string `json:"message"`
}

type weight struct {
	flagged int // borderline, or the only flagged level for insulin
	high    int // high or elevated
}

var weights = map[patient.Field]weight{
	patient.FieldGlucose:          {flagged: 15, high: 30},
	patient.FieldBMI:              {flagged: 10, high: 20},
	patient.FieldBloodPressure:    {flagged: 8, high: 15},
	patient.FieldDiabetesPedigree: {flagged: 8, high: 15},
	patient.FieldAge:              {high: 10},
	patient.FieldInsulin:          {flagged: 5},
}

var tierMessages = map[Tier]string{
	TierLow:    "Low risk. Maintain a healthy lifestyle and get checked routinely.",
	TierMedium: "Moderate risk. Consider lifestyle changes and a screening test within the year.",
	TierHigh:   "High risk. Please consult a healthcare provider for proper testing.",
}

// RiskScore sums the per-field weights of the flagged statuses, capped at
// MaxScore.
func RiskScore(statuses []ParameterStatus) Risk {
	score := 0
	for _, s := range statuses {
		w := weights[s.Field]
		switch s.Category {
		case CategoryHigh, CategoryElevated:
			score += w.high
		case CategoryBorderline:
			score += w.flagged
		}
	}
	if score > MaxScore {
		score = MaxScore
	}
	tier := TierFor(score)
	return Risk{Score: score, Tier: tier, Message: tierMessages[tier]}
}

// TierFor maps a score to its tier.
func TierFor(score int) Tier {
	switch {
	case score >= HighAt:
		return TierHigh
	case score >= MediumAt:
		return TierMedium
	default:
		return TierLow
	}
}

// TierMessage returns the static advice for a tier.
func TierMessage(t Tier) string {
	return tierMessages[t]
}
