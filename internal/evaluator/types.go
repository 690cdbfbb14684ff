package evaluator

import "github.com/abhisek/diacheck/internal/patient"

// Category is the qualitative status of one clinical input.
type Category string

const (
	CategoryNormal     Category = "normal"
	CategoryBorderline Category = "borderline"
	CategoryHigh       Category = "high"
	CategoryElevated   Category = "elevated" // age at or above the risk cutoff
	CategoryUnrated    Category = "unrated"  // no reference range for this field
)

// Severity orders categories for display: 0 for normal and unrated,
// 1 for borderline, 2 for high and elevated.
func (c Category) Severity() int {
	switch c {
	case CategoryBorderline:
		return 1
	case CategoryHigh, CategoryElevated:
		return 2
	default:
		return 0
	}
}

// ParameterStatus is the evaluation of a single field.
type ParameterStatus struct {
	Field    patient.Field `json:"field"`
	Value    float64       `json:"value"`
	Category Category      `json:"category"`
	Message  string        `json:"message"`
}

// Flagged reports whether the status warrants attention.
func (s ParameterStatus) Flagged() bool {
	return s.Category.Severity() > 0
}
