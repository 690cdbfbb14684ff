package evaluator

import "github.com/abhisek/diacheck/internal/patient"

// Reference-range boundaries. A value equal to a boundary belongs to the
// more severe bucket.
const (
	GlucoseBorderline = 100.0
	GlucoseHigh       = 126.0

	BMIBorderline = 25.0
	BMIHigh       = 30.0

	BloodPressureBorderline = 130.0
	BloodPressureHigh       = 140.0

	AgeElevated = 45.0

	InsulinLow  = 25.0
	InsulinHigh = 100.0

	PedigreeBorderline = 0.5
	PedigreeHigh       = 0.8
)

// Rule classifies the value of one field.
type Rule interface {
	Field() patient.Field
	Classify(value float64) (Category, string)
}

// DefaultRules returns one rule per field, in patient.Fields() order.
func DefaultRules() []Rule {
	return []Rule{
		unratedRule{field: patient.FieldPregnancies,
			message: "No reference range; used by the model only."},
		&tieredRule{
			field: patient.FieldGlucose, borderline: GlucoseBorderline, high: GlucoseHigh,
			normal:         "Glucose is in the normal range (below 100 mg/dL).",
			borderlineText: "Glucose is in the prediabetes range (100-125 mg/dL). Consider a follow-up fasting test.",
			highText:       "Glucose is in the diabetes range (126 mg/dL or more). Consult a doctor.",
		},
		&tieredRule{
			field: patient.FieldBloodPressure, borderline: BloodPressureBorderline, high: BloodPressureHigh,
			normal:         "Blood pressure is normal (below 130 mmHg).",
			borderlineText: "Blood pressure is elevated (130-139 mmHg). Reduce salt and monitor regularly.",
			highText:       "Blood pressure is high (140 mmHg or more). Seek medical advice.",
		},
		unratedRule{field: patient.FieldSkinThickness,
			message: "No reference range; used by the model only."},
		insulinRule{},
		&tieredRule{
			field: patient.FieldBMI, borderline: BMIBorderline, high: BMIHigh,
			normal:         "BMI is in the healthy range (below 25).",
			borderlineText: "BMI is in the overweight range (25-29.9). Regular activity helps lower risk.",
			highText:       "BMI is in the obese range (30 or more). Weight management is strongly advised.",
		},
		&tieredRule{
			field: patient.FieldDiabetesPedigree, borderline: PedigreeBorderline, high: PedigreeHigh,
			normal:         "Family history risk is low (below 0.5).",
			borderlineText: "Family history risk is moderate (0.5-0.79). Screen regularly.",
			highText:       "Family history risk is high (0.8 or more). Screen at least yearly.",
		},
		ageRule{},
	}
}

// tieredRule implements the common normal < borderline < high layout.
type tieredRule struct {
	field          patient.Field
	borderline     float64
	high           float64
	normal         string
	borderlineText string
	highText       string
}

func (r *tieredRule) Field() patient.Field { return r.field }

func (r *tieredRule) Classify(v float64) (Category, string) {
	switch {
	case v >= r.high:
		return CategoryHigh, r.highText
	case v >= r.borderline:
		return CategoryBorderline, r.borderlineText
	default:
		return CategoryNormal, r.normal
	}
}

// insulinRule flags values outside the 25-100 µU/mL range without ever
// rating them as dangerous.
type insulinRule struct{}

func (insulinRule) Field() patient.Field { return patient.FieldInsulin }

func (insulinRule) Classify(v float64) (Category, string) {
	switch {
	case v < InsulinLow:
		return CategoryBorderline, "Insulin is below the typical range (25-100 µU/mL). Discuss with a doctor."
	case v > InsulinHigh:
		return CategoryBorderline, "Insulin is above the typical range (25-100 µU/mL), which may indicate insulin resistance."
	default:
		return CategoryNormal, "Insulin is in the typical range (25-100 µU/mL)."
	}
}

type ageRule struct{}

func (ageRule) Field() patient.Field { return patient.FieldAge }

func (ageRule) Classify(v float64) (Category, string) {
	if v >= AgeElevated {
		return CategoryElevated, "Age 45 or over raises diabetes risk. Regular screening is recommended."
	}
	return CategoryNormal, "Age is below the elevated-risk threshold of 45."
}

type unratedRule struct {
	field   patient.Field
	message string
}

func (r unratedRule) Field() patient.Field { return r.field }

func (r unratedRule) Classify(float64) (Category, string) { return CategoryUnrated, r.message }
