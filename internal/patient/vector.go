package patient

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidVector is returned when input cannot form a patient vector:
// wrong number of fields, non-numeric text, NaN or infinite values.
var ErrInvalidVector = errors.New("invalid patient vector")

// Field identifies one of the eight clinical inputs.
type Field string

const (
	FieldPregnancies      Field = "pregnancies"
	FieldGlucose          Field = "glucose"
	FieldBloodPressure    Field = "blood_pressure"
	FieldSkinThickness    Field = "skin_thickness"
	FieldInsulin          Field = "insulin"
	FieldBMI              Field = "bmi"
	FieldDiabetesPedigree Field = "diabetes_pedigree"
	FieldAge              Field = "age"
)

// NumFields is the arity of a patient vector.
const NumFields = 8

// Fields returns the field names in vector order. This is also the order
// the classifier expects its features in.
func Fields() []Field {
	return []Field{
		FieldPregnancies,
		FieldGlucose,
		FieldBloodPressure,
		FieldSkinThickness,
		FieldInsulin,
		FieldBMI,
		FieldDiabetesPedigree,
		FieldAge,
	}
}

// Label returns a human-readable name with unit, e.g. "Glucose (mg/dL)".
func (f Field) Label() string {
	switch f {
	case FieldPregnancies:
		return "Pregnancies"
	case FieldGlucose:
		return "Glucose (mg/dL)"
	case FieldBloodPressure:
		return "Blood Pressure (mmHg)"
	case FieldSkinThickness:
		return "Skin Thickness (mm)"
	case FieldInsulin:
		return "Insulin (µU/mL)"
	case FieldBMI:
		return "BMI"
	case FieldDiabetesPedigree:
		return "Diabetes Pedigree Function"
	case FieldAge:
		return "Age (years)"
	default:
		return string(f)
	}
}

// Integral reports whether the field holds whole numbers.
func (f Field) Integral() bool {
	return f != FieldBMI && f != FieldDiabetesPedigree
}

// Vector is one patient's clinical inputs. It is a value type; copies are
// independent and nothing mutates a Vector after construction.
type Vector struct {
	Pregnancies      float64 `json:"pregnancies"`
	Glucose          float64 `json:"glucose"`
	BloodPressure    float64 `json:"blood_pressure"`
	SkinThickness    float64 `json:"skin_thickness"`
	Insulin          float64 `json:"insulin"`
	BMI              float64 `json:"bmi"`
	DiabetesPedigree float64 `json:"diabetes_pedigree"`
	Age              float64 `json:"age"`
}

// FromSlice builds a Vector from values in Fields() order.
func FromSlice(values []float64) (Vector, error) {
	if len(values) != NumFields {
		return Vector{}, fmt.Errorf("%w: want %d values, got %d", ErrInvalidVector, NumFields, len(values))
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Vector{}, fmt.Errorf("%w: %s is not a finite number", ErrInvalidVector, Fields()[i])
		}
	}
	return Vector{
		Pregnancies:      values[0],
		Glucose:          values[1],
		BloodPressure:    values[2],
		SkinThickness:    values[3],
		Insulin:          values[4],
		BMI:              values[5],
		DiabetesPedigree: values[6],
		Age:              values[7],
	}, nil
}

// Parse builds a Vector from eight numeric strings in Fields() order.
func Parse(values []string) (Vector, error) {
	if len(values) != NumFields {
		return Vector{}, fmt.Errorf("%w: want %d values, got %d", ErrInvalidVector, NumFields, len(values))
	}
	nums := make([]float64, NumFields)
	for i, s := range values {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Vector{}, fmt.Errorf("%w: %s: %q is not a number", ErrInvalidVector, Fields()[i], s)
		}
		nums[i] = v
	}
	return FromSlice(nums)
}

// Features returns the values in Fields() order as a fresh slice.
func (v Vector) Features() []float64 {
	return []float64{
		v.Pregnancies,
		v.Glucose,
		v.BloodPressure,
		v.SkinThickness,
		v.Insulin,
		v.BMI,
		v.DiabetesPedigree,
		v.Age,
	}
}

// Value returns the value of a single field.
func (v Vector) Value(f Field) float64 {
	switch f {
	case FieldPregnancies:
		return v.Pregnancies
	case FieldGlucose:
		return v.Glucose
	case FieldBloodPressure:
		return v.BloodPressure
	case FieldSkinThickness:
		return v.SkinThickness
	case FieldInsulin:
		return v.Insulin
	case FieldBMI:
		return v.BMI
	case FieldDiabetesPedigree:
		return v.DiabetesPedigree
	case FieldAge:
		return v.Age
	}
	return math.NaN()
}

// Check reports ErrInvalidVector if any value is NaN or infinite. Vectors
// decoded from JSON or built as literals bypass FromSlice, so consumers
// call this before scoring.
func (v Vector) Check() error {
	_, err := FromSlice(v.Features())
	return err
}

// String formats the vector as a compact comma-separated tuple.
func (v Vector) String() string {
	parts := make([]string, 0, NumFields)
	for _, f := range Fields() {
		parts = append(parts, FormatValue(f, v.Value(f)))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// FormatValue renders a value the way the input form shows it: integers
// without decimals, BMI with one decimal and the pedigree score with four.
func FormatValue(f Field, value float64) string {
	switch {
	case f == FieldDiabetesPedigree:
		return strconv.FormatFloat(value, 'f', 4, 64)
	case f == FieldBMI:
		return strconv.FormatFloat(value, 'f', 1, 64)
	case value == math.Trunc(value):
		return strconv.FormatFloat(value, 'f', 0, 64)
	default:
		return strconv.FormatFloat(value, 'f', -1, 64)
	}
}
