package patient

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrOutOfBounds is returned by CheckBounds when a value falls outside the
// range the input form accepts.
var ErrOutOfBounds = errors.New("value out of accepted range")

// Bounds is the inclusive range an input collector accepts for a field.
type Bounds struct {
	Min float64
	Max float64
}

// fieldBounds are the realistic maxima the input form enforces.
var fieldBounds = map[Field]Bounds{
	FieldPregnancies:      {Min: 0, Max: 20},
	FieldGlucose:          {Min: 0, Max: 200},
	FieldBloodPressure:    {Min: 0, Max: 130},
	FieldSkinThickness:    {Min: 0, Max: 100},
	FieldInsulin:          {Min: 0, Max: 900},
	FieldBMI:              {Min: 0, Max: 70},
	FieldDiabetesPedigree: {Min: 0, Max: 2.5},
	FieldAge:              {Min: 21, Max: 100},
}

// BoundsFor returns the accepted range for a field.
func BoundsFor(f Field) Bounds {
	return fieldBounds[f]
}

// CheckBounds verifies every field lies within its accepted range and that
// integer fields hold whole numbers. Scoring itself never calls this; it
// belongs to whoever collects the input.
func (v Vector) CheckBounds() error {
	if err := v.Check(); err != nil {
		return err
	}
	var problems []string
	for _, f := range Fields() {
		val := v.Value(f)
		b := fieldBounds[f]
		if val < b.Min || val > b.Max {
			problems = append(problems, fmt.Sprintf("%s=%s not in [%s, %s]",
				f, FormatValue(f, val), FormatValue(f, b.Min), FormatValue(f, b.Max)))
			continue
		}
		if f.Integral() && val != float64(int64(val)) {
			problems = append(problems, fmt.Sprintf("%s=%v must be a whole number", f, val))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrOutOfBounds, strings.Join(problems, "; "))
	}
	return nil
}

// examples are the named vectors the input form offers as presets.
var examples = map[string]Vector{
	// Form defaults.
	"standard": {
		Pregnancies: 3, Glucose: 117, BloodPressure: 72, SkinThickness: 23,
		Insulin: 30, BMI: 32.0, DiabetesPedigree: 0.3725, Age: 29,
	},
	// First record of the Pima dataset (outcome 1).
	"high-risk": {
		Pregnancies: 6, Glucose: 148, BloodPressure: 72, SkinThickness: 35,
		Insulin: 0, BMI: 33.6, DiabetesPedigree: 0.627, Age: 50,
	},
	// Second record of the Pima dataset (outcome 0).
	"low-risk": {
		Pregnancies: 1, Glucose: 85, BloodPressure: 66, SkinThickness: 29,
		Insulin: 0, BMI: 26.6, DiabetesPedigree: 0.351, Age: 31,
	},
}

// Example returns a named preset vector.
func Example(name string) (Vector, bool) {
	v, ok := examples[name]
	return v, ok
}

// ExampleNames returns the preset names in sorted order.
func ExampleNames() []string {
	names := make([]string, 0, len(examples))
	for n := range examples {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
