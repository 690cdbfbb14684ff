package evaluator

import "github.com/abhisek/diacheck/internal/patient"

// Evaluate classifies every field of v against the default reference
// ranges. It always returns patient.NumFields statuses in patient.Fields()
// order and never fails: out-of-range or absurd values simply land in
// whichever bucket the threshold tests put them.
func Evaluate(v patient.Vector) []ParameterStatus {
	return EvaluateWith(DefaultRules(), v)
}

// EvaluateWith runs the given rules in order.
func EvaluateWith(rules []Rule, v patient.Vector) []ParameterStatus {
	out := make([]ParameterStatus, 0, len(rules))
	for _, r := range rules {
		value := v.Value(r.Field())
		cat, msg := r.Classify(value)
		out = append(out, ParameterStatus{
			Field:    r.Field(),
			Value:    value,
			Category: cat,
			Message:  msg,
		})
	}
	return out
}

// Flagged returns the statuses that warrant attention, most severe first.
// Ties keep field order.
func Flagged(statuses []ParameterStatus) []ParameterStatus {
	var out []ParameterStatus
	for sev := 2; sev >= 1; sev-- {
		for _, s := range statuses {
			if s.Category.Severity() == sev {
				out = append(out, s)
			}
		}
	}
	return out
}
