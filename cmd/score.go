package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/abhisek/diacheck/internal/assessment"
	"github.com/abhisek/diacheck/internal/evaluator"
	"github.com/abhisek/diacheck/internal/patient"
	"github.com/abhisek/diacheck/internal/report"
)

var scoreCmd = &cobra.Command{
	Use:   "score [values]",
	Short: "Score a patient from flags or a comma-separated vector",
	Long: "Score a patient. Values come from the per-field flags, from --example, or from a\n" +
		"single comma-separated argument in the order: " + fieldList() + ".",
	Example: "  diacheck score --example high-risk --advice\n" +
		"  diacheck score 6,148,72,35,0,33.6,0.627,50 --json\n" +
		"  diacheck score --example standard --glucose 160",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := vectorFromInput(cmd, args)
		if err != nil {
			return err
		}
		advice, _ := cmd.Flags().GetBool("advice")
		save, _ := cmd.Flags().GetBool("save")
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx := cmd.Context()
		d, err := buildService(ctx, save)
		if err != nil {
			return err
		}
		defer d.Close()

		if advice {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.LLMTimeout())
			defer cancel()
		}

		r, err := d.service.Assess(ctx, v, assessment.Options{
			Advice: advice,
			Save:   save || cfg.History,
			Source: assessment.SourceCLI,
		})
		if err != nil {
			return err
		}

		if asJSON {
			return report.WriteJSON(os.Stdout, r)
		}
		fmt.Println(report.Render(*r, report.DefaultWidth))
		return nil
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [values]",
	Short: "Check each parameter against reference ranges (no model needed)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := vectorFromInput(cmd, args)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		statuses := evaluator.Evaluate(v)
		risk := evaluator.RiskScore(statuses)
		if asJSON {
			return report.WriteJSON(os.Stdout, struct {
				Statuses []evaluator.ParameterStatus `json:"statuses"`
				Risk     evaluator.Risk              `json:"risk"`
			}{statuses, risk})
		}
		fmt.Println(report.RenderEvaluation(statuses, risk, report.DefaultWidth))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{scoreCmd, evaluateCmd} {
		addVectorFlags(c.Flags())
		c.Flags().Bool("json", false, "Print JSON instead of a formatted report")
	}
	scoreCmd.Flags().Bool("advice", false, "Include advice (LLM narrative when configured)")
	scoreCmd.Flags().Bool("save", false, "Record the assessment in the history store")
}

func fieldFlag(f patient.Field) string {
	return strings.ReplaceAll(string(f), "_", "-")
}

func fieldList() string {
	names := make([]string, 0, patient.NumFields)
	for _, f := range patient.Fields() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func addVectorFlags(fs *pflag.FlagSet) {
	for _, f := range patient.Fields() {
		fs.Float64(fieldFlag(f), 0, f.Label())
	}
	fs.String("example", "", "Start from a preset: "+strings.Join(patient.ExampleNames(), ", "))
}

// vectorFromInput builds the vector from a positional comma-separated
// argument, or from --example overlaid with any per-field flags. Every
// field must end up with a value, and values must be in range.
func vectorFromInput(cmd *cobra.Command, args []string) (patient.Vector, error) {
	fs := cmd.Flags()
	example, _ := fs.GetString("example")

	var v patient.Vector
	switch {
	case len(args) == 1:
		if example != "" {
			return v, fmt.Errorf("use either a vector argument or --example, not both")
		}
		var set []string
		for _, f := range patient.Fields() {
			if name := fieldFlag(f); fs.Changed(name) {
				set = append(set, "--"+name)
			}
		}
		if len(set) > 0 {
			return v, fmt.Errorf("use either a vector argument or per-field flags, not both (%s)", strings.Join(set, ", "))
		}
		parsed, err := patient.Parse(strings.Split(args[0], ","))
		if err != nil {
			return v, err
		}
		v = parsed
	default:
		values := make([]float64, patient.NumFields)
		if example != "" {
			base, ok := patient.Example(example)
			if !ok {
				return v, fmt.Errorf("unknown example %q (choose from %s)", example, strings.Join(patient.ExampleNames(), ", "))
			}
			values = base.Features()
		}
		var missing []string
		for i, f := range patient.Fields() {
			name := fieldFlag(f)
			if !fs.Changed(name) {
				if example == "" {
					missing = append(missing, "--"+name)
				}
				continue
			}
			values[i], _ = fs.GetFloat64(name)
		}
		if len(missing) > 0 {
			return v, fmt.Errorf("missing values for %s (or use --example)", strings.Join(missing, ", "))
		}
		built, err := patient.FromSlice(values)
		if err != nil {
			return v, err
		}
		v = built
	}

	if err := v.CheckBounds(); err != nil {
		return v, err
	}
	return v, nil
}
