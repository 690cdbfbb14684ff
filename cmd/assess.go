package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/diacheck/internal/assessment"
	"github.com/abhisek/diacheck/internal/patient"
	"github.com/abhisek/diacheck/internal/report"
	"github.com/abhisek/diacheck/internal/ui/form"
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Enter patient data in an interactive form and show the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssess(cmd)
	},
}

func init() {
	assessCmd.Flags().String("example", "standard", "Preset used to prefill the form: "+joinExamples())
	assessCmd.Flags().Bool("advice", true, "Include advice (LLM narrative when configured)")
	assessCmd.Flags().Bool("save", false, "Record the assessment in the history store")
}

func joinExamples() string {
	return strings.Join(patient.ExampleNames(), ", ")
}

// runAssess backs both "diacheck assess" and the bare root command.
func runAssess(cmd *cobra.Command) error {
	// The root command has none of these flags and takes the defaults.
	example, err := cmd.Flags().GetString("example")
	if err != nil {
		example = "standard"
	}
	advice, err := cmd.Flags().GetBool("advice")
	if err != nil {
		advice = true
	}
	save, _ := cmd.Flags().GetBool("save")

	initial, ok := patient.Example(example)
	if !ok {
		return fmt.Errorf("unknown example %q (choose from %s)", example, joinExamples())
	}

	ctx := cmd.Context()
	d, err := buildService(ctx, save)
	if err != nil {
		return err
	}
	defer d.Close()

	v, err := form.Run(initial)
	if errors.Is(err, form.ErrCancelled) {
		fmt.Println("Cancelled.")
		return nil
	}
	if err != nil {
		return err
	}

	if advice {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.LLMTimeout())
		defer cancel()
	}
	r, err := d.service.Assess(ctx, v, assessment.Options{
		Advice: advice,
		Save:   save || cfg.History,
		Source: assessment.SourceForm,
	})
	if err != nil {
		return err
	}
	fmt.Println(report.Render(*r, report.DefaultWidth))
	return nil
}
