package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/diacheck/internal/assessment"
	"github.com/abhisek/diacheck/internal/report"
	"github.com/abhisek/diacheck/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved assessments",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent assessments",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		since, _ := cmd.Flags().GetDuration("since")

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		opts := store.QueryOpts{Limit: limit}
		if since > 0 {
			opts.Since = time.Now().Add(-since)
		}
		items, err := s.Assessments().List(cmd.Context(), opts)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No assessments saved yet. Use --save or --history to record them.")
			return nil
		}

		fmt.Printf("%-8s  %-19s  %-5s  %-14s  %-6s  %-5s  %s\n",
			"ID", "Timestamp", "From", "Result", "Conf", "Risk", "Tier")
		fmt.Println(strings.Repeat("─", 76))
		for _, a := range items {
			result, conf := "unavailable", "-"
			if a.Label != nil {
				result = "no diabetes"
				if *a.Label == 1 {
					result = "diabetes"
				}
			}
			if a.Confidence != nil {
				conf = fmt.Sprintf("%.1f%%", *a.Confidence)
			}
			fmt.Printf("%-8s  %-19s  %-5s  %-14s  %-6s  %-5d  %s\n",
				a.ID.String()[:8],
				a.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				a.Source,
				result,
				conf,
				a.RiskScore,
				a.RiskTier,
			)
		}
		return nil
	},
}

var historyViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show a saved assessment (ID prefix accepted)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		a, err := s.Assessments().Get(cmd.Context(), args[0])
		if errors.Is(err, store.ErrAmbiguousID) {
			return fmt.Errorf("%w: give more characters of the ID", err)
		}
		if err != nil {
			return err
		}

		r := assessment.FromRecord(a)
		if asJSON {
			return report.WriteJSON(os.Stdout, r)
		}
		fmt.Printf("Recorded %s via %s\n", a.CreatedAt.Local().Format("2006-01-02 15:04:05"), a.Source)
		fmt.Println(report.Render(r, report.DefaultWidth))
		return nil
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the most recent assessments",
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, _ := cmd.Flags().GetInt("keep")

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		n, err := s.Assessments().Prune(cmd.Context(), keep)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d assessments, kept up to %d.\n", n, keep)
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntP("limit", "n", 20, "Number of assessments to show")
	historyListCmd.Flags().Duration("since", 0, "Only show assessments newer than this, e.g. 72h")
	historyViewCmd.Flags().Bool("json", false, "Print JSON instead of a formatted report")
	historyPruneCmd.Flags().Int("keep", 100, "Number of recent assessments to keep")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyViewCmd)
	historyCmd.AddCommand(historyPruneCmd)
}
