package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/diacheck/internal/patient"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Inspect the training dataset",
}

var datasetHeadCmd = &cobra.Command{
	Use:   "head",
	Short: "Show the first records of the training dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("limit")

		ds, err := openDataset(cfg.Dataset)
		if err != nil {
			return err
		}

		fmt.Printf("%s: %d records, %d positive\n\n", datasetLabel(cfg.Dataset), len(ds.Records), ds.Positives())

		fields := patient.Fields()
		cols := make([]string, 0, len(fields)+1)
		for _, f := range fields {
			cols = append(cols, fmt.Sprintf("%-8s", truncate(string(f), 8)))
		}
		cols = append(cols, "outcome")
		fmt.Println(strings.Join(cols, "  "))
		fmt.Println(strings.Repeat("─", 10*len(cols)))

		for _, rec := range ds.Head(n) {
			row := make([]string, 0, len(cols))
			for _, f := range fields {
				row = append(row, fmt.Sprintf("%-8s", patient.FormatValue(f, rec.Vector.Value(f))))
			}
			row = append(row, fmt.Sprintf("%d", rec.Outcome))
			fmt.Println(strings.Join(row, "  "))
		}
		return nil
	},
}

func init() {
	datasetHeadCmd.Flags().IntP("limit", "n", 5, "Number of records to show")
	datasetCmd.AddCommand(datasetHeadCmd)
}
