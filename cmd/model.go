package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/diacheck/internal/classifier"
	"github.com/abhisek/diacheck/internal/dataset"
	"github.com/abhisek/diacheck/internal/modelfetch"
	"github.com/abhisek/diacheck/internal/store"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Train, inspect and download the prediction model",
}

var modelTrainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit a classifier on a dataset and save it",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		out, _ := cmd.Flags().GetString("out")
		version, _ := cmd.Flags().GetString("version")
		holdout, _ := cmd.Flags().GetFloat64("holdout")
		seed, _ := cmd.Flags().GetUint64("seed")
		trees, _ := cmd.Flags().GetInt("trees")
		k, _ := cmd.Flags().GetInt("k")

		if out == "" {
			out = cfg.Model
		}
		if holdout < 0 || holdout >= 1 {
			return fmt.Errorf("--holdout must be in [0, 1)")
		}

		ds, err := openDataset(cfg.Dataset)
		if err != nil {
			return err
		}
		train, test := ds, &dataset.Dataset{}
		if holdout > 0 {
			train, test = ds.Split(holdout, seed)
		}

		opts := classifier.DefaultTrainOptions()
		opts.Seed = seed
		opts.NumTrees = trees
		opts.K = k

		X, y := train.Matrix()
		start := time.Now()
		c, err := classifier.Train(kind, X, y, opts)
		if err != nil {
			return err
		}
		logger.Info().Str("kind", kind).Int("samples", len(X)).Dur("took", time.Since(start)).Msg("model trained")

		fmt.Printf("Dataset:   %s (%d records, %d positive)\n", ds.Source, len(ds.Records), ds.Positives())
		fmt.Printf("Trained:   %s on %d records\n", kind, len(train.Records))
		if len(test.Records) > 0 {
			tX, ty := test.Matrix()
			m := classifier.Measure(c, tX, ty)
			fmt.Printf("Holdout:   %d records\n", m.Total())
			fmt.Printf("Accuracy:  %.3f\n", m.Accuracy())
			fmt.Printf("Precision: %.3f\n", m.Precision())
			fmt.Printf("Recall:    %.3f\n", m.Recall())
			fmt.Printf("F1:        %.3f\n", m.F1())
		}

		meta := classifier.Metadata{Version: version, TrainedAt: time.Now().UTC(), Samples: len(X)}
		if err := writeModel(out, c, meta); err != nil {
			return err
		}
		fmt.Printf("Saved:     %s\n", out)
		return nil
	},
}

var modelInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe the persisted model",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Path:      %s\n", cfg.Model)

		f, err := os.Open(cfg.Model)
		if errors.Is(err, os.ErrNotExist) {
			fmt.Println("Status:    not found")
			if cfg.Fallback {
				fmt.Printf("Fallback:  %s trained on %s at startup\n", cfg.FallbackKind, datasetLabel(cfg.Dataset))
			} else {
				fmt.Println("Fallback:  disabled, scoring unavailable")
			}
			fmt.Println("\nRun 'diacheck model train' or 'diacheck model pull' to create one.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("open model: %w", err)
		}
		defer f.Close()

		c, meta, err := classifier.Load(f)
		if err != nil {
			fmt.Println("Status:    unreadable")
			return err
		}
		version := meta.Version
		if version == "" {
			version = "(unversioned)"
		}
		fmt.Println("Status:    ok")
		fmt.Printf("Kind:      %s\n", c.Kind())
		fmt.Printf("Output:    %s\n", classifier.Capability(c))
		fmt.Printf("Version:   %s\n", version)
		fmt.Printf("Trained:   %s\n", meta.TrainedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Samples:   %d\n", meta.Samples)
		return nil
	},
}

var modelPullCmd = &cobra.Command{
	Use:   "pull [version]",
	Short: "Download a published model release",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		var version string
		if len(args) == 1 {
			version = args[0]
		}

		fetcher := modelfetch.New(cfg.ModelURL,
			modelfetch.WithTimeout(2*time.Minute),
			modelfetch.WithLogger(logger))

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		res, err := fetcher.Pull(ctx, modelfetch.PullInput{
			Dest:    cfg.Model,
			Version: version,
			Force:   force,
		}, func(p modelfetch.Progress) {
			fmt.Println(p.Message)
		})

		switch {
		case err == nil:
		case errors.Is(err, modelfetch.ErrUpToDate):
			fmt.Println("Local model is already up to date.")
			return nil
		case os.IsPermission(err):
			return fmt.Errorf("%w\n\nTry a writable --model path", err)
		default:
			return err
		}

		fmt.Printf("Installed %s (%s) at %s\n", res.Version, res.Kind, res.InstalledAt)
		if res.Previous != "" {
			fmt.Printf("Replaced %s\n", res.Previous)
		}
		return nil
	},
}

func init() {
	modelTrainCmd.Flags().String("kind", classifier.KindRandomForest, "Classifier kind: random_forest, linear_svm, nearest_neighbors")
	modelTrainCmd.Flags().String("out", "", "Output file (default: the configured model path)")
	modelTrainCmd.Flags().String("version", "", "Semantic version recorded in the model, e.g. v1.0.0")
	modelTrainCmd.Flags().Float64("holdout", 0.2, "Fraction of records held out for evaluation")
	modelTrainCmd.Flags().Uint64("seed", 42, "Random seed for the split and the forest")
	modelTrainCmd.Flags().Int("trees", 100, "Number of trees (random_forest)")
	modelTrainCmd.Flags().Int("k", 5, "Neighbours considered (nearest_neighbors)")

	modelPullCmd.Flags().Bool("force", false, "Install even when the local model is not older")

	modelCmd.AddCommand(modelTrainCmd)
	modelCmd.AddCommand(modelInfoCmd)
	modelCmd.AddCommand(modelPullCmd)
}

func openDataset(path string) (*dataset.Dataset, error) {
	if path == "" {
		return dataset.Sample(), nil
	}
	return dataset.Open(path)
}

func datasetLabel(path string) string {
	if path == "" {
		return "the embedded sample"
	}
	return path
}

// writeModel saves c next to path and renames it into place.
func writeModel(path string, c classifier.Classifier, meta classifier.Metadata) error {
	if err := store.EnsureDir(path); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := classifier.Save(tmp, c, meta); err != nil {
		tmp.Close()
		return fmt.Errorf("write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("install model: %w", err)
	}
	return nil
}
