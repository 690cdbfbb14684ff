package cmd

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/abhisek/diacheck/internal/config"
	"github.com/abhisek/diacheck/internal/logging"
)

var (
	cfg    *config.Config
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "diacheck",
	Short: "Diabetes risk screening from routine clinical measurements",
	Long: "diacheck predicts whether a patient is likely to have diabetes from eight clinical\n" +
		"measurements and checks each value against clinical reference ranges.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssess(cmd)
	},
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a diacheck.yaml config file")
	pf.String("env-file", "", "Path to a .env file (default: ./.env when present)")
	pf.String("log-level", "warn", "Log level: debug, info, warn, error")
	pf.String("db", "", "SQLite file or Postgres DSN (overrides DIACHECK_DB env var)")
	pf.String("db-driver", "sqlite", "History store driver: sqlite or postgres")
	pf.String("model", "", "Path to the persisted model file (overrides DIACHECK_MODEL env var)")
	pf.String("dataset", "", "Training CSV for fallback fitting (default: embedded sample)")
	pf.Bool("fallback", true, "Train a model on the fly when the persisted model is missing")
	pf.String("fallback-kind", "random_forest", "Classifier trained in fallback mode")
	pf.Bool("history", false, "Record every assessment in the history store")

	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(modelCmd)
	rootCmd.AddCommand(datasetCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves configuration for cmd and installs the global logger.
func loadConfig(cmd *cobra.Command) error {
	configFile, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	c, err := config.Load(config.Options{
		ConfigFile: configFile,
		EnvFile:    envFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	logger = logging.Setup(logging.New(os.Stderr, cfg.LogLevel))
	if cfg.File != "" {
		logger.Debug().Str("file", cfg.File).Msg("config loaded")
	}
	return nil
}
