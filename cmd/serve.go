package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/diacheck/internal/logging"
	"github.com/abhisek/diacheck/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve scoring and evaluation over HTTP",
	Long: "Serve the JSON API:\n\n" +
		"  POST /v1/score      score a patient (?advice=true, ?save=true)\n" +
		"  POST /v1/evaluate   parameter statuses and risk score, no model needed\n" +
		"  GET  /healthz       model availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if jsonLogs {
			logger = logging.Setup(logging.NewJSON(os.Stderr, cfg.LogLevel))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		d, err := buildService(ctx, false)
		if err != nil {
			return err
		}
		defer d.Close()

		srv := server.New(server.Options{
			Service:   d.service,
			RateLimit: cfg.RateLimit,
			RateBurst: cfg.RateBurst,
			Logger:    logger,
		})
		return srv.ListenAndServe(ctx, cfg.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address")
	serveCmd.Flags().Float64("rate-limit", 10, "Requests per second across all clients (0 disables)")
	serveCmd.Flags().Int("rate-burst", 20, "Requests allowed above the rate at once")
	serveCmd.Flags().Bool("json-logs", false, "Log as JSON lines instead of console text")
}
