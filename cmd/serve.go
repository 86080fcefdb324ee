package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/piyush0609/ai-pulse/internal/server"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var flagCron string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve the digest over HTTP.

Endpoints:
  GET  /api/digest          current digest (?fresh=1 regenerates, ?debug=1 for diagnostics)
  GET  /api/digest/stream   progressive delivery over server-sent events
  POST /api/digest/refresh  force regeneration
  GET  /api/digest/history  recent digests (?limit=N)
  GET  /api/feeds           raw aggregated items plus configured sources
  GET  /healthz             liveness check

A cron schedule (default: every 4 hours) keeps the cache warm so clients
rarely hit a cold path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		c := cron.New()
		if _, err := c.AddFunc(flagCron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			a.logger.Info("scheduled digest refresh starting")
			if _, err := a.service.Digest(ctx, true); err != nil {
				a.logger.Error("scheduled digest refresh failed", "error", err)
				return
			}
			a.logger.Info("scheduled digest refresh done")
		}); err != nil {
			return fmt.Errorf("invalid cron schedule %q: %w", flagCron, err)
		}
		c.Start()
		defer c.Stop()

		srv := server.New(&server.Config{
			Digester: a.service,
			Feeds:    a.feeds,
			Sources:  a.cfg.EnabledSources(),
			Logger:   a.logger,
		})
		return srv.ListenAndServe(a.cfg.ServerPort())
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagCron, "cron", "0 */4 * * *", "cache warming schedule (cron syntax)")
}
