package commands

import (
	"log/slog"
	"time"

	"ipr-watch/config"
	"ipr-watch/utils"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the searches on the configured cron schedule until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		utils.SetupLogger(cfg.LogLevel)
		ctx := cmd.Context()

		// cron specs are UTC, same as the heartbeat hours
		c := cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		)
		_, err = c.AddFunc(cfg.Schedule, func() {
			_ = runOnce(ctx, cfg)
		})
		if err != nil {
			return err
		}

		slog.Info("watching", slog.String("schedule", cfg.Schedule), slog.Int("searches", len(cfg.Searches)))
		c.Start()
		<-ctx.Done()

		slog.Info("stopping, waiting for the running check to finish")
		<-c.Stop().Done()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
