package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"ipr-watch/browser"
	"ipr-watch/config"
	"ipr-watch/heartbeat"
	"ipr-watch/searcher"
	"ipr-watch/utils"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "ipr-watch",
	Short: "ipr-watch checks ipr.esveikata.lt for free appointment slots and reports them to Telegram.",
	Long: "Runs every configured search once and exits. Meant to be started by an external\n" +
		"scheduler; use `ipr-watch watch` to keep it running on a cron schedule instead.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		utils.SetupLogger(cfg.LogLevel)

		return runOnce(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ./config.yaml)")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSearcher(cfg *config.Config) *searcher.Searcher {
	launch := browser.Launcher(browser.Options{
		Headless:          cfg.HeadlessBrowser,
		NavigationTimeout: cfg.NavigationTimeout,
		StepTimeout:       cfg.StepTimeout,
		PollInterval:      cfg.PollInterval,
		TypeDelay:         cfg.TypeDelay,
	})
	notifier := utils.NewTelegram(cfg.Telegram.APIURL, cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.Timeout)
	if !notifier.Configured() {
		slog.Warn("TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID not set, notifications are disabled")
	}

	return searcher.New(launch, notifier, searcher.Options{
		URL:           cfg.URL,
		ResultTimeout: cfg.ResultTimeout,
		PollInterval:  cfg.PollInterval,
		OK: heartbeat.Schedule{
			Hours:        cfg.Heartbeat.OkHours,
			MinuteWindow: cfg.Heartbeat.OkMinuteWindow,
		},
		NotFound: heartbeat.Schedule{
			Hours:        cfg.Heartbeat.NotFoundHours,
			MinuteWindow: cfg.Heartbeat.NotFoundMinuteWindow,
		},
	})
}

func runOnce(ctx context.Context, cfg *config.Config) error {
	outcomes, err := newSearcher(cfg).Run(ctx, cfg.Searches)
	if err != nil {
		slog.Error("run failed", slog.String("error", err.Error()))
		return err
	}

	for _, o := range outcomes {
		slog.Debug("outcome", slog.String("search", o.Search), slog.Bool("found", o.Found),
			slog.Bool("failed", o.Err != nil))
	}
	slog.Info("done")

	return nil
}
