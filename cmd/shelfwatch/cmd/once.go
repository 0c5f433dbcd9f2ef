package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shelfwatch/shelfwatch/internal/watchlist"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Poll every item once and exit",
	Long: "Performs one poll of every tracked item in watchlist order,\n" +
		"sending notifications and persisting state exactly as the daemon\n" +
		"would, then exits. Intended for cron-driven setups.",
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(onceCmd)
}

func runOnce(cobraCmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := buildLogger(cfg)

	items, err := watchlist.Load(cfg.Watchlist)
	if err != nil {
		return fmt.Errorf("loading watchlist: %w", err)
	}

	ctx := cobraCmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	notifier := buildNotifier(cfg, log)
	poller := buildPoller(cfg, st, notifier, log)

	log.Info("single pass starting", "items", len(items))
	if err := poller.RunPass(ctx, items); err != nil {
		return fmt.Errorf("running pass: %w", err)
	}
	log.Info("single pass complete")
	return nil
}
