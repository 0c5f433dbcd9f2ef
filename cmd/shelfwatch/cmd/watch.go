package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shelfwatch/shelfwatch/internal/api"
	"github.com/shelfwatch/shelfwatch/internal/engine"
	"github.com/shelfwatch/shelfwatch/internal/watchlist"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the polling daemon",
	Long: "Starts one polling loop per tracked item and keeps running until\n" +
		"interrupted. State is persisted after every poll, so a restart\n" +
		"resumes from the last observation.",
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := buildLogger(cfg)

	items, err := watchlist.Load(cfg.Watchlist)
	if err != nil {
		return fmt.Errorf("loading watchlist: %w", err)
	}
	log.Info("watchlist loaded", "items", len(items), "path", cfg.Watchlist)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	notifier := buildNotifier(cfg, log)
	poller := buildPoller(cfg, st, notifier, log)

	sched, err := engine.NewScheduler(st, items, cfg.Poll.SummaryInterval, log)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	sched.Start()

	var srv *api.Server
	if cfg.Server.Port > 0 {
		srv = api.NewServer(cfg.Server, st, items, log)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("ops server error", "error", err)
			}
		}()
	}

	poller.Run(ctx, items)

	log.Info("shutting down")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("ops server shutdown failed", "error", err)
		}
	}

	<-sched.Stop().Done()

	log.Info("stopped")
	return nil
}
