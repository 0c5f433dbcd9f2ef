package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shelfwatch/shelfwatch/internal/browser"
	"github.com/shelfwatch/shelfwatch/pkg/extract"
)

var checkCmd = &cobra.Command{
	Use:   "check [url]",
	Short: "Check a single product URL and print the extraction result",
	Long: "Navigates to one product URL, runs the full extraction pipeline,\n" +
		"and prints the resulting snapshot as JSON. Nothing is persisted and\n" +
		"no notification is sent; use it to verify a URL before tracking it.",
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cobraCmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := buildLogger(cfg)

	ctx := cobraCmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	src := browser.New(cfg.Browser, log)
	page, err := src.Acquire(ctx, args[0])
	if err != nil {
		return fmt.Errorf("acquiring page: %w", err)
	}

	snap := extract.Extract(page)
	return outputJSON(snap)
}
