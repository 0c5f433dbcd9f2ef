// Package cmd implements the shelfwatch CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shelfwatch/shelfwatch/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "shelfwatch",
	Short: "Watch product pages for stock and price changes",
	Long: "shelfwatch polls e-commerce product pages with a headless browser,\n" +
		"extracts availability and price from structured markup, embedded JSON,\n" +
		"and the rendered DOM, and notifies on restocks and price drops.",
}

func init() {
	cobra.OnInitialize(initViper)

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "config file path (default: built-in defaults)")
	rootCmd.PersistentFlags().
		String("watchlist", "", "watchlist file path (overrides config)")

	cobra.CheckErr(viper.BindPFlag("watchlist", rootCmd.PersistentFlags().Lookup("watchlist")))

	rootCmd.AddCommand(versionCommand())
}

func initViper() {
	viper.SetEnvPrefix("SHELFWATCH")
	viper.AutomaticEnv()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves the effective configuration: the config file when
// given, built-in defaults otherwise, with flag and environment
// overrides applied on top.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
		fmt.Fprintln(os.Stderr, "Using config file:", cfgFile)
	} else {
		cfg = config.Default()
	}

	if wl := viper.GetString("watchlist"); wl != "" {
		cfg.Watchlist = wl
	}

	return cfg, nil
}
