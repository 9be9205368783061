package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"linkreg/internal/app"
	"linkreg/internal/config"
)

// cfg is loaded once before any subcommand runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "linkreg",
	Short: "In-memory short link registry with usage and expiry limits.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.FromEnv()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	return app.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
}
