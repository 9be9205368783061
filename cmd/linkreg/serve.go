package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"linkreg/internal/app"
)

var (
	servePort  int
	serveStore string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}
		if cmd.Flags().Changed("store") {
			cfg.Store = serveStore
		}
		log := newLogger()
		gin.SetMode(gin.ReleaseMode)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		log.Info("linkreg listening", "addr", a.Addr(), "base_url", cfg.BaseURL, "store", cfg.Store, "cleanup_interval", cfg.CleanupInterval)
		if err := a.Start(ctx); err != nil {
			return err
		}
		log.Info("linkreg stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "HTTP port (overrides PORT)")
	serveCmd.Flags().StringVar(&serveStore, "store", "memory", "store backend: memory or sqlite (overrides STORE)")
	rootCmd.AddCommand(serveCmd)
}
