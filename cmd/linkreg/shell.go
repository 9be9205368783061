package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"linkreg/internal/core"
	"linkreg/internal/id"
	"linkreg/internal/shell"
	"linkreg/internal/store"
)

var shellBrowser bool

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Run the interactive menu on stdin/stdout.",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()

		st, err := store.Open(store.Backend(cfg.Store), cfg.DBPath)
		if err != nil {
			return err
		}
		defer st.Close()

		var open shell.Opener
		if shellBrowser {
			open = shell.BrowserOpener{}
		}
		svc := core.NewService(st, id.NewGenerator(), cfg.CodeLength, nil)

		return shell.New(svc, os.Stdin, os.Stdout, cfg.ShortPrefix, open, log).Run(context.Background())
	},
}

func init() {
	shellCmd.Flags().BoolVar(&shellBrowser, "browser", false, "open redeemed links in the default browser")
	rootCmd.AddCommand(shellCmd)
}
