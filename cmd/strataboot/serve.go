// cmd/strataboot/serve.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dalemusser/strataboot/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve [flags]",
		Short: "Run the HTTP server",
		Long: `Run the HTTP server through the WAFFLE lifecycle.

Flags are passed through to WAFFLE's config loader, e.g.
  strataboot serve --mongo_uri=mongodb://db:27017 --site_name=Acme
Set STRATABOOT_PROFILE to Development, Testing or Production to pick the
profile defaults.`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// WAFFLE parses flags from os.Args; drop the subcommand name.
			os.Args = append([]string{os.Args[0]}, args...)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx, bootstrap.Hooks)
		},
	}
}
