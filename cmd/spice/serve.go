package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-ledger/internal/api"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var (
		addr    string
		origins []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		Long: `Start the JSON API used by the web front-end.

Endpoints:
  GET  /health
  POST /sync
  GET  /tag-rules              POST /tag-rules
  GET  /operations             POST /operations/import[?sync=true]
  POST /operations/:id/confirm
  GET  /tags                   POST /tags
  GET  /bank-accounts          POST /bank-accounts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			serverConfig := currentConfig().Server
			if serverConfig.Addr == "" {
				serverConfig = api.DefaultConfig()
			}
			if cmd.Flags().Changed("addr") {
				serverConfig.Addr = addr
			}
			if cmd.Flags().Changed("allow-origin") {
				serverConfig.AllowedOrigins = origins
			}

			l, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := l.Close(); closeErr != nil {
					slog.Warn("Failed to close ledger", "error", closeErr)
				}
			}()

			if err := api.NewServer(l, serverConfig).Run(ctx); err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", api.DefaultConfig().Addr, "listen address")
	cmd.Flags().StringSliceVar(&origins, "allow-origin", nil, "origins allowed to call the API (repeatable)")

	return cmd
}
