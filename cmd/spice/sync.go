package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Apply tag rules and refresh duplicate statuses",
		Long: `Run the maintenance pass over every stored operation.

Every tag rule is evaluated against every operation label and matching tags
are attached. Operations sharing a fingerprint are then marked as duplicates
of the lowest-numbered one. Once started, the pass runs to completion even if
interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			l, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := l.Close(); closeErr != nil {
					slog.Warn("Failed to close ledger", "error", closeErr)
				}
			}()

			result, err := cli.RunSync(ctx, cmd.OutOrStdout(), l.Sync)
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderSyncResult(result))
			return nil
		},
	}
}
