package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/spf13/cobra"
)

func operationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "operations",
		Aliases: []string{"ops"},
		Short:   "Inspect and confirm imported operations",
	}

	cmd.AddCommand(listOperationsCmd())
	cmd.AddCommand(confirmOperationCmd())

	return cmd
}

func listOperationsCmd() *cobra.Command {
	var (
		status  string
		from    string
		to      string
		account int64
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List operations",
		Long: `List stored operations in identifier order.

Examples:
  spice operations list --status pending
  spice operations list --account 1 --from 2024-01-01 --to 2024-01-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			filter, err := buildOperationFilter(status, from, to, account, limit)
			if err != nil {
				return err
			}

			l, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = l.Close() }()

			ops, err := l.ListOperations(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list operations: %w", err)
			}
			if len(ops) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No operations found."))
				return nil
			}

			names, err := tagNameMap(ctx, l)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), cli.RenderOperations(ops, names))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (pending, confirmed, duplicate)")
	cmd.Flags().StringVar(&from, "from", "", "earliest operation date (format: 2006-01-02)")
	cmd.Flags().StringVar(&to, "to", "", "latest operation date (format: 2006-01-02)")
	cmd.Flags().Int64Var(&account, "account", 0, "filter by bank account id")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of operations to show")

	return cmd
}

func buildOperationFilter(status, from, to string, account int64, limit int) (service.OperationFilter, error) {
	filter := service.OperationFilter{
		BankAccountID: account,
		Limit:         limit,
	}

	if status != "" {
		filter.Status = model.OperationStatus(status)
		if !filter.Status.Valid() {
			return filter, fmt.Errorf("invalid --status %q", status)
		}
	}

	var err error
	if filter.StartDate, err = parseDateFlag("from", from); err != nil {
		return filter, err
	}
	if filter.EndDate, err = parseDateFlag("to", to); err != nil {
		return filter, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return filter, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	if limit < 0 {
		return filter, fmt.Errorf("invalid --limit %d", limit)
	}

	return filter, nil
}

func confirmOperationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <id>",
		Short: "Mark a pending operation as confirmed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			l, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = l.Close() }()

			op, err := l.ConfirmOperation(ctx, id)
			switch {
			case errors.Is(err, common.ErrNotFound):
				return common.NewUserError(fmt.Sprintf("operation %d does not exist", id), err)
			case errors.Is(err, common.ErrInvalidStatus):
				return common.NewUserError(fmt.Sprintf("operation %d is a duplicate and cannot be confirmed", id), err)
			case err != nil:
				return fmt.Errorf("failed to confirm operation %d: %w", id, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("✓ Operation %d is %s", op.ID, op.Status)))
			return nil
		},
	}
}
