package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/spf13/cobra"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage bank accounts",
		Long:  `List and save the bank accounts that operations are imported into.`,
	}

	cmd.AddCommand(listAccountsCmd())
	cmd.AddCommand(saveAccountCmd())

	return cmd
}

func listAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bank accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			l, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = l.Close() }()

			accounts, err := l.ListBankAccounts(ctx)
			if err != nil {
				return fmt.Errorf("failed to list bank accounts: %w", err)
			}
			if len(accounts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No bank accounts found. Use 'spice accounts save <name>' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("ID"),
				cli.TableHeaderStyle.Render("Name"),
				cli.TableHeaderStyle.Render("Slug"),
				cli.TableHeaderStyle.Render("Currency"))
			for _, account := range accounts {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", account.ID, account.Name, account.Slug, account.Currency)
			}
			return nil
		},
	}
}

func saveAccountCmd() *cobra.Command {
	var (
		slug     string
		currency string
		id       int64
	)

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Create a bank account, or update one with --id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			l, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = l.Close() }()

			account := model.BankAccount{ID: id, Name: args[0], Slug: slug, Currency: currency}
			if err := l.SaveBankAccount(ctx, &account); err != nil {
				return fmt.Errorf("failed to save bank account: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("✓ Saved account %d (%s, %s)", account.ID, account.Name, account.Currency)))
			return nil
		},
	}

	cmd.Flags().StringVar(&slug, "slug", "", "short identifier for the account")
	cmd.Flags().StringVar(&currency, "currency", "EUR", "ISO 4217 currency code")
	cmd.Flags().Int64Var(&id, "id", 0, "identifier of the account to update")

	return cmd
}
