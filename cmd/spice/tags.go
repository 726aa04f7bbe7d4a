package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/spf13/cobra"
)

func tagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Manage tags",
	}

	cmd.AddCommand(listTagsCmd())
	cmd.AddCommand(saveTagCmd())

	return cmd
}

func listTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			l, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = l.Close() }()

			tags, err := l.ListTags(ctx)
			if err != nil {
				return fmt.Errorf("failed to list tags: %w", err)
			}
			if len(tags) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No tags found. Use 'spice tags save <name>' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\n", cli.TableHeaderStyle.Render("ID"), cli.TableHeaderStyle.Render("Name"))
			for _, tag := range tags {
				fmt.Fprintf(w, "%d\t%s\n", tag.ID, tag.Name)
			}
			return nil
		},
	}
}

func saveTagCmd() *cobra.Command {
	var id int64

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Create a tag, or rename one with --id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			l, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = l.Close() }()

			tag := model.Tag{ID: id, Name: args[0]}
			if err := l.SaveTag(ctx, &tag); err != nil {
				return fmt.Errorf("failed to save tag: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("✓ Saved tag %d (%s)", tag.ID, tag.Name)))
			return nil
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "identifier of the tag to rename")

	return cmd
}
