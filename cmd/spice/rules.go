package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/api"
	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage tag rules",
		Long:  `List and save the pattern rules that attach tags to operations during sync.`,
	}

	cmd.AddCommand(listRulesCmd())
	cmd.AddCommand(saveRuleCmd())

	return cmd
}

func listRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tag rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			l, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = l.Close() }()

			rules, err := l.ListTagRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to list tag rules: %w", err)
			}
			if len(rules) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No tag rules found. Use 'spice rules save' to create one."))
				return nil
			}

			names, err := tagNameMap(ctx, l)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), cli.RenderTagRules(rules, names))
			return nil
		},
	}
}

func saveRuleCmd() *cobra.Command {
	var (
		pattern string
		tags    string
		id      int64
		isRegex bool
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or update a tag rule",
		Long: `Create a tag rule, or replace an existing one when --id is given.

Literal patterns match any label containing them, ignoring case and accents.
Regex patterns are matched case-insensitively. The rule takes effect on the
next sync.

Examples:
  spice rules save --pattern "NETFLIX" --tags 3
  spice rules save --pattern "^CB (AMAZON|AMZN)" --regex --tags 2,5
  spice rules save --id 4 --pattern "SNCF" --tags 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			tagIDs := api.ParseTagIDs(tags)
			if len(tagIDs) == 0 {
				return errors.New("at least one tag id is required (--tags 1,2)")
			}

			rule := api.TagRulePayload{
				ID:              id,
				MatchingPattern: pattern,
				TagIDs:          tagIDs,
				IsRegex:         isRegex,
			}.ToModel()

			l, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = l.Close() }()

			if err := l.SaveTagRule(ctx, &rule); err != nil {
				return fmt.Errorf("failed to save tag rule: %w", err)
			}

			common.LogDebug("Saved tag rule", common.Fields{"id": rule.ID, "kind": rule.Kind.String(), "tags": tagIDs.String()})
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("✓ Saved rule %d (%s %q)", rule.ID, rule.Kind, rule.MatchingPattern)))
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Run 'spice sync' to apply it"))
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "label pattern to match")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tag ids to attach")
	cmd.Flags().Int64Var(&id, "id", 0, "identifier of the rule to replace")
	cmd.Flags().BoolVar(&isRegex, "regex", false, "treat the pattern as a regular expression")
	_ = cmd.MarkFlagRequired("pattern")
	_ = cmd.MarkFlagRequired("tags")

	return cmd
}
