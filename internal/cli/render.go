package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// FormatCents renders signed minor units as a decimal amount.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// TagNames joins tag identifiers into display names, falling back to "#id".
func TagNames(ids []int64, names map[int64]string) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := names[id]; ok {
			parts = append(parts, name)
			continue
		}
		parts = append(parts, fmt.Sprintf("#%d", id))
	}
	return strings.Join(parts, ", ")
}

// RenderOperations renders operations as a table.
func RenderOperations(ops []model.Operation, tagNames map[int64]string) string {
	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(fmt.Sprintf("%-6s %-10s %12s %-10s %-40s %s",
		"ID", "DATE", "AMOUNT", "STATUS", "LABEL", "TAGS")))
	b.WriteString("\n")

	for _, op := range ops {
		date := "????-??-??"
		amount := "?"
		if op.DecodeErr == nil {
			date = op.Date.Format(time.DateOnly)
			amount = FormatCents(op.AmountMinor)
		}

		line := fmt.Sprintf("%-6d %-10s %12s %-10s %-40s %s",
			op.ID, date, amount, op.Status, truncate(op.Label, 40), TagNames(op.TagIDs, tagNames))

		switch op.Status {
		case model.StatusDuplicate:
			line = DuplicateStyle.Render(line)
		case model.StatusConfirmed:
			line = ConfirmedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// RenderTagRules renders rules in evaluation order.
func RenderTagRules(rules []model.TagRule, tagNames map[int64]string) string {
	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(fmt.Sprintf("%-6s %-8s %-40s %s", "ID", "KIND", "PATTERN", "TAGS")))
	b.WriteString("\n")

	for _, rule := range rules {
		fmt.Fprintf(&b, "%-6d %-8s %-40s %s\n",
			rule.ID, rule.Kind, truncate(rule.MatchingPattern, 40), TagNames(rule.TagIDs, tagNames))
	}
	return b.String()
}

// RenderSyncResult renders the outcome of a sync.
func RenderSyncResult(result model.SyncResult) string {
	content := fmt.Sprintf("Rules applied:        %d\nDuplicates refreshed: %d",
		result.RulesApplied, result.DuplicatesRefreshed)

	if len(result.Diagnostics) > 0 {
		lines := make([]string, 0, len(result.Diagnostics)+1)
		lines = append(lines, "", WarningStyle.Render(fmt.Sprintf("%d record(s) skipped:", len(result.Diagnostics))))
		for _, d := range result.Diagnostics {
			lines = append(lines, SubtleStyle.Render("  "+d))
		}
		content += strings.Join(lines, "\n")
	}

	return RenderBox(SyncIcon+" Sync complete", content)
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
