package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/pattern"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// TagRuleEngine assigns rule tags to operations whose label matches.
type TagRuleEngine struct{}

// NewTagRuleEngine creates a tag rule engine.
func NewTagRuleEngine() *TagRuleEngine {
	return &TagRuleEngine{}
}

type compiledRule struct {
	matcher pattern.Matcher
	rule    model.TagRule
}

// compileRules sorts rules by ascending id and compiles each one. A rule that
// cannot be compiled is kept as an inert matcher and reported once.
func compileRules(rules []model.TagRule) ([]compiledRule, []Diagnostic) {
	sorted := make([]model.TagRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	compiled := make([]compiledRule, 0, len(sorted))
	var diagnostics []Diagnostic
	for _, rule := range sorted {
		matcher, err := pattern.Compile(rule)
		if err != nil && !errors.Is(err, pattern.ErrEmptyPattern) {
			diagnostics = append(diagnostics, Diagnostic{
				Kind:   DiagnosticInvalidPattern,
				RuleID: rule.ID,
				Err:    err,
			})
		}
		compiled = append(compiled, compiledRule{rule: rule, matcher: matcher})
	}
	return compiled, diagnostics
}

// ApplyRules runs every rule against every non-duplicate operation. Report.Count
// is the number of (operation, rule) pairs where the rule matched and brought at
// least one tag the operation did not carry before the pass. All tag additions
// are written in one store call.
func (e *TagRuleEngine) ApplyRules(ctx context.Context, store OperationStore, rules []model.TagRule) (Report, error) {
	var report Report

	compiled, diagnostics := compileRules(rules)
	report.Diagnostics = diagnostics

	operations, err := store.ListOperations(ctx, service.OperationFilter{})
	if err != nil {
		return Report{}, fmt.Errorf("failed to load operations: %w", err)
	}

	additions := make(map[int64][]int64)
	for i := range operations {
		op := &operations[i]
		if op.Status == model.StatusDuplicate {
			continue
		}

		added := make(map[int64]bool)
		for _, cr := range compiled {
			if !cr.matcher.Matches(op.Label) {
				continue
			}

			brought := false
			for _, tagID := range cr.rule.TagIDs {
				if op.HasTag(tagID) {
					continue
				}
				brought = true
				if !added[tagID] {
					added[tagID] = true
					additions[op.ID] = append(additions[op.ID], tagID)
				}
			}
			if brought {
				report.Count++
			}
		}
	}

	if len(additions) > 0 {
		if err := store.AddOperationTags(ctx, additions); err != nil {
			return Report{}, fmt.Errorf("failed to save tag additions: %w", err)
		}
	}

	slog.Debug("Tag rules applied",
		"rules", len(compiled),
		"operations", len(operations),
		"tagged", len(additions),
		"rules_applied", report.Count)

	return report, nil
}
