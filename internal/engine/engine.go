// Package engine implements the maintenance pass run after every import:
// tag rule application followed by duplicate detection.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Syncer orchestrates one full maintenance pass over the store.
type Syncer struct {
	store    SyncStore
	tagger   *TagRuleEngine
	detector *DuplicateDetector
}

// NewSyncer creates a syncer bound to store.
func NewSyncer(store SyncStore) *Syncer {
	return &Syncer{
		store:    store,
		tagger:   NewTagRuleEngine(),
		detector: NewDuplicateDetector(),
	}
}

// Sync applies tag rules, then refreshes duplicate statuses. Per-record
// problems are logged, returned as diagnostics and skipped. A store failure
// aborts the sync and no counts are returned. Once started, a sync runs to
// completion regardless of ctx cancellation.
func (s *Syncer) Sync(ctx context.Context) (model.SyncResult, error) {
	ctx = context.WithoutCancel(ctx)

	slog.Info("Starting sync")

	rules, err := s.store.ListTagRules(ctx)
	if err != nil {
		return model.SyncResult{}, fmt.Errorf("failed to load tag rules: %w", err)
	}

	tagReport, err := s.tagger.ApplyRules(ctx, s.store, rules)
	if err != nil {
		return model.SyncResult{}, fmt.Errorf("tag rule pass failed: %w", err)
	}

	dupReport, err := s.detector.RefreshStatuses(ctx, s.store)
	if err != nil {
		return model.SyncResult{}, fmt.Errorf("duplicate pass failed: %w", err)
	}

	result := model.SyncResult{
		RulesApplied:        tagReport.Count,
		DuplicatesRefreshed: dupReport.Count,
	}

	for _, d := range append(tagReport.Diagnostics, dupReport.Diagnostics...) {
		slog.Warn("Sync skipped record",
			"kind", d.Kind.String(),
			"operation_id", d.OperationID,
			"rule_id", d.RuleID,
			"error", d.Err)
		result.Diagnostics = append(result.Diagnostics, d.String())
	}

	slog.Info("Sync complete",
		"rules_applied", result.RulesApplied,
		"duplicates_refreshed", result.DuplicatesRefreshed,
		"diagnostics", len(result.Diagnostics))

	return result, nil
}
